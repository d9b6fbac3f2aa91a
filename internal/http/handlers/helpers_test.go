package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/geocoder89/keyreg/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUsersRepo satisfies both handler interfaces and counts store calls.
type fakeUsersRepo struct {
	lookupFn func(ctx context.Context, email string) (string, error)
	createFn func(ctx context.Context, req user.CreateUserRequest) (user.User, error)

	lookups atomic.Int32
	creates atomic.Int32
}

func (f *fakeUsersRepo) GetPublicKeyByEmail(ctx context.Context, email string) (string, error) {
	f.lookups.Add(1)

	if f.lookupFn != nil {
		return f.lookupFn(ctx, email)
	}

	return "", user.ErrNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	f.creates.Add(1)

	if f.createFn != nil {
		return f.createFn(ctx, req)
	}

	return user.User{ID: "id-1", Email: req.Email, Active: true}, nil
}

// small helper which mounts one handler per test
func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}
