package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/keyreg/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// UserCreator inserts a user atomically: either the row is committed or
// nothing is written.
type UserCreator interface {
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
}

type UsersHandler struct {
	users   UserCreator
	log     *slog.Logger
	timeout time.Duration
}

func NewUsersHandler(users UserCreator, log *slog.Logger, timeout time.Duration) *UsersHandler {
	return &UsersHandler{users: users, log: log, timeout: timeout}
}

// CreateUser answers POST /users.
func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// same rule as the lookup endpoint
	if err := user.ValidateEmail(req.Email); err != nil {
		RespondInvalidEmail(ctx)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.users.Create(cctx, req)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already registered.")
			return
		}

		respondStoreFailure(ctx, h.log, "users.create", err, "Could not create user")
		return
	}

	// success mirrors the stored active flag
	if !u.Active {
		h.log.WarnContext(ctx.Request.Context(), "user created inactive",
			"user_id", u.ID,
			"request_id", requestIDFrom(ctx),
		)
	}

	ctx.JSON(http.StatusOK, user.CreateUserResponse{Success: u.Active})
}
