package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/geocoder89/keyreg/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo keeps users in a map keyed by email. It gives the same
// guarantees as the postgres store: unique emails, all-or-nothing inserts.
type UsersRepo struct {
	mu            sync.RWMutex
	items         map[string]user.User
	defaultActive bool
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:         make(map[string]user.User),
		defaultActive: true,
	}
}

// WithDefaultActive changes the active flag given to new users, mirroring a
// different column default in the store.
func (r *UsersRepo) WithDefaultActive(active bool) *UsersRepo {
	r.mu.Lock()
	r.defaultActive = active
	r.mu.Unlock()

	return r
}

func (r *UsersRepo) GetPublicKeyByEmail(ctx context.Context, email string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", ctxErr("users.get_public_key_by_email", err)
	}

	r.mu.RLock()
	u, ok := r.items[email]
	r.mu.RUnlock()

	if !ok {
		return "", user.ErrNotFound
	}

	return u.AggregatedPublicKey, nil
}

func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, ctxErr("users.create", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.items[req.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	u := user.User{
		ID:                  uuid.NewString(),
		Email:               req.Email,
		Active:              r.defaultActive,
		PrivateKey:          req.PrivateKey,
		AggregatedPublicKey: req.AggregatedPublicKey,
	}

	r.items[u.Email] = u

	return u, nil
}

func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// ctxErr reports an expired deadline as a store timeout, like the postgres
// repo does for a pool wait that runs out.
func ctxErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, user.ErrStoreTimeout, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
