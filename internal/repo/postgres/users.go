package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/keyreg/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation       = "23505"
	emailUniqueConstraint = "users_email_key"
)

type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

func (r *UsersRepo) GetPublicKeyByEmail(ctx context.Context, email string) (string, error) {
	var key string

	err := r.pool.QueryRow(ctx,
		`SELECT aggregated_public_key FROM users WHERE email = $1`,
		email,
	).Scan(&key)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", user.ErrNotFound
		}

		return "", storeErr("users.get_public_key_by_email", err)
	}

	return key, nil
}

func (r *UsersRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("users.begin_tx", err)
	}

	return tx, nil
}

// CreateTx inserts inside the caller's transaction. id and active come back
// from the store defaults.
func (r *UsersRepo) CreateTx(ctx context.Context, tx pgx.Tx, req user.CreateUserRequest) (user.User, error) {
	var u user.User

	err := tx.QueryRow(ctx, `
		INSERT INTO users (email, private_key, aggregated_public_key)
		VALUES ($1, $2, $3)
		RETURNING id::text, email, active, private_key, aggregated_public_key
	`, req.Email, req.PrivateKey, req.AggregatedPublicKey).Scan(
		&u.ID,
		&u.Email,
		&u.Active,
		&u.PrivateKey,
		&u.AggregatedPublicKey,
	)

	if err != nil {
		if isEmailTaken(err) {
			return user.User{}, fmt.Errorf("users.create_tx: %w", user.ErrEmailTaken)
		}

		return user.User{}, storeErr("users.create_tx", err)
	}

	return u, nil
}

// Create runs the insert in its own transaction; nothing is visible unless
// the commit succeeds.
func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (u user.User, err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	u, err = r.CreateTx(ctx, tx, req)
	if err != nil {
		return user.User{}, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return user.User{}, storeErr("users.commit", err)
	}

	return u, nil
}

func isEmailTaken(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == emailUniqueConstraint
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

func storeErr(op string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%s: %w: %w", op, user.ErrStoreTimeout, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
