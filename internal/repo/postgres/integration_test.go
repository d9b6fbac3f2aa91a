//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/keyreg/internal/db"
	"github.com/geocoder89/keyreg/internal/domain/user"
	repo "github.com/geocoder89/keyreg/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	email text NOT NULL,
	active boolean NOT NULL DEFAULT true,
	private_key text NOT NULL,
	aggregated_public_key text NOT NULL,
	CONSTRAINT users_email_key UNIQUE (email)
);`

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "keyreg_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/keyreg_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newPool(t *testing.T, maxConns int32) *pgxpool.Pool {
	t.Helper()

	pool, err := db.NewPool(context.Background(), dsn, maxConns, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), schema)
	require.NoError(t, err)

	_, err = pool.Exec(context.Background(), `TRUNCATE users`)
	require.NoError(t, err)

	return pool
}

func countByEmail(t *testing.T, pool *pgxpool.Pool, email string) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&n)
	require.NoError(t, err)

	return n
}

func TestUsersRepo_CreateThenLookup(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t, 5)
	users := repo.NewUsersRepo(pool)

	u, err := users.Create(ctx, user.CreateUserRequest{
		Email:               "a@example.com",
		PrivateKey:          "pk123",
		AggregatedPublicKey: "apk456",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.True(t, u.Active)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, "pk123", u.PrivateKey)

	key, err := users.GetPublicKeyByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "apk456", key)

	_, err = users.GetPublicKeyByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t, 5)
	users := repo.NewUsersRepo(pool)

	req := user.CreateUserRequest{Email: "dup@example.com", PrivateKey: "pk", AggregatedPublicKey: "apk-1"}

	_, err := users.Create(ctx, req)
	require.NoError(t, err)

	req.AggregatedPublicKey = "apk-2"
	_, err = users.Create(ctx, req)
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	assert.Equal(t, 1, countByEmail(t, pool, "dup@example.com"))

	key, err := users.GetPublicKeyByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, "apk-1", key)
}

func TestUsersRepo_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t, 5)
	users := repo.NewUsersRepo(pool)

	const workers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			_, err := users.Create(ctx, user.CreateUserRequest{
				Email:               "race@example.com",
				PrivateKey:          fmt.Sprintf("pk-%d", i),
				AggregatedPublicKey: fmt.Sprintf("apk-%d", i),
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, user.ErrEmailTaken):
				conflict++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflict)
	assert.Equal(t, 1, countByEmail(t, pool, "race@example.com"))
}

func TestUsersRepo_RolledBackInsertIsInvisible(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t, 5)
	users := repo.NewUsersRepo(pool)

	tx, err := users.BeginTx(ctx)
	require.NoError(t, err)

	_, err = users.CreateTx(ctx, tx, user.CreateUserRequest{
		Email:               "ghost@example.com",
		PrivateKey:          "pk",
		AggregatedPublicKey: "apk",
	})
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(ctx))

	_, err = users.GetPublicKeyByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_ExhaustedPoolTimesOut(t *testing.T) {
	pool := newPool(t, 1)
	users := repo.NewUsersRepo(pool)

	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err = users.GetPublicKeyByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, user.ErrStoreTimeout)

	_, err = users.Create(ctx, user.CreateUserRequest{Email: "b@example.com", PrivateKey: "pk", AggregatedPublicKey: "apk"})
	assert.ErrorIs(t, err, user.ErrStoreTimeout)
}
