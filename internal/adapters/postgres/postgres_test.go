package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"cbrates/internal/adapters/postgres"
	"cbrates/internal/domain"
	"cbrates/internal/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgSetupOnce sync.Once

	pgContainer *tcpg.PostgresContainer
	pgConnStr   string
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pgSetupOnce.Do(func() {
		startPostgres(t)
	})
	require.NotEmpty(t, pgConnStr, "postgres container is not running")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, resetDatabase(ctx, pool))

	return pool
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("postgres"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("postgres"),
	)
	require.NoError(t, err)
	pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	}, 15*time.Second, 500*time.Millisecond)

	require.NoError(t, db.Migrate(ctx, dsn))
	// a second run must be a no-op
	require.NoError(t, db.Migrate(ctx, dsn))

	pgConnStr = dsn
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `truncate table rates restart identity`)
	return err
}

var (
	usd = domain.RateFields{Code: "USD", Name: "US Dollar", Rate: 90.0}
	eur = domain.RateFields{Code: "EUR", Name: "Euro", Rate: 100.0}
)

func TestRateStore_CreateAndFind(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	created, err := store.Create(ctx, usd)
	require.NoError(t, err)
	require.Positive(t, created.ID)
	require.Equal(t, usd, created.Fields())
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	byCode, err := store.FindByCode(ctx, "USD")
	require.NoError(t, err)
	require.Equal(t, created.ID, byCode.ID)
	require.Equal(t, usd, byCode.Fields())

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "USD", byID.Code)
}

func TestRateStore_FindByCode_IsCaseSensitive(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	_, err := store.Create(ctx, usd)
	require.NoError(t, err)

	_, err = store.FindByCode(ctx, "usd")
	require.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestRateStore_NotFound(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	_, err := store.FindByCode(ctx, "XYZ")
	require.ErrorIs(t, err, domain.ErrRateNotFound)

	_, err = store.FindByID(ctx, 42)
	require.ErrorIs(t, err, domain.ErrRateNotFound)

	_, err = store.Update(ctx, 42, usd)
	require.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestRateStore_Create_DuplicateCode(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	_, err := store.Create(ctx, usd)
	require.NoError(t, err)

	_, err = store.Create(ctx, usd)
	require.ErrorIs(t, err, domain.ErrRateExists)
}

func TestRateStore_Update_KeepsIdentityAndCreatedAt(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	created, err := store.Create(ctx, eur)
	require.NoError(t, err)

	changed := domain.RateFields{Code: "EUR", Name: "Euro", Rate: 103.0}
	updated, err := store.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	require.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	require.Equal(t, changed, updated.Fields())

	got, err := store.FindByCode(ctx, "EUR")
	require.NoError(t, err)
	require.InDelta(t, 103.0, got.Rate, 1e-9)
}

func TestRateStore_FindAll(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	_, err = store.Create(ctx, usd)
	require.NoError(t, err)
	_, err = store.Create(ctx, eur)
	require.NoError(t, err)

	all, err = store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "USD", all[0].Code)
	require.Equal(t, "EUR", all[1].Code)
}

func TestRateStore_DeleteByID_IsIdempotent(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	ctx := context.Background()

	created, err := store.Create(ctx, usd)
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, created.ID))
	require.NoError(t, store.DeleteByID(ctx, created.ID))

	_, err = store.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrRateNotFound)
}

func TestRateStore_ClosedPool_ReturnsStoreUnavailable(t *testing.T) {
	pool := setupPostgres(t)
	store := postgres.NewRateStore(pool)
	pool.Close()

	_, err := store.FindAll(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = store.FindByCode(context.Background(), "USD")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
