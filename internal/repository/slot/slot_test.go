package slot

import (
	"context"
	"errors"
	"os"
	"testing"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE storage_slots`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	repo := NewPostgres(pool)
	if _, err := repo.Get(ctx, GuestCartKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Set(ctx, GuestCartKey, []byte(`[1]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := repo.Set(ctx, GuestCartKey, []byte(`[2]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := repo.Get(ctx, GuestCartKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[2]` {
		t.Fatalf("expected overwritten value, got %s", got)
	}
	if err := repo.Delete(ctx, GuestCartKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, GuestCartKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}
