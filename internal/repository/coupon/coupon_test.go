package coupon

import (
	"context"
	"errors"
	"os"
	"testing"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE coupons`); err != nil {
		t.Fatalf("truncate coupons: %v", err)
	}

	repo := NewPostgres(pool)
	if err := repo.Upsert(ctx, domain.Coupon{Code: "save10", Type: domain.CouponPercentage, Discount: 10, MinOrder: 50}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByCode(ctx, " SAVE10 ")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.Code != "SAVE10" || got.Type != domain.CouponPercentage || got.Discount != 10 || got.MinOrder != 50 {
		t.Fatalf("unexpected coupon %+v", got)
	}

	if _, err := repo.GetByCode(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
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
