package coupon

import (
	"context"
	"errors"
	"strings"

	"empress-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// GetByCode looks up an active coupon; codes are case-insensitive.
func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `
SELECT code, type, discount::float8, min_order::float8
FROM coupons
WHERE code = $1 AND active
`
	var c domain.Coupon
	var kind string
	err := r.pool.QueryRow(ctx, q, normalizeCode(code)).Scan(&c.Code, &kind, &c.Discount, &c.MinOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.Type = domain.CouponType(kind)
	return &c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Coupon) error {
	const q = `
INSERT INTO coupons (code, type, discount, min_order, active)
VALUES ($1, $2, $3, $4, TRUE)
ON CONFLICT (code) DO UPDATE
SET type = EXCLUDED.type,
    discount = EXCLUDED.discount,
    min_order = EXCLUDED.min_order,
    active = TRUE
`
	_, err := r.pool.Exec(ctx, q, normalizeCode(c.Code), string(c.Type), c.Discount, c.MinOrder)
	return err
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
