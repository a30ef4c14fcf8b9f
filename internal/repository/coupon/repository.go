package coupon

import (
	"context"

	"empress-storefront/internal/domain"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Upsert(ctx context.Context, c domain.Coupon) error
}
