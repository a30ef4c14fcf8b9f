package seed

import (
	"context"
	"fmt"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/coupon"
)

// DemoCoupons back the local coupon fallback during manual testing.
var DemoCoupons = []domain.Coupon{
	{Code: "WELCOME10", Type: domain.CouponPercentage, Discount: 10, MinOrder: 0},
	{Code: "SAVE20", Type: domain.CouponPercentage, Discount: 20, MinOrder: 100},
	{Code: "FLAT15", Type: domain.CouponFixed, Discount: 15, MinOrder: 75},
}

// Apply upserts the demo coupons. It is idempotent.
func Apply(ctx context.Context, coupons coupon.Repository) error {
	for _, c := range DemoCoupons {
		if err := coupons.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}
	return nil
}
