package seed

import (
	"context"
	"errors"
	"testing"

	"empress-storefront/internal/domain"
)

type stubCoupons struct {
	upserted []string
	err      error
}

func (s *stubCoupons) GetByCode(context.Context, string) (*domain.Coupon, error) {
	return nil, domain.ErrNotFound
}

func (s *stubCoupons) Upsert(_ context.Context, c domain.Coupon) error {
	if s.err != nil {
		return s.err
	}
	s.upserted = append(s.upserted, c.Code)
	return nil
}

func TestApply(t *testing.T) {
	repo := &stubCoupons{}
	if err := Apply(context.Background(), repo); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(repo.upserted) != len(DemoCoupons) {
		t.Fatalf("expected %d coupons, got %v", len(DemoCoupons), repo.upserted)
	}

	if err := Apply(context.Background(), &stubCoupons{err: errors.New("boom")}); err == nil {
		t.Fatalf("expected error")
	}
}
