package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"empress-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type stubBackend struct {
	coupon    *domain.Coupon
	couponErr error
	placed    *domain.PlacedOrder
	placeErr  error
	orders    []domain.Order
}

func (s *stubBackend) ValidateCoupon(_ context.Context, _ string, _ decimal.Decimal) (*domain.Coupon, error) {
	return s.coupon, s.couponErr
}

func (s *stubBackend) PlaceOrder(_ context.Context, order domain.Order) (*domain.PlacedOrder, error) {
	s.orders = append(s.orders, order)
	return s.placed, s.placeErr
}

type stubCoupons struct {
	byCode map[string]domain.Coupon
	err    error
}

func (s *stubCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (s *stubCoupons) Upsert(_ context.Context, c domain.Coupon) error {
	s.byCode[c.Code] = c
	return nil
}

type stubCart struct {
	userID  string
	items   []domain.CartItem
	cleared bool
}

func (c *stubCart) UserID() string            { return c.userID }
func (c *stubCart) Items() []domain.CartItem  { return c.items }
func (c *stubCart) ClearCart(context.Context) { c.cleared = true; c.items = nil }
func (c *stubCart) TotalPrice() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyCoupon(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		coupon   domain.Coupon
		want     string
	}{
		{"percentage", "120.50", domain.Coupon{Type: domain.CouponPercentage, Discount: 10, MinOrder: 50}, "12.05"},
		{"percentage rounds to cents", "33.33", domain.Coupon{Type: domain.CouponPercentage, Discount: 15}, "5"},
		{"fixed", "80", domain.Coupon{Type: domain.CouponFixed, Discount: 20}, "20"},
		{"fixed capped at subtotal", "15", domain.Coupon{Type: domain.CouponFixed, Discount: 20}, "15"},
		{"below minimum", "49.99", domain.Coupon{Type: domain.CouponPercentage, Discount: 10, MinOrder: 50}, "0"},
		{"at minimum", "50", domain.Coupon{Type: domain.CouponFixed, Discount: 5, MinOrder: 50}, "5"},
		{"unknown type", "100", domain.Coupon{Type: "bogus", Discount: 5}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyCoupon(dec(tt.subtotal), tt.coupon)
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("ApplyCoupon(%s) = %s, want %s", tt.subtotal, got, tt.want)
			}
		})
	}
}

func TestQuoteCoupon_Remote(t *testing.T) {
	remote := &stubBackend{coupon: &domain.Coupon{Code: "SAVE10", Type: domain.CouponPercentage, Discount: 10}}
	svc := New(remote, nil, log.New(io.Discard, "", 0))

	quote, err := svc.QuoteCoupon(context.Background(), " save10 ", dec("200"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Discount.Equal(dec("20")) || !quote.Total.Equal(dec("180")) {
		t.Fatalf("unexpected quote %+v", quote)
	}
}

func TestQuoteCoupon_RemoteNotFoundDoesNotFallBack(t *testing.T) {
	remote := &stubBackend{couponErr: domain.ErrNotFound}
	coupons := &stubCoupons{byCode: map[string]domain.Coupon{"X": {Code: "X", Type: domain.CouponFixed, Discount: 1}}}
	svc := New(remote, coupons, log.New(io.Discard, "", 0))

	if _, err := svc.QuoteCoupon(context.Background(), "x", dec("10")); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestQuoteCoupon_FallsBackToCatalogue(t *testing.T) {
	remote := &stubBackend{couponErr: errors.New("connection refused")}
	coupons := &stubCoupons{byCode: map[string]domain.Coupon{
		"WELCOME5": {Code: "WELCOME5", Type: domain.CouponFixed, Discount: 5, MinOrder: 30},
	}}
	svc := New(remote, coupons, log.New(io.Discard, "", 0))

	quote, err := svc.QuoteCoupon(context.Background(), "welcome5", dec("40"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Discount.Equal(dec("5")) {
		t.Fatalf("unexpected discount %s", quote.Discount)
	}

	if _, err := svc.QuoteCoupon(context.Background(), "welcome5", dec("20")); !errors.Is(err, ErrCouponMinOrder) {
		t.Fatalf("expected ErrCouponMinOrder, got %v", err)
	}
	if _, err := svc.QuoteCoupon(context.Background(), "nope", dec("20")); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestPlaceOrder_ClearsCartOnSuccess(t *testing.T) {
	remote := &stubBackend{
		coupon: &domain.Coupon{Code: "SAVE10", Type: domain.CouponPercentage, Discount: 10},
		placed: &domain.PlacedOrder{ID: "o-1"},
	}
	svc := New(remote, nil, log.New(io.Discard, "", 0))
	cart := &stubCart{userID: "u1", items: []domain.CartItem{
		{ProductID: "p1", Name: "Dress", Price: 50, Quantity: 2, SelectedColor: "red", SelectedSize: "M"},
	}}

	placed, err := svc.PlaceOrder(context.Background(), cart, OrderInput{CouponCode: "save10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if placed.ID != "o-1" || !cart.cleared {
		t.Fatalf("expected placed order and cleared cart, got %+v cleared=%t", placed, cart.cleared)
	}
	order := remote.orders[0]
	if order.UserID == nil || *order.UserID != "u1" {
		t.Fatalf("expected user id on order, got %+v", order.UserID)
	}
	if order.Subtotal != 100 || order.Discount != 10 || order.Total != 90 || order.PaymentMethod != "card" {
		t.Fatalf("unexpected order amounts %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].Color != "red" || order.Items[0].Size != "M" {
		t.Fatalf("unexpected order lines %+v", order.Items)
	}
}

func TestPlaceOrder_KeepsCartOnFailure(t *testing.T) {
	remote := &stubBackend{placeErr: errors.New("payment declined")}
	svc := New(remote, nil, log.New(io.Discard, "", 0))
	cart := &stubCart{items: []domain.CartItem{{ProductID: "p1", Price: 5, Quantity: 1}}}

	if _, err := svc.PlaceOrder(context.Background(), cart, OrderInput{}); err == nil {
		t.Fatalf("expected error")
	}
	if cart.cleared {
		t.Fatalf("cart must survive a failed order")
	}
	if remote.orders[0].UserID != nil {
		t.Fatalf("guest order must not carry a user id")
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	svc := New(&stubBackend{}, nil, log.New(io.Discard, "", 0))
	if _, err := svc.PlaceOrder(context.Background(), &stubCart{}, OrderInput{}); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}
