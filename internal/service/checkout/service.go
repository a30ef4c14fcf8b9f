package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"empress-storefront/internal/domain"
	couponrepo "empress-storefront/internal/repository/coupon"
	"github.com/shopspring/decimal"
)

var (
	// ErrCouponNotFound is returned for unknown or inactive coupon codes.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponMinOrder is returned when the subtotal is below the coupon threshold.
	ErrCouponMinOrder = errors.New("order below coupon minimum")
	// ErrEmptyCart is returned when placing an order without items.
	ErrEmptyCart = errors.New("cart is empty")
)

type backend interface {
	ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.Coupon, error)
	PlaceOrder(ctx context.Context, order domain.Order) (*domain.PlacedOrder, error)
}

// Cart is the part of the cart container checkout reads and clears.
type Cart interface {
	UserID() string
	Items() []domain.CartItem
	TotalPrice() decimal.Decimal
	ClearCart(ctx context.Context)
}

// Service validates coupons and places orders for a session cart.
type Service struct {
	remote  backend
	coupons couponrepo.Repository
	logger  *log.Logger
}

// New creates a Service. coupons may be nil to disable the local fallback.
func New(remote backend, coupons couponrepo.Repository, logger *log.Logger) *Service {
	return &Service{remote: remote, coupons: coupons, logger: logger}
}

// Quote is a coupon applied to a subtotal.
type Quote struct {
	Coupon   domain.Coupon   `json:"coupon"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ApplyCoupon returns the discount coupon grants on subtotal, rounded to cents.
// Percentage coupons take discount percent of the subtotal; fixed coupons never
// exceed it. Below the minimum order the discount is zero.
func ApplyCoupon(subtotal decimal.Decimal, c domain.Coupon) decimal.Decimal {
	if subtotal.LessThan(decimal.NewFromFloat(c.MinOrder)) {
		return decimal.Zero
	}
	amount := decimal.NewFromFloat(c.Discount)
	var discount decimal.Decimal
	switch c.Type {
	case domain.CouponPercentage:
		discount = subtotal.Mul(amount).Div(decimal.NewFromInt(100))
	case domain.CouponFixed:
		discount = decimal.Min(amount, subtotal)
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(2)
}

// QuoteCoupon validates code against the remote API and falls back to the local
// coupon catalogue when the API cannot be reached.
func (s *Service) QuoteCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*Quote, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCouponNotFound
	}
	c, err := s.lookup(ctx, code, subtotal)
	if err != nil {
		return nil, err
	}
	if subtotal.LessThan(decimal.NewFromFloat(c.MinOrder)) {
		return nil, fmt.Errorf("%w: minimum is %.2f", ErrCouponMinOrder, c.MinOrder)
	}
	discount := ApplyCoupon(subtotal, *c)
	return &Quote{
		Coupon:   *c,
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}, nil
}

func (s *Service) lookup(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.Coupon, error) {
	if s.remote != nil {
		c, err := s.remote.ValidateCoupon(ctx, code, subtotal)
		switch {
		case err == nil:
			return c, nil
		case errors.Is(err, domain.ErrNotFound):
			return nil, ErrCouponNotFound
		}
		s.logger.Printf("validate coupon %s remotely, falling back to local catalogue: %v", code, err)
	}
	if s.coupons == nil {
		return nil, ErrCouponNotFound
	}
	c, err := s.coupons.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup coupon: %w", err)
	}
	return c, nil
}

// OrderInput is the checkout form.
type OrderInput struct {
	Shipping      domain.ShippingAddress
	PaymentMethod string
	CouponCode    string
}

// PlaceOrder builds an order from the cart, submits it and clears the cart
// once the backend accepted it.
func (s *Service) PlaceOrder(ctx context.Context, cart Cart, in OrderInput) (*domain.PlacedOrder, error) {
	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	subtotal := cart.TotalPrice()

	order := domain.Order{
		Items:         make([]domain.OrderLine, 0, len(items)),
		Shipping:      in.Shipping,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      subtotal.Round(2).InexactFloat64(),
		Total:         subtotal.Round(2).InexactFloat64(),
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "card"
	}
	if userID := cart.UserID(); userID != "" {
		order.UserID = &userID
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Color:     item.SelectedColor,
			Size:      item.SelectedSize,
		})
	}

	if strings.TrimSpace(in.CouponCode) != "" {
		quote, err := s.QuoteCoupon(ctx, in.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		order.CouponCode = quote.Coupon.Code
		order.Discount = quote.Discount.InexactFloat64()
		order.Total = quote.Total.Round(2).InexactFloat64()
	}

	if s.remote == nil {
		return nil, errors.New("order api not configured")
	}
	placed, err := s.remote.PlaceOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	cart.ClearCart(ctx)
	s.logger.Printf("order %s placed with %d lines", placed.ID, len(order.Items))
	return placed, nil
}
