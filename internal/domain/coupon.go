package domain

// CouponType selects how a coupon discount is computed.
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

// Coupon is a checkout discount rule. It lives only for the checkout session.
type Coupon struct {
	Code     string     `json:"code"`
	Type     CouponType `json:"type"`
	Discount float64    `json:"discount"`
	MinOrder float64    `json:"minOrder"`
}
