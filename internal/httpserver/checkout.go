package httpserver

import (
	"errors"
	"net/http"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

type couponResponse struct {
	Code     string            `json:"code"`
	Type     domain.CouponType `json:"type"`
	Subtotal float64           `json:"subtotal"`
	Discount float64           `json:"discount"`
	Total    float64           `json:"total"`
}

type shippingRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type orderRequest struct {
	Shipping      shippingRequest `json:"shipping"`
	PaymentMethod string          `json:"paymentMethod"`
	CouponCode    string          `json:"couponCode"`
}

func couponHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
			return
		}
		quote, err := svc.QuoteCoupon(c.Request.Context(), req.Code, cartFrom(c).TotalPrice())
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, couponResponse{
			Code:     quote.Coupon.Code,
			Type:     quote.Coupon.Type,
			Subtotal: quote.Subtotal.Round(2).InexactFloat64(),
			Discount: quote.Discount.InexactFloat64(),
			Total:    quote.Total.Round(2).InexactFloat64(),
		})
	}
}

func placeOrderHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order: " + err.Error()})
			return
		}
		placed, err := svc.PlaceOrder(c.Request.Context(), cartFrom(c), checkout.OrderInput{
			Shipping: domain.ShippingAddress{
				FullName:   req.Shipping.FullName,
				Email:      req.Shipping.Email,
				Phone:      req.Shipping.Phone,
				Address:    req.Shipping.Address,
				City:       req.Shipping.City,
				PostalCode: req.Shipping.PostalCode,
				Country:    req.Shipping.Country,
			},
			PaymentMethod: req.PaymentMethod,
			CouponCode:    req.CouponCode,
		})
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusCreated, placed)
	}
}

func writeCheckoutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrCouponNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid coupon code"})
	case errors.Is(err, checkout.ErrCouponMinOrder):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "checkout failed"})
	}
}
