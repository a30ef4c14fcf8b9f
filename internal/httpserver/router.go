package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/service/cart"
	"empress-storefront/internal/service/checkout"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SessionService hands out the cart container of a browser session.
type SessionService interface {
	Issue(ctx context.Context) (string, error)
	Get(ctx context.Context, id string) (*cart.Container, error)
	SignIn(ctx context.Context, id, token, userID string) (*cart.Container, error)
	SignOut(ctx context.Context, id string) (*cart.Container, error)
	Token(ctx context.Context, id string) (string, error)
}

type CheckoutService interface {
	QuoteCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*checkout.Quote, error)
	PlaceOrder(ctx context.Context, c checkout.Cart, in checkout.OrderInput) (*domain.PlacedOrder, error)
}

// TokenVerifier resolves the user a sign-in token belongs to.
type TokenVerifier interface {
	Resolve(token, claimedUserID string) (string, error)
}

// Deps groups the services used by the handlers.
type Deps struct {
	Sessions    SessionService
	Checkout    CheckoutService
	Verifier    TokenVerifier
	CORSOrigins []string
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *log.Logger, store Pinger, deps Deps) (*gin.Engine, error) {
	if deps.Sessions == nil {
		return nil, errors.New("session service required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("token verifier required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", sessionHeader},
			ExposeHeaders:    []string{sessionHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(store))
	router.POST("/sessions", issueSessionHandler(deps.Sessions))

	scoped := router.Group("/", sessionMiddleware(deps.Sessions))
	scoped.POST("/session/login", loginHandler(deps.Sessions, deps.Verifier))
	scoped.POST("/session/logout", logoutHandler(deps.Sessions))

	scoped.GET("/cart", getCartHandler)
	scoped.DELETE("/cart", clearCartHandler)
	scoped.POST("/cart/items", addItemHandler)
	scoped.PATCH("/cart/items/:id", updateQuantityHandler)
	scoped.PATCH("/cart/items/:id/options", updateOptionsHandler)
	scoped.DELETE("/cart/items/:id", removeItemHandler)
	scoped.GET("/cart/lookup", lookupHandler)
	scoped.GET("/cart/count", countHandler)
	scoped.POST("/cart/sync", syncHandler)
	scoped.GET("/cart/history", historyHandler)

	if deps.Checkout != nil {
		checkoutGroup := scoped.Group("/checkout", sessionTokenMiddleware(deps.Sessions))
		checkoutGroup.POST("/coupon", couponHandler(deps.Checkout))
		checkoutGroup.POST("/orders", placeOrderHandler(deps.Checkout))
	}

	return router, nil
}
