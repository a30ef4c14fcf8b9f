package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"empress-storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("remote api unavailable")

// StatusError carries an unexpected HTTP status from the remote API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote api status %d: %s", e.Code, e.Body)
}

// TokenSource yields the bearer token for a call. An empty token sends no header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the storefront REST backend. Copies made by WithTokenSource
// share the HTTP client and circuit breaker.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	tokens  TokenSource
}

// New builds a Client. A nil httpClient uses a client with a 15s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "remote-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, domain.ErrNotFound) {
				return true
			}
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError
		},
	})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		breaker: breaker,
	}
}

// WithTokenSource returns a copy of c that authenticates with ts.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	clone := *c
	clone.tokens = ts
	return &clone
}

// Reachable reports whether calls are currently let through the breaker.
func (c *Client) Reachable() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

type cartPayload struct {
	Items []domain.CartItem `json:"items"`
}

// GetCart fetches the stored cart of userID. domain.ErrNotFound means no cart exists yet.
func (c *Client) GetCart(ctx context.Context, userID string) ([]domain.CartItem, error) {
	var out cartPayload
	if err := c.do(ctx, http.MethodGet, cartPath(userID), nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// PutCart replaces the stored cart of userID with items.
func (c *Client) PutCart(ctx context.Context, userID string, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	return c.do(ctx, http.MethodPut, cartPath(userID), cartPayload{Items: items}, nil)
}

// History lists previous cart snapshots of userID.
func (c *Client) History(ctx context.Context, userID string) ([]domain.CartSnapshot, error) {
	var out []domain.CartSnapshot
	if err := c.do(ctx, http.MethodGet, cartPath(userID)+"/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type couponRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal"`
}

// ValidateCoupon asks the backend for the coupon rule behind code.
func (c *Client) ValidateCoupon(ctx context.Context, code string, subtotal decimal.Decimal) (*domain.Coupon, error) {
	var out domain.Coupon
	if err := c.do(ctx, http.MethodPost, "/api/coupons/validate", couponRequest{Code: code, Subtotal: subtotal.InexactFloat64()}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceOrder submits an order.
func (c *Client) PlaceOrder(ctx context.Context, order domain.Order) (*domain.PlacedOrder, error) {
	var out domain.PlacedOrder
	if err := c.do(ctx, http.MethodPost, "/api/orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	_, err = c.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return struct{}{}, domain.ErrNotFound
		}
		if resp.StatusCode >= http.StatusBadRequest {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return struct{}{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
		}
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return struct{}{}, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, fmt.Errorf("decode response: %w", err)
		}
		return struct{}{}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	return c.tokens.Token(ctx)
}

func cartPath(userID string) string {
	return "/api/cart/" + url.PathEscape(userID)
}
