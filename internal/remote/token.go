package remote

import (
	"context"
	"errors"
	"strings"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/slot"
)

type storedToken struct {
	slots slot.Repository
}

// StoredToken reads the bearer token from the token slot at call time.
func StoredToken(slots slot.Repository) TokenSource {
	return storedToken{slots: slots}
}

func (s storedToken) Token(ctx context.Context) (string, error) {
	raw, err := s.slots.Get(ctx, slot.TokenKey)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

type ctxTokenKey struct{}

// ContextWithToken attaches a bearer token to ctx for ContextToken.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, token)
}

type contextToken struct{}

// ContextToken reads the bearer token attached by ContextWithToken. It serves
// clients shared across sessions, such as checkout.
func ContextToken() TokenSource {
	return contextToken{}
}

func (contextToken) Token(ctx context.Context) (string, error) {
	token, _ := ctx.Value(ctxTokenKey{}).(string)
	return token, nil
}
