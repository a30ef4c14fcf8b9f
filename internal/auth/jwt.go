package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserMismatch is returned when a claimed user id differs from the token subject.
	ErrUserMismatch = errors.New("user id does not match token")
	// ErrUserRequired is returned when no secret is configured and no user id was given.
	ErrUserRequired = errors.New("user id required")
)

// Verifier resolves the user behind a bearer token issued by the storefront backend.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for HS256 tokens. An empty secret disables
// verification: tokens are forwarded opaquely and callers must name the user.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether tokens are verified.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// UserID validates token and returns its subject.
func (v *Verifier) UserID(token string) (string, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	switch sub := claims["sub"].(type) {
	case string:
		if sub != "" {
			return sub, nil
		}
	case float64:
		return strconv.FormatInt(int64(sub), 10), nil
	}
	return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
}

// Resolve returns the user a sign-in belongs to. With verification enabled the
// token subject wins and a differing claimedUserID is rejected.
func (v *Verifier) Resolve(token, claimedUserID string) (string, error) {
	claimedUserID = strings.TrimSpace(claimedUserID)
	if !v.Enabled() {
		if claimedUserID == "" {
			return "", ErrUserRequired
		}
		return claimedUserID, nil
	}
	userID, err := v.UserID(token)
	if err != nil {
		return "", err
	}
	if claimedUserID != "" && claimedUserID != userID {
		return "", ErrUserMismatch
	}
	return userID, nil
}

// Issue signs a token for userID. It backs local development and tests; the
// storefront backend issues production tokens.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
