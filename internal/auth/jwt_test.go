package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("user123", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := v.UserID("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != "user123" {
		t.Fatalf("expected user123, got %q", got)
	}
}

func TestVerifier_NumericSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 42,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := NewVerifier("secret").UserID(token)
	if err != nil || got != "42" {
		t.Fatalf("expected 42, got %q err=%v", got, err)
	}
}

func TestVerifier_Rejects(t *testing.T) {
	other, _ := NewVerifier("other").Issue("u", time.Hour)
	expired, _ := NewVerifier("secret").Issue("u", -time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	v := NewVerifier("secret")
	for name, token := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"alg none":     none,
		"garbage":      "not-a-token",
	} {
		if _, err := v.UserID(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestResolve(t *testing.T) {
	v := NewVerifier("secret")
	token, _ := v.Issue("u1", time.Hour)

	if got, err := v.Resolve(token, ""); err != nil || got != "u1" {
		t.Fatalf("expected u1, got %q err=%v", got, err)
	}
	if _, err := v.Resolve(token, "u2"); !errors.Is(err, ErrUserMismatch) {
		t.Fatalf("expected ErrUserMismatch, got %v", err)
	}

	opaque := NewVerifier("")
	if got, err := opaque.Resolve("anything", "u9"); err != nil || got != "u9" {
		t.Fatalf("expected u9, got %q err=%v", got, err)
	}
	if _, err := opaque.Resolve("anything", ""); !errors.Is(err, ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
}
