package slot

import (
	"context"
	"errors"
	"testing"

	"empress-storefront/internal/domain"
)

func TestCartKey(t *testing.T) {
	if got := CartKey(""); got != "empress_cart_guest" {
		t.Fatalf("expected guest key, got %s", got)
	}
	if got := CartKey("user123"); got != "empress_cart_user123" {
		t.Fatalf("expected user key, got %s", got)
	}
	if !ReservedUserID("guest") || CartKey("guest") != GuestCartKey {
		t.Fatalf("guest must be reserved since it shares the guest slot")
	}
	if ReservedUserID("user123") || ReservedUserID("") {
		t.Fatalf("unexpected reserved user id")
	}
}

func TestMemory_RoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	value := []byte("hello")
	if err := repo.Set(ctx, "k", value); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value[0] = 'j'

	got, err := repo.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("stored value was aliased: %s", got)
	}

	if err := repo.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Get(ctx, "k"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestScoped_SeparatesSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	a := Scoped(repo, "a")
	b := Scoped(repo, "b")

	if err := a.Set(ctx, GuestCartKey, []byte("A")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := b.Get(ctx, GuestCartKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected scope b to be empty, got %v", err)
	}
	got, err := repo.Get(ctx, "a:"+GuestCartKey)
	if err != nil || string(got) != "A" {
		t.Fatalf("expected prefixed key in base repo, got %q %v", got, err)
	}
}
