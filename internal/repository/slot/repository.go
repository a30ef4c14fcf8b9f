package slot

import "context"

// Repository is a durable key/value store holding serialized session state:
// cart lists and the bearer token. Get returns domain.ErrNotFound for an empty slot.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

const (
	// GuestCartKey holds the cart of an unauthenticated session.
	GuestCartKey = "empress_cart_guest"
	// TokenKey holds the bearer token used for remote calls.
	TokenKey = "token"

	userCartPrefix = "empress_cart_"
	guestUserID    = "guest"
)

// ReservedUserID reports whether userID would share the guest cart slot.
func ReservedUserID(userID string) bool {
	return userID == guestUserID
}

// CartKey returns the slot holding the cart of userID, or the guest slot when userID is empty.
func CartKey(userID string) string {
	if userID == "" {
		return GuestCartKey
	}
	return userCartPrefix + userID
}
