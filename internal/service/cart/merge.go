package cart

import "empress-storefront/internal/domain"

// Merge returns authoritative followed by every supplementary item whose
// CartItemID is not already present. Colliding supplementary items are dropped
// whole; no field of theirs survives.
func Merge(authoritative, supplementary []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(authoritative)+len(supplementary))
	seen := make(map[string]struct{}, len(authoritative)+len(supplementary))
	for _, item := range authoritative {
		if _, dup := seen[item.CartItemID]; dup {
			continue
		}
		seen[item.CartItemID] = struct{}{}
		out = append(out, item)
	}
	for _, item := range supplementary {
		if _, dup := seen[item.CartItemID]; dup {
			continue
		}
		seen[item.CartItemID] = struct{}{}
		out = append(out, item)
	}
	return out
}

func withOwner(items []domain.CartItem, userID string) []domain.CartItem {
	for i := range items {
		owner := userID
		items[i].UserID = &owner
	}
	return items
}

func indexOf(items []domain.CartItem, cartItemID string) int {
	for i := range items {
		if items[i].CartItemID == cartItemID {
			return i
		}
	}
	return -1
}

func cloneItems(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return []domain.CartItem{}
	}
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out
}
