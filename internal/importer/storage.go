package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/slot"
	"empress-storefront/internal/service/cart"
)

const cartKeyPrefix = "empress_cart_"

// StorageImporter copies a browser localStorage export into the slot namespace
// of one session. Only cart slots and the token are imported.
type StorageImporter struct {
	slots slot.Repository
}

// NewStorageImporter writes into slots, which is normally a session-scoped view.
func NewStorageImporter(slots slot.Repository) *StorageImporter {
	return &StorageImporter{slots: slots}
}

// Run reads a JSON object of localStorage entries and returns the imported keys.
// Browsers export values as strings, so a cart may be a JSON array or a string
// holding one.
func (i *StorageImporter) Run(ctx context.Context, r io.Reader) ([]string, error) {
	var entries map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var imported []string
	for _, key := range keys {
		raw := entries[key]
		switch {
		case key == slot.TokenKey:
			var token string
			if err := json.Unmarshal(raw, &token); err != nil {
				return imported, fmt.Errorf("token: %w", err)
			}
			if err := i.slots.Set(ctx, key, []byte(strings.TrimSpace(token))); err != nil {
				return imported, fmt.Errorf("write %s: %w", key, err)
			}
		case strings.HasPrefix(key, cartKeyPrefix):
			items, err := decodeCart(raw)
			if err != nil {
				return imported, fmt.Errorf("%s: %w", key, err)
			}
			payload, err := json.Marshal(items)
			if err != nil {
				return imported, fmt.Errorf("encode %s: %w", key, err)
			}
			if err := i.slots.Set(ctx, key, payload); err != nil {
				return imported, fmt.Errorf("write %s: %w", key, err)
			}
		default:
			continue
		}
		imported = append(imported, key)
	}
	return imported, nil
}

// decodeCart accepts an array or a string-encoded array, rebuilds missing
// composite keys and drops duplicate lines.
func decodeCart(raw json.RawMessage) ([]domain.CartItem, error) {
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	valid := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		item.SelectedColor = domain.OptionOrDefault(item.SelectedColor)
		item.SelectedSize = domain.OptionOrDefault(item.SelectedSize)
		if item.CartItemID == "" {
			item.CartItemID = domain.CartItemID(item.ProductID, item.SelectedColor, item.SelectedSize)
		}
		valid = append(valid, item)
	}
	return cart.Merge(valid, nil), nil
}
