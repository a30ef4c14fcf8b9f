package cart

import (
	"context"
	"encoding/json"
	"errors"

	"empress-storefront/internal/domain"
)

// readSlot returns the cart stored under key. ok is false when the store could
// not be read; an empty or undecodable slot is an empty cart.
func (c *Container) readSlot(ctx context.Context, key string) ([]domain.CartItem, bool) {
	raw, err := c.slots.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.CartItem{}, true
	}
	if err != nil {
		c.logger.Printf("read cart slot %s: %v", key, err)
		c.recordErr(err)
		return []domain.CartItem{}, false
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Printf("decode cart slot %s: %v", key, err)
		return []domain.CartItem{}, true
	}
	return cloneItems(items), true
}

// loadActive reads the slot of the active identity into memory. When the read
// fails the container is marked unloaded and nothing is persisted until a
// later read succeeds. Callers hold c.op.
func (c *Container) loadActive(ctx context.Context) {
	items, ok := c.readSlot(ctx, slotKey(c.UserID()))
	c.unloaded = !ok
	c.setItems(ctx, items)
}

// ensureLoaded retries a failed slot read. Lines edited while the slot was
// unreadable win over the stored ones. Callers hold c.op.
func (c *Container) ensureLoaded(ctx context.Context) bool {
	if !c.unloaded {
		return true
	}
	stored, ok := c.readSlot(ctx, slotKey(c.UserID()))
	if !ok {
		return false
	}
	c.unloaded = false
	c.setItems(ctx, Merge(c.Items(), stored))
	return true
}

func (c *Container) writeSlot(ctx context.Context, key string, items []domain.CartItem) {
	raw, err := json.Marshal(cloneItems(items))
	if err != nil {
		c.logger.Printf("encode cart slot %s: %v", key, err)
		return
	}
	if err := c.slots.Set(ctx, key, raw); err != nil {
		c.logger.Printf("write cart slot %s: %v", key, err)
	}
}

func (c *Container) deleteSlot(ctx context.Context, key string) {
	if err := c.slots.Delete(ctx, key); err != nil {
		c.logger.Printf("delete cart slot %s: %v", key, err)
	}
}

// persist writes the active slot unless a load or sync is in flight, so a
// half-merged cart never reaches storage. An unloaded container never writes,
// since its lines may be missing what the slot holds.
func (c *Container) persist(ctx context.Context, userID string, items []domain.CartItem) {
	if c.loading.Load() || c.syncing.Load() || c.unloaded {
		return
	}
	c.writeSlot(ctx, slotKey(userID), items)
}
