package cart

import (
	"context"
	"errors"
	"time"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/slot"
)

func slotKey(userID string) string {
	return slot.CartKey(userID)
}

// ForceSync re-runs the sign-in reconciliation. Concurrent calls share one run.
func (c *Container) ForceSync(ctx context.Context) {
	if c.UserID() == "" || c.remote == nil {
		return
	}
	_, _, _ = c.sfg.Do("sync", func() (interface{}, error) {
		c.op.Lock()
		defer c.op.Unlock()
		if userID := c.UserID(); userID != "" {
			c.reconcile(ctx, userID)
		}
		return nil, nil
	})
}

// History returns the remote cart snapshots; failures yield an empty list.
func (c *Container) History(ctx context.Context) []domain.CartSnapshot {
	userID := c.UserID()
	if userID == "" || c.remote == nil {
		return []domain.CartSnapshot{}
	}
	history, err := c.remote.History(ctx, userID)
	if err != nil {
		c.logger.Printf("fetch cart history for %s: %v", userID, err)
		return []domain.CartSnapshot{}
	}
	if history == nil {
		history = []domain.CartSnapshot{}
	}
	return history
}

// reconcile transfers a non-empty guest cart into the user's slot, then merges
// with the remote cart. Callers hold c.op.
func (c *Container) reconcile(ctx context.Context, userID string) {
	c.syncing.Store(true)
	defer c.syncing.Store(false)
	if !c.ensureLoaded(ctx) {
		c.logger.Printf("skip reconciliation for %s: cart slot unreadable", userID)
		return
	}

	guest, guestOK := c.readSlot(ctx, slot.GuestCartKey)
	userItems, userOK := c.readSlot(ctx, slotKey(userID))
	if !guestOK || !userOK {
		c.logger.Printf("skip guest cart transfer for %s: cart slot unreadable", userID)
	} else if len(guest) > 0 {
		merged := withOwner(Merge(userItems, guest), userID)
		c.writeSlot(ctx, slotKey(userID), merged)
		c.push(ctx, userID, merged)
		c.deleteSlot(ctx, slot.GuestCartKey)
		c.setItems(ctx, merged)
		c.logger.Printf("transferred %d guest cart items to user %s", len(guest), userID)
	}

	c.syncRemote(ctx, userID)
}

// syncRemote merges the local cart into the remote one, remote entries winning.
// Callers hold c.op and have set the syncing flag.
func (c *Container) syncRemote(ctx context.Context, userID string) {
	if c.remote == nil || !c.ensureLoaded(ctx) {
		return
	}
	if c.hasPending() {
		if !c.push(ctx, userID, c.Items()) {
			c.logger.Printf("skip remote merge for %s: local changes unconfirmed", userID)
			return
		}
	}

	remoteItems, err := c.remote.GetCart(ctx, userID)
	switch {
	case err == nil:
		merged := withOwner(Merge(remoteItems, c.Items()), userID)
		c.setItems(ctx, merged)
		c.writeSlot(ctx, slotKey(userID), merged)
		if c.push(ctx, userID, merged) {
			c.markSynced()
		}
	case errors.Is(err, domain.ErrNotFound):
		local := c.Items()
		if len(local) == 0 {
			c.markSynced()
			return
		}
		if c.push(ctx, userID, local) {
			c.markSynced()
		}
	default:
		c.logger.Printf("fetch remote cart for %s, using local cart: %v", userID, err)
		c.recordErr(err)
	}
}

// push replaces the remote cart and records whether local state is confirmed.
func (c *Container) push(ctx context.Context, userID string, items []domain.CartItem) bool {
	if c.remote == nil {
		return false
	}
	if err := c.remote.PutCart(ctx, userID, cloneItems(items)); err != nil {
		c.logger.Printf("push cart for %s: %v", userID, err)
		c.stateMu.Lock()
		c.pending = true
		c.lastErr = err.Error()
		c.stateMu.Unlock()
		return false
	}
	c.stateMu.Lock()
	c.pending = false
	c.lastErr = ""
	c.stateMu.Unlock()
	return true
}

func (c *Container) hasPending() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.pending
}

func (c *Container) markSynced() {
	c.stateMu.Lock()
	c.lastSyncedAt = c.now()
	c.lastErr = ""
	c.stateMu.Unlock()
}

func (c *Container) recordErr(err error) {
	c.stateMu.Lock()
	c.lastErr = err.Error()
	c.stateMu.Unlock()
}

// StartSync runs the remote merge every interval while signed in and the remote
// is reachable. It is a no-op when a loop is already running.
func (c *Container) StartSync(interval time.Duration) {
	if interval <= 0 || c.remote == nil {
		return
	}
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	if c.stopLoop != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.stopLoop = cancel
	c.loopDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tick(ctx)
			}
		}
	}()
}

// StopSync stops the periodic loop and waits for an in-flight tick.
func (c *Container) StopSync() {
	c.loopMu.Lock()
	cancel, done := c.stopLoop, c.loopDone
	c.stopLoop, c.loopDone = nil, nil
	c.loopMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Container) tick(ctx context.Context) {
	if c.UserID() == "" || !c.remote.Reachable() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.tickTimeout)
	defer cancel()

	c.op.Lock()
	defer c.op.Unlock()
	userID := c.UserID()
	if userID == "" {
		return
	}
	c.syncing.Store(true)
	defer c.syncing.Store(false)
	c.syncRemote(ctx, userID)
}
