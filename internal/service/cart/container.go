package cart

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/slot"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Remote is the remote cart store of a signed-in user.
type Remote interface {
	GetCart(ctx context.Context, userID string) ([]domain.CartItem, error)
	PutCart(ctx context.Context, userID string, items []domain.CartItem) error
	History(ctx context.Context, userID string) ([]domain.CartSnapshot, error)
	Reachable() bool
}

// Container owns the cart of one browser session. It persists every change to
// the slot of the active identity and reconciles with the remote cart while a
// user is signed in. Public operations never fail on storage or remote errors;
// those are logged and the in-memory cart stays authoritative.
//
// op serialises mutations and reconciliation, so a mutation issued during a
// sync waits for it. mu guards items and userID and is never held across I/O,
// so readers do not block on the network.
type Container struct {
	slots  slot.Repository
	remote Remote
	logger *log.Logger
	now    func() time.Time

	op     sync.Mutex
	mu     sync.RWMutex
	userID string
	items  []domain.CartItem

	loading atomic.Bool
	syncing atomic.Bool
	// unloaded is set while the active slot could not be read; guarded by op.
	unloaded bool

	stateMu      sync.RWMutex
	pending      bool
	lastErr      string
	lastSyncedAt time.Time

	sfg singleflight.Group

	loopMu      sync.Mutex
	stopLoop    context.CancelFunc
	loopDone    chan struct{}
	tickTimeout time.Duration
}

// Option customises a Container.
type Option func(*Container)

// WithClock overrides the time source used for addedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

// WithTickTimeout bounds each periodic sync tick.
func WithTickTimeout(d time.Duration) Option {
	return func(c *Container) { c.tickTimeout = d }
}

// New creates a guest container. remote may be nil for an offline-only cart.
func New(slots slot.Repository, remote Remote, logger *log.Logger, opts ...Option) *Container {
	c := &Container{
		slots:       slots,
		remote:      remote,
		logger:      logger,
		now:         time.Now,
		items:       []domain.CartItem{},
		tickTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status is the connectivity state shown by the storefront banners.
type Status struct {
	UserID        string     `json:"userId,omitempty"`
	Authenticated bool       `json:"authenticated"`
	Loading       bool       `json:"loading"`
	Syncing       bool       `json:"syncing"`
	Pending       bool       `json:"pending"`
	LastError     string     `json:"lastError,omitempty"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt,omitempty"`
}

func (c *Container) Status() Status {
	userID := c.UserID()
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	st := Status{
		UserID:        userID,
		Authenticated: userID != "",
		Loading:       c.loading.Load(),
		Syncing:       c.syncing.Load(),
		Pending:       c.pending,
		LastError:     c.lastErr,
	}
	if !c.lastSyncedAt.IsZero() {
		at := c.lastSyncedAt
		st.LastSyncedAt = &at
	}
	return st
}

// UserID returns the signed-in user or an empty string for a guest.
func (c *Container) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Items returns a copy of the cart lines in insertion order.
func (c *Container) Items() []domain.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneItems(c.items)
}

// Load reads the active slot into memory and reconciles when signed in.
func (c *Container) Load(ctx context.Context) {
	c.op.Lock()
	defer c.op.Unlock()

	c.loading.Store(true)
	userID := c.UserID()
	c.loadActive(ctx)
	c.loading.Store(false)

	if userID != "" {
		c.reconcile(ctx, userID)
	}
}

// SignIn switches the container to userID and runs the reconciliation protocol.
// Empty and reserved user ids are ignored.
func (c *Container) SignIn(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if slot.ReservedUserID(userID) {
		c.logger.Printf("ignore sign-in as reserved user id %q", userID)
		return
	}
	c.op.Lock()
	defer c.op.Unlock()

	c.syncing.Store(true)
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
	c.loadActive(ctx)
	c.syncing.Store(false)

	c.reconcile(ctx, userID)
}

// SignOut stops periodic sync and switches back to the guest slot.
func (c *Container) SignOut(ctx context.Context) {
	c.StopSync()
	c.op.Lock()
	defer c.op.Unlock()

	c.loading.Store(true)
	c.mu.Lock()
	c.userID = ""
	c.mu.Unlock()
	c.loadActive(ctx)
	c.loading.Store(false)

	c.stateMu.Lock()
	c.pending = false
	c.lastErr = ""
	c.lastSyncedAt = time.Time{}
	c.stateMu.Unlock()
}

// AddToCart adds quantity units of a product variant. An existing line with the
// same composite key is incremented instead of duplicated. Quantities below one
// count as one; a positive product stock caps the line.
func (c *Container) AddToCart(ctx context.Context, product domain.Product, quantity int, color, size string) {
	if quantity < 1 {
		quantity = 1
	}
	key := domain.CartItemID(product.ID, color, size)
	addedAt := c.now()

	c.mutate(ctx, func(items []domain.CartItem, userID string) ([]domain.CartItem, bool) {
		if i := indexOf(items, key); i >= 0 {
			items[i].Quantity = capToStock(items[i].Quantity+quantity, items[i].OriginalProduct)
			return items, true
		}
		item := domain.CartItem{
			CartItemID:      key,
			ProductID:       product.ID,
			Name:            product.Name,
			Image:           product.Image(),
			Price:           product.Price,
			OriginalPrice:   product.OriginalPrice,
			Quantity:        capToStock(quantity, product),
			SelectedColor:   domain.OptionOrDefault(color),
			SelectedSize:    domain.OptionOrDefault(size),
			AddedAt:         addedAt,
			OriginalProduct: product,
		}
		if userID != "" {
			owner := userID
			item.UserID = &owner
		}
		return append(items, item), true
	})
}

// UpdateQuantity sets the quantity of a line; quantity <= 0 removes it.
func (c *Container) UpdateQuantity(ctx context.Context, cartItemID string, quantity int) {
	if quantity <= 0 {
		c.RemoveFromCart(ctx, cartItemID)
		return
	}
	c.mutate(ctx, func(items []domain.CartItem, _ string) ([]domain.CartItem, bool) {
		i := indexOf(items, cartItemID)
		if i < 0 {
			return items, false
		}
		items[i].Quantity = capToStock(quantity, items[i].OriginalProduct)
		return items, true
	})
}

// RemoveFromCart deletes a line; unknown ids are ignored.
func (c *Container) RemoveFromCart(ctx context.Context, cartItemID string) {
	c.mutate(ctx, func(items []domain.CartItem, _ string) ([]domain.CartItem, bool) {
		i := indexOf(items, cartItemID)
		if i < 0 {
			return items, false
		}
		return append(items[:i], items[i+1:]...), true
	})
}

// ClearCart empties the cart locally and, when signed in, remotely.
func (c *Container) ClearCart(ctx context.Context) {
	c.mutate(ctx, func(_ []domain.CartItem, _ string) ([]domain.CartItem, bool) {
		return []domain.CartItem{}, true
	})
}

// UpdateItemOptions moves a line to another color/size. When the new key is
// already in the cart the quantities are merged into that line.
func (c *Container) UpdateItemOptions(ctx context.Context, cartItemID, color, size string) {
	c.mutate(ctx, func(items []domain.CartItem, _ string) ([]domain.CartItem, bool) {
		i := indexOf(items, cartItemID)
		if i < 0 {
			return items, false
		}
		newKey := domain.CartItemID(items[i].ProductID, color, size)
		if newKey == cartItemID {
			return items, false
		}
		if j := indexOf(items, newKey); j >= 0 {
			items[j].Quantity = capToStock(items[j].Quantity+items[i].Quantity, items[j].OriginalProduct)
			return append(items[:i], items[i+1:]...), true
		}
		items[i].CartItemID = newKey
		items[i].SelectedColor = domain.OptionOrDefault(color)
		items[i].SelectedSize = domain.OptionOrDefault(size)
		return items, true
	})
}

func (c *Container) IsInCart(productID, color, size string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return indexOf(c.items, domain.CartItemID(productID, color, size)) >= 0
}

// CartItemQuantity returns the quantity of a variant or 0.
func (c *Container) CartItemQuantity(productID, color, size string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.items, domain.CartItemID(productID, color, size)); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

func (c *Container) TotalItems() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalItems(c.items)
}

func (c *Container) TotalPrice() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalPrice(c.items)
}

func (c *Container) TotalOriginalPrice() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalOriginalPrice(c.items)
}

// TotalSavings is TotalOriginalPrice minus TotalPrice, without clamping.
func (c *Container) TotalSavings() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return totalOriginalPrice(c.items).Sub(totalPrice(c.items))
}

func (c *Container) Summary() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return summarize(c.items)
}

// mutate applies fn locally, persists the result and, when signed in, pushes it
// to the remote cart. fn reports whether anything changed. While the active
// slot is unreadable the change is kept in memory only.
func (c *Container) mutate(ctx context.Context, fn func(items []domain.CartItem, userID string) ([]domain.CartItem, bool)) {
	c.op.Lock()
	defer c.op.Unlock()
	loaded := c.ensureLoaded(ctx)

	c.mu.Lock()
	userID := c.userID
	next, changed := fn(cloneItems(c.items), userID)
	if changed {
		c.items = next
	}
	snapshot := cloneItems(c.items)
	c.mu.Unlock()

	if !changed {
		return
	}
	if !loaded {
		c.logger.Printf("cart slot unreadable, change kept in memory only")
		return
	}
	c.persist(ctx, userID, snapshot)
	if userID != "" {
		c.push(ctx, userID, snapshot)
	}
}

func (c *Container) setItems(ctx context.Context, items []domain.CartItem) {
	c.mu.Lock()
	c.items = cloneItems(items)
	userID := c.userID
	snapshot := cloneItems(c.items)
	c.mu.Unlock()
	c.persist(ctx, userID, snapshot)
}

func capToStock(quantity int, p domain.Product) int {
	if p.Stock > 0 && quantity > p.Stock {
		return p.Stock
	}
	return quantity
}
