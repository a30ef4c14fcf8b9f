package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"empress-storefront/internal/domain"
	"empress-storefront/internal/repository/slot"
	"empress-storefront/internal/service/cart"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidSession is returned for session ids that are not UUIDs.
	ErrInvalidSession = errors.New("invalid session id")
	// ErrInvalidUser is returned for empty or reserved user ids.
	ErrInvalidUser = errors.New("invalid user id")
)

// userKey remembers the signed-in user of a session across restarts.
const userKey = "empress_session_user"

// RemoteFactory builds the remote cart client of a session from its slot store,
// which holds the bearer token.
type RemoteFactory func(slots slot.Repository) cart.Remote

// Settings tune the session lifecycle.
type Settings struct {
	SyncInterval time.Duration
	IdleTimeout  time.Duration
	// TickTimeout bounds each periodic sync; zero keeps the cart default.
	TickTimeout time.Duration
}

type entry struct {
	cart     *cart.Container
	slots    slot.Repository
	lastSeen time.Time
}

// Manager keeps one cart container per browser session. Containers are created
// on first use from the session's slot namespace, so a session survives a
// process restart; eviction only drops the in-memory container.
type Manager struct {
	slots     slot.Repository
	newRemote RemoteFactory
	logger    *log.Logger
	settings  Settings
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	sfg      singleflight.Group
}

// New creates a Manager. newRemote may be nil for offline-only carts.
func New(slots slot.Repository, newRemote RemoteFactory, logger *log.Logger, settings Settings) *Manager {
	return &Manager{
		slots:     slots,
		newRemote: newRemote,
		logger:    logger,
		settings:  settings,
		now:       time.Now,
		sessions:  make(map[string]*entry),
	}
}

// Issue creates a new session and returns its id.
func (m *Manager) Issue(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := m.Get(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the container of session id, restoring it from storage on first use.
func (m *Manager) Get(ctx context.Context, id string) (*cart.Container, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.cart, nil
}

// SignIn stores the bearer token for the session, signs its cart in as userID
// and starts periodic sync.
func (m *Manager) SignIn(ctx context.Context, id, token, userID string) (*cart.Container, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || slot.ReservedUserID(userID) {
		return nil, ErrInvalidUser
	}
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.slots.Set(ctx, slot.TokenKey, []byte(strings.TrimSpace(token))); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	if err := e.slots.Set(ctx, userKey, []byte(userID)); err != nil {
		return nil, fmt.Errorf("store session user: %w", err)
	}
	if current := e.cart.UserID(); current != "" && current != userID {
		e.cart.SignOut(ctx)
	}
	e.cart.SignIn(ctx, userID)
	e.cart.StartSync(m.settings.SyncInterval)
	m.logger.Printf("session %s signed in as %s", id, userID)
	return e.cart, nil
}

// SignOut stops sync, forgets the token and switches the cart back to guest.
func (m *Manager) SignOut(ctx context.Context, id string) (*cart.Container, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	e.cart.SignOut(ctx)
	for _, key := range []string{slot.TokenKey, userKey} {
		if err := e.slots.Delete(ctx, key); err != nil {
			m.logger.Printf("session %s: delete %s: %v", id, key, err)
		}
	}
	return e.cart, nil
}

// Token returns the bearer token stored for session id, or "" when signed out.
func (m *Manager) Token(ctx context.Context, id string) (string, error) {
	e, err := m.entry(ctx, id)
	if err != nil {
		return "", err
	}
	raw, err := e.slots.Get(ctx, slot.TokenKey)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(raw), nil
}

// Len reports the number of in-memory sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RunJanitor evicts idle sessions every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.settings.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.logger.Printf("evicted %d idle sessions", n)
			}
		}
	}
}

// EvictIdle drops sessions not used within the idle timeout.
func (m *Manager) EvictIdle() int {
	cutoff := m.now().Add(-m.settings.IdleTimeout)
	var idle []*entry
	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, e := range idle {
		e.cart.StopSync()
	}
	return len(idle)
}

// Close stops every periodic sync loop.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.Unlock()
	for _, e := range entries {
		e.cart.StopSync()
	}
}

func (m *Manager) entry(ctx context.Context, id string) (*entry, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidSession
	}
	id = parsed.String()

	m.mu.Lock()
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = m.now()
		m.mu.Unlock()
		return e, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sfg.Do(id, func() (interface{}, error) {
		m.mu.Lock()
		if e, ok := m.sessions[id]; ok {
			m.mu.Unlock()
			return e, nil
		}
		m.mu.Unlock()

		e := m.restore(ctx, id)
		m.mu.Lock()
		m.sessions[id] = e
		m.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry), nil
}

func (m *Manager) restore(ctx context.Context, id string) *entry {
	scoped := slot.Scoped(m.slots, id)
	var remote cart.Remote
	if m.newRemote != nil {
		remote = m.newRemote(scoped)
	}
	var opts []cart.Option
	if m.settings.TickTimeout > 0 {
		opts = append(opts, cart.WithTickTimeout(m.settings.TickTimeout))
	}
	c := cart.New(scoped, remote, m.logger, opts...)
	c.Load(ctx)

	raw, err := scoped.Get(ctx, userKey)
	switch {
	case err == nil && len(raw) > 0:
		userID := string(raw)
		c.SignIn(ctx, userID)
		c.StartSync(m.settings.SyncInterval)
		m.logger.Printf("restored session %s for user %s", id, userID)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		m.logger.Printf("session %s: read session user: %v", id, err)
	}
	return &entry{cart: c, slots: scoped, lastSeen: m.now()}
}
