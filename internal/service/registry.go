package service

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/identity"
	"github.com/fjod/shopnest/internal/repository"
)

const (
	DefaultMaxViews    = 10000
	DefaultIdleTimeout = 30 * time.Minute
)

type view struct {
	rec      *Reconciler
	lastUsed time.Time
}

// Registry keeps one Reconciler per signed-in user for this instance. Views
// are evicted least-recently-used once the registry is full, and dropped
// after IdleTimeout without use.
type Registry struct {
	repo      repository.CartRepository
	publisher EventPublisher
	logger    *zap.Logger
	maxViews  int
	idle      time.Duration
	now       func() time.Time

	mu          sync.Mutex
	views       *lru.Cache[string, *view]
	unsubscribe func()
}

type RegistryOption func(*Registry)

// WithMaxViews bounds the number of retained views.
func WithMaxViews(n int) RegistryOption {
	return func(g *Registry) {
		if n > 0 {
			g.maxViews = n
		}
	}
}

// WithIdleTimeout sets how long an unused view is kept. Zero keeps views
// until evicted by size.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(g *Registry) { g.idle = d }
}

// NewRegistry subscribes to hub; the subscription is released by Close.
func NewRegistry(repo repository.CartRepository, publisher EventPublisher, hub *identity.Hub, logger *zap.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Registry{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		maxViews:  DefaultMaxViews,
		idle:      DefaultIdleTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	// lru.New only fails for a non-positive size
	g.views, _ = lru.New[string, *view](g.maxViews)
	if hub != nil {
		g.unsubscribe = hub.Subscribe(g.onSessionChange)
	}
	return g
}

// For returns the session's Reconciler, creating it on first use. A zero
// session gets a fresh unauthenticated Reconciler that is not retained.
func (g *Registry) For(s identity.Session) *Reconciler {
	if !s.Authenticated() {
		return NewReconciler(s, g.repo, g.publisher, g.logger)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	g.sweepLocked(now)
	if v, ok := g.views.Get(s.UID); ok {
		v.lastUsed = now
		return v.rec
	}
	rec := NewReconciler(s, g.repo, g.publisher, g.logger)
	g.views.Add(s.UID, &view{rec: rec, lastUsed: now})
	return rec
}

// sweepLocked drops idle views. The LRU keeps views ordered by last use,
// so it stops at the first view still in use.
func (g *Registry) sweepLocked(now time.Time) {
	if g.idle <= 0 {
		return
	}
	for {
		uid, v, ok := g.views.GetOldest()
		if !ok || now.Sub(v.lastUsed) < g.idle {
			return
		}
		g.views.Remove(uid)
		g.logger.Debug("dropped idle cart view", zap.String("user_id", uid))
	}
}

// Invalidate marks uid's view stale so the next read reloads it.
func (g *Registry) Invalidate(uid string) {
	g.mu.Lock()
	v, ok := g.views.Peek(uid)
	g.mu.Unlock()
	if ok {
		v.rec.MarkStale()
	}
}

func (g *Registry) Drop(uid string) {
	g.mu.Lock()
	g.views.Remove(uid)
	g.mu.Unlock()
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.views.Len()
}

func (g *Registry) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.views.Purge()
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Registry) onSessionChange(e identity.Event) {
	switch e.Kind {
	case identity.SignedOut:
		g.Drop(e.Session.UID)
		g.logger.Debug("dropped cart view", zap.String("user_id", e.Session.UID))
	case identity.SignedIn:
		g.Invalidate(e.Session.UID)
	}
}
