// Package service keeps each signed-in user's cart view consistent with the
// remote cart collection.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/identity"
	"github.com/fjod/shopnest/internal/repository"
)

// EventPublisher receives committed cart mutations.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.CartEvent) error
}

// Result describes the outcome of a cart mutation.
type Result struct {
	Action     domain.CartAction `json:"action"`
	Entry      domain.CartEntry  `json:"entry"`
	Total      string            `json:"total"`
	RolledBack bool              `json:"rolledBack"`
	Shared     bool              `json:"shared"`
}

// Reconciler holds one session's local cart view. Mutations are applied to
// the view first and then mirrored to the store; a failed store call replays
// the inverse mutation. The mutex is never held across a store call.
type Reconciler struct {
	session   identity.Session
	repo      repository.CartRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time

	sfg singleflight.Group

	mu      sync.Mutex
	entries []domain.CartEntry
	loaded  bool
	stale   bool
}

func NewReconciler(session identity.Session, repo repository.CartRepository, publisher EventPublisher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		session:   session,
		repo:      repo,
		publisher: publisher,
		logger:    logger.With(zap.String("user_id", session.UID)),
		now:       time.Now,
	}
}

func (r *Reconciler) Session() identity.Session { return r.session }

// Load replaces the view with the store's list. Without a session the view
// becomes empty. On failure the previous view is kept and marked stale.
func (r *Reconciler) Load(ctx context.Context) error {
	if !r.session.Authenticated() {
		r.mu.Lock()
		r.entries = nil
		r.loaded, r.stale = true, false
		r.mu.Unlock()
		return nil
	}

	entries, err := r.repo.List(ctx, r.session.UID)
	if err != nil {
		r.logger.Error("failed to load cart", zap.Error(err))
		r.mu.Lock()
		r.stale = true
		r.mu.Unlock()
		return fmt.Errorf("load cart: %w", err)
	}

	r.mu.Lock()
	r.entries = entries
	r.loaded, r.stale = true, false
	r.mu.Unlock()
	return nil
}

// EnsureLoaded loads the view if it was never loaded or has been marked stale.
func (r *Reconciler) EnsureLoaded(ctx context.Context) error {
	r.mu.Lock()
	fresh := r.loaded && !r.stale
	r.mu.Unlock()
	if fresh {
		return nil
	}
	return r.Load(ctx)
}

func (r *Reconciler) MarkStale() {
	r.mu.Lock()
	r.stale = true
	r.mu.Unlock()
}

func (r *Reconciler) Stale() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale
}

func (r *Reconciler) Entries() []domain.CartEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.CartEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Reconciler) Total() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalLocked()
}

func (r *Reconciler) Contains(item domain.CatalogItem) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(item.DerivedID()) >= 0
}

// Toggle removes item from the cart if present and adds it otherwise.
// Concurrent toggles of the same item share one store mutation.
func (r *Reconciler) Toggle(ctx context.Context, item domain.CatalogItem) (Result, error) {
	if !r.session.Authenticated() {
		r.logger.Info("cart toggle ignored: no session")
		return Result{Action: domain.ActionNone, Total: r.Total()}, nil
	}

	pid := item.DerivedID()
	v, err, shared := r.sfg.Do(pid, func() (interface{}, error) {
		return r.toggle(ctx, item, pid)
	})
	res := v.(Result)
	res.Shared = shared
	return res, err
}

func (r *Reconciler) toggle(ctx context.Context, item domain.CatalogItem, pid string) (Result, error) {
	r.mu.Lock()
	if idx := r.indexOf(pid); idx >= 0 {
		removed := r.entries[idx]
		if removed.ID == "" {
			r.mu.Unlock()
			return Result{Action: domain.ActionNone, Entry: removed, Total: r.Total()}, nil
		}
		r.entries = append(r.entries[:idx:idx], r.entries[idx+1:]...)
		r.mu.Unlock()
		return r.commitDelete(ctx, idx, removed)
	}

	pending := domain.NewCartEntry(item, r.now().UTC())
	r.entries = append(r.entries, pending)
	r.mu.Unlock()

	stored, err := r.create(ctx, pending)
	if err != nil {
		r.logger.Error("failed to add cart entry", zap.String("product_id", pid), zap.Error(err))
		r.mu.Lock()
		r.dropPending(pid)
		total := r.totalLocked()
		r.mu.Unlock()
		return Result{Action: domain.ActionAdded, Entry: pending, Total: total, RolledBack: true},
			fmt.Errorf("add to cart: %w", err)
	}

	r.mu.Lock()
	if idx := r.indexOf(pid); idx >= 0 {
		r.entries[idx] = stored
	} else {
		r.entries = append(r.entries, stored)
	}
	total := r.totalLocked()
	r.mu.Unlock()

	r.publish(ctx, domain.ActionAdded, stored)
	return Result{Action: domain.ActionAdded, Entry: stored, Total: total}, nil
}

// create stores pending unless a document for the same product already
// exists, in which case that document is adopted.
func (r *Reconciler) create(ctx context.Context, pending domain.CartEntry) (domain.CartEntry, error) {
	if existing, ok, err := r.existing(ctx, pending.ProductID); err != nil || ok {
		return existing, err
	}

	id, err := r.repo.Add(ctx, r.session.UID, pending)
	if errors.Is(err, repository.ErrDuplicateEntry) {
		existing, ok, findErr := r.existing(ctx, pending.ProductID)
		if findErr != nil {
			return domain.CartEntry{}, findErr
		}
		if ok {
			return existing, nil
		}
	}
	if err != nil {
		return domain.CartEntry{}, err
	}

	pending.ID = id
	return pending, nil
}

func (r *Reconciler) existing(ctx context.Context, pid string) (domain.CartEntry, bool, error) {
	found, err := r.repo.FindBy(ctx, r.session.UID, domain.FieldProductID, pid)
	if err != nil {
		return domain.CartEntry{}, false, err
	}
	if len(found) == 0 {
		return domain.CartEntry{}, false, nil
	}
	return found[0], true, nil
}

// Remove deletes the entry stored under docID. Unknown ids are a no-op.
func (r *Reconciler) Remove(ctx context.Context, docID string) (Result, error) {
	if !r.session.Authenticated() {
		r.logger.Info("cart remove ignored: no session")
		return Result{Action: domain.ActionNone, Total: r.Total()}, nil
	}

	r.mu.Lock()
	idx := -1
	for i, e := range r.entries {
		if e.ID == docID && docID != "" {
			idx = i
			break
		}
	}
	if idx < 0 {
		total := r.totalLocked()
		r.mu.Unlock()
		return Result{Action: domain.ActionNone, Total: total}, nil
	}
	removed := r.entries[idx]
	r.entries = append(r.entries[:idx:idx], r.entries[idx+1:]...)
	r.mu.Unlock()

	return r.commitDelete(ctx, idx, removed)
}

func (r *Reconciler) commitDelete(ctx context.Context, idx int, removed domain.CartEntry) (Result, error) {
	err := r.repo.Delete(ctx, r.session.UID, removed.ID)
	if err != nil && !errors.Is(err, repository.ErrEntryNotFound) {
		r.logger.Error("failed to remove cart entry", zap.String("entry_id", removed.ID), zap.Error(err))
		r.mu.Lock()
		r.restore(idx, removed)
		total := r.totalLocked()
		r.mu.Unlock()
		return Result{Action: domain.ActionRemoved, Entry: removed, Total: total, RolledBack: true},
			fmt.Errorf("remove from cart: %w", err)
	}

	r.publish(ctx, domain.ActionRemoved, removed)
	return Result{Action: domain.ActionRemoved, Entry: removed, Total: r.Total()}, nil
}

func (r *Reconciler) publish(ctx context.Context, action domain.CartAction, e domain.CartEntry) {
	if r.publisher == nil {
		return
	}
	ev := domain.CartEvent{
		UserID:     r.session.UID,
		Action:     action,
		ProductID:  e.ProductID,
		EntryID:    e.ID,
		OccurredAt: r.now().UTC(),
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		r.logger.Warn("failed to publish cart event", zap.String("action", string(action)), zap.Error(err))
	}
}

// restore puts e back at idx unless a reload already brought it back.
// Callers hold r.mu.
func (r *Reconciler) restore(idx int, e domain.CartEntry) {
	if r.indexOf(e.ProductID) >= 0 {
		return
	}
	if idx > len(r.entries) {
		idx = len(r.entries)
	}
	r.entries = append(r.entries, domain.CartEntry{})
	copy(r.entries[idx+1:], r.entries[idx:])
	r.entries[idx] = e
}

func (r *Reconciler) dropPending(pid string) {
	for i, e := range r.entries {
		if e.ProductID == pid && e.ID == "" {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *Reconciler) indexOf(pid string) int {
	for i, e := range r.entries {
		if e.ProductID == pid {
			return i
		}
	}
	return -1
}

func (r *Reconciler) totalLocked() string {
	return domain.FormatAmount(domain.Total(r.entries))
}
