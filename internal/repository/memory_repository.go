package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/shopnest/internal/domain"
)

// MemoryRepository implements Store in process memory. Used by tests and
// STORE_BACKEND=memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartEntry
	users map[string]domain.User
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carts: make(map[string][]domain.CartEntry),
		users: make(map[string]domain.User),
		now:   time.Now,
	}
}

func (m *MemoryRepository) List(_ context.Context, userID string) ([]domain.CartEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CartEntry, len(m.carts[userID]))
	copy(out, m.carts[userID])
	return out, nil
}

func (m *MemoryRepository) Add(_ context.Context, userID string, entry domain.CartEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = uuid.NewString()
	if entry.AddedAt.IsZero() {
		entry.AddedAt = m.now()
	}
	m.carts[userID] = append(m.carts[userID], entry)
	return entry.ID, nil
}

func (m *MemoryRepository) Delete(_ context.Context, userID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.carts[userID]
	for i, e := range entries {
		if e.ID == entryID {
			m.carts[userID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

func (m *MemoryRepository) FindBy(_ context.Context, userID string, field domain.Field, value string) ([]domain.CartEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.CartEntry
	for _, e := range m.carts[userID] {
		v, ok := e.Value(field)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		if v == value {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryRepository) GetUser(_ context.Context, uid string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) PutUser(_ context.Context, u *domain.User) error {
	if u == nil || u.UID == "" {
		return fmt.Errorf("memory repository: PutUser requires user.UID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UID] = *u
	return nil
}

func (m *MemoryRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MemoryRepository) Close(context.Context) error { return nil }
