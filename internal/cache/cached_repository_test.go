package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/repository"
)

type countingRepo struct {
	*repository.MemoryRepository
	lists atomic.Int32
}

func (c *countingRepo) List(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	c.lists.Add(1)
	return c.MemoryRepository.List(ctx, userID)
}

func setupCached(t *testing.T) (*CachedRepository, *countingRepo) {
	c, _ := setupTestRedis(t)
	repo := &countingRepo{MemoryRepository: repository.NewMemoryRepository()}
	return NewCachedRepository(repo, c, nil), repo
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	cached, repo := setupCached(t)
	ctx := context.Background()

	_, err := repo.MemoryRepository.Add(ctx, "u1", domain.CartEntry{ProductID: "p1"})
	require.NoError(t, err)

	first, err := cached.List(ctx, "u1")
	require.NoError(t, err)
	second, err := cached.List(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), repo.lists.Load())
}

func TestCachedRepository_WritesInvalidate(t *testing.T) {
	cached, repo := setupCached(t)
	ctx := context.Background()

	entries, err := cached.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	id, err := cached.Add(ctx, "u1", domain.CartEntry{ProductID: "p1"})
	require.NoError(t, err)

	entries, err = cached.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, cached.Delete(ctx, "u1", id))
	entries, err = cached.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int32(3), repo.lists.Load())

	assert.ErrorIs(t, cached.Delete(ctx, "u1", id), repository.ErrEntryNotFound)
}

func TestCachedRepository_ConcurrentMissesShareLoad(t *testing.T) {
	cached, _ := setupCached(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.List(ctx, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
