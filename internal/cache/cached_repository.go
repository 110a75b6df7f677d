package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/repository"
)

// CachedRepository fronts a CartRepository with a read-through CartCache.
// Writes go to the store and then drop the cached list.
type CachedRepository struct {
	repo   repository.CartRepository
	cache  CartCache
	logger *zap.Logger
	sfg    singleflight.Group
}

func NewCachedRepository(repo repository.CartRepository, c CartCache, logger *zap.Logger) *CachedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRepository{repo: repo, cache: c, logger: logger}
}

func (s *CachedRepository) List(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		entries, err := s.cache.Get(ctx, userID)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		entries, err = s.repo.List(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := s.cache.Set(ctx, userID, entries); err != nil {
			s.logger.Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	entries := v.([]domain.CartEntry)
	out := make([]domain.CartEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *CachedRepository) Add(ctx context.Context, userID string, entry domain.CartEntry) (string, error) {
	id, err := s.repo.Add(ctx, userID, entry)
	if err != nil {
		return "", err
	}
	s.Invalidate(userID)
	return id, nil
}

func (s *CachedRepository) Delete(ctx context.Context, userID, entryID string) error {
	err := s.repo.Delete(ctx, userID, entryID)
	if err != nil && !errors.Is(err, repository.ErrEntryNotFound) {
		return err
	}
	s.Invalidate(userID)
	return err
}

// FindBy bypasses the cache; it backs duplicate checks that must see the store.
func (s *CachedRepository) FindBy(ctx context.Context, userID string, field domain.Field, value string) ([]domain.CartEntry, error) {
	return s.repo.FindBy(ctx, userID, field, value)
}

func (s *CachedRepository) Invalidate(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}
