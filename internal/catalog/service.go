// Package catalog serves paginated product results for the search endpoint,
// scraping on cache misses.
package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/shopnest/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var ErrNoProducts = errors.New("no products found")

type Scraper interface {
	Scrape(ctx context.Context, q string) ([]domain.CatalogItem, error)
}

type Service struct {
	cache   ResultCache
	scraper Scraper
	logger  *zap.Logger
	sfg     singleflight.Group
}

func NewService(cache ResultCache, scraper Scraper, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cache: cache, scraper: scraper, logger: logger}
}

// Products returns items[start:start+limit] for q. limit is capped at
// MaxLimit. Cache failures degrade to a scrape.
func (s *Service) Products(ctx context.Context, q string, start, limit int) ([]domain.CatalogItem, error) {
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if items, err := s.cache.GetPage(ctx, q, start, limit); err == nil {
		return items, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("page cache get error", zap.String("query", q), zap.Error(err))
	}

	if all, err := s.cache.GetAll(ctx, q); err == nil {
		page := paginate(all, start, limit)
		s.setPage(ctx, q, start, limit, page)
		return page, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("full cache get error", zap.String("query", q), zap.Error(err))
	}

	v, err, _ := s.sfg.Do(q, func() (interface{}, error) {
		return s.scraper.Scrape(ctx, q)
	})
	if err != nil {
		s.logger.Error("error processing products request", zap.String("query", q), zap.Error(err))
		return nil, err
	}

	all := v.([]domain.CatalogItem)
	if len(all) == 0 {
		s.logger.Warn("no products found", zap.String("query", q))
		return nil, ErrNoProducts
	}

	if err := s.cache.SetAll(ctx, q, all); err != nil {
		s.logger.Warn("full cache set error", zap.String("query", q), zap.Error(err))
	}
	page := paginate(all, start, limit)
	s.setPage(ctx, q, start, limit, page)
	return page, nil
}

func (s *Service) setPage(ctx context.Context, q string, start, limit int, page []domain.CatalogItem) {
	if err := s.cache.SetPage(ctx, q, start, limit, page); err != nil {
		s.logger.Warn("page cache set error", zap.String("query", q), zap.Error(err))
	}
}

func paginate(items []domain.CatalogItem, start, limit int) []domain.CatalogItem {
	if start >= len(items) || limit <= 0 {
		return []domain.CatalogItem{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]domain.CatalogItem, end-start)
	copy(out, items[start:end])
	return out
}
