package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
)

var (
	ErrEmptyQuery = errors.New("empty search query")
	// ErrSuperseded is returned when a newer search started before this one
	// finished; its results are discarded.
	ErrSuperseded = errors.New("search superseded by a newer request")
)

// Suggestions are the keyword chips offered next to the search box.
var Suggestions = []string{
	"Laptops", "Phones", "Cameras", "Headphones",
	"Smartwatch", "Television", "Gaming", "Speakers",
}

type Searcher interface {
	Search(ctx context.Context, q string) ([]domain.CatalogItem, error)
}

// Feed is one searcher's current result list. Only the most recently
// started search may replace the list.
type Feed struct {
	searcher Searcher
	logger   *zap.Logger
	seq      atomic.Uint64

	mu      sync.RWMutex
	query   string
	results []domain.CatalogItem
	order   domain.SortOrder
}

func NewFeed(searcher Searcher, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{searcher: searcher, logger: logger, order: domain.SortDefault}
}

func (f *Feed) Search(ctx context.Context, q string) ([]domain.CatalogItem, error) {
	q = strings.TrimSpace(q)
	n := f.seq.Add(1)
	if q == "" {
		f.mu.Lock()
		f.query, f.results = "", nil
		f.mu.Unlock()
		return nil, ErrEmptyQuery
	}

	items, err := f.searcher.Search(ctx, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seq.Load() != n {
		f.logger.Debug("dropping stale search response", zap.String("query", q))
		return nil, ErrSuperseded
	}
	f.query = q
	if err != nil {
		f.results = nil
		f.logger.Error("search failed", zap.String("query", q), zap.Error(err))
		return nil, err
	}
	f.results = items
	return domain.SortItems(f.results, f.order), nil
}

// Sort changes the presentation order and returns the reordered results.
func (f *Feed) Sort(order domain.SortOrder) []domain.CatalogItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = order
	return domain.SortItems(f.results, order)
}

func (f *Feed) Results() []domain.CatalogItem {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domain.SortItems(f.results, f.order)
}

func (f *Feed) Query() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.query
}

// Feeds hands out one Feed per searcher key. When full, an arbitrary feed
// is evicted.
type Feeds struct {
	searcher Searcher
	logger   *zap.Logger
	max      int

	mu    sync.Mutex
	byKey map[string]*Feed
}

func NewFeeds(searcher Searcher, max int, logger *zap.Logger) *Feeds {
	if max <= 0 {
		max = 1000
	}
	return &Feeds{searcher: searcher, logger: logger, max: max, byKey: make(map[string]*Feed)}
}

func (fs *Feeds) For(key string) *Feed {
	if key == "" {
		return NewFeed(fs.searcher, fs.logger)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if f, ok := fs.byKey[key]; ok {
		return f
	}
	if len(fs.byKey) >= fs.max {
		for k := range fs.byKey {
			delete(fs.byKey, k)
			break
		}
	}
	f := NewFeed(fs.searcher, fs.logger)
	fs.byKey[key] = f
	return f
}

func (fs *Feeds) Drop(key string) {
	fs.mu.Lock()
	delete(fs.byKey, key)
	fs.mu.Unlock()
}
