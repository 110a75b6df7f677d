package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopnest/internal/domain"
)

type mockScraper struct {
	m     sync.Mutex
	items []domain.CatalogItem
	err   error
	calls int
	delay time.Duration
}

func (s *mockScraper) Scrape(context.Context, string) ([]domain.CatalogItem, error) {
	time.Sleep(s.delay)
	s.m.Lock()
	defer s.m.Unlock()
	s.calls++
	return s.items, s.err
}

func (s *mockScraper) callCount() int {
	s.m.Lock()
	defer s.m.Unlock()
	return s.calls
}

func items(n int) []domain.CatalogItem {
	out := make([]domain.CatalogItem, n)
	for i := range out {
		out[i] = domain.CatalogItem{Name: fmt.Sprintf("item-%d", i), Price: fmt.Sprintf("$%d.00", i+1)}
	}
	return out
}

func setupService(t *testing.T, scraper Scraper) (*Service, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewService(NewRedisResultCache(client), scraper, nil), mr
}

func TestProducts_ScrapeThenCacheTiers(t *testing.T) {
	scraper := &mockScraper{items: items(5)}
	svc, mr := setupService(t, scraper)
	ctx := context.Background()

	page, err := svc.Products(ctx, "phones", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, items(5)[:2], page)
	assert.True(t, mr.Exists("products_phones"))
	assert.True(t, mr.Exists("products_phones_0_2"))
	assert.Equal(t, 15*time.Minute, mr.TTL("products_phones"))
	assert.Equal(t, 5*time.Minute, mr.TTL("products_phones_0_2"))

	// served from the full list, no second scrape
	page, err = svc.Products(ctx, "phones", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, items(5)[2:4], page)
	assert.True(t, mr.Exists("products_phones_2_2"))

	page, err = svc.Products(ctx, "phones", 4, 10)
	require.NoError(t, err)
	assert.Equal(t, items(5)[4:], page)
	assert.Equal(t, 1, scraper.callCount())
}

func TestProducts_PageHitSkipsFullList(t *testing.T) {
	scraper := &mockScraper{items: items(3)}
	svc, mr := setupService(t, scraper)
	ctx := context.Background()

	_, err := svc.Products(ctx, "tv", 0, 50)
	require.NoError(t, err)
	mr.Del("products_tv")

	page, err := svc.Products(ctx, "tv", 0, 50)
	require.NoError(t, err)
	assert.Len(t, page, 3)
	assert.Equal(t, 1, scraper.callCount())
}

func TestProducts_LimitIsCapped(t *testing.T) {
	svc, mr := setupService(t, &mockScraper{items: items(150)})

	page, err := svc.Products(context.Background(), "cables", 0, 500)
	require.NoError(t, err)
	assert.Len(t, page, MaxLimit)
	assert.True(t, mr.Exists("products_cables_0_100"))
}

func TestProducts_EmptyScrape(t *testing.T) {
	svc, mr := setupService(t, &mockScraper{})

	_, err := svc.Products(context.Background(), "nothing", 0, 50)
	assert.ErrorIs(t, err, ErrNoProducts)
	assert.False(t, mr.Exists("products_nothing"))
}

func TestProducts_ScrapeFailure(t *testing.T) {
	svc, _ := setupService(t, &mockScraper{err: errors.New("browser crashed")})

	_, err := svc.Products(context.Background(), "phones", 0, 50)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoProducts)
}

func TestProducts_CacheDownFallsBackToScrape(t *testing.T) {
	scraper := &mockScraper{items: items(2)}
	svc, mr := setupService(t, scraper)
	mr.Close()

	page, err := svc.Products(context.Background(), "phones", 0, 50)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestProducts_ConcurrentMissesScrapeOnce(t *testing.T) {
	scraper := &mockScraper{items: items(3), delay: 100 * time.Millisecond}
	svc, _ := setupService(t, scraper)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Products(context.Background(), "laptops", 0, 50)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, scraper.callCount())
}

func TestPaginate(t *testing.T) {
	all := items(3)
	assert.Equal(t, all[1:], paginate(all, 1, 10))
	assert.Empty(t, paginate(all, 3, 10))
	assert.Empty(t, paginate(all, 0, 0))
}
