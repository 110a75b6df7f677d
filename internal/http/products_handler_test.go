package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopnest/internal/catalog"
	"github.com/fjod/shopnest/internal/domain"
)

type productCall struct {
	q            string
	start, limit int
}

type mockProducts struct {
	mu    sync.RWMutex
	items []domain.CatalogItem
	err   error
	calls []productCall
}

func (m *mockProducts) Products(_ context.Context, q string, start, limit int) ([]domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, productCall{q, start, limit})
	return m.items, m.err
}

func serveProducts(t *testing.T, m *mockProducts, target string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSearchAPIRouter(NewProductsHandler(m, nil), nil, 5*time.Second)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestProducts_Success(t *testing.T) {
	m := &mockProducts{items: []domain.CatalogItem{{Name: "Lamp", Price: "$10", BuyURL: "https://x/lamp"}}}
	rec := serveProducts(t, m, "/api/products/?q=%20lamp%20&start=10&limit=20")

	require.Equal(t, http.StatusOK, rec.Code)
	var items []domain.CatalogItem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	assert.Len(t, items, 1)
	assert.Equal(t, []productCall{{"lamp", 10, 20}}, m.calls)
}

func TestProducts_Defaults(t *testing.T) {
	m := &mockProducts{items: []domain.CatalogItem{}}
	serveProducts(t, m, "/api/products?q=lamp")
	require.Len(t, m.calls, 1)
	assert.Equal(t, 0, m.calls[0].start)
	assert.Equal(t, catalog.DefaultLimit, m.calls[0].limit)
}

func TestProducts_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		error  string
	}{
		{"missing query", "/api/products/", "No query provided"},
		{"blank query", "/api/products/?q=%20", "No query provided"},
		{"bad start", "/api/products/?q=lamp&start=abc", "start must be a non-negative integer"},
		{"bad limit", "/api/products/?q=lamp&limit=1.5", "limit must be a non-negative integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockProducts{}
			rec := serveProducts(t, m, tt.target)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.error, body.Error)
			assert.Empty(t, m.calls)
		})
	}
}

func TestProducts_NoProducts(t *testing.T) {
	rec := serveProducts(t, &mockProducts{err: catalog.ErrNoProducts}, "/api/products/?q=zzz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results":[],"message":"No products found"}`, rec.Body.String())
}

func TestProducts_ScrapeFailure(t *testing.T) {
	rec := serveProducts(t, &mockProducts{err: errors.New("browser crashed")}, "/api/products/?q=lamp")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"An error occurred while processing your request"}`, rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, bearerToken(req), header)
	}
}
