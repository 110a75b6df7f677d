package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/identity"
	"github.com/fjod/shopnest/internal/search"
	"github.com/fjod/shopnest/internal/service"
	"github.com/fjod/shopnest/pkg/logger"
)

type SearchHandler struct {
	feeds    *search.Feeds
	registry *service.Registry
	timeout  time.Duration
	logger   *zap.Logger
}

func NewSearchHandler(feeds *search.Feeds, registry *service.Registry, timeout time.Duration, l *zap.Logger) *SearchHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &SearchHandler{feeds: feeds, registry: registry, timeout: timeout, logger: l}
}

type SearchItem struct {
	domain.CatalogItem
	ProductID string `json:"productId"`
	InCart    bool   `json:"inCart"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Sort    domain.SortOrder `json:"sort"`
	Results []SearchItem     `json:"results"`
}

// Search runs the query on the caller's feed. Feeds are keyed by user id,
// or by the X-Client-Session header for anonymous callers. A request with
// sort but no q re-orders the feed's current results without searching.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := domain.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_sort", err.Error())
		return
	}

	session := sessionFromRequest(r)
	key := r.Header.Get(clientSessionHeader)
	if session.Authenticated() {
		key = "uid:" + session.UID
	}
	feed := h.feeds.For(key)
	sorted := feed.Sort(order)

	query := r.URL.Query()
	if !query.Has("q") && query.Has("sort") {
		respondJSON(w, http.StatusOK, SearchResponse{
			Query:   feed.Query(),
			Sort:    order,
			Results: h.annotate(ctx, session, sorted),
		})
		return
	}

	items, err := feed.Search(ctx, query.Get("q"))
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		respondJSON(w, http.StatusOK, SearchResponse{Sort: order, Results: []SearchItem{}})
		return
	case errors.Is(err, search.ErrSuperseded):
		respondError(w, http.StatusConflict, "superseded", "a newer search replaced this one")
		return
	case err != nil:
		logger.WithContext(ctx, h.logger).Error("search failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "search_unavailable", "search is currently unavailable")
		return
	}

	respondJSON(w, http.StatusOK, SearchResponse{
		Query:   feed.Query(),
		Sort:    order,
		Results: h.annotate(ctx, session, items),
	})
}

// annotate marks the items already in the caller's cart.
func (h *SearchHandler) annotate(ctx context.Context, s identity.Session, items []domain.CatalogItem) []SearchItem {
	out := make([]SearchItem, len(items))
	var contains func(domain.CatalogItem) bool
	if s.Authenticated() && h.registry != nil {
		rec := h.registry.For(s)
		if err := rec.EnsureLoaded(ctx); err != nil {
			logger.WithContext(ctx, h.logger).Warn("cart membership may be stale", zap.Error(err))
		}
		contains = rec.Contains
	}
	for i, item := range items {
		out[i] = SearchItem{CatalogItem: item, ProductID: item.DerivedID()}
		if contains != nil {
			out[i].InCart = contains(item)
		}
	}
	return out
}

func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"suggestions": search.Suggestions})
}
