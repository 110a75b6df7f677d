package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/service"
	"github.com/fjod/shopnest/pkg/logger"
)

type CartHandler struct {
	registry *service.Registry
	timeout  time.Duration
	maxBody  int64
	logger   *zap.Logger
}

func NewCartHandler(registry *service.Registry, timeout time.Duration, maxBody int64, l *zap.Logger) *CartHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &CartHandler{registry: registry, timeout: timeout, maxBody: maxBody, logger: l}
}

type CartResponse struct {
	Items []domain.CartEntry `json:"items"`
	Count int                `json:"count"`
	Total string             `json:"total"`
	Stale bool               `json:"stale,omitempty"`
}

type CartMutationResponse struct {
	service.Result
	Cart CartResponse `json:"cart"`
}

func cartView(rec *service.Reconciler) CartResponse {
	items := rec.Entries()
	return CartResponse{
		Items: items,
		Count: len(items),
		Total: rec.Total(),
		Stale: rec.Stale(),
	}
}

// GetCart serves the session's cart view. A failed reload returns the last
// known view flagged as stale.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionFromRequest(r)
	if !session.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	rec := h.registry.For(session)
	if err := rec.EnsureLoaded(ctx); err != nil {
		logger.WithContext(ctx, h.logger).Warn("serving stale cart", zap.String("user_id", session.UID), zap.Error(err))
	}
	respondJSON(w, http.StatusOK, cartView(rec))
}

func (h *CartHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionFromRequest(r)
	if !session.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var item domain.CatalogItem
	if !decodeJSON(w, r, h.maxBody, &item) {
		return
	}
	if strings.TrimSpace(item.DerivedID()) == "" {
		respondError(w, http.StatusBadRequest, "invalid_product", "product needs an id, buy_url or name")
		return
	}

	rec := h.registry.For(session)
	if err := rec.EnsureLoaded(ctx); err != nil {
		logger.WithContext(ctx, h.logger).Warn("toggling against stale cart", zap.String("user_id", session.UID), zap.Error(err))
	}
	h.respondMutation(ctx, w, rec, func() (service.Result, error) { return rec.Toggle(ctx, item) })
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session := sessionFromRequest(r)
	if !session.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	docID := chi.URLParam(r, "docID")
	if docID == "" {
		respondError(w, http.StatusBadRequest, "invalid_entry_id", "entry id is required")
		return
	}

	rec := h.registry.For(session)
	if err := rec.EnsureLoaded(ctx); err != nil {
		logger.WithContext(ctx, h.logger).Warn("removing from stale cart", zap.String("user_id", session.UID), zap.Error(err))
	}
	h.respondMutation(ctx, w, rec, func() (service.Result, error) { return rec.Remove(ctx, docID) })
}

func (h *CartHandler) respondMutation(ctx context.Context, w http.ResponseWriter, rec *service.Reconciler, mutate func() (service.Result, error)) {
	res, err := mutate()
	if err != nil {
		logger.WithContext(ctx, h.logger).Error("cart mutation rolled back",
			zap.String("user_id", rec.Session().UID),
			zap.String("action", string(res.Action)),
			zap.Error(err))
		respondJSON(w, http.StatusBadGateway, struct {
			ErrorResponse
			CartMutationResponse
		}{
			ErrorResponse:        ErrorResponse{Error: "cart could not be updated", Code: "store_unavailable"},
			CartMutationResponse: CartMutationResponse{Result: res, Cart: cartView(rec)},
		})
		return
	}
	respondJSON(w, http.StatusOK, CartMutationResponse{Result: res, Cart: cartView(rec)})
}
