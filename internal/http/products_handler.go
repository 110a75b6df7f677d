package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/catalog"
	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/pkg/logger"
)

type productService interface {
	Products(ctx context.Context, q string, start, limit int) ([]domain.CatalogItem, error)
}

// ProductsHandler serves the search endpoint consumed by the storefront.
type ProductsHandler struct {
	products productService
	logger   *zap.Logger
}

func NewProductsHandler(products productService, l *zap.Logger) *ProductsHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &ProductsHandler{products: products, logger: l}
}

type noProductsResponse struct {
	Results []domain.CatalogItem `json:"results"`
	Message string               `json:"message"`
}

func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := strings.TrimSpace(query.Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "", "No query provided")
		return
	}

	start, err := intParam(query.Get("start"), 0)
	if err != nil || start < 0 {
		respondError(w, http.StatusBadRequest, "invalid_start", "start must be a non-negative integer")
		return
	}
	limit, err := intParam(query.Get("limit"), catalog.DefaultLimit)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
		return
	}

	items, err := h.products.Products(r.Context(), q, start, limit)
	if errors.Is(err, catalog.ErrNoProducts) {
		respondJSON(w, http.StatusOK, noProductsResponse{Results: []domain.CatalogItem{}, Message: "No products found"})
		return
	}
	if err != nil {
		logger.WithContext(r.Context(), h.logger).Error("product search failed", zap.String("query", q), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "", "An error occurred while processing your request")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
