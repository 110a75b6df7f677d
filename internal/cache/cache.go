package cache

import (
	"context"
	"errors"

	"github.com/fjod/shopnest/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) ([]domain.CartEntry, error)
	Set(ctx context.Context, userID string, entries []domain.CartEntry) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
