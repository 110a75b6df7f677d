package repository

import (
	"context"
	"errors"

	"github.com/fjod/shopnest/internal/domain"
)

var (
	ErrEntryNotFound  = errors.New("cart entry not found")
	ErrDuplicateEntry = errors.New("cart entry already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrUnknownField   = errors.New("unknown cart field")
)

// CartRepository is the per-user cart collection (users/{uid}/cart).
// Consumers define this interface, not the store implementations.
type CartRepository interface {
	// List returns every entry of the user's cart in insertion order.
	List(ctx context.Context, userID string) ([]domain.CartEntry, error)
	// Add creates a document and returns the store-assigned id.
	Add(ctx context.Context, userID string, entry domain.CartEntry) (string, error)
	// Delete removes a document by id. Missing documents yield ErrEntryNotFound.
	Delete(ctx context.Context, userID, entryID string) error
	// FindBy lists the entries whose field equals value.
	FindBy(ctx context.Context, userID string, field domain.Field, value string) ([]domain.CartEntry, error)
}

// UserRepository stores the users/{uid} profile documents.
type UserRepository interface {
	GetUser(ctx context.Context, uid string) (*domain.User, error)
	PutUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Store is a backend providing both collections.
type Store interface {
	CartRepository
	UserRepository
	Close(ctx context.Context) error
}
