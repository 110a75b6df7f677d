package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fjod/shopnest/internal/domain"
)

// FirestoreRepository implements Store on Firestore.
//
// Layout:
//   - users/{uid}        profile document
//   - users/{uid}/cart   one document per cart entry, docId assigned by Firestore
type FirestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{client: client}
}

func (r *FirestoreRepository) users() *firestore.CollectionRef {
	return r.client.Collection("users")
}

func (r *FirestoreRepository) cart(userID string) *firestore.CollectionRef {
	return r.users().Doc(userID).Collection("cart")
}

type cartEntryDoc struct {
	ProductID string    `firestore:"productId"`
	ImageURL  string    `firestore:"imageUrl"`
	Title     string    `firestore:"title"`
	Price     string    `firestore:"price"`
	BuyURL    string    `firestore:"buyUrl"`
	AddedAt   time.Time `firestore:"addedAt"`
}

func cartEntryDocFromDomain(e domain.CartEntry) cartEntryDoc {
	return cartEntryDoc{
		ProductID: e.ProductID,
		ImageURL:  e.ImageURL,
		Title:     e.Title,
		Price:     e.Price,
		BuyURL:    e.BuyURL,
		AddedAt:   e.AddedAt.UTC(),
	}
}

func (d cartEntryDoc) toDomain(id string) domain.CartEntry {
	return domain.CartEntry{
		ID:        id,
		ProductID: d.ProductID,
		ImageURL:  d.ImageURL,
		Title:     d.Title,
		Price:     d.Price,
		BuyURL:    d.BuyURL,
		AddedAt:   d.AddedAt,
	}
}

type userDoc struct {
	UID          string    `firestore:"userId"`
	Email        string    `firestore:"email"`
	DisplayName  string    `firestore:"displayName"`
	Phone        string    `firestore:"phone"`
	AvatarURL    string    `firestore:"avatarUrl"`
	Role         string    `firestore:"role"`
	IsActive     bool      `firestore:"isActive"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
	PasswordHash string    `firestore:"passwordHash,omitempty"`
}

func userDocFromDomain(u *domain.User) userDoc {
	return userDoc{
		UID:          u.UID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		AvatarURL:    u.AvatarURL,
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		PasswordHash: u.PasswordHash,
	}
}

func (d userDoc) toDomain(uid string) *domain.User {
	return &domain.User{
		UID:          uid,
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		Phone:        d.Phone,
		AvatarURL:    d.AvatarURL,
		Role:         d.Role,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		PasswordHash: d.PasswordHash,
	}
}

func (r *FirestoreRepository) List(ctx context.Context, userID string) ([]domain.CartEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("firestore repository: userID is empty")
	}
	snaps, err := r.cart(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return snapshotsToEntries(snaps)
}

func (r *FirestoreRepository) Add(ctx context.Context, userID string, entry domain.CartEntry) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("firestore repository: userID is empty")
	}
	ref, _, err := r.cart(userID).Add(ctx, cartEntryDocFromDomain(entry))
	if err != nil {
		return "", fmt.Errorf("failed to add cart entry: %w", err)
	}
	return ref.ID, nil
}

// Delete checks existence first: Firestore deletes of missing documents succeed silently.
func (r *FirestoreRepository) Delete(ctx context.Context, userID, entryID string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(entryID) == "" {
		return ErrEntryNotFound
	}
	doc := r.cart(userID).Doc(entryID)
	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrEntryNotFound
		}
		return fmt.Errorf("failed to read cart entry: %w", err)
	}
	if _, err := doc.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete cart entry: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) FindBy(ctx context.Context, userID string, field domain.Field, value string) ([]domain.CartEntry, error) {
	switch field {
	case domain.FieldProductID, domain.FieldTitle, domain.FieldBuyURL:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	snaps, err := r.cart(userID).Where(string(field), "==", value).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	return snapshotsToEntries(snaps)
}

func (r *FirestoreRepository) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	snap, err := r.users().Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	var d userDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return d.toDomain(snap.Ref.ID), nil
}

func (r *FirestoreRepository) PutUser(ctx context.Context, user *domain.User) error {
	if user == nil || strings.TrimSpace(user.UID) == "" {
		return errors.New("firestore repository: PutUser requires user.UID")
	}
	if _, err := r.users().Doc(user.UID).Set(ctx, userDocFromDomain(user)); err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	snaps, err := r.users().Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	if len(snaps) == 0 {
		return nil, ErrUserNotFound
	}
	var d userDoc
	if err := snaps[0].DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return d.toDomain(snaps[0].Ref.ID), nil
}

func (r *FirestoreRepository) Close(context.Context) error {
	return r.client.Close()
}

func snapshotsToEntries(snaps []*firestore.DocumentSnapshot) ([]domain.CartEntry, error) {
	entries := make([]domain.CartEntry, 0, len(snaps))
	for _, snap := range snaps {
		var d cartEntryDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode cart entry %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, d.toDomain(snap.Ref.ID))
	}
	sortByAddedAt(entries)
	return entries, nil
}

// Firestore returns documents ordered by id; documents written without
// addedAt keep that order at the front.
func sortByAddedAt(entries []domain.CartEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
}
