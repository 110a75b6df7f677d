package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/shopnest/internal/domain"
)

func TestMemoryRepository_AddListDelete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := domain.CartEntry{ProductID: "p1", Title: "One", Price: "$1.00", AddedAt: time.Unix(10, 0)}
	second := domain.CartEntry{ProductID: "p2", Title: "Two", Price: "$2.00", AddedAt: time.Unix(20, 0)}

	id1, err := repo.Add(ctx, "u1", first)
	require.NoError(t, err)
	id2, err := repo.Add(ctx, "u1", second)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id1, entries[0].ID)
	assert.Equal(t, "p2", entries[1].ProductID)

	require.NoError(t, repo.Delete(ctx, "u1", id1))
	entries, err = repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id2, entries[0].ID)

	assert.ErrorIs(t, repo.Delete(ctx, "u1", id1), ErrEntryNotFound)
}

func TestMemoryRepository_CartsAreIsolatedPerUser(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, err := repo.Add(ctx, "u1", domain.CartEntry{ProductID: "p1"})
	require.NoError(t, err)

	entries, err := repo.List(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.ErrorIs(t, repo.Delete(ctx, "u2", id), ErrEntryNotFound)
}

func TestMemoryRepository_FindBy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.Add(ctx, "u1", domain.CartEntry{ProductID: "p1", Title: "Lamp"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, "u1", domain.CartEntry{ProductID: "p2", Title: "Desk"})
	require.NoError(t, err)

	found, err := repo.FindBy(ctx, "u1", domain.FieldProductID, "p2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Desk", found[0].Title)

	found, err = repo.FindBy(ctx, "u1", domain.FieldTitle, "Chair")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = repo.FindBy(ctx, "u1", domain.Field("price"), "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestMemoryRepository_Users(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	_, err := repo.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.PutUser(ctx, &domain.User{UID: "u1", Email: "a@b.co", Role: domain.RoleUser}))

	u, err := repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", u.Email)

	u, err = repo.FindUserByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UID)

	_, err = repo.FindUserByEmail(ctx, "x@y.z")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.Error(t, repo.PutUser(ctx, &domain.User{}))
}
