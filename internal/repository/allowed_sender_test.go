package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedSenderRepository_IsAllowed_FailClosed(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	repo := NewAllowedSenderRepository(db)
	ctx := context.Background()

	// Act: empty allow-list
	allowed, err := repo.IsAllowed(ctx, "anyone@example.com")

	// Assert: nobody gets in until the list has entries
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowedSenderRepository_IsAllowed_CaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAllowedSenderRepository(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "Alice@Example.COM", "Alice")
	require.NoError(t, err)

	allowed, err := repo.IsAllowed(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = repo.IsAllowed(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestAllowedSenderRepository_Add_DuplicateIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAllowedSenderRepository(db)
	ctx := context.Background()

	_, err := repo.Add(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	_, err = repo.Add(ctx, "ALICE@example.com ", "Alice again")
	require.NoError(t, err)

	senders, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, senders, 1)
	assert.Equal(t, "alice@example.com", senders[0].Email)
}

func TestAllowedSenderRepository_Remove(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAllowedSenderRepository(db)
	ctx := context.Background()

	id, err := repo.Add(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, id))

	allowed, err := repo.IsAllowed(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, allowed)
}
