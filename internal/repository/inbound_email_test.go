package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
	"github.com/receiptops/receiptstack/internal/utils"
)

func TestInboundEmailRepository_Create_NormalizesMessageID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.InboundEmail{
		MessageID:   utils.ToPtr("<abc@mail.example.com>"),
		FromAddress: "alice@example.com",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "inmail_"))

	// Lookup works with and without angle brackets.
	found, err := repo.GetByMessageID(ctx, "abc@mail.example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)

	found, err = repo.GetByMessageID(ctx, "<abc@mail.example.com>")
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestInboundEmailRepository_Create_DuplicateMessageIDInsertsNothing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, &models.InboundEmail{
		MessageID:   utils.ToPtr("dup@mail.example.com"),
		FromAddress: "alice@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Same message landing again, e.g. over the other intake path. The unique
	// index rejects the row and the empty id signals the duplicate.
	second, err := repo.Create(ctx, &models.InboundEmail{
		MessageID:   utils.ToPtr("<dup@mail.example.com>"),
		FromAddress: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, second)

	_, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestInboundEmailRepository_Create_NilMessageIDsNeverConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, &models.InboundEmail{FromAddress: "alice@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := repo.Create(ctx, &models.InboundEmail{FromAddress: "bob@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}

func TestInboundEmailRepository_Create_EmptyMessageIDStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.InboundEmail{
		MessageID:   utils.ToPtr(""),
		FromAddress: "alice@example.com",
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored.MessageID)
}

func TestInboundEmailRepository_GetByMessageID_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)

	// Messages without a Message-ID never match each other.
	found, err := repo.GetByMessageID(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestInboundEmailRepository_Create_TruncatesBody(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.InboundEmail{
		FromAddress: "alice@example.com",
		BodyText:    strings.Repeat("x", models.MaxStoredBodyLength+500),
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stored.BodyText, models.MaxStoredBodyLength)
}

func TestInboundEmailRepository_MarkProcessed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInboundEmailRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.InboundEmail{FromAddress: "alice@example.com"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkProcessed(ctx, id, enum.InboundEmailStatusProcessed, true, ""))

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enum.InboundEmailStatusProcessed, stored.Status)
	assert.True(t, stored.ReplySent)
	assert.NotNil(t, stored.ProcessedAt)
}
