package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/receiptops/receiptstack/internal/enum"
	"github.com/receiptops/receiptstack/internal/models"
)

func TestReceiptRepository_Create(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	// Act
	id, err := repo.Create(ctx, &models.Receipt{
		Filename:         "abc.jpg",
		OriginalFilename: "lunch.jpg",
		UploaderName:     "Jamie",
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "rcpt_"))

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, enum.ReceiptStatusPending, stored.Status)
	assert.Equal(t, "USD", stored.Currency)
}

func TestReceiptRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)

	receipt, err := repo.GetByID(context.Background(), "rcpt_missing")

	assert.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestReceiptRepository_GetByEditToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.Receipt{
		Filename:         "abc.jpg",
		OriginalFilename: "lunch.jpg",
		UploaderName:     "Jamie",
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetEditToken(ctx, id, "tok-123"))

	found, err := repo.GetByEditToken(ctx, "tok-123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)

	// An empty token never matches even when the column is empty.
	none, err := repo.GetByEditToken(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, none)
}

func TestReceiptRepository_ListNeedingFixNotification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	complete := &models.Receipt{
		Filename: "a.jpg", OriginalFilename: "a.jpg", UploaderName: "A",
		UploaderEmail: "a@example.com",
		Vendor:        "Acme", Amount: 12.5, Date: "2025-11-02",
		Status: enum.ReceiptStatusProcessed,
	}
	missingVendor := &models.Receipt{
		Filename: "b.jpg", OriginalFilename: "b.jpg", UploaderName: "B",
		UploaderEmail: "b@example.com",
		Amount:        9.99, Date: "2025-11-02",
		Status: enum.ReceiptStatusProcessed,
	}
	tooOld := &models.Receipt{
		Filename: "c.jpg", OriginalFilename: "c.jpg", UploaderName: "C",
		UploaderEmail: "c@example.com",
		Vendor:        "Acme", Amount: 4.2, Date: "2025-09-30",
		Status: enum.ReceiptStatusProcessed,
	}
	noEmail := &models.Receipt{
		Filename: "d.jpg", OriginalFilename: "d.jpg", UploaderName: "D",
		Amount: 3, Date: "2025-11-02",
		Status: enum.ReceiptStatusProcessed,
	}
	stillPending := &models.Receipt{
		Filename: "e.jpg", OriginalFilename: "e.jpg", UploaderName: "E",
		UploaderEmail: "e@example.com",
	}
	alreadyNotified := &models.Receipt{
		Filename: "f.jpg", OriginalFilename: "f.jpg", UploaderName: "F",
		UploaderEmail: "f@example.com",
		Status:        enum.ReceiptStatusProcessed,
		FixEmailSent:  true,
	}
	for _, r := range []*models.Receipt{complete, missingVendor, tooOld, noEmail, stillPending, alreadyNotified} {
		_, err := repo.Create(ctx, r)
		require.NoError(t, err)
	}

	candidates, err := repo.ListNeedingFixNotification(ctx, models.ReceiptDateCutoff)
	require.NoError(t, err)

	ids := make([]string, 0, len(candidates))
	for _, r := range candidates {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{missingVendor.ID, tooOld.ID}, ids)
}

func TestReceiptRepository_MarkFixEmailOpened_FirstOpenWins(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.Receipt{
		Filename: "a.jpg", OriginalFilename: "a.jpg", UploaderName: "A",
	})
	require.NoError(t, err)
	require.NoError(t, repo.SetEditToken(ctx, id, "tok-open"))

	require.NoError(t, repo.MarkFixEmailOpened(ctx, "tok-open"))
	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, first.FixEmailOpenedAt)
	openedAt := *first.FixEmailOpenedAt

	// Second open keeps the original timestamp.
	require.NoError(t, repo.MarkFixEmailOpened(ctx, "tok-open"))
	second, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, openedAt, *second.FixEmailOpenedAt)
}

func TestReceiptRepository_MarkFixEmailOpened_UnknownToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)

	// Unknown tokens are a silent no-op, not an error.
	assert.NoError(t, repo.MarkFixEmailOpened(context.Background(), "nope"))
}

func TestReceiptRepository_SetError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &models.Receipt{
		Filename: "a.jpg", OriginalFilename: "a.jpg", UploaderName: "A",
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetError(ctx, id, "Processing error: boom"))

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enum.ReceiptStatusError, stored.Status)
	assert.Equal(t, "Processing error: boom", stored.RawText)
}

func TestReceiptRepository_DeleteByInboundEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db)
	ctx := context.Background()

	emailID := "inmail_test1"
	for _, filename := range []string{"one.jpg", "two.pdf"} {
		_, err := repo.Create(ctx, &models.Receipt{
			Filename: filename, OriginalFilename: filename, UploaderName: "A",
			InboundEmailID: &emailID,
		})
		require.NoError(t, err)
	}
	otherID, err := repo.Create(ctx, &models.Receipt{
		Filename: "keep.jpg", OriginalFilename: "keep.jpg", UploaderName: "B",
	})
	require.NoError(t, err)

	filenames, err := repo.DeleteByInboundEmail(ctx, emailID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one.jpg", "two.pdf"}, filenames)

	remaining, err := repo.ListByInboundEmail(ctx, emailID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	kept, err := repo.GetByID(ctx, otherID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
