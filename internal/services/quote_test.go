package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 15, 4, 5, 0, time.Local) }

func validItem() ItemInput {
	return ItemInput{
		Area:        "Living room",
		WindowID:    "W1",
		SystemType:  "Roller Blind",
		Collection:  "Blackout",
		FabricColor: "Ivory",
		FabricCode:  "BO-101",
		Width:       "500",
		Height:      "250",
		Quantity:    "1",
	}
}

func TestCreateQuoteDefaults(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t)).WithClock(fixedNow)

	q, err := svc.CreateQuote(context.Background(), QuoteInput{CustomerName: "Acme", ProjectName: "Lobby"})
	require.NoError(t, err)
	assert.NotZero(t, q.ID)
	assert.Equal(t, models.QuoteStatusDraft, q.Status)
	assert.Equal(t, "2024-03-09", q.QuoteDateString())
	assert.Nil(t, q.Notes)
	assert.Nil(t, q.DistributorName)

	stored, err := svc.GetQuote(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.CustomerName)
	assert.Equal(t, models.QuoteStatusDraft, stored.Status)
	assert.Nil(t, stored.Notes)
	assert.Equal(t, "2024-03-09", stored.QuoteDateString())
}

func TestCreateQuoteKeepsGivenDate(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t)).WithClock(fixedNow)
	q, err := svc.CreateQuote(context.Background(), QuoteInput{
		CustomerName: "Acme", ProjectName: "Lobby", QuoteDate: "2023-12-31", DistributorName: "North", Notes: "rush",
	})
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", q.QuoteDateString())
	require.NotNil(t, q.DistributorName)
	assert.Equal(t, "North", *q.DistributorName)
}

func TestCreateQuoteValidation(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewQuoteService(conn)

	_, err := svc.CreateQuote(context.Background(), QuoteInput{ProjectName: "Lobby", QuoteDate: "09/03/2024"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["customer_name"])
	assert.Equal(t, "invalid_date", verr.Fields["quote_date"])
	assert.NotContains(t, verr.Fields, "project_name")

	var n int64
	conn.Model(&models.Quote{}).Count(&n)
	assert.Zero(t, n, "nothing may be stored on validation failure")
}

func TestListQuotesNewestFirstWithFilter(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	ctx := context.Background()

	first, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P1"})
	require.NoError(t, err)
	second, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "B", ProjectName: "P2"})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, first.ID, models.QuoteStatusSent)
	require.NoError(t, err)

	all, err := svc.ListQuotes(ctx, "all")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	sent, err := svc.ListQuotes(ctx, "Sent")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, first.ID, sent[0].ID)

	none, err := svc.ListQuotes(ctx, "Approved")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSetStatusAnyOrder(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
	require.NoError(t, err)

	for _, st := range []models.QuoteStatus{models.QuoteStatusRejected, models.QuoteStatusDraft, models.QuoteStatusApproved} {
		got, err := svc.SetStatus(ctx, q.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}

	_, err = svc.SetStatus(ctx, q.ID, "Paid")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.SetStatus(ctx, 9999, models.QuoteStatusSent)
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestGetQuoteNotFound(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	_, err := svc.GetQuote(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrQuoteNotFound))
}

func TestCreateItemComputesMetres(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
	require.NoError(t, err)

	item, err := svc.CreateItem(ctx, q.ID, validItem())
	require.NoError(t, err)

	items, err := svc.ListItems(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
	assert.Equal(t, 500, items[0].Width)
	assert.Equal(t, 250, items[0].Height)
	assert.Equal(t, 0.5, items[0].WidthM)
	assert.Equal(t, 0.25, items[0].HeightM)
}

func TestCreateItemValidationStoresNothing(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewQuoteService(conn)
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
	require.NoError(t, err)

	in := validItem()
	in.Width = "abc"
	in.Area = ""
	_, err = svc.CreateItem(ctx, q.ID, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must_be_number", verr.Fields["width"])
	assert.Equal(t, "required", verr.Fields["area"])

	var n int64
	conn.Model(&models.QuoteItem{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreateItemUnknownQuote(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	_, err := svc.CreateItem(context.Background(), 77, validItem())
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestUpdateItemRecomputesMetres(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
	require.NoError(t, err)
	item, err := svc.CreateItem(ctx, q.ID, validItem())
	require.NoError(t, err)

	in := validItem()
	in.Width = "1234"
	in.Height = "999"
	in.Quantity = "3"
	updated, err := svc.UpdateItem(ctx, q.ID, item.ID, in)
	require.NoError(t, err)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, 1.234, updated.WidthM)
	assert.Equal(t, 0.999, updated.HeightM)
	assert.Equal(t, 3, updated.Quantity)

	other, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "B", ProjectName: "P"})
	require.NoError(t, err)
	_, err = svc.UpdateItem(ctx, other.ID, item.ID, in)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDeleteItemScopedToQuote(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
	require.NoError(t, err)
	keep, err := svc.CreateItem(ctx, q.ID, validItem())
	require.NoError(t, err)
	drop, err := svc.CreateItem(ctx, q.ID, validItem())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteItem(ctx, q.ID+1, drop.ID), ErrItemNotFound)
	require.NoError(t, svc.DeleteItem(ctx, q.ID, drop.ID))

	items, err := svc.ListItems(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)
}

func TestDeleteQuoteRemovesItems(t *testing.T) {
	conn := setupTestDB(t)
	svc := NewQuoteService(conn)
	ctx := context.Background()
	q, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, q.ID, validItem())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuote(ctx, q.ID))
	_, err = svc.GetQuote(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQuoteNotFound)

	var n int64
	conn.Model(&models.QuoteItem{}).Where("quote_id = ?", q.ID).Count(&n)
	assert.Zero(t, n)

	assert.ErrorIs(t, svc.DeleteQuote(ctx, q.ID), ErrQuoteNotFound)
}

func TestCountByStatus(t *testing.T) {
	svc := NewQuoteService(setupTestDB(t))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.CreateQuote(ctx, QuoteInput{CustomerName: "A", ProjectName: "P"})
		require.NoError(t, err)
	}
	counts, err := svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[models.QuoteStatusDraft])
	assert.EqualValues(t, 0, counts[models.QuoteStatusSent])
}
