package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-quotes/internal/models"
	"gorm.io/gorm"
)

// Sentinel errors for lookups by id.
var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrItemNotFound  = errors.New("quote item not found")
	ErrInvalidStatus = errors.New("invalid quote status")
)

// ValidationError carries field violations from a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// QuoteService reads and writes quotes and their items.
type QuoteService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewQuoteService(db *gorm.DB) *QuoteService {
	return &QuoteService{db: db, now: time.Now}
}

// WithClock replaces the clock used for default quote dates.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// ListQuotes returns every quote, newest first. A non-empty status other than
// "all" keeps only quotes with that status.
func (s *QuoteService) ListQuotes(ctx context.Context, status string) ([]models.Quote, error) {
	var quotes []models.Quote
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return FilterByStatus(quotes, status), nil
}

// FilterByStatus is the display filter applied after a fetch.
func FilterByStatus(quotes []models.Quote, status string) []models.Quote {
	if status == "" || status == "all" {
		return quotes
	}
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if string(q.Status) == status {
			out = append(out, q)
		}
	}
	return out
}

// CreateQuote validates in and inserts a Draft quote.
func (s *QuoteService) CreateQuote(ctx context.Context, in QuoteInput) (*models.Quote, error) {
	if v := in.Validate(); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	q := in.toModel(s.now())
	if err := s.db.WithContext(ctx).Create(&q).Error; err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return &q, nil
}

// GetQuote loads the quote header only.
func (s *QuoteService) GetQuote(ctx context.Context, id uint) (*models.Quote, error) {
	var q models.Quote
	if err := s.db.WithContext(ctx).First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote %d: %w", id, err)
	}
	return &q, nil
}

// DeleteQuote removes the quote and its items.
func (s *QuoteService) DeleteQuote(ctx context.Context, id uint) error {
	q := models.Quote{ID: id}
	res := s.db.WithContext(ctx).Select("Items").Delete(&q)
	if res.Error != nil {
		return fmt.Errorf("delete quote %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrQuoteNotFound
	}
	return nil
}

// SetStatus changes the status. Any known status may follow any other.
func (s *QuoteService) SetStatus(ctx context.Context, id uint, status models.QuoteStatus) (*models.Quote, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	q, err := s.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(q).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update quote %d status: %w", id, err)
	}
	q.Status = status
	return q, nil
}

// ListItems returns the items of a quote, newest first.
func (s *QuoteService) ListItems(ctx context.Context, quoteID uint) ([]models.QuoteItem, error) {
	var items []models.QuoteItem
	err := s.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list items of quote %d: %w", quoteID, err)
	}
	return items, nil
}

// GetItem loads one item, scoped to its quote.
func (s *QuoteService) GetItem(ctx context.Context, quoteID, itemID uint) (*models.QuoteItem, error) {
	var item models.QuoteItem
	err := s.db.WithContext(ctx).Where("quote_id = ?", quoteID).First(&item, itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item %d: %w", itemID, err)
	}
	return &item, nil
}

// CreateItem validates in and appends it to the quote.
func (s *QuoteService) CreateItem(ctx context.Context, quoteID uint, in ItemInput) (*models.QuoteItem, error) {
	item, v := in.Parse()
	if !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	if _, err := s.GetQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	item.QuoteID = quoteID
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return &item, nil
}

// UpdateItem validates in and overwrites the item's fields.
func (s *QuoteService) UpdateItem(ctx context.Context, quoteID, itemID uint, in ItemInput) (*models.QuoteItem, error) {
	parsed, v := in.Parse()
	if !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	item, err := s.GetItem(ctx, quoteID, itemID)
	if err != nil {
		return nil, err
	}
	item.Area = parsed.Area
	item.WindowID = parsed.WindowID
	item.ProductID = parsed.ProductID
	item.FabricID = parsed.FabricID
	item.SystemType = parsed.SystemType
	item.Collection = parsed.Collection
	item.FabricColor = parsed.FabricColor
	item.FabricCode = parsed.FabricCode
	item.SetDimensions(parsed.Width, parsed.Height)
	item.Quantity = parsed.Quantity
	item.Notes = parsed.Notes
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}
	return item, nil
}

// DeleteItem removes exactly one item of the quote.
func (s *QuoteService) DeleteItem(ctx context.Context, quoteID, itemID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND quote_id = ?", itemID, quoteID).
		Delete(&models.QuoteItem{})
	if res.Error != nil {
		return fmt.Errorf("delete item %d: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// CountByStatus tallies quotes per status for the dashboard.
func (s *QuoteService) CountByStatus(ctx context.Context) (map[models.QuoteStatus]int64, error) {
	var rows []struct {
		Status models.QuoteStatus
		N      int64
	}
	err := s.db.WithContext(ctx).Model(&models.Quote{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count quotes: %w", err)
	}
	counts := make(map[models.QuoteStatus]int64, len(models.QuoteStatuses))
	for _, st := range models.QuoteStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}
