package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/validation"
)

// Dimension bounds for item width and height, in millimetres.
const (
	MinMillimetres = 100
	MaxMillimetres = 9999
)

// CodeDimensionRange is the violation for a width or height outside
// MinMillimetres..MaxMillimetres.
const CodeDimensionRange = "dimension_range"

// QuoteInput is the raw quote header as submitted by a form or JSON body.
type QuoteInput struct {
	CustomerName    string `json:"customer_name"`
	ProjectName     string `json:"project_name"`
	DistributorName string `json:"distributor_name"`
	QuoteDate       string `json:"quote_date"`
	Notes           string `json:"notes"`
}

// Validate checks the header. Only customer and project are required;
// the date must be YYYY-MM-DD when present.
func (in QuoteInput) Validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("customer_name", in.CustomerName, v)
	validation.Required("project_name", in.ProjectName, v)
	validation.Date("quote_date", in.QuoteDate, v)
	return v
}

// toModel builds a Draft quote. A blank date becomes today; blank
// distributor and notes are stored as NULL.
func (in QuoteInput) toModel(today time.Time) models.Quote {
	q := models.Quote{
		CustomerName:    strings.TrimSpace(in.CustomerName),
		ProjectName:     strings.TrimSpace(in.ProjectName),
		DistributorName: nullable(in.DistributorName),
		Notes:           nullable(in.Notes),
		Status:          models.QuoteStatusDraft,
	}
	d := today
	if s := strings.TrimSpace(in.QuoteDate); s != "" {
		if parsed, err := time.Parse(time.DateOnly, s); err == nil {
			d = parsed
		}
	}
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	q.QuoteDate = &d
	return q
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ItemInput is the raw item form. Numbers stay strings until Parse so the
// form can be re-rendered exactly as typed.
type ItemInput struct {
	Area        string `json:"area"`
	WindowID    string `json:"window_id"`
	ProductID   string `json:"product_id"`
	FabricID    string `json:"fabric_id"`
	SystemType  string `json:"system_type"`
	Collection  string `json:"collection"`
	FabricColor string `json:"fabric_color"`
	FabricCode  string `json:"fabric_code"`
	Width       string `json:"width"`
	Height      string `json:"height"`
	Quantity    string `json:"quantity"`
	Notes       string `json:"notes"`
}

// ItemInputFrom fills the form fields back from a stored item.
func ItemInputFrom(item models.QuoteItem) ItemInput {
	in := ItemInput{
		Area:        item.Area,
		WindowID:    item.WindowID,
		SystemType:  item.SystemType,
		Collection:  item.Collection,
		FabricColor: item.FabricColor,
		FabricCode:  item.FabricCode,
		Width:       strconv.Itoa(item.Width),
		Height:      strconv.Itoa(item.Height),
		Quantity:    strconv.Itoa(item.Quantity),
		Notes:       item.Notes,
	}
	if item.ProductID != nil {
		in.ProductID = strconv.FormatUint(uint64(*item.ProductID), 10)
	}
	if item.FabricID != nil {
		in.FabricID = strconv.FormatUint(uint64(*item.FabricID), 10)
	}
	return in
}

// SanitizeMillimetres keeps digits only and at most four of them, the way
// the width and height inputs accept keystrokes.
func SanitizeMillimetres(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 4 {
			break
		}
	}
	return b.String()
}

// Parse validates the form and returns the item to store. The returned
// violations are empty when the item is valid.
func (in ItemInput) Parse() (models.QuoteItem, validation.Violations) {
	v := make(validation.Violations)
	validation.Required("area", in.Area, v)
	validation.Required("window_id", in.WindowID, v)
	validation.Required("system_type", in.SystemType, v)
	validation.Required("collection", in.Collection, v)
	validation.Required("fabric_color", in.FabricColor, v)
	validation.Required("fabric_code", in.FabricCode, v)
	validation.Required("width", in.Width, v)
	validation.Required("height", in.Height, v)
	validation.Required("quantity", in.Quantity, v)

	width, wok := validation.Int("width", in.Width, v)
	height, hok := validation.Int("height", in.Height, v)
	qty, qok := validation.Int("quantity", in.Quantity, v)
	if wok {
		validation.Between("width", width, MinMillimetres, MaxMillimetres, CodeDimensionRange, v)
	}
	if hok {
		validation.Between("height", height, MinMillimetres, MaxMillimetres, CodeDimensionRange, v)
	}
	if qok {
		validation.MinInt("quantity", qty, 1, v)
	}

	item := models.QuoteItem{
		Area:        strings.TrimSpace(in.Area),
		WindowID:    strings.TrimSpace(in.WindowID),
		ProductID:   optionalID(in.ProductID),
		FabricID:    optionalID(in.FabricID),
		SystemType:  strings.TrimSpace(in.SystemType),
		Collection:  strings.TrimSpace(in.Collection),
		FabricColor: strings.TrimSpace(in.FabricColor),
		FabricCode:  strings.TrimSpace(in.FabricCode),
		Quantity:    qty,
		Notes:       strings.TrimSpace(in.Notes),
	}
	item.SetDimensions(width, height)
	return item, v
}

func optionalID(s string) *uint {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return nil
	}
	id := uint(n)
	return &id
}
