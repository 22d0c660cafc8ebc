package models

import (
	"time"
)

// QuoteStatus represents the lifecycle status of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "Draft"
	QuoteStatusSent     QuoteStatus = "Sent"
	QuoteStatusApproved QuoteStatus = "Approved"
	QuoteStatusRejected QuoteStatus = "Rejected"
)

// QuoteStatuses lists every valid status in display order.
var QuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusSent,
	QuoteStatusApproved,
	QuoteStatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s QuoteStatus) Valid() bool {
	for _, known := range QuoteStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Quote is a customer/project estimate header.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CustomerName    string      `gorm:"size:255;not null" json:"customer_name"`
	ProjectName     string      `gorm:"size:255;not null" json:"project_name"`
	DistributorName *string     `gorm:"size:255" json:"distributor_name"`
	QuoteDate       *time.Time  `gorm:"type:date" json:"quote_date"`
	Status          QuoteStatus `gorm:"size:20;not null;default:'Draft'" json:"status"`
	Notes           *string     `gorm:"type:text" json:"notes"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// QuoteDateString formats the quote date as YYYY-MM-DD, or "" when unset.
func (q *Quote) QuoteDateString() string {
	if q.QuoteDate == nil {
		return ""
	}
	return q.QuoteDate.Format(time.DateOnly)
}

// TotalQuantity sums item quantities.
func (q *Quote) TotalQuantity() int {
	var total int
	for _, item := range q.Items {
		total += item.Quantity
	}
	return total
}

// QuoteItem is one window/area line within a quote.
//
// SystemType, Collection, FabricColor and FabricCode are a snapshot of the
// catalog selection taken at write time. ProductID and FabricID point at the
// catalog rows the snapshot came from so the selection can be restored on edit;
// they are not foreign keys and may dangle if the catalog changes.
type QuoteItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	QuoteID uint   `gorm:"index;not null" json:"quote_id"`
	Quote   *Quote `gorm:"foreignKey:QuoteID" json:"-"`

	Area     string `gorm:"size:255;not null" json:"area"`
	WindowID string `gorm:"size:255;not null" json:"window_id"`

	ProductID   *uint  `gorm:"index" json:"product_id,omitempty"`
	FabricID    *uint  `gorm:"index" json:"fabric_id,omitempty"`
	SystemType  string `gorm:"size:100;not null" json:"system_type"`
	Collection  string `gorm:"size:255;not null" json:"collection"`
	FabricColor string `gorm:"size:255;not null" json:"fabric_color"`
	FabricCode  string `gorm:"size:100;not null" json:"fabric_code"`

	// Width and Height are in millimetres; the _m columns are derived at write time.
	Width    int     `gorm:"not null" json:"width"`
	Height   int     `gorm:"not null" json:"height"`
	WidthM   float64 `gorm:"not null" json:"width_m"`
	HeightM  float64 `gorm:"not null" json:"height_m"`
	Quantity int     `gorm:"not null;default:1" json:"quantity"`
	Notes    string  `gorm:"type:text" json:"notes"`
}

// MillimetresToMetres converts a millimetre measurement to metres.
func MillimetresToMetres(mm int) float64 {
	return float64(mm) / 1000
}

// SetDimensions stores the millimetre measurements and their metre equivalents.
func (item *QuoteItem) SetDimensions(widthMM, heightMM int) {
	item.Width = widthMM
	item.Height = heightMM
	item.WidthM = MillimetresToMetres(widthMM)
	item.HeightM = MillimetresToMetres(heightMM)
}

// AreaM2 returns the covered surface of a single unit in square metres.
func (item *QuoteItem) AreaM2() float64 {
	return item.WidthM * item.HeightM
}
