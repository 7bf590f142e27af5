package models

import (
	"time"
)

// Collection is the ledger header for one money-collection event: a single
// visit where a collector gathered payments at a market (or from one customer).
// Total equals the sum of detail amounts when details are present; otherwise
// it is the single reported amount.
type Collection struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReferenceCode string    `gorm:"size:36;uniqueIndex" json:"reference_code"`
	CollectorID   uint      `gorm:"not null;index" json:"collector_id"`
	CustomerID    uint      `gorm:"not null;index" json:"customer_id"` // primary/reference customer
	MarketID      *uint     `gorm:"index" json:"market_id"`
	Total         float64   `gorm:"type:decimal(12,2);not null" json:"total"`
	PaymentMethod string    `gorm:"default:cash" json:"payment_method"`
	Type          *string   `json:"type"`
	Category      *string   `json:"category"`
	Notes         *string   `gorm:"type:text" json:"notes"`
	PhotoPath     *string   `json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Collector User               `gorm:"foreignKey:CollectorID" json:"collector,omitempty"`
	Customer  Customer           `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Market    *Market            `gorm:"foreignKey:MarketID" json:"market,omitempty"`
	Details   []CollectionDetail `gorm:"foreignKey:CollectionID" json:"details,omitempty"`
}

// TableName specifies the table name for Collection
func (Collection) TableName() string {
	return "collections"
}

// Payment method constants
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "bank_transfer"
	PaymentMethodWallet   = "e_wallet"
)

// DetailTotal returns the sum of all detail amounts
func (c *Collection) DetailTotal() float64 {
	var sum float64
	for _, d := range c.Details {
		sum += d.Amount
	}
	return sum
}

// CollectionResponse is the JSON response format for collection headers
type CollectionResponse struct {
	ID            uint                       `json:"id"`
	ReferenceCode string                     `json:"reference_code"`
	CollectorID   uint                       `json:"collector_id"`
	CollectorName string                     `json:"collector_name,omitempty"`
	CustomerID    uint                       `json:"customer_id"`
	CustomerName  string                     `json:"customer_name,omitempty"`
	MarketID      *uint                      `json:"market_id"`
	MarketName    string                     `json:"market_name,omitempty"`
	Total         float64                    `json:"total"`
	PaymentMethod string                     `json:"payment_method"`
	Type          *string                    `json:"type"`
	Category      *string                    `json:"category"`
	Notes         *string                    `json:"notes"`
	HasPhoto      bool                       `json:"has_photo"`
	DetailCount   int                        `json:"detail_count"`
	Details       []CollectionDetailResponse `json:"details,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// ToResponse converts Collection to CollectionResponse
func (c *Collection) ToResponse() CollectionResponse {
	resp := CollectionResponse{
		ID:            c.ID,
		ReferenceCode: c.ReferenceCode,
		CollectorID:   c.CollectorID,
		CustomerID:    c.CustomerID,
		MarketID:      c.MarketID,
		Total:         c.Total,
		PaymentMethod: c.PaymentMethod,
		Type:          c.Type,
		Category:      c.Category,
		Notes:         c.Notes,
		HasPhoto:      c.PhotoPath != nil && *c.PhotoPath != "",
		DetailCount:   len(c.Details),
		CreatedAt:     c.CreatedAt,
	}
	if c.Collector.ID != 0 {
		resp.CollectorName = c.Collector.FullName
	}
	if c.Customer.ID != 0 {
		resp.CustomerName = c.Customer.FullName
	}
	if c.Market != nil {
		resp.MarketName = c.Market.Name
	}
	for _, d := range c.Details {
		resp.Details = append(resp.Details, d.ToResponse())
	}
	return resp
}
