package models

import (
	"time"
)

// CollectionDetail is one customer's allocation within a collection event.
// A NOT_PAID row still occupies a row: it records an expected but unfulfilled
// payment, not the absence of one.
type CollectionDetail struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CollectionID uint      `gorm:"not null;index" json:"collection_id"`
	CustomerID   uint      `gorm:"not null;index" json:"customer_id"`
	Amount       float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status       string    `gorm:"default:PAID;not null" json:"status"`
	Notes        *string   `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Associations
	Collection Collection `gorm:"foreignKey:CollectionID" json:"-"`
	Customer   Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName specifies the table name for CollectionDetail
func (CollectionDetail) TableName() string {
	return "collection_details"
}

// Detail status constants. Status is a free-standing flag: both directions of
// the PAID/NOT_PAID transition are permitted.
const (
	DetailStatusPaid    = "PAID"
	DetailStatusNotPaid = "NOT_PAID"
)

// ValidDetailStatus reports whether s is a recognized detail status
func ValidDetailStatus(s string) bool {
	return s == DetailStatusPaid || s == DetailStatusNotPaid
}

// CollectionDetailResponse is the JSON response format for details
type CollectionDetailResponse struct {
	ID           uint      `json:"id"`
	CollectionID uint      `json:"collection_id"`
	CustomerID   uint      `json:"customer_id"`
	CustomerName string    `json:"customer_name,omitempty"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToResponse converts CollectionDetail to CollectionDetailResponse
func (d *CollectionDetail) ToResponse() CollectionDetailResponse {
	resp := CollectionDetailResponse{
		ID:           d.ID,
		CollectionID: d.CollectionID,
		CustomerID:   d.CustomerID,
		Amount:       d.Amount,
		Status:       d.Status,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt,
	}
	if d.Customer.ID != 0 {
		resp.CustomerName = d.Customer.FullName
	}
	return resp
}
