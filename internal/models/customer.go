package models

import (
	"time"
)

// Customer represents a paying customer (market vendor, borrower)
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"not null" json:"full_name"`
	Phone     string    `json:"phone"`
	Address   *string   `json:"address"`
	MarketID  *uint     `gorm:"index" json:"market_id"`
	Notes     *string   `gorm:"type:text" json:"notes"`
	Status    string    `gorm:"default:active;index" json:"status"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Market *Market `gorm:"foreignKey:MarketID" json:"market,omitempty"`
	Loans  []Loan  `gorm:"foreignKey:CustomerID" json:"loans,omitempty"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// CustomerResponse is the JSON response format for customers
type CustomerResponse struct {
	ID         uint      `json:"id"`
	FullName   string    `json:"full_name"`
	Phone      string    `json:"phone"`
	Address    *string   `json:"address"`
	MarketID   *uint     `json:"market_id"`
	MarketName string    `json:"market_name,omitempty"`
	Notes      *string   `json:"notes"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts Customer to CustomerResponse
func (c *Customer) ToResponse() CustomerResponse {
	resp := CustomerResponse{
		ID:        c.ID,
		FullName:  c.FullName,
		Phone:     c.Phone,
		Address:   c.Address,
		MarketID:  c.MarketID,
		Notes:     c.Notes,
		Status:    c.Status,
		CreatedAt: c.CreatedAt,
	}
	if c.Market != nil {
		resp.MarketName = c.Market.Name
	}
	return resp
}
