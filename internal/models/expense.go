package models

import (
	"time"
)

// Expense represents a business outflow (fuel, supplies, salaries, misc)
type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Amount      float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	Category    string    `gorm:"size:50;not null;index" json:"category"`
	Notes       *string   `gorm:"type:text" json:"notes"`
	ReceiptPath *string   `json:"-"`
	SpentAt     time.Time `gorm:"type:date;not null;index" json:"spent_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}

// Expense category constants (free-form values are also accepted)
const (
	ExpenseCategoryFuel     = "fuel"
	ExpenseCategorySupplies = "supplies"
	ExpenseCategorySalary   = "salary"
	ExpenseCategoryMisc     = "misc"
)

// ExpenseResponse is the JSON response format for expenses
type ExpenseResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	Amount     float64   `json:"amount"`
	Category   string    `json:"category"`
	Notes      *string   `json:"notes"`
	HasReceipt bool      `json:"has_receipt"`
	SpentAt    time.Time `json:"spent_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToResponse converts Expense to ExpenseResponse
func (e *Expense) ToResponse() ExpenseResponse {
	resp := ExpenseResponse{
		ID:         e.ID,
		UserID:     e.UserID,
		Amount:     e.Amount,
		Category:   e.Category,
		Notes:      e.Notes,
		HasReceipt: e.ReceiptPath != nil && *e.ReceiptPath != "",
		SpentAt:    e.SpentAt,
		CreatedAt:  e.CreatedAt,
	}
	if e.User.ID != 0 {
		resp.UserName = e.User.FullName
	}
	return resp
}
