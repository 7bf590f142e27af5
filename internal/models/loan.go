package models

import (
	"time"
)

// Loan represents money lent to a customer. A customer has at most one active
// loan at any time; PaidTotal only ever increases, via repayment postings.
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID uint       `gorm:"not null;index" json:"customer_id"`
	Total      float64    `gorm:"type:decimal(12,2);not null" json:"total"`
	PaidTotal  float64    `gorm:"type:decimal(12,2);not null;default:0" json:"paid_total"`
	Status     int        `gorm:"not null;default:1;index" json:"status"` // 1 = active, 0 = closed
	StartDate  time.Time  `gorm:"type:date;not null;index" json:"start_date"`
	EndDate    *time.Time `gorm:"type:date" json:"end_date"`
	Notes      *string    `gorm:"type:text" json:"notes"`
	CreatedBy  uint       `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Associations
	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Creator  User     `gorm:"foreignKey:CreatedBy" json:"-"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusActive = 1
	LoanStatusClosed = 0
)

// IsActive returns true if the loan is still open
func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// Balance returns the amount still owed. Overpayment yields a negative balance.
func (l *Loan) Balance() float64 {
	return l.Total - l.PaidTotal
}

// IsDelinquent returns true if the loan is active past its agreed end date
func (l *Loan) IsDelinquent() bool {
	return l.IsActive() && l.EndDate != nil && time.Now().After(*l.EndDate)
}

// MayClose returns true if the loan can transition to closed
func (l *Loan) MayClose() bool {
	return l.Status == LoanStatusActive
}

// MayReopen returns true if loan closure can be undone
func (l *Loan) MayReopen() bool {
	return l.Status == LoanStatusClosed
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID           uint       `json:"id"`
	CustomerID   uint       `json:"customer_id"`
	CustomerName string     `json:"customer_name,omitempty"`
	Total        float64    `json:"total"`
	PaidTotal    float64    `json:"paid_total"`
	Balance      float64    `json:"balance"`
	Status       int        `json:"status"`
	Delinquent   bool       `json:"delinquent"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Notes        *string    `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	resp := LoanResponse{
		ID:         l.ID,
		CustomerID: l.CustomerID,
		Total:      l.Total,
		PaidTotal:  l.PaidTotal,
		Balance:    l.Balance(),
		Status:     l.Status,
		Delinquent: l.IsDelinquent(),
		StartDate:  l.StartDate,
		EndDate:    l.EndDate,
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt,
	}
	if l.Customer.ID != 0 {
		resp.CustomerName = l.Customer.FullName
	}
	return resp
}
