package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Customer     CustomerRepository
	Market       MarketRepository
	Collection   CollectionRepository
	Loan         LoanRepository
	Expense      ExpenseRepository
	Report       ReportRepository
	Audit        AuditRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Customer:     NewCustomerRepository(db),
		Market:       NewMarketRepository(db),
		Collection:   NewCollectionRepository(db),
		Loan:         NewLoanRepository(db),
		Expense:      NewExpenseRepository(db),
		Report:       NewReportRepository(db),
		Audit:        NewAuditRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}
