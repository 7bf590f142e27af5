package repository

import (
	"context"
	"errors"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/gorm"
)

// ActiveLoanIndexName is the partial unique index that guarantees at most one
// active loan per customer at the storage layer (UNIQUE(customer_id) WHERE
// status = 1). Created in database.Migrate.
const ActiveLoanIndexName = "idx_loans_one_active_per_customer"

// ErrActiveLoanExists is returned when a customer already has an active loan
var ErrActiveLoanExists = errors.New("customer already has an active loan")

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindActiveByCustomer(ctx context.Context, customerID uint) (*models.Loan, error)
	Create(ctx context.Context, loan *models.Loan) error
	Update(ctx context.Context, loan *models.Loan) error
	List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.Loan, error)
	FindDelinquent(ctx context.Context) ([]models.Loan, error)
	OutstandingBalance(ctx context.Context) (float64, error)
}

// loanSortColumns enumerates the columns List may sort on
var loanSortColumns = map[string]string{
	"start_date": "loans.start_date",
	"end_date":   "loans.end_date",
	"total":      "loans.total",
	"paid_total": "loans.paid_total",
	"status":     "loans.status",
	"created_at": "loans.created_at",
}

type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Joins("Customer").First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindActiveByCustomer returns the customer's current active loan. Should the
// one-active invariant ever be violated, the most recently started loan wins.
func (r *loanRepository) FindActiveByCustomer(ctx context.Context, customerID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, models.LoanStatusActive).
		Order("start_date DESC").
		First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Create inserts a new loan. The partial unique index on (customer_id) WHERE
// status = 1 makes the one-active-loan rule atomic: a concurrent insert for
// the same customer surfaces as ErrActiveLoanExists instead of a second
// active loan.
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		if isUniqueViolation(err, ActiveLoanIndexName) {
			return ErrActiveLoanExists
		}
		return err
	}
	return nil
}

// Update saves a loan. The partial index also fires on updates, so reopening
// a loan while the customer has another active one fails here too.
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	if err := r.db.WithContext(ctx).Save(loan).Error; err != nil {
		if isUniqueViolation(err, ActiveLoanIndexName) {
			return ErrActiveLoanExists
		}
		return err
	}
	return nil
}

func (r *loanRepository) List(ctx context.Context, query *ListQuery) ([]models.Loan, int64, error) {
	var loans []models.Loan
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Loan{})

	if val := query.Filter("customer_id"); val != "" {
		db = db.Where("loans.customer_id = ?", val)
	}
	if val := query.Filter("status"); val != "" {
		db = db.Where("loans.status = ?", val)
	}
	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN customers ON customers.id = loans.customer_id").
			Where("customers.full_name ILIKE ?", search)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.SortClause(loanSortColumns, "loans.start_date DESC"))

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Customer").Find(&loans).Error
	return loans, total, err
}

func (r *loanRepository) FindByCustomer(ctx context.Context, customerID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("start_date DESC").
		Find(&loans).Error
	return loans, err
}

// FindDelinquent returns active loans past their agreed end date
func (r *loanRepository) FindDelinquent(ctx context.Context) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date < NOW()", models.LoanStatusActive).
		Preload("Customer").
		Find(&loans).Error
	return loans, err
}

// OutstandingBalance sums total - paid_total over all active loans
func (r *loanRepository) OutstandingBalance(ctx context.Context) (float64, error) {
	var result struct {
		Balance float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Select("COALESCE(SUM(total - paid_total), 0) as balance").
		Where("status = ?", models.LoanStatusActive).
		Scan(&result).Error
	return result.Balance, err
}
