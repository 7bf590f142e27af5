package repository

import (
	"context"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/gorm"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindByIDWithLoans(ctx context.Context, id uint) (*models.Customer, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error)
	FindDetails(ctx context.Context, customerID uint) ([]models.CollectionDetail, error)
}

// customerSortColumns enumerates the columns List may sort on
var customerSortColumns = map[string]string{
	"full_name":  "full_name",
	"phone":      "phone",
	"status":     "status",
	"created_at": "created_at",
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Joins("Market").First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByIDWithLoans(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Joins("Market").
		Preload("Loans", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_date DESC")
		}).
		First(&customer, id).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *customerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Customer{}, id).Error
}

func (r *customerRepository) List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error) {
	var customers []models.Customer
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Customer{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("full_name ILIKE ? OR phone ILIKE ?", search, search)
	}
	if val := query.Filter("market_id"); val != "" {
		db = db.Where("market_id = ?", val)
	}
	if val := query.Filter("status"); val != "" {
		db = db.Where("status = ?", val)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.SortClause(customerSortColumns, "full_name ASC"))

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Market").Find(&customers).Error
	return customers, total, err
}

// FindDetails returns all collection detail rows recorded against a customer,
// newest first. Used for the customer statement.
func (r *customerRepository) FindDetails(ctx context.Context, customerID uint) ([]models.CollectionDetail, error) {
	var details []models.CollectionDetail
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Collection").
		Order("created_at DESC").
		Find(&details).Error
	return details, err
}
