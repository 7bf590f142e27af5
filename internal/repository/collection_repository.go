package repository

import (
	"context"
	"errors"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/gorm"
)

// CollectionRepository defines the interface for collection ledger data access.
// PostCollection is the transactional core: header insert, per-detail loan
// application and batch detail insert commit or roll back as one unit.
type CollectionRepository interface {
	PostCollection(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error
	FindByID(ctx context.Context, id uint) (*models.Collection, error)
	List(ctx context.Context, query *CollectionQuery) ([]models.Collection, int64, error)
	UpdateHeader(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, id uint) error
	FindDetail(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error)
	UpdateDetail(ctx context.Context, detail *models.CollectionDetail) error
	DeleteDetail(ctx context.Context, collectionID, customerID uint) error
	SetPhotoPath(ctx context.Context, id uint, path string) error
}

// CollectionQuery extends ListQuery with role scoping: non-admin callers only
// see collections they posted themselves.
type CollectionQuery struct {
	*ListQuery
	CollectorID uint
	IsAdmin     bool
}

// collectionSortColumns enumerates the columns List may sort on
var collectionSortColumns = map[string]string{
	"created_at":     "collections.created_at",
	"total":          "collections.total",
	"payment_method": "collections.payment_method",
	"reference_code": "collections.reference_code",
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// PostCollection durably records a collection event inside one transaction.
// For each detail with a positive amount, the customer's current active loan
// (most recent start_date first) receives a single-statement paid_total
// increment; the detail row is recorded either way, including NOT_PAID rows.
// When details are empty and singleLoanID is set, the whole header total is
// applied to that loan directly and no detail rows are created.
func (r *collectionRepository) PostCollection(ctx context.Context, header *models.Collection, details []models.CollectionDetail, singleLoanID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(header).Error; err != nil {
			return err
		}

		if len(details) > 0 {
			for i := range details {
				d := &details[i]
				d.CollectionID = header.ID

				if d.Amount <= 0 {
					continue
				}

				var loan models.Loan
				err := tx.
					Where("customer_id = ? AND status = ?", d.CustomerID, models.LoanStatusActive).
					Order("start_date DESC").
					First(&loan).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue // no active loan, the detail is plain income
				}
				if err != nil {
					return err
				}

				if err := tx.Model(&models.Loan{}).
					Where("id = ?", loan.ID).
					UpdateColumn("paid_total", gorm.Expr("paid_total + ?", d.Amount)).Error; err != nil {
					return err
				}
			}

			if err := tx.Create(&details).Error; err != nil {
				return err
			}
			return nil
		}

		if singleLoanID != nil {
			res := tx.Model(&models.Loan{}).
				Where("id = ?", *singleLoanID).
				UpdateColumn("paid_total", gorm.Expr("paid_total + ?", header.Total))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		return nil
	})
}

func (r *collectionRepository) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Joins("Collector").
		Joins("Customer").
		Joins("Market").
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Details.Customer").
		First(&collection, id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepository) List(ctx context.Context, query *CollectionQuery) ([]models.Collection, int64, error) {
	var collections []models.Collection
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Collection{})

	// Role scoping: collectors only see their own postings
	if !query.IsAdmin && query.CollectorID > 0 {
		db = db.Where("collections.collector_id = ?", query.CollectorID)
	}

	if val := query.Filter("collector_id"); val != "" {
		db = db.Where("collections.collector_id = ?", val)
	}
	if val := query.Filter("customer_id"); val != "" {
		db = db.Where("collections.customer_id = ?", val)
	}
	if val := query.Filter("market_id"); val != "" {
		db = db.Where("collections.market_id = ?", val)
	}
	if val := query.Filter("payment_method"); val != "" {
		db = db.Where("collections.payment_method = ?", val)
	}
	if val := query.Filter("start_date"); val != "" {
		db = db.Where("collections.created_at >= ?", val)
	}
	if val := query.Filter("end_date"); val != "" {
		db = db.Where("collections.created_at <= ?", endOfDay(val))
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN customers ON customers.id = collections.customer_id").
			Where("customers.full_name ILIKE ? OR collections.reference_code ILIKE ?", search, search)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.SortClause(collectionSortColumns, "collections.created_at DESC"))

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Collector").Preload("Customer").Preload("Market").Find(&collections).Error
	return collections, total, err
}

func (r *collectionRepository) UpdateHeader(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Save(collection).Error
}

// Delete removes the header and its details together
func (r *collectionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Collection{}, id).Error
	})
}

func (r *collectionRepository) FindDetail(ctx context.Context, collectionID, customerID uint) (*models.CollectionDetail, error) {
	var detail models.CollectionDetail
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND customer_id = ?", collectionID, customerID).
		First(&detail).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *collectionRepository) UpdateDetail(ctx context.Context, detail *models.CollectionDetail) error {
	return r.db.WithContext(ctx).Save(detail).Error
}

func (r *collectionRepository) DeleteDetail(ctx context.Context, collectionID, customerID uint) error {
	return r.db.WithContext(ctx).
		Where("collection_id = ? AND customer_id = ?", collectionID, customerID).
		Delete(&models.CollectionDetail{}).Error
}

func (r *collectionRepository) SetPhotoPath(ctx context.Context, id uint, path string) error {
	return r.db.WithContext(ctx).
		Model(&models.Collection{}).
		Where("id = ?", id).
		Update("photo_path", path).Error
}
