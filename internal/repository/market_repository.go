package repository

import (
	"context"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/gorm"
)

// MarketRepository defines the interface for market data access
type MarketRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Market, error)
	Create(ctx context.Context, market *models.Market) error
	Update(ctx context.Context, market *models.Market) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Market, int64, error)
}

type marketRepository struct {
	db *gorm.DB
}

// NewMarketRepository creates a new market repository
func NewMarketRepository(db *gorm.DB) MarketRepository {
	return &marketRepository{db: db}
}

func (r *marketRepository) FindByID(ctx context.Context, id uint) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).First(&market, id).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

func (r *marketRepository) Create(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

func (r *marketRepository) Update(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Save(market).Error
}

func (r *marketRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Market{}, id).Error
}

func (r *marketRepository) List(ctx context.Context, query *ListQuery) ([]models.Market, int64, error) {
	var markets []models.Market
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Market{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("name ILIKE ? OR address ILIKE ?", search, search)
	}
	if val := query.Filter("schedule_day"); val != "" {
		db = db.Where("schedule_day = ?", val)
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("name ASC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Find(&markets).Error
	return markets, total, err
}
