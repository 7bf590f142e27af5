package repository

import (
	"context"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/gorm"
)

// ReportRepository provides read-only rollups over the ledger
type ReportRepository interface {
	CollectedInRange(ctx context.Context, from, to string) (float64, error)
	ExpectedInRange(ctx context.Context, from, to string) (float64, error)
	ReconciliationRows(ctx context.Context, date string) ([]ReconciliationRow, error)
	CollectionsInRange(ctx context.Context, from, to string) ([]models.Collection, error)
}

// ReconciliationRow compares what a collector reported (header totals) against
// what the per-customer breakdown accounts for (sum of PAID detail amounts)
// over one calendar day.
type ReconciliationRow struct {
	CollectorID   uint    `json:"collector_id"`
	CollectorName string  `json:"collector_name"`
	Reported      float64 `json:"reported"`
	Accounted     float64 `json:"accounted"`
	Difference    float64 `json:"difference"`
	EventCount    int64   `json:"event_count"`
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// CollectedInRange sums header totals over the range
func (r *reportRepository) CollectedInRange(ctx context.Context, from, to string) (float64, error) {
	var result struct {
		Total float64
	}
	db := r.db.WithContext(ctx).Model(&models.Collection{}).
		Select("COALESCE(SUM(total), 0) as total")
	if from != "" {
		db = db.Where("created_at >= ?", from)
	}
	if to != "" {
		db = db.Where("created_at <= ?", endOfDay(to))
	}
	err := db.Scan(&result).Error
	return result.Total, err
}

// ExpectedInRange sums all detail amounts (PAID and NOT_PAID) over the range:
// the money the breakdown says was due for collection.
func (r *reportRepository) ExpectedInRange(ctx context.Context, from, to string) (float64, error) {
	var result struct {
		Total float64
	}
	db := r.db.WithContext(ctx).Model(&models.CollectionDetail{}).
		Select("COALESCE(SUM(collection_details.amount), 0) as total").
		Joins("JOIN collections ON collections.id = collection_details.collection_id")
	if from != "" {
		db = db.Where("collections.created_at >= ?", from)
	}
	if to != "" {
		db = db.Where("collections.created_at <= ?", endOfDay(to))
	}
	err := db.Scan(&result).Error
	return result.Total, err
}

func (r *reportRepository) ReconciliationRows(ctx context.Context, date string) ([]ReconciliationRow, error) {
	var rows []ReconciliationRow
	err := r.db.WithContext(ctx).
		Model(&models.Collection{}).
		Select(`collections.collector_id,
			users.full_name as collector_name,
			COALESCE(SUM(collections.total), 0) as reported,
			COALESCE((
				SELECT SUM(cd.amount)
				FROM collection_details cd
				JOIN collections c2 ON c2.id = cd.collection_id
				WHERE c2.collector_id = collections.collector_id
				  AND cd.status = ?
				  AND c2.created_at >= ? AND c2.created_at <= ?
			), 0) as accounted,
			COUNT(collections.id) as event_count`,
			models.DetailStatusPaid, date, endOfDay(date)).
		Joins("JOIN users ON users.id = collections.collector_id").
		Where("collections.created_at >= ? AND collections.created_at <= ?", date, endOfDay(date)).
		Group("collections.collector_id, users.full_name").
		Order("users.full_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Difference = rows[i].Reported - rows[i].Accounted
	}
	return rows, nil
}

func (r *reportRepository) CollectionsInRange(ctx context.Context, from, to string) ([]models.Collection, error) {
	var collections []models.Collection
	db := r.db.WithContext(ctx).
		Preload("Collector").
		Preload("Customer").
		Preload("Market")
	if from != "" {
		db = db.Where("created_at >= ?", from)
	}
	if to != "" {
		db = db.Where("created_at <= ?", endOfDay(to))
	}
	err := db.Order("created_at ASC").Find(&collections).Error
	return collections, err
}
