package repository

import (
	"context"

	"github.com/jrmendez/caja-api/internal/models"
	"gorm.io/gorm"
)

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, query *ListQuery) ([]models.Expense, int64, error)
	SumInRange(ctx context.Context, from, to string) (float64, error)
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	var expense models.Expense
	err := r.db.WithContext(ctx).Joins("User").First(&expense, id).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *expenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *expenseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Expense{}, id).Error
}

func (r *expenseRepository) List(ctx context.Context, query *ListQuery) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Expense{})

	if val := query.Filter("category"); val != "" {
		db = db.Where("category = ?", val)
	}
	if val := query.Filter("user_id"); val != "" {
		db = db.Where("user_id = ?", val)
	}
	if val := query.Filter("start_date"); val != "" {
		db = db.Where("spent_at >= ?", val)
	}
	if val := query.Filter("end_date"); val != "" {
		db = db.Where("spent_at <= ?", endOfDay(val))
	}

	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order("spent_at DESC")
	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("User").Find(&expenses).Error
	return expenses, total, err
}

func (r *expenseRepository) SumInRange(ctx context.Context, from, to string) (float64, error) {
	var result struct {
		Total float64
	}
	db := r.db.WithContext(ctx).Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) as total")
	if from != "" {
		db = db.Where("spent_at >= ?", from)
	}
	if to != "" {
		db = db.Where("spent_at <= ?", endOfDay(to))
	}
	err := db.Scan(&result).Error
	return result.Total, err
}
