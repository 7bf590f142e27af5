package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"gorm.io/gorm"
)

// ExpenseService handles operating expense bookkeeping
type ExpenseService struct {
	repo     repository.ExpenseRepository
	auditSvc *AuditService
}

func NewExpenseService(repo repository.ExpenseRepository, auditSvc *AuditService) *ExpenseService {
	return &ExpenseService{repo: repo, auditSvc: auditSvc}
}

func (s *ExpenseService) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	expense, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) List(ctx context.Context, query *repository.ListQuery) ([]models.Expense, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *ExpenseService) Create(ctx context.Context, expense *models.Expense, actor *models.User, ip, userAgent string) error {
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if expense.SpentAt.IsZero() {
		expense.SpentAt = time.Now()
	}

	expense.UserID = actor.ID
	if err := s.repo.Create(ctx, expense); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "CREATE", "Expense", expense.ID,
		fmt.Sprintf("Expense recorded: %.2f (%s)", expense.Amount, expense.Category), ip, userAgent)
	return nil
}

func (s *ExpenseService) Update(ctx context.Context, id uint, amount *float64, category, notes *string, actor *models.User, ip, userAgent string) (*models.Expense, error) {
	expense, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && expense.UserID != actor.ID {
		return nil, ErrUnauthorized
	}

	if amount != nil {
		if *amount <= 0 {
			return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
		}
		expense.Amount = *amount
	}
	if category != nil {
		expense.Category = *category
	}
	if notes != nil {
		expense.Notes = notes
	}

	if err := s.repo.Update(ctx, expense); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "UPDATE", "Expense", expense.ID,
		fmt.Sprintf("Expense updated: %.2f (%s)", expense.Amount, expense.Category), ip, userAgent)
	return expense, nil
}

// AttachReceipt remembers the stored path of an uploaded receipt file
func (s *ExpenseService) AttachReceipt(ctx context.Context, id uint, path string, actor *models.User, ip, userAgent string) error {
	expense, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && expense.UserID != actor.ID {
		return ErrUnauthorized
	}

	expense.ReceiptPath = &path
	if err := s.repo.Update(ctx, expense); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "ATTACH_RECEIPT", "Expense", id, "Receipt attached", ip, userAgent)
	return nil
}

func (s *ExpenseService) Delete(ctx context.Context, id uint, actor *models.User, ip, userAgent string) error {
	expense, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && expense.UserID != actor.ID {
		return ErrUnauthorized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "DELETE", "Expense", id,
		fmt.Sprintf("Expense removed: %.2f (%s)", expense.Amount, expense.Category), ip, userAgent)
	return nil
}
