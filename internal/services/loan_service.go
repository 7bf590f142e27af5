package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/internal/statemachine"
	"gorm.io/gorm"
)

// LoanService handles loan lifecycle business logic
type LoanService struct {
	repo         repository.LoanRepository
	customerRepo repository.CustomerRepository
	auditSvc     *AuditService
}

func NewLoanService(repo repository.LoanRepository, customerRepo repository.CustomerRepository, auditSvc *AuditService) *LoanService {
	return &LoanService{
		repo:         repo,
		customerRepo: customerRepo,
		auditSvc:     auditSvc,
	}
}

func (s *LoanService) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) List(ctx context.Context, query *repository.ListQuery) ([]models.Loan, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *LoanService) FindByCustomer(ctx context.Context, customerID uint) ([]models.Loan, error) {
	return s.repo.FindByCustomer(ctx, customerID)
}

func (s *LoanService) FindDelinquent(ctx context.Context) ([]models.Loan, error) {
	return s.repo.FindDelinquent(ctx)
}

// Create opens a new loan for a customer. The one-active-loan rule is enforced
// twice: a friendly pre-check here, and the partial unique index underneath
// for the concurrent case.
func (s *LoanService) Create(ctx context.Context, loan *models.Loan, actor *models.User, ip, userAgent string) error {
	if loan.Total <= 0 {
		return fmt.Errorf("%w: loan total must be greater than zero", ErrValidation)
	}
	if loan.CustomerID == 0 {
		return fmt.Errorf("%w: customer_id is required", ErrValidation)
	}
	if loan.StartDate.IsZero() {
		loan.StartDate = time.Now()
	}

	if _, err := s.customerRepo.FindByID(ctx, loan.CustomerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: customer %d", ErrNotFound, loan.CustomerID)
		}
		return err
	}

	if _, err := s.repo.FindActiveByCustomer(ctx, loan.CustomerID); err == nil {
		return fmt.Errorf("%w: customer %d already has an active loan", ErrConflict, loan.CustomerID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	loan.Status = models.LoanStatusActive
	loan.CreatedBy = actor.ID
	if err := s.repo.Create(ctx, loan); err != nil {
		if errors.Is(err, repository.ErrActiveLoanExists) {
			return fmt.Errorf("%w: customer %d already has an active loan", ErrConflict, loan.CustomerID)
		}
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "CREATE", "Loan", loan.ID,
		fmt.Sprintf("Loan opened: customer %d, total %.2f", loan.CustomerID, loan.Total), ip, userAgent)

	return nil
}

// Close marks a loan as closed. An outstanding balance does not block closure;
// writing a loan off is a business decision, the balance stays on record.
func (s *LoanService) Close(ctx context.Context, id uint, actor *models.User, ip, userAgent string) (*models.Loan, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lfsm := statemachine.NewLoanFSM(loan)
	if err := lfsm.Close(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	now := time.Now()
	if loan.EndDate == nil {
		loan.EndDate = &now
	}
	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "CLOSE", "Loan", loan.ID,
		fmt.Sprintf("Loan closed: customer %d, balance %.2f", loan.CustomerID, loan.Balance()), ip, userAgent)

	return loan, nil
}

// Reopen undoes a closure. The one-active-loan rule applies to reopening the
// same way it applies to creation.
func (s *LoanService) Reopen(ctx context.Context, id uint, actor *models.User, ip, userAgent string) (*models.Loan, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lfsm := statemachine.NewLoanFSM(loan)
	if err := lfsm.Reopen(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, loan); err != nil {
		if errors.Is(err, repository.ErrActiveLoanExists) {
			return nil, fmt.Errorf("%w: customer %d already has an active loan", ErrConflict, loan.CustomerID)
		}
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "REOPEN", "Loan", loan.ID,
		fmt.Sprintf("Loan reopened: customer %d", loan.CustomerID), ip, userAgent)

	return loan, nil
}

// Update edits the agreed terms of a loan. PaidTotal is off limits; it only
// moves through collection postings.
func (s *LoanService) Update(ctx context.Context, id uint, total *float64, endDate *time.Time, notes *string, actor *models.User, ip, userAgent string) (*models.Loan, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	loan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if total != nil {
		if *total <= 0 {
			return nil, fmt.Errorf("%w: loan total must be greater than zero", ErrValidation)
		}
		loan.Total = *total
	}
	if endDate != nil {
		loan.EndDate = endDate
	}
	if notes != nil {
		loan.Notes = notes
	}

	if err := s.repo.Update(ctx, loan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor.ID, "UPDATE", "Loan", loan.ID,
		fmt.Sprintf("Loan terms updated: customer %d", loan.CustomerID), ip, userAgent)

	return loan, nil
}
