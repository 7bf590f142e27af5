package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"gorm.io/gorm"
)

// CustomerService handles customer management
type CustomerService struct {
	repo       repository.CustomerRepository
	marketRepo repository.MarketRepository
	loanRepo   repository.LoanRepository
	auditSvc   *AuditService
}

func NewCustomerService(repo repository.CustomerRepository, marketRepo repository.MarketRepository, loanRepo repository.LoanRepository, auditSvc *AuditService) *CustomerService {
	return &CustomerService{
		repo:       repo,
		marketRepo: marketRepo,
		loanRepo:   loanRepo,
		auditSvc:   auditSvc,
	}
}

func (s *CustomerService) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	customer, err := s.repo.FindByIDWithLoans(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context, query *repository.ListQuery) ([]models.Customer, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *CustomerService) Create(ctx context.Context, customer *models.Customer, actor *models.User, ip, userAgent string) error {
	if strings.TrimSpace(customer.FullName) == "" {
		return fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	if customer.MarketID != nil {
		if _, err := s.marketRepo.FindByID(ctx, *customer.MarketID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: market %d", ErrNotFound, *customer.MarketID)
			}
			return err
		}
	}

	customer.CreatedBy = actor.ID
	if err := s.repo.Create(ctx, customer); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "CREATE", "Customer", customer.ID,
		fmt.Sprintf("Customer created: %s", customer.FullName), ip, userAgent)
	return nil
}

func (s *CustomerService) Update(ctx context.Context, customer *models.Customer, actor *models.User, ip, userAgent string) error {
	if strings.TrimSpace(customer.FullName) == "" {
		return fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	if customer.MarketID != nil {
		if _, err := s.marketRepo.FindByID(ctx, *customer.MarketID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: market %d", ErrNotFound, *customer.MarketID)
			}
			return err
		}
	}

	if err := s.repo.Update(ctx, customer); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "UPDATE", "Customer", customer.ID,
		fmt.Sprintf("Customer updated: %s", customer.FullName), ip, userAgent)
	return nil
}

// Delete removes a customer. Blocked while the customer still has an active
// loan; the loan has to be closed or collected first.
func (s *CustomerService) Delete(ctx context.Context, id uint, actor *models.User, ip, userAgent string) error {
	if !actor.IsAdmin() {
		return ErrUnauthorized
	}

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if _, err := s.loanRepo.FindActiveByCustomer(ctx, id); err == nil {
		return fmt.Errorf("%w: customer has an active loan", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actor.ID, "DELETE", "Customer", id,
		fmt.Sprintf("Customer removed: %s", customer.FullName), ip, userAgent)
	return nil
}

// Statement returns the customer's full payment history plus their loans
func (s *CustomerService) Statement(ctx context.Context, id uint) (*models.Customer, []models.CollectionDetail, error) {
	customer, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	details, err := s.repo.FindDetails(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return customer, details, nil
}
