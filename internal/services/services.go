package services

import (
	"github.com/jrmendez/caja-api/internal/config"
	"github.com/jrmendez/caja-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth       *AuthService
	User       *UserService
	Customer   *CustomerService
	Market     *MarketService
	Collection *CollectionService
	Loan       *LoanService
	Expense    *ExpenseService
	Report     *ReportService
	Audit      *AuditService
	Email      *EmailService
	Image      *ImageService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	auditSvc := NewAuditService(repos.Audit)
	emailSvc := NewEmailService(cfg)
	imageSvc := NewImageService(cfg.StoragePath + "/uploads")

	return &Services{
		Auth:       NewAuthService(repos.User, repos.RefreshToken, cfg),
		User:       NewUserService(repos.User, emailSvc, auditSvc),
		Customer:   NewCustomerService(repos.Customer, repos.Market, repos.Loan, auditSvc),
		Market:     NewMarketService(repos.Market, auditSvc),
		Collection: NewCollectionService(repos.Collection, repos.Customer, auditSvc, imageSvc),
		Loan:       NewLoanService(repos.Loan, repos.Customer, auditSvc),
		Expense:    NewExpenseService(repos.Expense, auditSvc),
		Report:     NewReportService(repos.Report, repos.Expense, repos.Loan, repos.Customer),
		Audit:      auditSvc,
		Email:      emailSvc,
		Image:      imageSvc,
	}
}
