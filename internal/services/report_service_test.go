package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockReportRepository struct {
	mockCollectedInRange   func(ctx context.Context, from, to string) (float64, error)
	mockExpectedInRange    func(ctx context.Context, from, to string) (float64, error)
	mockReconciliationRows func(ctx context.Context, date string) ([]repository.ReconciliationRow, error)
	mockCollectionsInRange func(ctx context.Context, from, to string) ([]models.Collection, error)
}

func (m *mockReportRepository) CollectedInRange(ctx context.Context, from, to string) (float64, error) {
	if m.mockCollectedInRange != nil {
		return m.mockCollectedInRange(ctx, from, to)
	}
	return 0, nil
}
func (m *mockReportRepository) ExpectedInRange(ctx context.Context, from, to string) (float64, error) {
	if m.mockExpectedInRange != nil {
		return m.mockExpectedInRange(ctx, from, to)
	}
	return 0, nil
}
func (m *mockReportRepository) ReconciliationRows(ctx context.Context, date string) ([]repository.ReconciliationRow, error) {
	if m.mockReconciliationRows != nil {
		return m.mockReconciliationRows(ctx, date)
	}
	return nil, nil
}
func (m *mockReportRepository) CollectionsInRange(ctx context.Context, from, to string) ([]models.Collection, error) {
	if m.mockCollectionsInRange != nil {
		return m.mockCollectionsInRange(ctx, from, to)
	}
	return nil, nil
}

type mockExpenseRepo struct {
	repository.ExpenseRepository
	mockSumInRange func(ctx context.Context, from, to string) (float64, error)
}

func (m *mockExpenseRepo) SumInRange(ctx context.Context, from, to string) (float64, error) {
	if m.mockSumInRange != nil {
		return m.mockSumInRange(ctx, from, to)
	}
	return 0, nil
}

type mockLoanRepoForReports struct {
	repository.LoanRepository
	mockOutstandingBalance func(ctx context.Context) (float64, error)
	mockFindDelinquent     func(ctx context.Context) ([]models.Loan, error)
}

func (m *mockLoanRepoForReports) OutstandingBalance(ctx context.Context) (float64, error) {
	if m.mockOutstandingBalance != nil {
		return m.mockOutstandingBalance(ctx)
	}
	return 0, nil
}
func (m *mockLoanRepoForReports) FindDelinquent(ctx context.Context) ([]models.Loan, error) {
	if m.mockFindDelinquent != nil {
		return m.mockFindDelinquent(ctx)
	}
	return nil, nil
}

func TestReportService_Summary(t *testing.T) {
	reportRepo := &mockReportRepository{
		mockCollectedInRange: func(ctx context.Context, from, to string) (float64, error) { return 1200, nil },
		mockExpectedInRange:  func(ctx context.Context, from, to string) (float64, error) { return 1500, nil },
	}
	expenseRepo := &mockExpenseRepo{
		mockSumInRange: func(ctx context.Context, from, to string) (float64, error) { return 300, nil },
	}
	loanRepo := &mockLoanRepoForReports{
		mockOutstandingBalance: func(ctx context.Context) (float64, error) { return 5000, nil },
		mockFindDelinquent: func(ctx context.Context) ([]models.Loan, error) {
			return []models.Loan{{ID: 1}, {ID: 2}}, nil
		},
	}

	svc := NewReportService(reportRepo, expenseRepo, loanRepo, &mockCustomerRepository{})

	summary, err := svc.Summary(context.Background(), "2026-08-01", "2026-08-31")
	assert.NoError(t, err)
	assert.Equal(t, 1200.0, summary.Collected)
	assert.Equal(t, 900.0, summary.Net, "net is collected minus expenses")
	assert.Equal(t, 5000.0, summary.LoanOutstanding)
	assert.Equal(t, 2, summary.DelinquentLoans)
}

func TestReportService_Reconciliation_DefaultsToToday(t *testing.T) {
	var gotDate string
	reportRepo := &mockReportRepository{
		mockReconciliationRows: func(ctx context.Context, date string) ([]repository.ReconciliationRow, error) {
			gotDate = date
			return []repository.ReconciliationRow{
				{CollectorID: 1, CollectorName: "Juan", Reported: 500, Accounted: 450, Difference: 50},
			}, nil
		},
	}
	svc := NewReportService(reportRepo, &mockExpenseRepo{}, &mockLoanRepoForReports{}, &mockCustomerRepository{})

	rows, err := svc.Reconciliation(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), gotDate)
	assert.Len(t, rows, 1)
	assert.Equal(t, 50.0, rows[0].Difference)
}

func TestReportService_ExportCollectionsCSV(t *testing.T) {
	reportRepo := &mockReportRepository{
		mockCollectionsInRange: func(ctx context.Context, from, to string) ([]models.Collection, error) {
			return []models.Collection{
				{
					ReferenceCode: "ref-001",
					Total:         250,
					PaymentMethod: models.PaymentMethodCash,
					CreatedAt:     time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC),
					Collector:     models.User{FullName: "Juan Perez"},
					Customer:      models.Customer{FullName: "Maria Lopez"},
				},
			}, nil
		},
	}
	svc := NewReportService(reportRepo, &mockExpenseRepo{}, &mockLoanRepoForReports{}, &mockCustomerRepository{})

	data, filename, err := svc.ExportCollectionsCSV(context.Background(), "2026-08-01", "2026-08-31")
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	out := string(data)
	assert.Contains(t, out, "Reference,Date,Collector,Customer,Market,Method,Total")
	assert.Contains(t, out, "ref-001")
	assert.Contains(t, out, "Juan Perez")
	assert.Contains(t, out, "250.00")
}

func TestReportService_ExportCollectionsXLSX(t *testing.T) {
	reportRepo := &mockReportRepository{
		mockCollectionsInRange: func(ctx context.Context, from, to string) ([]models.Collection, error) {
			return []models.Collection{
				{ReferenceCode: "ref-001", Total: 100, Collector: models.User{FullName: "Juan"}, Customer: models.Customer{FullName: "Maria"}},
				{ReferenceCode: "ref-002", Total: 150, Collector: models.User{FullName: "Juan"}, Customer: models.Customer{FullName: "Pedro"}},
			}, nil
		},
	}
	svc := NewReportService(reportRepo, &mockExpenseRepo{}, &mockLoanRepoForReports{}, &mockCustomerRepository{})

	data, filename, err := svc.ExportCollectionsXLSX(context.Background(), "", "")
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))
	assert.NotEmpty(t, data)
}

func TestReportService_ExportSummaryPDF(t *testing.T) {
	svc := NewReportService(&mockReportRepository{}, &mockExpenseRepo{}, &mockLoanRepoForReports{}, &mockCustomerRepository{})

	data, filename, err := svc.ExportSummaryPDF(context.Background(), "2026-08-01", "2026-08-31")
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, len(data) > 0)
}
