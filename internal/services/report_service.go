package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// LedgerSummary is the headline view of the books over a date range
type LedgerSummary struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Collected       float64 `json:"collected"`
	Expected        float64 `json:"expected"`
	Expenses        float64 `json:"expenses"`
	Net             float64 `json:"net"`
	LoanOutstanding float64 `json:"loan_outstanding"`
	DelinquentLoans int     `json:"delinquent_loans"`
}

// ReportService produces summaries, reconciliations and file exports
type ReportService struct {
	reportRepo   repository.ReportRepository
	expenseRepo  repository.ExpenseRepository
	loanRepo     repository.LoanRepository
	customerRepo repository.CustomerRepository
}

func NewReportService(
	reportRepo repository.ReportRepository,
	expenseRepo repository.ExpenseRepository,
	loanRepo repository.LoanRepository,
	customerRepo repository.CustomerRepository,
) *ReportService {
	return &ReportService{
		reportRepo:   reportRepo,
		expenseRepo:  expenseRepo,
		loanRepo:     loanRepo,
		customerRepo: customerRepo,
	}
}

// Summary builds the headline numbers for a date range
func (s *ReportService) Summary(ctx context.Context, from, to string) (*LedgerSummary, error) {
	collected, err := s.reportRepo.CollectedInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	expected, err := s.reportRepo.ExpectedInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.SumInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.loanRepo.OutstandingBalance(ctx)
	if err != nil {
		return nil, err
	}
	delinquent, err := s.loanRepo.FindDelinquent(ctx)
	if err != nil {
		return nil, err
	}

	return &LedgerSummary{
		From:            from,
		To:              to,
		Collected:       collected,
		Expected:        expected,
		Expenses:        expenses,
		Net:             collected - expenses,
		LoanOutstanding: outstanding,
		DelinquentLoans: len(delinquent),
	}, nil
}

// Reconciliation compares reported header totals against accounted detail
// sums per collector for one day
func (s *ReportService) Reconciliation(ctx context.Context, date string) ([]repository.ReconciliationRow, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return s.reportRepo.ReconciliationRows(ctx, date)
}

// ExportCollectionsCSV writes every collection in the range as CSV
func (s *ReportService) ExportCollectionsCSV(ctx context.Context, from, to string) ([]byte, string, error) {
	collections, err := s.reportRepo.CollectionsInRange(ctx, from, to)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	_ = w.Write([]string{"Reference", "Date", "Collector", "Customer", "Market", "Method", "Total"})
	for _, c := range collections {
		marketName := ""
		if c.Market != nil {
			marketName = c.Market.Name
		}
		_ = w.Write([]string{
			c.ReferenceCode,
			c.CreatedAt.Format("2006-01-02 15:04"),
			c.Collector.FullName,
			c.Customer.FullName,
			marketName,
			c.PaymentMethod,
			fmt.Sprintf("%.2f", c.Total),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collections_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportCollectionsXLSX writes every collection in the range as a spreadsheet
func (s *ReportService) ExportCollectionsXLSX(ctx context.Context, from, to string) ([]byte, string, error) {
	collections, err := s.reportRepo.CollectionsInRange(ctx, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Collections"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Reference", "Date", "Collector", "Customer", "Market", "Method", "Total"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	var grandTotal float64
	for row, c := range collections {
		marketName := ""
		if c.Market != nil {
			marketName = c.Market.Name
		}
		values := []interface{}{
			c.ReferenceCode,
			c.CreatedAt.Format("2006-01-02 15:04"),
			c.Collector.FullName,
			c.Customer.FullName,
			marketName,
			c.PaymentMethod,
			c.Total,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		grandTotal += c.Total
	}

	totalRow := len(collections) + 3
	cell, _ := excelize.CoordinatesToCellName(6, totalRow)
	_ = f.SetCellValue(sheet, cell, "Total")
	cell, _ = excelize.CoordinatesToCellName(7, totalRow)
	_ = f.SetCellValue(sheet, cell, grandTotal)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collections_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportSummaryPDF renders the headline numbers as a one-page PDF
func (s *ReportService) ExportSummaryPDF(ctx context.Context, from, to string) ([]byte, string, error) {
	summary, err := s.Summary(ctx, from, to)
	if err != nil {
		return nil, "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Cash Ledger Summary")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Period:")
	pdf.Cell(40, 10, fmt.Sprintf("%s to %s", summary.From, summary.To))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Totals")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Collected:")
	pdf.Cell(40, 10, fmt.Sprintf("%.2f", summary.Collected))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Expected:")
	pdf.Cell(40, 10, fmt.Sprintf("%.2f", summary.Expected))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Expenses:")
	pdf.Cell(40, 10, fmt.Sprintf("%.2f", summary.Expenses))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Net:")
	pdf.Cell(40, 10, fmt.Sprintf("%.2f", summary.Net))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Loans")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 10, "Outstanding balance:")
	pdf.Cell(40, 10, fmt.Sprintf("%.2f", summary.LoanOutstanding))
	pdf.Ln(6)

	pdf.Cell(60, 10, "Delinquent loans:")
	pdf.Cell(40, 10, fmt.Sprintf("%d", summary.DelinquentLoans))
	pdf.Ln(6)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ledger_summary_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// generatePDF renders an HTML template and converts it with wkhtmltopdf
func (s *ReportService) generatePDF(templateName string, data interface{}) (*bytes.Buffer, error) {
	tmplPath := fmt.Sprintf("internal/services/templates/reports/%s", templateName)
	if _, err := os.Stat(tmplPath); os.IsNotExist(err) {
		// Path relative to package, used when running tests
		tmplPath = fmt.Sprintf("templates/reports/%s", templateName)
	}

	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}

// CustomerStatementPDF generates a PDF statement for one customer: their
// loans and every payment recorded against them.
func (s *ReportService) CustomerStatementPDF(ctx context.Context, customerID uint) (*bytes.Buffer, error) {
	customer, err := s.customerRepo.FindByIDWithLoans(ctx, customerID)
	if err != nil {
		return nil, err
	}
	details, err := s.customerRepo.FindDetails(ctx, customerID)
	if err != nil {
		return nil, err
	}

	type LoanRow struct {
		StartDate string
		Total     string
		PaidTotal string
		Balance   string
		Status    string
	}

	type PaymentRow struct {
		Date   string
		Amount string
		Status string
	}

	type StatementData struct {
		CustomerName string
		MarketName   string
		GeneratedAt  string
		Loans        []LoanRow
		Payments     []PaymentRow
	}

	data := StatementData{
		CustomerName: customer.FullName,
		GeneratedAt:  time.Now().Format("2006-01-02 15:04"),
	}
	if customer.Market != nil {
		data.MarketName = customer.Market.Name
	}

	for _, l := range customer.Loans {
		status := "closed"
		if l.IsActive() {
			status = "active"
		}
		data.Loans = append(data.Loans, LoanRow{
			StartDate: l.StartDate.Format("2006-01-02"),
			Total:     fmt.Sprintf("%.2f", l.Total),
			PaidTotal: fmt.Sprintf("%.2f", l.PaidTotal),
			Balance:   fmt.Sprintf("%.2f", l.Balance()),
			Status:    status,
		})
	}

	for _, d := range details {
		data.Payments = append(data.Payments, PaymentRow{
			Date:   d.CreatedAt.Format("2006-01-02"),
			Amount: fmt.Sprintf("%.2f", d.Amount),
			Status: d.Status,
		})
	}

	return s.generatePDF("customer_statement.html", data)
}

// DailySummary builds the data for the end-of-day reconciliation email
func (s *ReportService) DailySummary(ctx context.Context, date string) (*LedgerSummary, []repository.ReconciliationRow, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	summary, err := s.Summary(ctx, date, date)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.reportRepo.ReconciliationRows(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	return summary, rows, nil
}
