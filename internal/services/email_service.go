package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/jrmendez/caja-api/internal/config"
	"github.com/jrmendez/caja-api/internal/models"
	"github.com/jrmendez/caja-api/internal/repository"
	"github.com/jrmendez/caja-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// EmailService sends transactional mail through Resend
type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

// enabled reports whether Resend is configured; without a key and a verified
// From address there is nothing useful to do.
func (s *EmailService) enabled() bool {
	return s.config.ResendAPIKey != "" && s.config.FromEmail != ""
}

// SendAccountCreated welcomes a newly registered user
func (s *EmailService) SendAccountCreated(ctx context.Context, user *models.User) error {
	if !s.enabled() {
		return nil
	}

	data := struct {
		Name   string
		AppURL string
	}{
		Name:   user.FullName,
		AppURL: s.config.AppURL,
	}

	body, err := s.renderTemplate("account_created.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{user.Email},
		Subject: "Your account is ready",
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error("failed to send email", "to", user.Email, "error", err)
		return err
	}

	logger.Info("email sent", "to", user.Email, "subject", "Your account is ready")
	return nil
}

// SendDailySummary mails the end-of-day reconciliation to every admin
func (s *EmailService) SendDailySummary(ctx context.Context, admins []models.User, summary *LedgerSummary, rows []repository.ReconciliationRow) error {
	if !s.enabled() || len(admins) == 0 {
		return nil
	}

	type rowData struct {
		Collector  string
		Reported   string
		Accounted  string
		Difference string
		Events     int64
	}

	data := struct {
		Date       string
		Collected  string
		Expenses   string
		Net        string
		Rows       []rowData
		HasMissing bool
		AppURL     string
	}{
		Date:      summary.From,
		Collected: fmt.Sprintf("%.2f", summary.Collected),
		Expenses:  fmt.Sprintf("%.2f", summary.Expenses),
		Net:       fmt.Sprintf("%.2f", summary.Net),
		AppURL:    s.config.AppURL,
	}
	for _, r := range rows {
		data.Rows = append(data.Rows, rowData{
			Collector:  r.CollectorName,
			Reported:   fmt.Sprintf("%.2f", r.Reported),
			Accounted:  fmt.Sprintf("%.2f", r.Accounted),
			Difference: fmt.Sprintf("%.2f", r.Difference),
			Events:     r.EventCount,
		})
		if r.Difference != 0 {
			data.HasMissing = true
		}
	}

	body, err := s.renderTemplate("daily_summary.html", data)
	if err != nil {
		return err
	}

	to := make([]string, 0, len(admins))
	for _, a := range admins {
		to = append(to, a.Email)
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      to,
		Subject: fmt.Sprintf("Daily cash summary %s", summary.From),
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error("failed to send daily summary", "recipients", len(to), "error", err)
		return err
	}

	logger.Info("daily summary sent", "recipients", len(to), "date", summary.From)
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
