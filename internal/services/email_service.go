package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/pkg/logger"
	"github.com/resend/resend-go/v2"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// EmailService sends transactional lease emails through Resend
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

type leaseEmailData struct {
	Name        string
	LeaseID     uint
	StartDate   string
	EndDate     string
	MonthlyRent string
	AppURL      string
}

func (s *EmailService) leaseData(user *models.User, lease *models.Lease) leaseEmailData {
	return leaseEmailData{
		Name:        user.FullName,
		LeaseID:     lease.ID,
		StartDate:   lease.StartDate.Format("02/01/2006"),
		EndDate:     lease.EndDate.Format("02/01/2006"),
		MonthlyRent: fmt.Sprintf("%.2f", lease.MonthlyRent),
		AppURL:      s.config.AppURL,
	}
}

func (s *EmailService) SendLeaseCreated(ctx context.Context, user *models.User, lease *models.Lease) error {
	return s.send(user.Email, "Your lease is ready to sign", "lease_created.html", s.leaseData(user, lease))
}

func (s *EmailService) SendLeaseFinalized(ctx context.Context, user *models.User, lease *models.Lease) error {
	return s.send(user.Email, "Your lease is finalized", "lease_finalized.html", s.leaseData(user, lease))
}

func (s *EmailService) SendSignatureReminder(ctx context.Context, user *models.User, lease *models.Lease) error {
	return s.send(user.Email, "Reminder: your lease is waiting for your signature", "signature_reminder.html", s.leaseData(user, lease))
}

func (s *EmailService) send(to, subject, templateName string, data interface{}) error {
	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	if _, err := s.resendClient.Emails.Send(params); err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", to, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", to, subject))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
