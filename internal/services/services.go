package services

import (
	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/storage"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Auth            *AuthService
	Lease           *LeaseService
	Annex           *AnnexService
	Application     *ApplicationService
	PaymentSchedule *PaymentScheduleService
	Notification    *NotificationService
	Document        *DocumentService
	Audit           *AuditService
	Email           *EmailService
	Export          *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, cfg *config.Config, db *gorm.DB) *Services {
	emailSvc := NewEmailService(cfg)
	notificationSvc := NewNotificationService(repos.Notification, repos.User, emailSvc)
	auditSvc := NewAuditService(db)
	documentSvc := NewDocumentService()

	leaseSvc := NewLeaseService(repos.Lease, repos.User, repos.Listing, documentSvc, store, auditSvc, notificationSvc, worker)
	annexSvc := NewAnnexService(repos.Annex, repos.Lease, auditSvc)

	return &Services{
		Auth:            NewAuthService(repos.User, repos.RefreshToken, cfg),
		Lease:           leaseSvc,
		Annex:           annexSvc,
		Application:     NewApplicationService(repos.Application, repos.Listing, leaseSvc, annexSvc),
		PaymentSchedule: NewPaymentScheduleService(),
		Notification:    notificationSvc,
		Document:        documentSvc,
		Audit:           auditSvc,
		Email:           emailSvc,
		Export:          NewExportService(auditSvc),
	}
}
