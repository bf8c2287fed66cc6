package handlers

import (
	"github.com/rentora/rentora-api/internal/services"
	"github.com/rentora/rentora-api/internal/storage"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Lease        *LeaseHandler
	Annex        *AnnexHandler
	Application  *ApplicationHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, storage *storage.LocalStorage) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		Lease:        NewLeaseHandler(svcs.Lease, svcs.PaymentSchedule),
		Annex:        NewAnnexHandler(svcs.Annex),
		Application:  NewApplicationHandler(svcs.Application, svcs.Notification),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit, svcs.Export),
	}
}
