package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
)

// NotificationService creates in-app notifications and mirrors the important
// ones to email. It implements LeaseNotifier for the lease lifecycle.
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	emailSvc *EmailService
}

// NewNotificationService creates a new notification service. emailSvc may be
// nil; notifications then stay in-app only.
func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, emailSvc *EmailService) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, emailSvc: emailSvc}
}

func (s *NotificationService) FindByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *NotificationService) FindByUser(ctx context.Context, userID uint, query *repository.ListQuery) ([]models.Notification, int64, error) {
	return s.repo.FindByUser(ctx, userID, query)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uint) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if notification.UserID != userID {
		return ErrForbidden
	}
	notification.MarkAsRead()
	return s.repo.Update(ctx, notification)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// PurgeRead removes read notifications older than the retention window.
// Called from the scheduled cleanup job.
func (s *NotificationService) PurgeRead(ctx context.Context, age time.Duration) (int64, error) {
	return s.repo.DeleteReadOlderThan(ctx, age)
}

// NotifyUser creates one in-app notification
func (s *NotificationService) NotifyUser(ctx context.Context, userID uint, title, message, notifType string) error {
	notification := &models.Notification{
		UserID:           userID,
		Title:            title,
		Message:          message,
		NotificationType: &notifType,
	}
	return s.repo.Create(ctx, notification)
}

// NotifyAdmins fans one notification out to every admin account
func (s *NotificationService) NotifyAdmins(ctx context.Context, title, message, notifType string) error {
	admins, err := s.userRepo.FindAdmins(ctx)
	if err != nil {
		return err
	}
	for _, admin := range admins {
		notification := &models.Notification{
			UserID:           admin.ID,
			Title:            title,
			Message:          message,
			NotificationType: &notifType,
		}
		if err := s.repo.Create(ctx, notification); err != nil {
			logger.Error("Failed to notify admin", "user_id", admin.ID, "error", err)
		}
	}
	return nil
}

// NotifyLeaseCreated informs both parties that a lease draft is ready to sign
func (s *NotificationService) NotifyLeaseCreated(ctx context.Context, lease *models.Lease) error {
	message := fmt.Sprintf("Lease #%d has been created and is ready for signature.", lease.ID)
	for _, userID := range []uint{lease.TenantUserID, lease.LandlordUserID} {
		if err := s.NotifyUser(ctx, userID, "New lease ready to sign", message, models.NotificationTypeLeaseCreated); err != nil {
			return err
		}
		s.sendLeaseEmail(ctx, userID, lease, func(user *models.User) error {
			return s.emailSvc.SendLeaseCreated(ctx, user, lease)
		})
	}
	return nil
}

// NotifyLeaseSigned informs the counterparty that the other side has signed
func (s *NotificationService) NotifyLeaseSigned(ctx context.Context, lease *models.Lease, role string) error {
	counterparty := lease.LandlordUserID
	signer := "The tenant"
	if role == models.SignerRoleOwner {
		counterparty = lease.TenantUserID
		signer = "The landlord"
	}
	message := fmt.Sprintf("%s has signed lease #%d.", signer, lease.ID)
	return s.NotifyUser(ctx, counterparty, "Lease signed", message, models.NotificationTypeLeaseSigned)
}

// NotifyLeaseFinalized informs both parties that the sealed document exists
func (s *NotificationService) NotifyLeaseFinalized(ctx context.Context, lease *models.Lease) error {
	message := fmt.Sprintf("Lease #%d is fully signed. The final document is available for download.", lease.ID)
	for _, userID := range []uint{lease.TenantUserID, lease.LandlordUserID} {
		if err := s.NotifyUser(ctx, userID, "Lease finalized", message, models.NotificationTypeLeaseFinalized); err != nil {
			return err
		}
		s.sendLeaseEmail(ctx, userID, lease, func(user *models.User) error {
			return s.emailSvc.SendLeaseFinalized(ctx, user, lease)
		})
	}
	return nil
}

// NotifySignatureReminder nudges the parties that still have to sign. The
// pending side is derived from the lease status.
func (s *NotificationService) NotifySignatureReminder(ctx context.Context, lease *models.Lease) error {
	var pending []uint
	switch lease.Status {
	case models.LeaseStatusDraft:
		pending = []uint{lease.TenantUserID, lease.LandlordUserID}
	case models.LeaseStatusTenantSigned:
		pending = []uint{lease.LandlordUserID}
	case models.LeaseStatusOwnerSigned:
		pending = []uint{lease.TenantUserID}
	default:
		return nil
	}

	message := fmt.Sprintf("Lease #%d is still waiting for your signature.", lease.ID)
	for _, userID := range pending {
		if err := s.NotifyUser(ctx, userID, "Signature pending", message, models.NotificationTypeSignatureReminder); err != nil {
			return err
		}
		s.sendLeaseEmail(ctx, userID, lease, func(user *models.User) error {
			return s.emailSvc.SendSignatureReminder(ctx, user, lease)
		})
	}
	return nil
}

// NotifyApplicationDecision informs the tenant of an accept or reject
func (s *NotificationService) NotifyApplicationDecision(ctx context.Context, application *models.Application) error {
	switch application.Status {
	case models.ApplicationStatusAccepted:
		return s.NotifyUser(ctx, application.TenantUserID, "Application accepted",
			fmt.Sprintf("Your application #%d was accepted. A lease has been prepared for you.", application.ID),
			models.NotificationTypeApplicationAccepted)
	case models.ApplicationStatusRejected:
		return s.NotifyUser(ctx, application.TenantUserID, "Application rejected",
			fmt.Sprintf("Your application #%d was not accepted.", application.ID),
			models.NotificationTypeApplicationRejected)
	}
	return nil
}

func (s *NotificationService) sendLeaseEmail(ctx context.Context, userID uint, lease *models.Lease, send func(*models.User) error) {
	if s.emailSvc == nil {
		return
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logger.Error("Failed to load user for email", "user_id", userID, "error", err)
		return
	}
	if err := send(user); err != nil {
		logger.Error("Failed to send lease email", "user_id", userID, "lease_id", lease.ID, "error", err)
	}
}
