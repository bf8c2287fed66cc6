package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// SubmitApplicationRequest carries a tenant's application for a listing
type SubmitApplicationRequest struct {
	ListingID  uint       `json:"listing_id" binding:"required"`
	Message    *string    `json:"message"`
	MoveInDate *time.Time `json:"move_in_date"`
	TermMonths int        `json:"term_months"`
}

// ApplicationService manages tenant applications and their transition into
// leases on acceptance.
type ApplicationService struct {
	applicationRepo repository.ApplicationRepository
	listingRepo     repository.ListingRepository
	leaseSvc        *LeaseService
	annexSvc        *AnnexService
}

// NewApplicationService creates a new application service
func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	listingRepo repository.ListingRepository,
	leaseSvc *LeaseService,
	annexSvc *AnnexService,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		listingRepo:     listingRepo,
		leaseSvc:        leaseSvc,
		annexSvc:        annexSvc,
	}
}

// Submit files a tenant's application for an available listing
func (s *ApplicationService) Submit(ctx context.Context, tenantUserID uint, req *SubmitApplicationRequest) (*models.Application, error) {
	listing, err := s.listingRepo.FindByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !listing.IsAvailable() {
		return nil, fmt.Errorf("listing %d is not accepting applications: %w", listing.ID, ErrInvalidState)
	}
	if listing.LandlordUserID == tenantUserID {
		return nil, fmt.Errorf("landlord cannot apply to their own listing: %w", ErrInvalidState)
	}

	termMonths := req.TermMonths
	if termMonths <= 0 {
		termMonths = listing.MinimumTermMonths
	}

	application := &models.Application{
		ListingID:    listing.ID,
		TenantUserID: tenantUserID,
		Status:       models.ApplicationStatusPending,
		Message:      req.Message,
		MoveInDate:   req.MoveInDate,
		TermMonths:   termMonths,
	}
	if err := s.applicationRepo.Create(ctx, application); err != nil {
		return nil, err
	}
	return application, nil
}

// GetApplication returns one application. Visible to the applying tenant, the
// listing's landlord and admins.
func (s *ApplicationService) GetApplication(ctx context.Context, id, userID uint, isAdmin bool) (*models.Application, error) {
	application, err := s.applicationRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && application.TenantUserID != userID && application.Listing.LandlordUserID != userID {
		return nil, ErrForbidden
	}
	return application, nil
}

// ListForListing returns a listing's applications, landlord only
func (s *ApplicationService) ListForListing(ctx context.Context, listingID, userID uint, isAdmin bool) ([]models.Application, error) {
	listing, err := s.listingRepo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && listing.LandlordUserID != userID {
		return nil, ErrForbidden
	}
	return s.applicationRepo.FindByListing(ctx, listingID)
}

// ListForTenant returns the tenant's own applications
func (s *ApplicationService) ListForTenant(ctx context.Context, tenantUserID uint) ([]models.Application, error) {
	return s.applicationRepo.FindByTenant(ctx, tenantUserID)
}

// Accept approves a pending application. Acceptance creates the draft lease
// with its annex set and takes the listing off the market; the application
// record and lease are linked one-to-one.
func (s *ApplicationService) Accept(ctx context.Context, id, landlordUserID uint, isAdmin bool) (*models.Application, error) {
	application, err := s.applicationRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && application.Listing.LandlordUserID != landlordUserID {
		return nil, ErrForbidden
	}
	if !application.MayAccept() {
		return nil, fmt.Errorf("application %d is %s: %w", application.ID, application.Status, ErrInvalidState)
	}

	now := time.Now()
	application.Status = models.ApplicationStatusAccepted
	application.AcceptedAt = &now
	if err := s.applicationRepo.Update(ctx, application); err != nil {
		return nil, err
	}

	lease, err := s.leaseSvc.CreateFromApplication(ctx, application)
	if err != nil {
		return nil, err
	}
	if _, err := s.annexSvc.CreateForLease(ctx, lease.ID, landlordUserID, isAdmin); err != nil {
		// The lease exists; annex generation can be retried independently
		logger.Error("Failed to generate annex set", "lease_id", lease.ID, "error", err)
	}

	listing := application.Listing
	listing.Status = models.ListingStatusRented
	if err := s.listingRepo.Update(ctx, &listing); err != nil {
		logger.Error("Failed to mark listing as rented", "listing_id", listing.ID, "error", err)
	}

	application.Lease = lease
	return application, nil
}

// Reject declines a pending application
func (s *ApplicationService) Reject(ctx context.Context, id, landlordUserID uint, isAdmin bool, reason *string) (*models.Application, error) {
	application, err := s.applicationRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && application.Listing.LandlordUserID != landlordUserID {
		return nil, ErrForbidden
	}
	if !application.MayReject() {
		return nil, fmt.Errorf("application %d is %s: %w", application.ID, application.Status, ErrInvalidState)
	}

	application.Status = models.ApplicationStatusRejected
	application.RejectionReason = reason
	if err := s.applicationRepo.Update(ctx, application); err != nil {
		return nil, err
	}
	return application, nil
}

// Withdraw lets the applying tenant pull a pending application
func (s *ApplicationService) Withdraw(ctx context.Context, id, tenantUserID uint) (*models.Application, error) {
	application, err := s.applicationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if application.TenantUserID != tenantUserID {
		return nil, ErrForbidden
	}
	if !application.MayWithdraw() {
		return nil, fmt.Errorf("application %d is %s: %w", application.ID, application.Status, ErrInvalidState)
	}

	application.Status = models.ApplicationStatusWithdrawn
	return application, s.applicationRepo.Update(ctx, application)
}
