package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/statemachine"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// DocumentRenderer renders lease artifacts and computes their digest
type DocumentRenderer interface {
	RenderLease(lease *models.Lease, tenantSig, ownerSig *models.LeaseSignature) ([]byte, error)
	Hash(data []byte) string
}

// ArtifactStore persists rendered documents. Satisfied by storage.LocalStorage.
type ArtifactStore interface {
	Put(data []byte, fileName, subDir string) (string, error)
	Get(relativePath string) ([]byte, error)
}

// AuditRecorder is the write-side audit surface other services depend on
type AuditRecorder interface {
	Record(ctx context.Context, userID uint, action, entityType string, entityID uint, entry AuditEntry) error
}

// LeaseNotifier delivers lifecycle notifications to lease parties
type LeaseNotifier interface {
	NotifyLeaseCreated(ctx context.Context, lease *models.Lease) error
	NotifyLeaseSigned(ctx context.Context, lease *models.Lease, role string) error
	NotifyLeaseFinalized(ctx context.Context, lease *models.Lease) error
	NotifySignatureReminder(ctx context.Context, lease *models.Lease) error
}

// AsyncRunner schedules fire-and-forget work. Satisfied by jobs.Worker.
type AsyncRunner interface {
	EnqueueAsync(job jobs.Job)
}

// SignatureRequest carries one party's signing submission
type SignatureRequest struct {
	Initials     *string `json:"initials"`
	ConsentGiven bool    `json:"consent_given" binding:"required"`
	IPAddress    string  `json:"-"`
	UserAgent    string  `json:"-"`
}

// CreateLeaseRequest carries a landlord's manual lease creation
type CreateLeaseRequest struct {
	TenantUserID         uint                   `json:"tenant_user_id" binding:"required"`
	ListingID            *uint                  `json:"listing_id"`
	StartDate            time.Time              `json:"start_date" binding:"required"`
	EndDate              time.Time              `json:"end_date" binding:"required"`
	MonthlyRent          float64                `json:"monthly_rent" binding:"required,gt=0"`
	DepositAmount        float64                `json:"deposit_amount" binding:"gte=0"`
	Terms                *string                `json:"terms"`
	LandlordInfo         map[string]interface{} `json:"landlord_info"`
	PropertyInfo         map[string]interface{} `json:"property_info"`
	LeaseTerms           map[string]interface{} `json:"lease_terms"`
	AdditionalConditions map[string]interface{} `json:"additional_conditions"`
}

// LeaseService drives the lease lifecycle: creation, dual signature capture,
// and finalization into an immutable sealed document.
type LeaseService struct {
	leaseRepo   repository.LeaseRepository
	userRepo    repository.UserRepository
	listingRepo repository.ListingRepository
	renderer    DocumentRenderer
	store       ArtifactStore
	audit       AuditRecorder
	notifier    LeaseNotifier
	runner      AsyncRunner
}

// NewLeaseService creates a new lease service
func NewLeaseService(
	leaseRepo repository.LeaseRepository,
	userRepo repository.UserRepository,
	listingRepo repository.ListingRepository,
	renderer DocumentRenderer,
	store ArtifactStore,
	audit AuditRecorder,
	notifier LeaseNotifier,
	runner AsyncRunner,
) *LeaseService {
	return &LeaseService{
		leaseRepo:   leaseRepo,
		userRepo:    userRepo,
		listingRepo: listingRepo,
		renderer:    renderer,
		store:       store,
		audit:       audit,
		notifier:    notifier,
		runner:      runner,
	}
}

// GetLease returns one lease with its parties and signatures. Non-admin
// callers must be a party to the lease.
func (s *LeaseService) GetLease(ctx context.Context, id, userID uint, isAdmin bool) (*models.Lease, error) {
	lease, err := s.leaseRepo.FindByIDWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && lease.PartyRole(userID) == "" {
		return nil, ErrForbidden
	}
	return lease, nil
}

// ListLeases returns leases visible to the caller
func (s *LeaseService) ListLeases(ctx context.Context, query *repository.LeaseQuery) ([]models.Lease, int64, error) {
	return s.leaseRepo.List(ctx, query)
}

// CreateFromApplication creates the lease backing an accepted application.
// At most one lease exists per application; a repeated accept returns the
// existing lease instead of creating a second one.
func (s *LeaseService) CreateFromApplication(ctx context.Context, application *models.Application) (*models.Lease, error) {
	if existing, err := s.leaseRepo.FindByApplication(ctx, application.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	listing := application.Listing
	if listing.ID == 0 {
		l, err := s.listingRepo.FindByID(ctx, application.ListingID)
		if err != nil {
			return nil, fmt.Errorf("failed to load listing %d: %w", application.ListingID, err)
		}
		listing = *l
	}

	startDate := time.Now().Truncate(24 * time.Hour)
	if application.MoveInDate != nil {
		startDate = *application.MoveInDate
	}
	termMonths := application.TermMonths
	if termMonths <= 0 {
		termMonths = listing.MinimumTermMonths
	}
	endDate := startDate.AddDate(0, termMonths, 0)

	applicationID := application.ID
	lease := &models.Lease{
		ApplicationID:  &applicationID,
		Origin:         models.LeaseOriginApplication,
		TenantUserID:   application.TenantUserID,
		LandlordUserID: listing.LandlordUserID,
		ListingID:      &listing.ID,
		StartDate:      startDate,
		EndDate:        endDate,
		MonthlyRent:    listing.MonthlyRent,
		DepositAmount:  listing.DepositAmount,
		PropertyInfo: jsonbFrom(map[string]interface{}{
			"address": listing.Address,
			"city":    listing.City,
			"title":   listing.Title,
		}),
		Status:          models.LeaseStatusDraft,
		DocumentVersion: 1,
	}

	if err := s.leaseRepo.Create(ctx, lease); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, listing.LandlordUserID, models.AuditLeaseCreated, lease, AuditEntry{
		Details:  "Lease created from accepted application",
		Metadata: map[string]interface{}{"application_id": application.ID, "origin": lease.Origin},
	})
	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.NotifyLeaseCreated(ctx, lease)
	})

	return lease, nil
}

// CreateManual creates a lease directly, without an application behind it
func (s *LeaseService) CreateManual(ctx context.Context, landlordUserID uint, req *CreateLeaseRequest) (*models.Lease, error) {
	tenant, err := s.userRepo.FindByID(ctx, req.TenantUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !tenant.IsTenant() {
		return nil, fmt.Errorf("user %d cannot be the tenant party: %w", tenant.ID, ErrInvalidState)
	}
	if tenant.ID == landlordUserID {
		return nil, fmt.Errorf("landlord and tenant must be distinct parties: %w", ErrInvalidState)
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("lease end date must be after start date: %w", ErrInvalidState)
	}

	if req.ListingID != nil {
		listing, err := s.listingRepo.FindByID(ctx, *req.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if listing.LandlordUserID != landlordUserID {
			return nil, ErrForbidden
		}
	}

	lease := &models.Lease{
		Origin:               models.LeaseOriginManual,
		TenantUserID:         tenant.ID,
		LandlordUserID:       landlordUserID,
		ListingID:            req.ListingID,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		MonthlyRent:          req.MonthlyRent,
		DepositAmount:        req.DepositAmount,
		Terms:                req.Terms,
		LandlordInfo:         jsonbFrom(req.LandlordInfo),
		PropertyInfo:         jsonbFrom(req.PropertyInfo),
		LeaseTerms:           jsonbFrom(req.LeaseTerms),
		AdditionalConditions: jsonbFrom(req.AdditionalConditions),
		Status:               models.LeaseStatusDraft,
		DocumentVersion:      1,
	}

	if err := s.leaseRepo.Create(ctx, lease); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, landlordUserID, models.AuditLeaseCreated, lease, AuditEntry{
		Details:  "Lease created manually by landlord",
		Metadata: map[string]interface{}{"origin": lease.Origin},
	})
	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.NotifyLeaseCreated(ctx, lease)
	})

	return lease, nil
}

// SubmitTenantSignature records the tenant's signature on the lease
func (s *LeaseService) SubmitTenantSignature(ctx context.Context, leaseID, userID uint, req *SignatureRequest) (*models.Lease, error) {
	return s.submitSignature(ctx, leaseID, userID, models.SignerRoleTenant, req)
}

// SubmitOwnerSignature records the landlord's signature on the lease
func (s *LeaseService) SubmitOwnerSignature(ctx context.Context, leaseID, userID uint, req *SignatureRequest) (*models.Lease, error) {
	return s.submitSignature(ctx, leaseID, userID, models.SignerRoleOwner, req)
}

func (s *LeaseService) submitSignature(ctx context.Context, leaseID, userID uint, role string, req *SignatureRequest) (*models.Lease, error) {
	lease, err := s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lease.PartyRole(userID) != role {
		return nil, ErrForbidden
	}
	if lease.IsFinalized() {
		return nil, ErrAlreadyFinalized
	}
	// Consent is checked before anything is written; a submission without it
	// leaves no trace beyond the rejected request.
	if !req.ConsentGiven {
		return nil, ErrConsentRequired
	}
	if lease.SignatureFor(role) != nil {
		return nil, ErrAlreadySigned
	}

	// The state machine owns which transitions are legal from the current
	// status. The transition only advances the in-memory copy; the persisted
	// status is recomputed from the signature rows in AddSignature.
	machine := statemachine.NewLeaseFSM(lease)
	transition := machine.SignTenant
	if role == models.SignerRoleOwner {
		transition = machine.SignOwner
	}
	if err := transition(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	signer := lease.Tenant
	if role == models.SignerRoleOwner {
		signer = lease.Landlord
	}

	sig := &models.LeaseSignature{
		LeaseID:         lease.ID,
		Role:            role,
		SignerUserID:    userID,
		SignerEmail:     signer.Email,
		SignerName:      signer.FullName,
		Initials:        req.Initials,
		ConsentGiven:    true,
		DocumentVersion: lease.DocumentVersion,
	}
	if req.IPAddress != "" {
		sig.IPAddress = &req.IPAddress
	}
	if req.UserAgent != "" {
		sig.UserAgent = &req.UserAgent
	}

	status, err := s.leaseRepo.AddSignature(ctx, sig)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSignature) {
			return nil, ErrAlreadySigned
		}
		return nil, err
	}

	action := models.AuditLeaseTenantSigned
	if role == models.SignerRoleOwner {
		action = models.AuditLeaseOwnerSigned
	}
	s.recordAudit(ctx, userID, action, lease, AuditEntry{
		Details:   fmt.Sprintf("Lease signed as %s", role),
		Metadata:  map[string]interface{}{"document_version": sig.DocumentVersion, "status": status},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.NotifyLeaseSigned(ctx, lease, role)
	})

	// Both parties have signed: seal in the background so the signer's
	// request returns promptly. Finalize can also be invoked explicitly and
	// is idempotent either way.
	if status == models.LeaseStatusFinalized && s.runner != nil {
		id := lease.ID
		s.runner.EnqueueAsync(func(ctx context.Context) error {
			_, err := s.Finalize(ctx, id, 0)
			return err
		})
	}

	return s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
}

// Finalize renders, hashes and stores the sealed lease document. Idempotent:
// once a lease is sealed, repeated calls return the existing artifact without
// rendering again or writing new audit entries. A userID of 0 marks a
// system-initiated finalization.
func (s *LeaseService) Finalize(ctx context.Context, leaseID, userID uint) (*models.Lease, error) {
	lease, err := s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if lease.IsSealed() {
		return lease, nil
	}

	tenantSig := lease.SignatureFor(models.SignerRoleTenant)
	ownerSig := lease.SignatureFor(models.SignerRoleOwner)
	if tenantSig == nil || ownerSig == nil {
		return nil, ErrSignaturesIncomplete
	}

	pdf, err := s.renderer.RenderLease(lease, tenantSig, ownerSig)
	if err != nil {
		return nil, fmt.Errorf("failed to render lease %d: %w", lease.ID, err)
	}
	hash := s.renderer.Hash(pdf)

	// The document identifier is minted only here. A failed attempt seals
	// nothing, so a retry mints a fresh one for a lease that still has none.
	documentID := uuid.New().String()
	fileName := fmt.Sprintf("lease-%d-v%d-%d.pdf", lease.ID, lease.DocumentVersion, time.Now().Unix())

	pdfURL, err := s.store.Put(pdf, fileName, "leases")
	if err != nil {
		return nil, fmt.Errorf("%w: storing lease %d document: %v", ErrStorageFailure, lease.ID, err)
	}

	sealed, err := s.leaseRepo.Seal(ctx, lease.ID, documentID, hash, pdfURL, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: sealing lease %d: %v", ErrStorageFailure, lease.ID, err)
	}
	if !sealed {
		// Another finalize call won the race; its artifact is authoritative.
		logger.Info("Lease already sealed by concurrent finalization", "lease_id", lease.ID)
		return s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
	}

	s.recordAudit(ctx, userID, models.AuditLeaseFinalized, lease, AuditEntry{
		Details:  "Lease finalized with both signatures",
		Metadata: map[string]interface{}{"document_id": documentID, "document_hash": hash},
	})
	s.recordAudit(ctx, userID, models.AuditPDFGenerated, lease, AuditEntry{
		Details:  "Sealed lease document generated",
		Metadata: map[string]interface{}{"document_id": documentID, "pdf_url": pdfURL, "size_bytes": len(pdf)},
	})

	s.notifyAsync(func(ctx context.Context) error {
		return s.notifier.NotifyLeaseFinalized(ctx, lease)
	})

	return s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
}

// GetDocument returns the sealed lease document bytes and a download file
// name. Every access is audited, distinguishing views from downloads.
func (s *LeaseService) GetDocument(ctx context.Context, leaseID, userID uint, isAdmin, download bool) ([]byte, string, error) {
	lease, err := s.leaseRepo.FindByID(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	if !isAdmin && lease.PartyRole(userID) == "" {
		return nil, "", ErrForbidden
	}
	if !lease.IsFinalized() || !lease.IsSealed() {
		return nil, "", ErrNotFinalized
	}

	data, err := s.store.Get(*lease.PDFURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading lease %d document: %v", ErrStorageFailure, lease.ID, err)
	}

	action := models.AuditLeaseDocumentViewed
	if download {
		action = models.AuditLeaseDocumentDownloaded
	}
	s.recordAudit(ctx, userID, action, lease, AuditEntry{
		Metadata: map[string]interface{}{"document_id": *lease.DocumentID},
	})

	return data, fmt.Sprintf("lease-%d.pdf", lease.ID), nil
}

// Cancel voids a lease that has not been finalized. Signatures already
// collected stay on record; the lease simply stops accepting new ones.
func (s *LeaseService) Cancel(ctx context.Context, leaseID, userID uint, isAdmin bool) (*models.Lease, error) {
	lease, err := s.leaseRepo.FindByIDWithDetails(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && lease.PartyRole(userID) == "" {
		return nil, ErrForbidden
	}
	if lease.IsFinalized() {
		return nil, ErrAlreadyFinalized
	}

	machine := statemachine.NewLeaseFSM(lease)
	if err := machine.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := s.leaseRepo.Update(ctx, lease); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, userID, models.AuditLeaseCancelled, lease, AuditEntry{
		Details: "Lease cancelled before finalization",
	})
	return lease, nil
}

// SendSignatureReminders nudges the pending parties of leases that have sat
// unsigned longer than olderThan. Called from the scheduled reminder job.
func (s *LeaseService) SendSignatureReminders(ctx context.Context, olderThan time.Duration) error {
	if s.notifier == nil {
		return nil
	}
	leases, err := s.leaseRepo.FindAwaitingSignature(ctx, olderThan)
	if err != nil {
		return err
	}
	for i := range leases {
		if err := s.notifier.NotifySignatureReminder(ctx, &leases[i]); err != nil {
			logger.Error("Failed to send signature reminder", "lease_id", leases[i].ID, "error", err)
		}
	}
	return nil
}

// VerifyDocument re-hashes the stored artifact against the sealed digest
func (s *LeaseService) VerifyDocument(ctx context.Context, leaseID uint) error {
	lease, err := s.leaseRepo.FindByID(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !lease.IsSealed() {
		return ErrNotFinalized
	}

	data, err := s.store.Get(*lease.PDFURL)
	if err != nil {
		return fmt.Errorf("%w: reading lease %d document: %v", ErrStorageFailure, lease.ID, err)
	}
	if s.renderer.Hash(data) != *lease.DocumentHash {
		return fmt.Errorf("lease %d stored document does not match sealed hash: %w", lease.ID, ErrIntegrityViolation)
	}
	return nil
}

// recordAudit writes an audit entry, filling the lease linkage. The audit
// service already logs and reports failures; the primary operation proceeds.
func (s *LeaseService) recordAudit(ctx context.Context, userID uint, action string, lease *models.Lease, entry AuditEntry) {
	leaseID := lease.ID
	entry.LeaseID = &leaseID
	_ = s.audit.Record(ctx, userID, action, models.AuditEntityLease, lease.ID, entry)
}

func (s *LeaseService) notifyAsync(job jobs.Job) {
	if s.notifier == nil {
		return
	}
	if s.runner != nil {
		s.runner.EnqueueAsync(job)
		return
	}
	if err := job(context.Background()); err != nil {
		logger.Error("Notification delivery failed", "error", err)
	}
}

func jsonbFrom(m map[string]interface{}) models.JSONB {
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return models.JSONB(b)
}
