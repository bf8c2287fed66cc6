package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"gorm.io/gorm"
)

// annexTemplates holds the fixed consent texts generated for every lease.
// Content changes bump the version on newly generated sets only; existing
// annexes keep the text their signers consented to.
var annexTemplates = map[string]struct {
	Title   string
	Content string
}{
	models.AnnexTypePaymentConsent: {
		Title:   "Direct Debit Payment Consent",
		Content: "The tenant authorizes the landlord or its payment processor to collect the monthly rent and any agreed charges by recurring direct debit from the tenant's designated account. The authorization remains in effect for the duration of the lease and may be revoked in writing with thirty days notice.",
	},
	models.AnnexTypeCreditCheck: {
		Title:   "Credit Check Authorization",
		Content: "The tenant authorizes the landlord to obtain a consumer credit report and verify the income and rental history information provided during the application. This authorization covers the initial screening and any renewal of this lease.",
	},
	models.AnnexTypeElectronicComms: {
		Title:   "Electronic Communications Consent",
		Content: "Both parties agree that notices, disclosures and documents related to this lease may be delivered electronically to the email address on file, and that electronic signatures carry the same effect as handwritten ones.",
	},
}

const annexTemplateVersion = 1

// AnnexService manages the consent documents generated alongside a lease
type AnnexService struct {
	annexRepo repository.AnnexRepository
	leaseRepo repository.LeaseRepository
	audit     AuditRecorder
}

// NewAnnexService creates a new annex service
func NewAnnexService(annexRepo repository.AnnexRepository, leaseRepo repository.LeaseRepository, audit AuditRecorder) *AnnexService {
	return &AnnexService{
		annexRepo: annexRepo,
		leaseRepo: leaseRepo,
		audit:     audit,
	}
}

// CreateForLease generates the fixed annex set for a lease. Idempotent: when
// the lease already has annexes the existing set is returned untouched, never
// regenerated or re-versioned. Non-admin callers must be a party to the lease.
func (s *AnnexService) CreateForLease(ctx context.Context, leaseID, actorUserID uint, isAdmin bool) ([]models.AnnexDocument, error) {
	lease, err := s.leaseRepo.FindByID(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && lease.PartyRole(actorUserID) == "" {
		return nil, ErrForbidden
	}

	existing, err := s.annexRepo.FindByLease(ctx, lease.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	annexes := make([]models.AnnexDocument, 0, len(models.AnnexTypes))
	for _, annexType := range models.AnnexTypes {
		tpl := annexTemplates[annexType]
		annexes = append(annexes, models.AnnexDocument{
			LeaseID: lease.ID,
			Type:    annexType,
			Title:   tpl.Title,
			Content: tpl.Content,
			Version: annexTemplateVersion,
		})
	}

	if err := s.annexRepo.CreateSet(ctx, annexes); err != nil {
		return nil, err
	}

	for _, annex := range annexes {
		leaseRef := lease.ID
		_ = s.audit.Record(ctx, actorUserID, models.AuditAnnexCreated, models.AuditEntityAnnex, annex.ID, AuditEntry{
			LeaseID:  &leaseRef,
			Details:  fmt.Sprintf("Annex %s generated", annex.Type),
			Metadata: map[string]interface{}{"type": annex.Type, "version": annex.Version},
		})
	}

	return annexes, nil
}

// ListForLease returns a lease's annexes with their signatures. Non-admin
// callers must be a party to the lease.
func (s *AnnexService) ListForLease(ctx context.Context, leaseID, userID uint, isAdmin bool) ([]models.AnnexDocument, error) {
	lease, err := s.leaseRepo.FindByID(ctx, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !isAdmin && lease.PartyRole(userID) == "" {
		return nil, ErrForbidden
	}
	return s.annexRepo.FindByLease(ctx, lease.ID)
}

// Sign records one party's acceptance of an annex. Annex signing is
// independent of the lease signature flow: a party may sign annexes before or
// after signing the lease itself, and annexes stay signable after the lease
// is finalized.
func (s *AnnexService) Sign(ctx context.Context, annexID, userID uint, req *SignatureRequest) (*models.AnnexDocument, error) {
	annex, err := s.annexRepo.FindByIDWithLease(ctx, annexID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	role := annex.Lease.PartyRole(userID)
	if role == "" {
		return nil, ErrForbidden
	}
	if !req.ConsentGiven {
		return nil, ErrConsentRequired
	}

	sig := &models.AnnexSignature{
		AnnexID:         annex.ID,
		SignerUserID:    userID,
		Role:            role,
		ConsentGiven:    true,
		DocumentVersion: annex.Version,
	}
	if req.IPAddress != "" {
		sig.IPAddress = &req.IPAddress
	}
	if req.UserAgent != "" {
		sig.UserAgent = &req.UserAgent
	}

	if err := s.annexRepo.CreateSignature(ctx, sig); err != nil {
		if errors.Is(err, repository.ErrDuplicateSignature) {
			return nil, ErrAlreadySigned
		}
		return nil, err
	}

	leaseRef := annex.LeaseID
	_ = s.audit.Record(ctx, userID, models.AuditAnnexSigned, models.AuditEntityAnnex, annex.ID, AuditEntry{
		LeaseID:   &leaseRef,
		Details:   fmt.Sprintf("Annex %s signed as %s", annex.Type, role),
		Metadata:  map[string]interface{}{"type": annex.Type, "version": annex.Version},
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	})

	return s.annexRepo.FindByID(ctx, annexID)
}
