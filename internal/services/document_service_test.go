package services

import (
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderFixtureLease() (*models.Lease, *models.LeaseSignature, *models.LeaseSignature) {
	created := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	terms := "The tenant shall maintain the premises in good condition."
	initials := "JD"
	listingID := uint(3)

	lease := &models.Lease{
		ID:              42,
		CreatedAt:       created,
		Origin:          models.LeaseOriginApplication,
		TenantUserID:    7,
		LandlordUserID:  9,
		ListingID:       &listingID,
		StartDate:       time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2027, 3, 31, 0, 0, 0, 0, time.UTC),
		MonthlyRent:     1250.00,
		DepositAmount:   1250.00,
		Terms:           &terms,
		LandlordInfo:    models.JSONB(`{"name":"Jane Owner","phone":"555-0100"}`),
		PropertyInfo:    models.JSONB(`{"address":"12 Elm St","city":"Springfield","bedrooms":2}`),
		LeaseTerms:      models.JSONB(`{"pets_allowed":false,"smoking_allowed":false}`),
		Status:          models.LeaseStatusFinalized,
		DocumentVersion: 1,
	}

	tenantSig := &models.LeaseSignature{
		LeaseID:         42,
		Role:            models.SignerRoleTenant,
		SignerUserID:    7,
		SignerEmail:     "john.doe@example.com",
		SignerName:      "John Doe",
		Initials:        &initials,
		ConsentGiven:    true,
		DocumentVersion: 1,
		CreatedAt:       created.Add(24 * time.Hour),
	}
	ownerSig := &models.LeaseSignature{
		LeaseID:         42,
		Role:            models.SignerRoleOwner,
		SignerUserID:    9,
		SignerEmail:     "jane.owner@example.com",
		SignerName:      "Jane Owner",
		ConsentGiven:    true,
		DocumentVersion: 1,
		CreatedAt:       created.Add(48 * time.Hour),
	}
	return lease, tenantSig, ownerSig
}

func TestDocumentService_RenderLeaseDeterministic(t *testing.T) {
	svc := NewDocumentService()
	lease, tenantSig, ownerSig := renderFixtureLease()

	first, err := svc.RenderLease(lease, tenantSig, ownerSig)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := svc.RenderLease(lease, tenantSig, ownerSig)
	require.NoError(t, err)

	assert.Equal(t, first, second, "two renders of the same snapshot must be byte-identical")
	assert.Equal(t, svc.Hash(first), svc.Hash(second))
}

func TestDocumentService_RenderLeaseContentSensitive(t *testing.T) {
	svc := NewDocumentService()
	lease, tenantSig, ownerSig := renderFixtureLease()

	first, err := svc.RenderLease(lease, tenantSig, ownerSig)
	require.NoError(t, err)

	lease.MonthlyRent = 1300.00
	changed, err := svc.RenderLease(lease, tenantSig, ownerSig)
	require.NoError(t, err)

	assert.NotEqual(t, svc.Hash(first), svc.Hash(changed))
}

func TestDocumentService_RenderAnnex(t *testing.T) {
	svc := NewDocumentService()
	annex := &models.AnnexDocument{
		ID:        5,
		CreatedAt: time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC),
		LeaseID:   42,
		Type:    models.AnnexTypePaymentConsent,
		Title:   "Direct Debit Payment Consent",
		Content: "The tenant authorizes recurring rent collection from the designated account.",
		Version: 1,
	}

	first, err := svc.RenderAnnex(annex)
	require.NoError(t, err)
	second, err := svc.RenderAnnex(annex)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDocumentService_Hash(t *testing.T) {
	svc := NewDocumentService()
	// sha256("hello") well-known vector
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		svc.Hash([]byte("hello")))
	assert.Len(t, svc.Hash([]byte{}), 64)
}
