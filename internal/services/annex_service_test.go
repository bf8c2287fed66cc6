package services

import (
	"context"
	"testing"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnnexRepo struct {
	repository.AnnexRepository
	mockFindByID          func(ctx context.Context, id uint) (*models.AnnexDocument, error)
	mockFindByIDWithLease func(ctx context.Context, id uint) (*models.AnnexDocument, error)
	mockFindByLease       func(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error)
	mockCreateSet         func(ctx context.Context, annexes []models.AnnexDocument) error
	mockCreateSignature   func(ctx context.Context, sig *models.AnnexSignature) error
}

func (m *mockAnnexRepo) FindByID(ctx context.Context, id uint) (*models.AnnexDocument, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockAnnexRepo) FindByIDWithLease(ctx context.Context, id uint) (*models.AnnexDocument, error) {
	return m.mockFindByIDWithLease(ctx, id)
}

func (m *mockAnnexRepo) FindByLease(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error) {
	return m.mockFindByLease(ctx, leaseID)
}

func (m *mockAnnexRepo) CreateSet(ctx context.Context, annexes []models.AnnexDocument) error {
	return m.mockCreateSet(ctx, annexes)
}

func (m *mockAnnexRepo) CreateSignature(ctx context.Context, sig *models.AnnexSignature) error {
	return m.mockCreateSignature(ctx, sig)
}

func TestAnnexService_CreateForLease(t *testing.T) {
	lease := signableLease()
	leaseRepo := &mockLeaseRepo{}
	leaseRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	var created []models.AnnexDocument
	annexRepo := &mockAnnexRepo{}
	annexRepo.mockFindByLease = func(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error) {
		return nil, nil
	}
	annexRepo.mockCreateSet = func(ctx context.Context, annexes []models.AnnexDocument) error {
		created = annexes
		return nil
	}

	audit := &mockAudit{}
	svc := NewAnnexService(annexRepo, leaseRepo, audit)

	annexes, err := svc.CreateForLease(context.Background(), 10, 2, false)
	require.NoError(t, err)
	require.Len(t, annexes, len(models.AnnexTypes))
	require.Len(t, created, len(models.AnnexTypes))

	for i, annexType := range models.AnnexTypes {
		assert.Equal(t, annexType, created[i].Type)
		assert.Equal(t, uint(10), created[i].LeaseID)
		assert.Equal(t, 1, created[i].Version)
		assert.NotEmpty(t, created[i].Title)
		assert.NotEmpty(t, created[i].Content)
	}
	assert.Len(t, audit.records, len(models.AnnexTypes))
}

func TestAnnexService_CreateForLease_Idempotent(t *testing.T) {
	lease := signableLease()
	existing := []models.AnnexDocument{
		{ID: 1, LeaseID: 10, Type: models.AnnexTypePaymentConsent, Version: 1},
		{ID: 2, LeaseID: 10, Type: models.AnnexTypeCreditCheck, Version: 1},
		{ID: 3, LeaseID: 10, Type: models.AnnexTypeElectronicComms, Version: 1},
	}

	leaseRepo := &mockLeaseRepo{}
	leaseRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	annexRepo := &mockAnnexRepo{}
	annexRepo.mockFindByLease = func(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error) {
		return existing, nil
	}
	annexRepo.mockCreateSet = func(ctx context.Context, annexes []models.AnnexDocument) error {
		t.Fatal("existing annex set must never be regenerated")
		return nil
	}

	audit := &mockAudit{}
	svc := NewAnnexService(annexRepo, leaseRepo, audit)

	annexes, err := svc.CreateForLease(context.Background(), 10, 2, false)
	require.NoError(t, err)
	assert.Equal(t, existing, annexes)
	assert.Empty(t, audit.records)
}

func TestAnnexService_CreateForLease_NotAParty(t *testing.T) {
	lease := signableLease()
	leaseRepo := &mockLeaseRepo{}
	leaseRepo.mockFindByID = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	annexRepo := &mockAnnexRepo{}
	annexRepo.mockFindByLease = func(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error) {
		t.Fatal("outsider must not reach the annex lookup")
		return nil, nil
	}
	annexRepo.mockCreateSet = func(ctx context.Context, annexes []models.AnnexDocument) error {
		t.Fatal("outsider must not create annexes")
		return nil
	}

	audit := &mockAudit{}
	svc := NewAnnexService(annexRepo, leaseRepo, audit)

	_, err := svc.CreateForLease(context.Background(), 10, 99, false)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, audit.records)

	// Admins may generate the set without being a party
	annexRepo.mockFindByLease = func(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error) {
		return []models.AnnexDocument{{ID: 1, LeaseID: 10}}, nil
	}
	annexes, err := svc.CreateForLease(context.Background(), 10, 99, true)
	require.NoError(t, err)
	assert.Len(t, annexes, 1)
}

func TestAnnexService_Sign(t *testing.T) {
	lease := signableLease()
	annex := &models.AnnexDocument{
		ID:      5,
		LeaseID: 10,
		Type:    models.AnnexTypePaymentConsent,
		Version: 1,
		Lease:   *lease,
	}

	var inserted *models.AnnexSignature
	annexRepo := &mockAnnexRepo{}
	annexRepo.mockFindByIDWithLease = func(ctx context.Context, id uint) (*models.AnnexDocument, error) {
		return annex, nil
	}
	annexRepo.mockCreateSignature = func(ctx context.Context, sig *models.AnnexSignature) error {
		inserted = sig
		return nil
	}
	annexRepo.mockFindByID = func(ctx context.Context, id uint) (*models.AnnexDocument, error) {
		return annex, nil
	}

	audit := &mockAudit{}
	svc := NewAnnexService(annexRepo, &mockLeaseRepo{}, audit)

	_, err := svc.Sign(context.Background(), 5, 1, &SignatureRequest{ConsentGiven: true})
	require.NoError(t, err)

	require.NotNil(t, inserted)
	assert.Equal(t, models.SignerRoleTenant, inserted.Role)
	assert.Equal(t, 1, inserted.DocumentVersion)
	assert.Contains(t, audit.actions(), models.AuditAnnexSigned)
}

func TestAnnexService_Sign_Errors(t *testing.T) {
	lease := signableLease()
	annex := &models.AnnexDocument{ID: 5, LeaseID: 10, Type: models.AnnexTypeCreditCheck, Version: 1, Lease: *lease}

	annexRepo := &mockAnnexRepo{}
	annexRepo.mockFindByIDWithLease = func(ctx context.Context, id uint) (*models.AnnexDocument, error) {
		return annex, nil
	}

	svc := NewAnnexService(annexRepo, &mockLeaseRepo{}, &mockAudit{})

	// Not a party to the lease
	_, err := svc.Sign(context.Background(), 5, 99, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrForbidden)

	// Consent missing
	_, err = svc.Sign(context.Background(), 5, 1, &SignatureRequest{ConsentGiven: false})
	assert.ErrorIs(t, err, ErrConsentRequired)

	// Duplicate signature from the same signer
	annexRepo.mockCreateSignature = func(ctx context.Context, sig *models.AnnexSignature) error {
		return repository.ErrDuplicateSignature
	}
	_, err = svc.Sign(context.Background(), 5, 1, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrAlreadySigned)
}
