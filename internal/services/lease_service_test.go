package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/jobs"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLeaseRepo struct {
	repository.LeaseRepository
	mockFindByID          func(ctx context.Context, id uint) (*models.Lease, error)
	mockFindByIDWithDetails func(ctx context.Context, id uint) (*models.Lease, error)
	mockFindByApplication func(ctx context.Context, applicationID uint) (*models.Lease, error)
	mockCreate            func(ctx context.Context, lease *models.Lease) error
	mockAddSignature      func(ctx context.Context, sig *models.LeaseSignature) (string, error)
	mockUpdate            func(ctx context.Context, lease *models.Lease) error
	mockSeal              func(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error)
}

func (m *mockLeaseRepo) FindByID(ctx context.Context, id uint) (*models.Lease, error) {
	return m.mockFindByID(ctx, id)
}

func (m *mockLeaseRepo) FindByIDWithDetails(ctx context.Context, id uint) (*models.Lease, error) {
	return m.mockFindByIDWithDetails(ctx, id)
}

func (m *mockLeaseRepo) FindByApplication(ctx context.Context, applicationID uint) (*models.Lease, error) {
	return m.mockFindByApplication(ctx, applicationID)
}

func (m *mockLeaseRepo) Create(ctx context.Context, lease *models.Lease) error {
	return m.mockCreate(ctx, lease)
}

func (m *mockLeaseRepo) Update(ctx context.Context, lease *models.Lease) error {
	return m.mockUpdate(ctx, lease)
}

func (m *mockLeaseRepo) AddSignature(ctx context.Context, sig *models.LeaseSignature) (string, error) {
	return m.mockAddSignature(ctx, sig)
}

func (m *mockLeaseRepo) Seal(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error) {
	return m.mockSeal(ctx, leaseID, documentID, documentHash, pdfURL, finalizedAt)
}

type recordedAudit struct {
	userID uint
	action string
	entry  AuditEntry
}

type mockAudit struct {
	records []recordedAudit
}

func (m *mockAudit) Record(ctx context.Context, userID uint, action, entityType string, entityID uint, entry AuditEntry) error {
	m.records = append(m.records, recordedAudit{userID: userID, action: action, entry: entry})
	return nil
}

func (m *mockAudit) actions() []string {
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.action)
	}
	return out
}

type mockRenderer struct {
	rendered int
	output   []byte
	hash     string
}

func (m *mockRenderer) RenderLease(lease *models.Lease, tenantSig, ownerSig *models.LeaseSignature) ([]byte, error) {
	m.rendered++
	return m.output, nil
}

func (m *mockRenderer) Hash(data []byte) string {
	return m.hash
}

type mockStore struct {
	putErr  error
	putPath string
	puts    int
	data    []byte
}

func (m *mockStore) Put(data []byte, fileName, subDir string) (string, error) {
	m.puts++
	if m.putErr != nil {
		return "", m.putErr
	}
	m.data = data
	return m.putPath, nil
}

func (m *mockStore) Get(relativePath string) ([]byte, error) {
	if m.data == nil {
		return nil, errors.New("not found")
	}
	return m.data, nil
}

type mockNotifier struct{}

func (m *mockNotifier) NotifyLeaseCreated(ctx context.Context, lease *models.Lease) error {
	return nil
}
func (m *mockNotifier) NotifyLeaseSigned(ctx context.Context, lease *models.Lease, role string) error {
	return nil
}
func (m *mockNotifier) NotifyLeaseFinalized(ctx context.Context, lease *models.Lease) error {
	return nil
}
func (m *mockNotifier) NotifySignatureReminder(ctx context.Context, lease *models.Lease) error {
	return nil
}

// captureRunner collects async jobs so tests can run them deterministically
type captureRunner struct {
	jobs []jobs.Job
}

func (r *captureRunner) EnqueueAsync(job jobs.Job) {
	r.jobs = append(r.jobs, job)
}

func (r *captureRunner) drain(t *testing.T) {
	t.Helper()
	for _, job := range r.jobs {
		require.NoError(t, job(context.Background()))
	}
	r.jobs = nil
}

func signableLease() *models.Lease {
	return &models.Lease{
		ID:              10,
		Origin:          models.LeaseOriginManual,
		TenantUserID:    1,
		LandlordUserID:  2,
		StartDate:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2027, 8, 31, 0, 0, 0, 0, time.UTC),
		MonthlyRent:     900,
		DepositAmount:   900,
		Status:          models.LeaseStatusDraft,
		DocumentVersion: 2,
		Tenant:          models.User{ID: 1, Email: "tenant@example.com", FullName: "Tina Tenant", Role: models.RoleTenant},
		Landlord:        models.User{ID: 2, Email: "owner@example.com", FullName: "Oscar Owner", Role: models.RoleLandlord},
	}
}

func newTestLeaseService(repo *mockLeaseRepo, audit *mockAudit, renderer *mockRenderer, store *mockStore, runner *captureRunner) *LeaseService {
	return NewLeaseService(repo, nil, nil, renderer, store, audit, &mockNotifier{}, runner)
}

func TestLeaseService_SubmitTenantSignature(t *testing.T) {
	lease := signableLease()
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	var inserted *models.LeaseSignature
	repo.mockAddSignature = func(ctx context.Context, sig *models.LeaseSignature) (string, error) {
		inserted = sig
		return models.LeaseStatusTenantSigned, nil
	}

	audit := &mockAudit{}
	runner := &captureRunner{}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, &mockStore{}, runner)

	_, err := svc.SubmitTenantSignature(context.Background(), 10, 1, &SignatureRequest{
		ConsentGiven: true,
		IPAddress:    "203.0.113.7",
		UserAgent:    "test-agent",
	})
	require.NoError(t, err)

	require.NotNil(t, inserted)
	assert.Equal(t, models.SignerRoleTenant, inserted.Role)
	assert.Equal(t, uint(1), inserted.SignerUserID)
	assert.Equal(t, "tenant@example.com", inserted.SignerEmail)
	assert.Equal(t, 2, inserted.DocumentVersion, "signature is stamped with the lease document version")
	assert.True(t, inserted.ConsentGiven)
	require.NotNil(t, inserted.IPAddress)
	assert.Equal(t, "203.0.113.7", *inserted.IPAddress)

	assert.Contains(t, audit.actions(), models.AuditLeaseTenantSigned)
}

func TestLeaseService_SubmitSignature_ConsentRequired(t *testing.T) {
	lease := signableLease()
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockAddSignature = func(ctx context.Context, sig *models.LeaseSignature) (string, error) {
		t.Fatal("no signature may be written without consent")
		return "", nil
	}

	audit := &mockAudit{}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.SubmitTenantSignature(context.Background(), 10, 1, &SignatureRequest{ConsentGiven: false})
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Empty(t, audit.records)
}

func TestLeaseService_SubmitSignature_NotAParty(t *testing.T) {
	lease := signableLease()
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	svc := newTestLeaseService(repo, &mockAudit{}, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.SubmitTenantSignature(context.Background(), 10, 99, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrForbidden)

	// The landlord cannot sign in the tenant's place either
	_, err = svc.SubmitTenantSignature(context.Background(), 10, 2, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLeaseService_SubmitSignature_AlreadyFinalized(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusFinalized
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	svc := newTestLeaseService(repo, &mockAudit{}, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.SubmitOwnerSignature(context.Background(), 10, 2, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
}

func TestLeaseService_SubmitSignature_CancelledLease(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusCancelled
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockAddSignature = func(ctx context.Context, sig *models.LeaseSignature) (string, error) {
		t.Fatal("cancelled lease must not accept signatures")
		return "", nil
	}

	audit := &mockAudit{}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.SubmitTenantSignature(context.Background(), 10, 1, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.SubmitOwnerSignature(context.Background(), 10, 2, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, audit.records)
}

func TestLeaseService_SubmitSignature_Duplicate(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusTenantSigned
	lease.Signatures = []models.LeaseSignature{
		{LeaseID: 10, Role: models.SignerRoleTenant, SignerUserID: 1, DocumentVersion: 2},
	}
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockAddSignature = func(ctx context.Context, sig *models.LeaseSignature) (string, error) {
		t.Fatal("recorded signature must not be re-inserted")
		return "", nil
	}

	audit := &mockAudit{}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.SubmitTenantSignature(context.Background(), 10, 1, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrAlreadySigned)
	assert.Empty(t, audit.records, "a rejected duplicate leaves no audit entry")
}

func TestLeaseService_SubmitSignature_ConcurrentDuplicate(t *testing.T) {
	// Two submissions for the same role can both read the lease before either
	// insert commits; the loser hits the unique index in the repository.
	lease := signableLease()
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockAddSignature = func(ctx context.Context, sig *models.LeaseSignature) (string, error) {
		return "", repository.ErrDuplicateSignature
	}

	audit := &mockAudit{}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.SubmitTenantSignature(context.Background(), 10, 1, &SignatureRequest{ConsentGiven: true})
	assert.ErrorIs(t, err, ErrAlreadySigned)
	assert.Empty(t, audit.records, "a rejected duplicate leaves no audit entry")
}

func TestLeaseService_SecondSignatureTriggersFinalization(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusTenantSigned
	lease.Signatures = []models.LeaseSignature{
		{LeaseID: 10, Role: models.SignerRoleTenant, SignerUserID: 1, DocumentVersion: 2},
	}

	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockAddSignature = func(ctx context.Context, sig *models.LeaseSignature) (string, error) {
		lease.Status = models.LeaseStatusFinalized
		lease.Signatures = append(lease.Signatures, *sig)
		return models.LeaseStatusFinalized, nil
	}

	var sealedID, sealedHash, sealedPath string
	repo.mockSeal = func(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error) {
		sealedID, sealedHash, sealedPath = documentID, documentHash, pdfURL
		docID, hash, path := documentID, documentHash, pdfURL
		now := finalizedAt
		lease.DocumentID = &docID
		lease.DocumentHash = &hash
		lease.PDFURL = &path
		lease.FinalizedAt = &now
		return true, nil
	}

	audit := &mockAudit{}
	renderer := &mockRenderer{output: []byte("%PDF rendered"), hash: "deadbeef"}
	store := &mockStore{putPath: "leases/2026/09/lease-10-v2.pdf"}
	runner := &captureRunner{}
	svc := newTestLeaseService(repo, audit, renderer, store, runner)

	_, err := svc.SubmitOwnerSignature(context.Background(), 10, 2, &SignatureRequest{ConsentGiven: true})
	require.NoError(t, err)

	// Sealing happens asynchronously after the signing request returns
	assert.Nil(t, lease.DocumentID)
	runner.drain(t)

	assert.Equal(t, "deadbeef", sealedHash)
	assert.Equal(t, "leases/2026/09/lease-10-v2.pdf", sealedPath)
	assert.NotEmpty(t, sealedID)
	assert.True(t, lease.IsSealed())
	assert.True(t, lease.SealConsistent())
	assert.Contains(t, audit.actions(), models.AuditLeaseOwnerSigned)
	assert.Contains(t, audit.actions(), models.AuditLeaseFinalized)
	assert.Contains(t, audit.actions(), models.AuditPDFGenerated)
}

func TestLeaseService_Finalize_Idempotent(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusFinalized
	docID, hash, path := "11111111-2222-3333-4444-555555555555", "cafebabe", "leases/2026/09/lease-10.pdf"
	now := time.Now()
	lease.DocumentID = &docID
	lease.DocumentHash = &hash
	lease.PDFURL = &path
	lease.FinalizedAt = &now
	lease.Signatures = []models.LeaseSignature{
		{LeaseID: 10, Role: models.SignerRoleTenant, SignerUserID: 1},
		{LeaseID: 10, Role: models.SignerRoleOwner, SignerUserID: 2},
	}

	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	audit := &mockAudit{}
	renderer := &mockRenderer{output: []byte("x"), hash: "other"}
	svc := newTestLeaseService(repo, audit, renderer, &mockStore{}, &captureRunner{})

	got, err := svc.Finalize(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, docID, *got.DocumentID)
	assert.Equal(t, hash, *got.DocumentHash)

	again, err := svc.Finalize(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, docID, *again.DocumentID)

	assert.Zero(t, renderer.rendered, "a sealed lease is never re-rendered")
	assert.Empty(t, audit.records, "repeated finalize writes no new audit entries")
}

func TestLeaseService_Finalize_SignaturesIncomplete(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusTenantSigned
	lease.Signatures = []models.LeaseSignature{
		{LeaseID: 10, Role: models.SignerRoleTenant, SignerUserID: 1},
	}

	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	svc := newTestLeaseService(repo, &mockAudit{}, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.Finalize(context.Background(), 10, 2)
	assert.ErrorIs(t, err, ErrSignaturesIncomplete)
}

func TestLeaseService_Finalize_StorageFailureLeavesLeaseUnsealed(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusFinalized
	lease.Signatures = []models.LeaseSignature{
		{LeaseID: 10, Role: models.SignerRoleTenant, SignerUserID: 1},
		{LeaseID: 10, Role: models.SignerRoleOwner, SignerUserID: 2},
	}

	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockSeal = func(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error) {
		t.Fatal("seal must not run when the artifact write failed")
		return false, nil
	}

	audit := &mockAudit{}
	renderer := &mockRenderer{output: []byte("x"), hash: "h"}
	store := &mockStore{putErr: errors.New("disk full")}
	svc := newTestLeaseService(repo, audit, renderer, store, &captureRunner{})

	_, err := svc.Finalize(context.Background(), 10, 2)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.False(t, lease.IsSealed())
	assert.Empty(t, audit.records)
}

func TestLeaseService_Finalize_LostRaceReturnsWinner(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusFinalized
	lease.Signatures = []models.LeaseSignature{
		{LeaseID: 10, Role: models.SignerRoleTenant, SignerUserID: 1},
		{LeaseID: 10, Role: models.SignerRoleOwner, SignerUserID: 2},
	}

	winnerID := "winner-document-id"
	calls := 0
	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		calls++
		if calls > 1 {
			// Re-read observes the concurrent winner's seal
			sealed := *lease
			hash, path := "winnerhash", "leases/w.pdf"
			sealed.DocumentID = &winnerID
			sealed.DocumentHash = &hash
			sealed.PDFURL = &path
			return &sealed, nil
		}
		return lease, nil
	}
	repo.mockSeal = func(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error) {
		return false, nil
	}

	audit := &mockAudit{}
	renderer := &mockRenderer{output: []byte("x"), hash: "loserhash"}
	store := &mockStore{putPath: "leases/l.pdf"}
	svc := newTestLeaseService(repo, audit, renderer, store, &captureRunner{})

	got, err := svc.Finalize(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Equal(t, winnerID, *got.DocumentID)
	assert.NotContains(t, audit.actions(), models.AuditLeaseFinalized)
}

func TestLeaseService_GetDocument(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusFinalized
	docID, hash, path := "doc-1", "h", "leases/lease-10.pdf"
	lease.DocumentID = &docID
	lease.DocumentHash = &hash
	lease.PDFURL = &path

	repo := &mockLeaseRepo{}
	repo.mockFindByID = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	audit := &mockAudit{}
	store := &mockStore{data: []byte("%PDF sealed")}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, store, &captureRunner{})

	data, name, err := svc.GetDocument(context.Background(), 10, 1, false, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF sealed"), data)
	assert.Equal(t, "lease-10.pdf", name)
	assert.Contains(t, audit.actions(), models.AuditLeaseDocumentViewed)

	_, _, err = svc.GetDocument(context.Background(), 10, 2, false, true)
	require.NoError(t, err)
	assert.Contains(t, audit.actions(), models.AuditLeaseDocumentDownloaded)

	// Outsiders are rejected before any artifact access
	_, _, err = svc.GetDocument(context.Background(), 10, 77, false, false)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLeaseService_GetDocument_NotFinalized(t *testing.T) {
	lease := signableLease()
	repo := &mockLeaseRepo{}
	repo.mockFindByID = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}

	svc := newTestLeaseService(repo, &mockAudit{}, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, _, err := svc.GetDocument(context.Background(), 10, 1, false, false)
	assert.ErrorIs(t, err, ErrNotFinalized)
}

func TestLeaseService_Cancel(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusTenantSigned

	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	var saved *models.Lease
	repo.mockUpdate = func(ctx context.Context, l *models.Lease) error {
		saved = l
		return nil
	}

	audit := &mockAudit{}
	svc := newTestLeaseService(repo, audit, &mockRenderer{}, &mockStore{}, &captureRunner{})

	got, err := svc.Cancel(context.Background(), 10, 2, false)
	require.NoError(t, err)
	assert.Equal(t, models.LeaseStatusCancelled, got.Status)
	require.NotNil(t, saved)
	assert.Equal(t, models.LeaseStatusCancelled, saved.Status)
	assert.Contains(t, audit.actions(), models.AuditLeaseCancelled)
}

func TestLeaseService_Cancel_Errors(t *testing.T) {
	lease := signableLease()
	lease.Status = models.LeaseStatusFinalized

	repo := &mockLeaseRepo{}
	repo.mockFindByIDWithDetails = func(ctx context.Context, id uint) (*models.Lease, error) {
		return lease, nil
	}
	repo.mockUpdate = func(ctx context.Context, l *models.Lease) error {
		t.Fatal("finalized lease must not be updated")
		return nil
	}

	svc := newTestLeaseService(repo, &mockAudit{}, &mockRenderer{}, &mockStore{}, &captureRunner{})

	_, err := svc.Cancel(context.Background(), 10, 2, false)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	_, err = svc.Cancel(context.Background(), 10, 77, false)
	assert.ErrorIs(t, err, ErrForbidden)

	lease.Status = models.LeaseStatusCancelled
	_, err = svc.Cancel(context.Background(), 10, 2, false)
	assert.ErrorIs(t, err, ErrInvalidState)
}
