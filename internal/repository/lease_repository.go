package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/statemachine"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateSignature is returned when a signature insert violates the
// per-(lease, role) or per-(annex, signer) uniqueness constraint. The
// constraint violation is the authoritative detection of a race between two
// concurrent sign attempts.
var ErrDuplicateSignature = errors.New("signature already exists")

// LeaseRepository defines the interface for lease data access
type LeaseRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Lease, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Lease, error)
	FindByApplication(ctx context.Context, applicationID uint) (*models.Lease, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Lease, error)
	Create(ctx context.Context, lease *models.Lease) error
	Update(ctx context.Context, lease *models.Lease) error
	List(ctx context.Context, query *LeaseQuery) ([]models.Lease, int64, error)
	AddSignature(ctx context.Context, sig *models.LeaseSignature) (string, error)
	Seal(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error)
	FindAwaitingSignature(ctx context.Context, olderThan time.Duration) ([]models.Lease, error)
}

// LeaseQuery extends ListQuery with lease-specific filters
type LeaseQuery struct {
	*ListQuery
	UserID  uint
	IsAdmin bool
	Status  string
}

type leaseRepository struct {
	db *gorm.DB
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *gorm.DB) LeaseRepository {
	return &leaseRepository{db: db}
}

func (r *leaseRepository) FindByID(ctx context.Context, id uint) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).First(&lease, id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Joins("Tenant").
		Joins("Landlord").
		Preload("Application").
		Preload("Signatures").
		Preload("AnnexDocuments").
		First(&lease, id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) FindByApplication(ctx context.Context, applicationID uint) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&lease).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func (r *leaseRepository) FindByUser(ctx context.Context, userID uint) ([]models.Lease, error) {
	var leases []models.Lease
	err := r.db.WithContext(ctx).
		Where("tenant_user_id = ? OR landlord_user_id = ?", userID, userID).
		Preload("Signatures").
		Order("created_at DESC").
		Find(&leases).Error
	return leases, err
}

func (r *leaseRepository) Create(ctx context.Context, lease *models.Lease) error {
	return r.db.WithContext(ctx).Create(lease).Error
}

func (r *leaseRepository) Update(ctx context.Context, lease *models.Lease) error {
	return r.db.WithContext(ctx).Save(lease).Error
}

func (r *leaseRepository) List(ctx context.Context, query *LeaseQuery) ([]models.Lease, int64, error) {
	var leases []models.Lease
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Lease{})

	// Non-admin callers only see leases they are a party to
	if !query.IsAdmin && query.UserID > 0 {
		db = db.Where("tenant_user_id = ? OR landlord_user_id = ?", query.UserID, query.UserID)
	}

	if query.Status != "" {
		db = db.Where("leases.status = ?", query.Status)
	}

	// Count total using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("leases.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.Preload("Signatures").Find(&leases).Error
	return leases, total, err
}

// AddSignature inserts a signature row and recomputes the lease status from
// the signatures actually present, as one atomic unit. Two near-simultaneous
// signatures (one per role) both observe a consistent final state; a
// duplicate for the same role fails on the unique index and is reported as
// ErrDuplicateSignature.
func (r *leaseRepository) AddSignature(ctx context.Context, sig *models.LeaseSignature) (string, error) {
	var status string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the lease row first. Without it, two cross-role signatures
		// under READ COMMITTED can each read the signature set before the
		// other's insert commits and both recompute a single-signed status.
		var lease models.Lease
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&lease, sig.LeaseID).Error; err != nil {
			return err
		}

		if err := tx.Create(sig).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSignature
			}
			return err
		}

		var roles []string
		if err := tx.Model(&models.LeaseSignature{}).
			Where("lease_id = ?", sig.LeaseID).
			Pluck("role", &roles).Error; err != nil {
			return err
		}

		hasTenant, hasOwner := false, false
		for _, role := range roles {
			switch role {
			case models.SignerRoleTenant:
				hasTenant = true
			case models.SignerRoleOwner:
				hasOwner = true
			}
		}

		status = statemachine.ComputeStatus(hasTenant, hasOwner)
		return tx.Model(&models.Lease{}).
			Where("id = ?", sig.LeaseID).
			Update("status", status).Error
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// Seal sets the four seal fields atomically, only when the lease has not
// been sealed yet. Returns false when another finalize call won the write
// race; the caller then re-reads and observes the winner's artifact.
func (r *leaseRepository) Seal(ctx context.Context, leaseID uint, documentID, documentHash, pdfURL string, finalizedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Lease{}).
		Where("id = ? AND pdf_url IS NULL", leaseID).
		Updates(map[string]interface{}{
			"status":        models.LeaseStatusFinalized,
			"document_id":   documentID,
			"document_hash": documentHash,
			"pdf_url":       pdfURL,
			"finalized_at":  finalizedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *leaseRepository) FindAwaitingSignature(ctx context.Context, olderThan time.Duration) ([]models.Lease, error) {
	var leases []models.Lease
	cutoff := time.Now().Add(-olderThan)
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]string{models.LeaseStatusDraft, models.LeaseStatusTenantSigned, models.LeaseStatusOwnerSigned},
			cutoff).
		Find(&leases).Error
	return leases, err
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505) or gorm's translated equivalent.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
