package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// AnnexRepository defines the interface for annex document data access
type AnnexRepository interface {
	FindByID(ctx context.Context, id uint) (*models.AnnexDocument, error)
	FindByIDWithLease(ctx context.Context, id uint) (*models.AnnexDocument, error)
	FindByLease(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error)
	CreateSet(ctx context.Context, annexes []models.AnnexDocument) error
	CreateSignature(ctx context.Context, sig *models.AnnexSignature) error
}

type annexRepository struct {
	db *gorm.DB
}

// NewAnnexRepository creates a new annex repository
func NewAnnexRepository(db *gorm.DB) AnnexRepository {
	return &annexRepository{db: db}
}

func (r *annexRepository) FindByID(ctx context.Context, id uint) (*models.AnnexDocument, error) {
	var annex models.AnnexDocument
	err := r.db.WithContext(ctx).
		Preload("Signatures").
		First(&annex, id).Error
	if err != nil {
		return nil, err
	}
	return &annex, nil
}

func (r *annexRepository) FindByIDWithLease(ctx context.Context, id uint) (*models.AnnexDocument, error) {
	var annex models.AnnexDocument
	err := r.db.WithContext(ctx).
		Joins("Lease").
		Preload("Signatures").
		First(&annex, id).Error
	if err != nil {
		return nil, err
	}
	return &annex, nil
}

func (r *annexRepository) FindByLease(ctx context.Context, leaseID uint) ([]models.AnnexDocument, error) {
	var annexes []models.AnnexDocument
	err := r.db.WithContext(ctx).
		Where("lease_id = ?", leaseID).
		Preload("Signatures").
		Order("id ASC").
		Find(&annexes).Error
	return annexes, err
}

// CreateSet inserts the fixed annex set for a lease in one transaction so a
// partially created set never becomes visible.
func (r *annexRepository) CreateSet(ctx context.Context, annexes []models.AnnexDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range annexes {
			if err := tx.Create(&annexes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *annexRepository) CreateSignature(ctx context.Context, sig *models.AnnexSignature) error {
	if err := r.db.WithContext(ctx).Create(sig).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSignature
		}
		return err
	}
	return nil
}
