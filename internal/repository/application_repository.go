package repository

import (
	"context"

	"github.com/rentora/rentora-api/internal/models"
	"gorm.io/gorm"
)

// ApplicationRepository defines the interface for application data access
type ApplicationRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Application, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Application, error)
	FindByListing(ctx context.Context, listingID uint) ([]models.Application, error)
	FindByTenant(ctx context.Context, tenantUserID uint) ([]models.Application, error)
	Create(ctx context.Context, application *models.Application) error
	Update(ctx context.Context, application *models.Application) error
}

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) FindByID(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).First(&application, id).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).
		Joins("Listing").
		Joins("Tenant").
		Preload("Listing.Landlord").
		First(&application, id).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepository) FindByListing(ctx context.Context, listingID uint) ([]models.Application, error) {
	var applications []models.Application
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Preload("Tenant").
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

func (r *applicationRepository) FindByTenant(ctx context.Context, tenantUserID uint) ([]models.Application, error) {
	var applications []models.Application
	err := r.db.WithContext(ctx).
		Where("tenant_user_id = ?", tenantUserID).
		Preload("Listing").
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

func (r *applicationRepository) Create(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepository) Update(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Save(application).Error
}
