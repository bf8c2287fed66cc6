package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Listing      ListingRepository
	Application  ApplicationRepository
	Lease        LeaseRepository
	Annex        AnnexRepository
	Notification NotificationRepository
	RefreshToken RefreshTokenRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Listing:      NewListingRepository(db),
		Application:  NewApplicationRepository(db),
		Lease:        NewLeaseRepository(db),
		Annex:        NewAnnexRepository(db),
		Notification: NewNotificationRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
	}
}
