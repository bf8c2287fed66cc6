package models

import (
	"time"
)

// Listing represents a rental property published by a landlord. The engine
// treats listings as a read model: they seed lease terms when an application
// is accepted, nothing in the signature flow mutates them.
type Listing struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	LandlordUserID    uint      `gorm:"not null;index" json:"landlord_user_id"`
	Title             string    `gorm:"not null" json:"title"`
	Description       *string   `gorm:"type:text" json:"description"`
	Address           string    `gorm:"not null" json:"address"`
	City              string    `gorm:"index" json:"city"`
	MonthlyRent       float64   `gorm:"type:decimal;not null" json:"monthly_rent"`
	DepositAmount     float64   `gorm:"type:decimal;not null" json:"deposit_amount"`
	MinimumTermMonths int       `gorm:"not null;default:12" json:"minimum_term_months"`
	Status            string    `gorm:"default:active;index" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Associations
	Landlord     User          `gorm:"foreignKey:LandlordUserID" json:"landlord,omitempty"`
	Applications []Application `gorm:"foreignKey:ListingID" json:"applications,omitempty"`
}

// TableName specifies the table name for Listing
func (Listing) TableName() string {
	return "listings"
}

// Listing status constants
const (
	ListingStatusActive   = "active"
	ListingStatusRented   = "rented"
	ListingStatusInactive = "inactive"
)

// IsAvailable returns true if the listing can still receive applications
func (l *Listing) IsAvailable() bool {
	return l.Status == ListingStatusActive
}
