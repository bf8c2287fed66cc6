package models

import (
	"time"
)

// Application represents a tenant's application for a listing. An accepted
// application yields exactly one lease.
type Application struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ListingID       uint       `gorm:"not null;index" json:"listing_id"`
	TenantUserID    uint       `gorm:"not null;index" json:"tenant_user_id"`
	Status          string     `gorm:"default:pending;index" json:"status"`
	Message         *string    `gorm:"type:text" json:"message"`
	MoveInDate      *time.Time `json:"move_in_date"`
	TermMonths      int        `gorm:"not null;default:12" json:"term_months"`
	AcceptedAt      *time.Time `json:"accepted_at"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Associations
	Listing Listing `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	Tenant  User    `gorm:"foreignKey:TenantUserID" json:"tenant,omitempty"`
	Lease   *Lease  `gorm:"foreignKey:ApplicationID" json:"lease,omitempty"`
}

// TableName specifies the table name for Application
func (Application) TableName() string {
	return "applications"
}

// Application status constants
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// MayAccept returns true if the application can be accepted
func (a *Application) MayAccept() bool {
	return a.Status == ApplicationStatusPending
}

// MayReject returns true if the application can be rejected
func (a *Application) MayReject() bool {
	return a.Status == ApplicationStatusPending
}

// MayWithdraw returns true if the tenant can still withdraw
func (a *Application) MayWithdraw() bool {
	return a.Status == ApplicationStatusPending
}
