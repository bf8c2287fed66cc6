package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a marketplace account: a tenant, a landlord or an admin
type User struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string     `gorm:"column:encrypted_password;not null" json:"-"`
	Role              string     `gorm:"default:tenant" json:"role"`
	FullName          string     `json:"full_name"`
	Phone             string     `json:"phone"`
	Status            string     `gorm:"default:active" json:"status"`
	DiscardedAt       *time.Time `gorm:"index" json:"-"`
	Locale            string     `gorm:"default:en" json:"locale"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Associations
	Listings      []Listing      `gorm:"foreignKey:LandlordUserID" json:"listings,omitempty"`
	Applications  []Application  `gorm:"foreignKey:TenantUserID" json:"applications,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
)

// Status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Locale constants
const (
	LocaleEN = "en"
	LocaleES = "es"
)

// BeforeCreate hook for setting defaults
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleTenant
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Locale == "" {
		u.Locale = LocaleEN
	}
	return nil
}

// IsAdmin returns true if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsLandlord returns true if user has landlord role
func (u *User) IsLandlord() bool {
	return u.Role == RoleLandlord
}

// IsTenant returns true if user has tenant role
func (u *User) IsTenant() bool {
	return u.Role == RoleTenant
}

// IsActive returns true if the account can act on the platform
func (u *User) IsActive() bool {
	return u.Status == StatusActive && u.DiscardedAt == nil
}

// UserResponse is the JSON response format for users
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Status:    u.Status,
		Locale:    u.Locale,
		CreatedAt: u.CreatedAt,
	}
}
