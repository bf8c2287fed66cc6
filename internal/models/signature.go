package models

import (
	"time"
)

// Signer role constants
const (
	SignerRoleTenant = "tenant"
	SignerRoleOwner  = "owner"
)

// LeaseSignature represents one party's binding acceptance of a lease
// document version. At most one row exists per (lease, role); the composite
// unique index is the authoritative guard against concurrent duplicate
// submissions, not an application-level pre-check.
type LeaseSignature struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	LeaseID         uint    `gorm:"not null;uniqueIndex:idx_lease_signatures_lease_role" json:"lease_id"`
	Role            string  `gorm:"size:10;not null;uniqueIndex:idx_lease_signatures_lease_role" json:"role"`
	SignerUserID    uint    `gorm:"not null;index" json:"signer_user_id"`
	SignerEmail     string  `gorm:"not null" json:"signer_email"`
	SignerName      string  `gorm:"not null" json:"signer_name"`
	Initials        *string `gorm:"size:10" json:"initials"`
	ConsentGiven    bool    `gorm:"not null" json:"consent_given"`
	IPAddress       *string `gorm:"size:45" json:"ip_address"`
	UserAgent       *string `gorm:"size:255" json:"user_agent"`
	DocumentVersion int     `gorm:"not null" json:"document_version"`
	CreatedAt       time.Time `json:"created_at"`

	// Associations
	Lease  Lease `gorm:"foreignKey:LeaseID" json:"-"`
	Signer User  `gorm:"foreignKey:SignerUserID" json:"-"`
}

// TableName specifies the table name for LeaseSignature
func (LeaseSignature) TableName() string {
	return "lease_signatures"
}

// LeaseSignatureResponse is the JSON response format for lease signatures
type LeaseSignatureResponse struct {
	ID              uint      `json:"id"`
	LeaseID         uint      `json:"lease_id"`
	Role            string    `json:"role"`
	SignerUserID    uint      `json:"signer_user_id"`
	SignerName      string    `json:"signer_name"`
	Initials        *string   `json:"initials"`
	DocumentVersion int       `json:"document_version"`
	SignedAt        time.Time `json:"signed_at"`
}

// ToResponse converts LeaseSignature to LeaseSignatureResponse
func (s *LeaseSignature) ToResponse() LeaseSignatureResponse {
	return LeaseSignatureResponse{
		ID:              s.ID,
		LeaseID:         s.LeaseID,
		Role:            s.Role,
		SignerUserID:    s.SignerUserID,
		SignerName:      s.SignerName,
		Initials:        s.Initials,
		DocumentVersion: s.DocumentVersion,
		SignedAt:        s.CreatedAt,
	}
}
