package models

import (
	"time"
)

// Audit action constants
const (
	AuditLeaseCreated            = "LEASE_CREATED"
	AuditLeaseTenantSigned       = "LEASE_TENANT_SIGNED"
	AuditLeaseOwnerSigned        = "LEASE_OWNER_SIGNED"
	AuditLeaseFinalized          = "LEASE_FINALIZED"
	AuditLeaseCancelled          = "LEASE_CANCELLED"
	AuditPDFGenerated            = "PDF_GENERATED"
	AuditLeaseDocumentViewed     = "LEASE_DOCUMENT_VIEWED"
	AuditLeaseDocumentDownloaded = "LEASE_DOCUMENT_DOWNLOADED"
	AuditAnnexCreated            = "ANNEX_CREATED"
	AuditAnnexSigned             = "ANNEX_SIGNED"
)

// Audit entity type constants
const (
	AuditEntityLease = "LEASE"
	AuditEntityAnnex = "ANNEX"
)

// AuditLog is an immutable record of one state-changing action on a lease or
// annex. Rows are append-only: the domain offers no update or delete for them.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Action     string    `gorm:"size:50;not null;index" json:"action"`
	EntityType string    `gorm:"size:20;not null" json:"entity_type"` // LEASE or ANNEX
	EntityID   uint      `gorm:"index" json:"entity_id"`
	LeaseID    *uint     `gorm:"index" json:"lease_id"`
	Details    string    `gorm:"type:text" json:"details"`
	Metadata   JSONB     `gorm:"type:jsonb" json:"metadata"`
	IPAddress  string    `gorm:"size:45" json:"ip_address"`
	UserAgent  string    `gorm:"size:255" json:"user_agent"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	// Associations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
