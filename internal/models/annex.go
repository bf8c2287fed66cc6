package models

import (
	"time"
)

// Annex document type constants
const (
	AnnexTypePaymentConsent     = "payment_consent"
	AnnexTypeCreditCheck        = "credit_check_authorization"
	AnnexTypeElectronicComms    = "electronic_communications_consent"
)

// AnnexTypes is the fixed set generated for every lease, in creation order
var AnnexTypes = []string{
	AnnexTypePaymentConsent,
	AnnexTypeCreditCheck,
	AnnexTypeElectronicComms,
}

// AnnexDocument is a secondary, independently-signable consent document
// generated alongside a lease. The set is created once per lease and never
// regenerated.
type AnnexDocument struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LeaseID   uint      `gorm:"not null;index" json:"lease_id"`
	Type      string    `gorm:"size:50;not null" json:"type"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Lease      Lease            `gorm:"foreignKey:LeaseID" json:"-"`
	Signatures []AnnexSignature `gorm:"foreignKey:AnnexID" json:"signatures,omitempty"`
}

// TableName specifies the table name for AnnexDocument
func (AnnexDocument) TableName() string {
	return "annex_documents"
}

// SignedBy returns true if the given user already signed this annex
func (a *AnnexDocument) SignedBy(userID uint) bool {
	for _, sig := range a.Signatures {
		if sig.SignerUserID == userID {
			return true
		}
	}
	return false
}

// AnnexSignature is one signer's acceptance of one annex document. At most
// one row per (annex, signer), enforced by the composite unique index.
type AnnexSignature struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	AnnexID         uint    `gorm:"not null;uniqueIndex:idx_annex_signatures_annex_signer" json:"annex_id"`
	SignerUserID    uint    `gorm:"not null;uniqueIndex:idx_annex_signatures_annex_signer" json:"signer_user_id"`
	Role            string  `gorm:"size:10;not null" json:"role"`
	ConsentGiven    bool    `gorm:"not null" json:"consent_given"`
	IPAddress       *string `gorm:"size:45" json:"ip_address"`
	UserAgent       *string `gorm:"size:255" json:"user_agent"`
	DocumentVersion int     `gorm:"not null" json:"document_version"`
	CreatedAt       time.Time `json:"created_at"`

	// Associations
	Annex  AnnexDocument `gorm:"foreignKey:AnnexID" json:"-"`
	Signer User          `gorm:"foreignKey:SignerUserID" json:"-"`
}

// TableName specifies the table name for AnnexSignature
func (AnnexSignature) TableName() string {
	return "annex_signatures"
}

// AnnexResponse is the JSON response format for annex documents
type AnnexResponse struct {
	ID         uint                     `json:"id"`
	LeaseID    uint                     `json:"lease_id"`
	Type       string                   `json:"type"`
	Title      string                   `json:"title"`
	Content    string                   `json:"content"`
	Version    int                      `json:"version"`
	Signatures []AnnexSignatureResponse `json:"signatures"`
	CreatedAt  time.Time                `json:"created_at"`
}

// AnnexSignatureResponse is the JSON response format for annex signatures
type AnnexSignatureResponse struct {
	ID              uint      `json:"id"`
	AnnexID         uint      `json:"annex_id"`
	SignerUserID    uint      `json:"signer_user_id"`
	Role            string    `json:"role"`
	DocumentVersion int       `json:"document_version"`
	SignedAt        time.Time `json:"signed_at"`
}

// ToResponse converts AnnexDocument to AnnexResponse
func (a *AnnexDocument) ToResponse() AnnexResponse {
	resp := AnnexResponse{
		ID:        a.ID,
		LeaseID:   a.LeaseID,
		Type:      a.Type,
		Title:     a.Title,
		Content:   a.Content,
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
	}
	for _, sig := range a.Signatures {
		resp.Signatures = append(resp.Signatures, AnnexSignatureResponse{
			ID:              sig.ID,
			AnnexID:         sig.AnnexID,
			SignerUserID:    sig.SignerUserID,
			Role:            sig.Role,
			DocumentVersion: sig.DocumentVersion,
			SignedAt:        sig.CreatedAt,
		})
	}
	return resp
}
