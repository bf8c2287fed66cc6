package models

import (
	"time"
)

// Lease represents one tenancy contract between a tenant and a landlord
type Lease struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	ApplicationID  *uint   `gorm:"uniqueIndex" json:"application_id"`
	Origin         string  `gorm:"not null;default:application" json:"origin"`
	TenantUserID   uint    `gorm:"not null;index" json:"tenant_user_id"`
	LandlordUserID uint    `gorm:"not null;index" json:"landlord_user_id"`
	ListingID      *uint   `gorm:"index" json:"listing_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	MonthlyRent    float64 `gorm:"type:decimal;not null" json:"monthly_rent"`
	DepositAmount  float64 `gorm:"type:decimal;not null" json:"deposit_amount"`
	Terms          *string `gorm:"type:text" json:"terms"`

	// Landlord-authored blocks captured at creation and write-once for the
	// rest of the lease lifecycle (signature and finalization never touch them).
	LandlordInfo         JSONB `gorm:"type:jsonb" json:"landlord_info"`
	PropertyInfo         JSONB `gorm:"type:jsonb" json:"property_info"`
	LeaseTerms           JSONB `gorm:"type:jsonb" json:"lease_terms"`
	AdditionalConditions JSONB `gorm:"type:jsonb" json:"additional_conditions"`

	Status          string `gorm:"default:draft;index" json:"status"`
	DocumentVersion int    `gorm:"not null;default:1" json:"document_version"`

	// Seal fields. All-or-nothing: a finalization event sets the four of
	// them together, or none of them is set.
	DocumentID   *string    `gorm:"size:36" json:"document_id"`
	DocumentHash *string    `gorm:"size:64" json:"document_hash"`
	PDFURL       *string    `gorm:"column:pdf_url" json:"pdf_url"`
	FinalizedAt  *time.Time `json:"finalized_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Application     *Application     `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	Tenant          User             `gorm:"foreignKey:TenantUserID" json:"tenant,omitempty"`
	Landlord        User             `gorm:"foreignKey:LandlordUserID" json:"landlord,omitempty"`
	Listing         *Listing         `gorm:"foreignKey:ListingID" json:"listing,omitempty"`
	Signatures      []LeaseSignature `gorm:"foreignKey:LeaseID" json:"signatures,omitempty"`
	AnnexDocuments  []AnnexDocument  `gorm:"foreignKey:LeaseID" json:"annex_documents,omitempty"`
}

// TableName specifies the table name for Lease
func (Lease) TableName() string {
	return "leases"
}

// Lease status constants
const (
	LeaseStatusDraft        = "draft"
	LeaseStatusTenantSigned = "tenant_signed"
	LeaseStatusOwnerSigned  = "owner_signed"
	LeaseStatusFinalized    = "finalized"
	LeaseStatusCancelled    = "cancelled"
)

// Lease origin constants. A lease either stems from an accepted application
// or was created manually by the landlord; there is no synthetic application
// behind a manual lease.
const (
	LeaseOriginApplication = "application"
	LeaseOriginManual      = "manual"
)

// IsFinalized returns true once the lease has reached its terminal signing state
func (l *Lease) IsFinalized() bool {
	return l.Status == LeaseStatusFinalized
}

// IsSealed returns true when the rendered document has been hashed and stored
func (l *Lease) IsSealed() bool {
	return l.DocumentID != nil && l.DocumentHash != nil && l.PDFURL != nil
}

// SealConsistent verifies the all-or-nothing invariant on the seal fields
func (l *Lease) SealConsistent() bool {
	set := 0
	if l.DocumentID != nil {
		set++
	}
	if l.DocumentHash != nil {
		set++
	}
	if l.PDFURL != nil {
		set++
	}
	return set == 0 || set == 3
}

// MayAcceptSignature returns true while sign operations are still allowed
func (l *Lease) MayAcceptSignature() bool {
	return l.Status == LeaseStatusDraft ||
		l.Status == LeaseStatusTenantSigned ||
		l.Status == LeaseStatusOwnerSigned
}

// SignatureFor returns the signature for the given role, or nil
func (l *Lease) SignatureFor(role string) *LeaseSignature {
	for i := range l.Signatures {
		if l.Signatures[i].Role == role {
			return &l.Signatures[i]
		}
	}
	return nil
}

// PartyRole returns the role the given user plays on this lease, or ""
func (l *Lease) PartyRole(userID uint) string {
	switch userID {
	case l.TenantUserID:
		return SignerRoleTenant
	case l.LandlordUserID:
		return SignerRoleOwner
	default:
		return ""
	}
}

// LeaseResponse is the JSON response format for leases
type LeaseResponse struct {
	ID              uint                     `json:"id"`
	ApplicationID   *uint                    `json:"application_id"`
	Origin          string                   `json:"origin"`
	TenantUserID    uint                     `json:"tenant_user_id"`
	TenantName      string                   `json:"tenant_name"`
	LandlordUserID  uint                     `json:"landlord_user_id"`
	LandlordName    string                   `json:"landlord_name"`
	StartDate       time.Time                `json:"start_date"`
	EndDate         time.Time                `json:"end_date"`
	MonthlyRent     float64                  `json:"monthly_rent"`
	DepositAmount   float64                  `json:"deposit_amount"`
	Terms           *string                  `json:"terms"`
	Status          string                   `json:"status"`
	DocumentVersion int                      `json:"document_version"`
	DocumentID      *string                  `json:"document_id"`
	DocumentHash    *string                  `json:"document_hash"`
	PDFURL          *string                  `json:"pdf_url"`
	FinalizedAt     *time.Time               `json:"finalized_at"`
	TenantSigned    bool                     `json:"tenant_signed"`
	OwnerSigned     bool                     `json:"owner_signed"`
	Signatures      []LeaseSignatureResponse `json:"signatures,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// ToResponse converts Lease to LeaseResponse
func (l *Lease) ToResponse() LeaseResponse {
	resp := LeaseResponse{
		ID:              l.ID,
		ApplicationID:   l.ApplicationID,
		Origin:          l.Origin,
		TenantUserID:    l.TenantUserID,
		LandlordUserID:  l.LandlordUserID,
		StartDate:       l.StartDate,
		EndDate:         l.EndDate,
		MonthlyRent:     l.MonthlyRent,
		DepositAmount:   l.DepositAmount,
		Terms:           l.Terms,
		Status:          l.Status,
		DocumentVersion: l.DocumentVersion,
		DocumentID:      l.DocumentID,
		DocumentHash:    l.DocumentHash,
		PDFURL:          l.PDFURL,
		FinalizedAt:     l.FinalizedAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}

	if l.Tenant.ID != 0 {
		resp.TenantName = l.Tenant.FullName
	}
	if l.Landlord.ID != 0 {
		resp.LandlordName = l.Landlord.FullName
	}

	for _, sig := range l.Signatures {
		resp.Signatures = append(resp.Signatures, sig.ToResponse())
		switch sig.Role {
		case SignerRoleTenant:
			resp.TenantSigned = true
		case SignerRoleOwner:
			resp.OwnerSigned = true
		}
	}

	return resp
}
