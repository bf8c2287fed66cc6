package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rentora/rentora-api/internal/models"
)

// DocumentService renders lease and annex documents and computes their
// content digest. Rendering is deterministic: identical input snapshots
// produce identical bytes, so a retried finalization seals the same hash.
type DocumentService struct{}

// NewDocumentService creates a new document service
func NewDocumentService() *DocumentService {
	return &DocumentService{}
}

// Hash computes the hex-encoded SHA-256 digest of a rendered artifact
func (s *DocumentService) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RenderLease produces the lease contract PDF from the full lease snapshot.
// The creation date embedded in the PDF is pinned to the lease creation time
// so repeated renders of the same snapshot are byte-identical.
func (s *DocumentService) RenderLease(lease *models.Lease, tenantSig, ownerSig *models.LeaseSignature) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(lease.CreatedAt.UTC())
	pdf.SetModificationDate(lease.CreatedAt.UTC())
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Residential Lease Agreement")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Lease #%d - Document version %d", lease.ID, lease.DocumentVersion))
	pdf.Ln(10)

	s.writeSection(pdf, "Term and Rent", []string{
		fmt.Sprintf("Start date: %s", lease.StartDate.Format("2006-01-02")),
		fmt.Sprintf("End date: %s", lease.EndDate.Format("2006-01-02")),
		fmt.Sprintf("Monthly rent: %.2f", lease.MonthlyRent),
		fmt.Sprintf("Security deposit: %.2f", lease.DepositAmount),
	})

	s.writeJSONBlock(pdf, "Landlord", lease.LandlordInfo)
	s.writeJSONBlock(pdf, "Property", lease.PropertyInfo)
	s.writeJSONBlock(pdf, "Lease Terms", lease.LeaseTerms)
	s.writeJSONBlock(pdf, "Additional Conditions", lease.AdditionalConditions)

	if lease.Terms != nil && *lease.Terms != "" {
		s.writeSection(pdf, "General Terms", []string{*lease.Terms})
	}

	s.writeSignature(pdf, "Tenant Signature", tenantSig)
	s.writeSignature(pdf, "Landlord Signature", ownerSig)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render lease document: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderAnnex produces the PDF for one annex document
func (s *DocumentService) RenderAnnex(annex *models.AnnexDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(annex.CreatedAt.UTC())
	pdf.SetModificationDate(annex.CreatedAt.UTC())
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, annex.Title)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Annex #%d - Version %d - Lease #%d", annex.ID, annex.Version, annex.LeaseID))
	pdf.Ln(10)
	pdf.MultiCell(0, 5, annex.Content, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render annex document: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *DocumentService) writeSection(pdf *gofpdf.Fpdf, title string, lines []string) {
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
	pdf.Ln(4)
}

// writeJSONBlock prints one landlord-authored JSON block with keys in sorted
// order so the output stays stable regardless of map iteration order.
func (s *DocumentService) writeJSONBlock(pdf *gofpdf.Fpdf, title string, block models.JSONB) {
	if len(block) == 0 {
		return
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(block, &fields); err != nil || len(fields) == 0 {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, fields[k]))
	}
	s.writeSection(pdf, title, lines)
}

func (s *DocumentService) writeSignature(pdf *gofpdf.Fpdf, title string, sig *models.LeaseSignature) {
	if sig == nil {
		return
	}

	lines := []string{
		fmt.Sprintf("Signed by: %s (%s)", sig.SignerName, sig.SignerEmail),
		fmt.Sprintf("Signed at: %s", sig.CreatedAt.UTC().Format(time.RFC3339)),
		fmt.Sprintf("Document version at signing: %d", sig.DocumentVersion),
	}
	if sig.Initials != nil && *sig.Initials != "" {
		lines = append(lines, fmt.Sprintf("Initials: %s", *sig.Initials))
	}
	s.writeSection(pdf, title, lines)
}
