package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportService produces downloadable audit trail reports
type ExportService struct {
	auditSvc *AuditService
}

func NewExportService(auditSvc *AuditService) *ExportService {
	return &ExportService{auditSvc: auditSvc}
}

// exportLimit caps one export; the audit trail is append-only and unbounded
const exportLimit = 10000

func (s *ExportService) ExportAuditCSV(ctx context.Context, leaseID uint) ([]byte, string, error) {
	logs, _, err := s.auditSvc.List(ctx, leaseID, exportLimit, 0)
	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Audit Trail", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Timestamp", "Action", "Entity", "Entity ID", "Lease ID", "User", "Details"})

	for _, entry := range logs {
		leaseRef := ""
		if entry.LeaseID != nil {
			leaseRef = fmt.Sprintf("%d", *entry.LeaseID)
		}
		_ = writer.Write([]string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.Action,
			entry.EntityType,
			fmt.Sprintf("%d", entry.EntityID),
			leaseRef,
			entry.User.Email,
			entry.Details,
		})
	}

	writer.Flush()

	filename := fmt.Sprintf("audit_trail_%s.csv", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ExportAuditXLSX(ctx context.Context, leaseID uint) ([]byte, string, error) {
	logs, _, err := s.auditSvc.List(ctx, leaseID, exportLimit, 0)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Audit Trail"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Timestamp", "Action", "Entity", "Entity ID", "Lease ID", "User", "Details"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, entry := range logs {
		values := []interface{}{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.Action,
			entry.EntityType,
			entry.EntityID,
			nil,
			entry.User.Email,
			entry.Details,
		}
		if entry.LeaseID != nil {
			values[4] = *entry.LeaseID
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_trail_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
