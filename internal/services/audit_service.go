package services

import (
	"context"
	"encoding/json"

	"github.com/getsentry/sentry-go"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// AuditService writes the append-only trail of lease and annex actions.
// Entries are never updated or deleted.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEntry carries the optional attributes of one audit record
type AuditEntry struct {
	LeaseID   *uint
	Details   string
	Metadata  map[string]interface{}
	IPAddress string
	UserAgent string
}

// Record appends an audit entry. A write failure must not abort the primary
// operation it describes, so callers use RecordAsyncSafe or ignore the error
// after it has been surfaced here: failures are logged and reported to the
// error telemetry, never silently skipped.
func (s *AuditService) Record(ctx context.Context, userID uint, action, entityType string, entityID uint, entry AuditEntry) error {
	var metadata models.JSONB
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err == nil {
			metadata = models.JSONB(b)
		}
	}

	logEntry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		LeaseID:    entry.LeaseID,
		Details:    entry.Details,
		Metadata:   metadata,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}

	if err := s.db.WithContext(ctx).Create(logEntry).Error; err != nil {
		logger.Error("Failed to write audit entry", "action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
		sentry.CaptureException(err)
		return err
	}
	return nil
}

// List retrieves audit entries, newest first, optionally scoped to one lease
func (s *AuditService) List(ctx context.Context, leaseID uint, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if leaseID > 0 {
		db = db.Where("lease_id = ?", leaseID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := db.Preload("User").Order("created_at desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}

// CountByAction returns the number of entries for one action on one lease.
// Used by tests and integrity checks around finalize idempotence.
func (s *AuditService) CountByAction(ctx context.Context, leaseID uint, action string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("lease_id = ? AND action = ?", leaseID, action).
		Count(&count).Error
	return count, err
}
