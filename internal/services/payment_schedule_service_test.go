package services

import (
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentScheduleService_GenerateForLease(t *testing.T) {
	svc := NewPaymentScheduleService()

	lease := &models.Lease{
		StartDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2027, 9, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRent:   800,
		DepositAmount: 800,
	}

	entries := svc.GenerateForLease(lease)
	require.Len(t, entries, 13, "deposit plus 12 monthly rent entries")

	assert.Equal(t, ScheduleEntryDeposit, entries[0].Type)
	assert.Equal(t, lease.StartDate, entries[0].DueDate)

	assert.Equal(t, ScheduleEntryRent, entries[1].Type)
	assert.Equal(t, "2026-09", entries[1].Period)
	assert.Equal(t, "2027-08", entries[12].Period)

	assert.Equal(t, 800.0+12*800.0, svc.TotalValue(entries))
}

func TestPaymentScheduleService_NoDeposit(t *testing.T) {
	svc := NewPaymentScheduleService()

	lease := &models.Lease{
		StartDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		MonthlyRent: 500,
	}

	entries := svc.GenerateForLease(lease)
	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, ScheduleEntryRent, e.Type)
	}
}
