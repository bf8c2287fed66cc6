package services

import (
	"time"

	"github.com/rentora/rentora-api/internal/models"
)

// Payment schedule entry types
const (
	ScheduleEntryDeposit = "deposit"
	ScheduleEntryRent    = "rent"
)

// ScheduleEntry is one projected payment on a lease
type ScheduleEntry struct {
	Type    string    `json:"type"`
	DueDate time.Time `json:"due_date"`
	Amount  float64   `json:"amount"`
	Period  string    `json:"period,omitempty"`
}

// PaymentScheduleService projects the payment calendar implied by a lease.
// Purely derived from the lease terms; nothing is persisted.
type PaymentScheduleService struct{}

// NewPaymentScheduleService creates a new payment schedule service
func NewPaymentScheduleService() *PaymentScheduleService {
	return &PaymentScheduleService{}
}

// GenerateForLease returns the deposit plus one rent entry per month of the
// term. Rent is due on the monthly anniversary of the start date; a final
// partial month still produces a full entry, matching how the term is priced.
func (s *PaymentScheduleService) GenerateForLease(lease *models.Lease) []ScheduleEntry {
	entries := []ScheduleEntry{}

	if lease.DepositAmount > 0 {
		entries = append(entries, ScheduleEntry{
			Type:    ScheduleEntryDeposit,
			DueDate: lease.StartDate,
			Amount:  lease.DepositAmount,
		})
	}

	for due := lease.StartDate; due.Before(lease.EndDate); due = due.AddDate(0, 1, 0) {
		entries = append(entries, ScheduleEntry{
			Type:    ScheduleEntryRent,
			DueDate: due,
			Amount:  lease.MonthlyRent,
			Period:  due.Format("2006-01"),
		})
	}

	return entries
}

// TotalValue returns the full contract value of the schedule
func (s *PaymentScheduleService) TotalValue(entries []ScheduleEntry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	return total
}
