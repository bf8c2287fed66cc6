package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/rentora/rentora-api/internal/models"
)

// ComputeStatus derives the lease status from the authoritative presence of
// the two signature rows. The stored status column is a cache of this result;
// it is recomputed after every signature insert so concurrent writers cannot
// make it drift.
func ComputeStatus(hasTenant, hasOwner bool) string {
	switch {
	case hasTenant && hasOwner:
		return models.LeaseStatusFinalized
	case hasTenant:
		return models.LeaseStatusTenantSigned
	case hasOwner:
		return models.LeaseStatusOwnerSigned
	default:
		return models.LeaseStatusDraft
	}
}

// LeaseFSM wraps a lease with its signing state machine
type LeaseFSM struct {
	lease *models.Lease
	fsm   *fsm.FSM
}

// NewLeaseFSM creates a new lease state machine
func NewLeaseFSM(lease *models.Lease) *LeaseFSM {
	lfsm := &LeaseFSM{
		lease: lease,
	}

	lfsm.fsm = fsm.NewFSM(
		lease.Status,
		fsm.Events{
			// draft → tenant_signed; owner_signed → finalized (tenant completes the pair)
			{Name: "tenant_sign", Src: []string{models.LeaseStatusDraft}, Dst: models.LeaseStatusTenantSigned},
			{Name: "tenant_sign_complete", Src: []string{models.LeaseStatusOwnerSigned}, Dst: models.LeaseStatusFinalized},

			// draft → owner_signed; tenant_signed → finalized (owner completes the pair)
			{Name: "owner_sign", Src: []string{models.LeaseStatusDraft}, Dst: models.LeaseStatusOwnerSigned},
			{Name: "owner_sign_complete", Src: []string{models.LeaseStatusTenantSigned}, Dst: models.LeaseStatusFinalized},

			// any pre-finalized state → cancelled
			{Name: "cancel", Src: []string{models.LeaseStatusDraft, models.LeaseStatusTenantSigned, models.LeaseStatusOwnerSigned}, Dst: models.LeaseStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return lfsm
}

// SignTenant transitions the lease after a tenant signature insert
func (l *LeaseFSM) SignTenant(ctx context.Context) error {
	if !l.lease.MayAcceptSignature() {
		return fmt.Errorf("lease cannot accept signatures in current state: %s", l.lease.Status)
	}

	event := "tenant_sign"
	if l.lease.Status == models.LeaseStatusOwnerSigned {
		event = "tenant_sign_complete"
	}
	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to apply tenant signature: %w", err)
	}

	l.lease.Status = l.fsm.Current()
	return nil
}

// SignOwner transitions the lease after an owner signature insert
func (l *LeaseFSM) SignOwner(ctx context.Context) error {
	if !l.lease.MayAcceptSignature() {
		return fmt.Errorf("lease cannot accept signatures in current state: %s", l.lease.Status)
	}

	event := "owner_sign"
	if l.lease.Status == models.LeaseStatusTenantSigned {
		event = "owner_sign_complete"
	}
	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("failed to apply owner signature: %w", err)
	}

	l.lease.Status = l.fsm.Current()
	return nil
}

// Cancel transitions a not-yet-finalized lease to cancelled
func (l *LeaseFSM) Cancel(ctx context.Context) error {
	if l.lease.IsFinalized() {
		return fmt.Errorf("finalized lease cannot be cancelled")
	}

	if err := l.fsm.Event(ctx, "cancel"); err != nil {
		return fmt.Errorf("failed to cancel lease: %w", err)
	}

	l.lease.Status = l.fsm.Current()
	return nil
}

// Current returns the current state
func (l *LeaseFSM) Current() string {
	return l.fsm.Current()
}

// Can checks if a transition is possible
func (l *LeaseFSM) Can(event string) bool {
	return l.fsm.Can(event)
}
