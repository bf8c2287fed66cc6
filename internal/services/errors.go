package services

import "errors"

// Common service errors. Handlers map these to stable HTTP responses;
// conflict errors (already signed / already finalized) signal idempotent
// convergence to retrying callers, not failures.
var (
	ErrNotFound             = errors.New("record not found")
	ErrForbidden            = errors.New("caller is not a party to this lease")
	ErrAlreadySigned        = errors.New("a signature for this role already exists")
	ErrAlreadyFinalized     = errors.New("lease is already finalized")
	ErrConsentRequired      = errors.New("consent must be given to sign")
	ErrSignaturesIncomplete = errors.New("both signatures are required before finalization")
	ErrNotFinalized         = errors.New("lease document has not been finalized")
	ErrStorageFailure       = errors.New("document rendering or storage failed")
	ErrIntegrityViolation   = errors.New("lease seal fields are inconsistent")
	ErrInvalidState         = errors.New("invalid state transition")
)
