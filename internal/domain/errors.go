package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Callers branch with errors.Is; specific errors wrap the base kinds so a
// handler can map everything to a status code without string matching.

var (
	// ErrNotFound is the base kind for absent records.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the base kind for caller-fixable input errors.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks an attempted transition from a non-pending
	// withdrawal state. Resolution treats it as a no-op, not a failure.
	ErrConflict = errors.New("conflicting state transition")

	ErrMemberNotFound  = fmt.Errorf("member %w", ErrNotFound)
	ErrEntryNotFound   = fmt.Errorf("ledger entry %w", ErrNotFound)
	ErrRequestNotFound = fmt.Errorf("withdrawal request %w", ErrNotFound)
	ErrWalletNotFound  = fmt.Errorf("wallet %w", ErrNotFound)
)

// Invalidf builds a validation error with detail, wrapping ErrValidation.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
