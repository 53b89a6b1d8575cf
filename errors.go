package kovr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("kovr: not found")
	ErrAlreadyExists = errors.New("kovr: already exists")
	ErrInvalidInput  = errors.New("kovr: invalid input")
	ErrForbidden     = errors.New("kovr: forbidden")

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("kovr: subscription not found")
	ErrInvalidBillingCycle  = errors.New("kovr: invalid billing cycle")
	ErrInvalidAnchorDate    = errors.New("kovr: invalid anchor date")

	// Profile errors
	ErrProfileNotFound = errors.New("kovr: profile not found")

	// Family errors
	ErrFamilyNotFound   = errors.New("kovr: family not found")
	ErrMemberNotFound   = errors.New("kovr: member not found")
	ErrNotAMember       = errors.New("kovr: profile is not a family member")
	ErrAlreadyMember    = errors.New("kovr: profile is already a family member")
	ErrOwnerImmovable   = errors.New("kovr: family owner cannot be removed")
	ErrInviteNotFound   = errors.New("kovr: invite not found")
	ErrInviteNotUsable  = errors.New("kovr: invite expired or already used")
	ErrInviteNotPending = errors.New("kovr: invite is not pending")

	// Alert errors
	ErrAlertNotFound   = errors.New("kovr: alert not found")
	ErrAlertBufferFull = errors.New("kovr: alert buffer full")
	ErrNoDispatcher    = errors.New("kovr: no dispatcher configured")

	// Store errors
	ErrStoreNotReady     = errors.New("kovr: store not ready")
	ErrStoreClosed       = errors.New("kovr: store is closed")
	ErrTransactionFailed = errors.New("kovr: transaction failed")
	ErrMigrationFailed   = errors.New("kovr: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("kovr: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrFamilyNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrInviteNotFound) ||
		errors.Is(err, ErrAlertNotFound)
}

// IsAuthzError returns true if the error is an authorization failure.
func IsAuthzError(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrOwnerImmovable) ||
		errors.Is(err, ErrNotAMember)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAlertBufferFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
