package biddingerrors

import "errors"

// Repository-level errors
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrBidNotFound     = errors.New("bid not found")
)

// business logic errors
var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateBid      = errors.New("driver already has a bid on this booking")
	ErrWindowClosed      = errors.New("bidding window closed")
	ErrConflict          = errors.New("booking state changed concurrently")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("caller may not act on this booking")
)

// infrastructure errors
var (
	ErrTransient = errors.New("store temporarily unavailable")
)

// IsRetryable reports whether err may succeed if the same call is repeated.
// Only transient failures qualify; everything else is terminal for the attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
