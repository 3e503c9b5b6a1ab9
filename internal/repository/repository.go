package repository

import (
	"context"
	"errors"
	"time"

	"haul-bidding/internal/biddingerrors"
	model "haul-bidding/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB is the persistence contract for bookings and bids. Every method
// that changes state applies its guard and all of its writes as one atomic
// unit, so callers never observe a partial award, cancel or expiry.
//
// Time is always passed in by the caller so that window checks use the
// server clock rather than anything the store or a client believes.
type AuctionDB interface {
	CreateBooking(ctx context.Context, b model.Booking) error
	GetBooking(ctx context.Context, bookingID string) (model.Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error)

	// InsertBid stores bid if its booking is accepting bids at now and the
	// driver holds no pending or accepted bid on it. It returns the booking
	// with its version bumped.
	InsertBid(ctx context.Context, bid model.Bid, now time.Time) (model.Booking, error)
	ListPendingBids(ctx context.Context, bookingID string) ([]model.Bid, error)
	ListBidsByDriver(ctx context.Context, driverID string) ([]model.Bid, error)

	AwardBid(ctx context.Context, p AwardParams) (model.AwardResult, error)
	AdvanceStatus(ctx context.Context, bookingID string, to model.BookingStatus, now time.Time) (Mutation, error)
	CancelBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error)
	ExpireBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error)

	// ListOpenJobs returns bookings still accepting bids at now together with
	// their bid aggregates, in no particular order.
	ListOpenJobs(ctx context.Context, now time.Time) ([]model.Job, error)
	// ListDueBookings returns bookings still marked accepting_bids whose
	// window has elapsed at now, oldest deadline first.
	ListDueBookings(ctx context.Context, now time.Time, limit int) ([]model.Booking, error)
}

// AwardParams selects the winning bid of a booking.
type AwardParams struct {
	BookingID string
	BidID     string
	Now       time.Time
	// AfterWindow lets the expiry policy award once the window has elapsed.
	// Customer awards leave it false and fail with a closed window instead.
	AfterWindow bool
}

// Mutation is the outcome of a lifecycle write. Changed is false when the
// booking was already in the requested state.
type Mutation struct {
	Booking  model.Booking
	Rejected []model.Bid
	Changed  bool
}

// canCancel reports whether a cancellation may start from s: any known
// status that is not terminal.
func canCancel(s model.BookingStatus) bool {
	return s.Valid() && !s.Terminal()
}

// isDomainError reports whether err has already been classified.
func isDomainError(err error) bool {
	for _, target := range []error{
		biddingerrors.ErrBookingNotFound, biddingerrors.ErrBidNotFound,
		biddingerrors.ErrValidation, biddingerrors.ErrDuplicateBid,
		biddingerrors.ErrWindowClosed, biddingerrors.ErrConflict,
		biddingerrors.ErrInvalidTransition, biddingerrors.ErrForbidden,
		biddingerrors.ErrTransient,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
