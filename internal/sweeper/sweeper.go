// Package sweeper settles bookings whose bidding window has elapsed. Windows
// close on their own at every write; the sweeper only turns the elapsed
// ones into an award or an expiry so customers and drivers see a final state.
package sweeper

import (
	"context"
	"errors"
	"time"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/clock"
	"haul-bidding/internal/models"
	"haul-bidding/utils"
)

// Settler is the part of the bidding service the sweeper drives.
type Settler interface {
	DueBookings(ctx context.Context, limit int) ([]models.Booking, error)
	AutoAward(ctx context.Context, bookingID string) (models.Booking, error)
	Expire(ctx context.Context, bookingID string) (models.Booking, error)
}

// Options tune a Sweeper. Zero values fall back to defaults.
type Options struct {
	Interval time.Duration
	// AutoAward awards the lowest pending bid of an elapsed booking. When
	// false, elapsed bookings are expired and their bids rejected.
	AutoAward bool
	BatchSize int
}

const (
	defaultInterval  = 15 * time.Second
	defaultBatchSize = 100
)

type Sweeper struct {
	svc   Settler
	clock clock.Clock
	opts  Options
}

func New(svc Settler, clk clock.Clock, opts Options) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Sweeper{svc: svc, clock: clk, opts: opts}
}

// Run sweeps once immediately, then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	utils.Info("Expiry sweeper started", map[string]any{
		"interval":   s.opts.Interval.String(),
		"auto_award": s.opts.AutoAward,
	})
	s.Sweep(ctx)

	ticker := s.clock.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Info("Expiry sweeper stopped", nil)
			return nil
		case <-ticker.C():
			s.Sweep(ctx)
		}
	}
}

// Sweep settles every booking that is due now, one batch at a time, and
// returns how many it settled itself.
func (s *Sweeper) Sweep(ctx context.Context) int {
	settled := 0
	for ctx.Err() == nil {
		due, err := s.svc.DueBookings(ctx, s.opts.BatchSize)
		if err != nil {
			utils.Warn("Failed to list due bookings", map[string]any{"error": err.Error()})
			return settled
		}

		progress := 0
		for _, b := range due {
			if s.settle(ctx, b) {
				progress++
			}
		}
		settled += progress
		// a short batch means nothing else is due; a batch with no progress
		// would be fetched again unchanged
		if len(due) < s.opts.BatchSize || progress == 0 {
			break
		}
	}
	return settled
}

func (s *Sweeper) settle(ctx context.Context, b models.Booking) bool {
	var (
		got models.Booking
		err error
	)
	if s.opts.AutoAward {
		got, err = s.svc.AutoAward(ctx, b.BookingID)
	} else {
		got, err = s.svc.Expire(ctx, b.BookingID)
	}

	switch {
	case err == nil:
		utils.Info("Settled elapsed booking", map[string]any{
			"booking_id": b.BookingID,
			"status":     got.Status,
			"ended_at":   b.BiddingEndsAt,
		})
		return true
	case lostRace(err):
		// a customer award or cancel landed first
		utils.Debug("Booking settled elsewhere", map[string]any{
			"booking_id": b.BookingID,
			"error":      err.Error(),
		})
		return false
	default:
		utils.Warn("Failed to settle elapsed booking", map[string]any{
			"booking_id": b.BookingID,
			"retryable":  biddingerrors.IsRetryable(err),
			"error":      err.Error(),
		})
		return false
	}
}

func lostRace(err error) bool {
	return errors.Is(err, biddingerrors.ErrConflict) ||
		errors.Is(err, biddingerrors.ErrWindowClosed) ||
		errors.Is(err, biddingerrors.ErrBookingNotFound)
}
