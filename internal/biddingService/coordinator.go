package bidding

import (
	"context"
	"fmt"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/models"
	"haul-bidding/internal/realtime"
	"haul-bidding/internal/repository"
)

// Award makes bidID the winner of bookingID. Only the booking's customer may
// award, only while the window is open, and only one award per booking can
// ever succeed; a lost race returns biddingerrors.ErrConflict.
func (s *BiddingService) Award(ctx context.Context, customerID, bookingID, bidID string) (models.AwardResult, error) {
	if customerID == "" || bookingID == "" || bidID == "" {
		return models.AwardResult{}, fmt.Errorf("service: %w - missing customer, booking or bid ID", biddingerrors.ErrValidation)
	}
	if err := s.authorizeCustomer(ctx, customerID, bookingID); err != nil {
		return models.AwardResult{}, err
	}

	res, err := s.repo.AwardBid(ctx, repository.AwardParams{BookingID: bookingID, BidID: bidID, Now: s.clock.Now()})
	if err != nil {
		return models.AwardResult{}, fmt.Errorf("service: failed to award bid %s on booking %s: %w", bidID, bookingID, err)
	}
	s.publishAward(ctx, res)
	return res, nil
}

// AutoAward settles a booking whose window has elapsed: the lowest pending
// bid wins, or the booking expires when nobody bid.
func (s *BiddingService) AutoAward(ctx context.Context, bookingID string) (models.Booking, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	now := s.clock.Now()
	if now.Before(b.BiddingEndsAt) {
		return models.Booking{}, fmt.Errorf("service: %w - booking %s still open until %s", biddingerrors.ErrInvalidTransition, bookingID, b.BiddingEndsAt)
	}

	pending, err := s.ListPending(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if len(pending) == 0 {
		return s.Expire(ctx, bookingID)
	}

	res, err := s.repo.AwardBid(ctx, repository.AwardParams{
		BookingID:   bookingID,
		BidID:       pending[0].BidID,
		Now:         now,
		AfterWindow: true,
	})
	if err != nil {
		return models.Booking{}, fmt.Errorf("service: failed to auto-award booking %s: %w", bookingID, err)
	}
	s.publishAward(ctx, res)
	return res.Booking, nil
}

// Expire closes an elapsed booking without a winner, rejecting any bids.
func (s *BiddingService) Expire(ctx context.Context, bookingID string) (models.Booking, error) {
	now := s.clock.Now()
	m, err := s.repo.ExpireBooking(ctx, bookingID, now)
	if err != nil {
		return models.Booking{}, fmt.Errorf("service: failed to expire booking %s: %w", bookingID, err)
	}
	s.publishMutation(ctx, m)
	return m.Booking, nil
}

// DueBookings lists bookings whose window has elapsed but that have not been
// settled yet.
func (s *BiddingService) DueBookings(ctx context.Context, limit int) ([]models.Booking, error) {
	due, err := s.repo.ListDueBookings(ctx, s.clock.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list due bookings: %w", err)
	}
	return due, nil
}

// Advance moves an awarded booking one fulfilment step forward. Only the
// assigned driver may advance it; repeating the current step is a no-op.
func (s *BiddingService) Advance(ctx context.Context, driverID, bookingID string, to models.BookingStatus) (models.Booking, error) {
	if driverID == "" || bookingID == "" {
		return models.Booking{}, fmt.Errorf("service: %w - missing driver or booking ID", biddingerrors.ErrValidation)
	}
	switch to {
	case models.StatusPickedUp, models.StatusInTransit, models.StatusDelivered:
	default:
		return models.Booking{}, fmt.Errorf("service: %w - drivers cannot move a booking to %q", biddingerrors.ErrValidation, to)
	}

	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.DriverID == nil || *b.DriverID != driverID {
		return models.Booking{}, fmt.Errorf("service: %w - driver %s is not assigned to booking %s", biddingerrors.ErrForbidden, driverID, bookingID)
	}

	m, err := s.repo.AdvanceStatus(ctx, bookingID, to, s.clock.Now())
	if err != nil {
		return models.Booking{}, fmt.Errorf("service: failed to advance booking %s to %s: %w", bookingID, to, err)
	}
	s.publishMutation(ctx, m)
	return m.Booking, nil
}

// Cancel withdraws a booking before delivery. Cancelling twice is not an error.
func (s *BiddingService) Cancel(ctx context.Context, customerID, bookingID string) (models.Booking, error) {
	if customerID == "" || bookingID == "" {
		return models.Booking{}, fmt.Errorf("service: %w - missing customer or booking ID", biddingerrors.ErrValidation)
	}
	if err := s.authorizeCustomer(ctx, customerID, bookingID); err != nil {
		return models.Booking{}, err
	}

	m, err := s.repo.CancelBooking(ctx, bookingID, s.clock.Now())
	if err != nil {
		return models.Booking{}, fmt.Errorf("service: failed to cancel booking %s: %w", bookingID, err)
	}
	s.publishMutation(ctx, m)
	return m.Booking, nil
}

func (s *BiddingService) authorizeCustomer(ctx context.Context, customerID, bookingID string) error {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.CustomerID != customerID {
		return fmt.Errorf("service: %w - booking %s belongs to another customer", biddingerrors.ErrForbidden, bookingID)
	}
	return nil
}

func (s *BiddingService) publishAward(ctx context.Context, res models.AwardResult) {
	now := s.clock.Now()
	events := []realtime.ChangeEvent{
		realtime.BookingEvent(realtime.OpUpdate, res.Booking, now),
		realtime.BidEvent(realtime.OpUpdate, res.Accepted, res.Booking, now),
	}
	for _, bid := range res.Rejected {
		events = append(events, realtime.BidEvent(realtime.OpUpdate, bid, res.Booking, now))
	}
	s.publish(ctx, events...)
}

func (s *BiddingService) publishMutation(ctx context.Context, m repository.Mutation) {
	if !m.Changed {
		return
	}
	now := s.clock.Now()
	events := []realtime.ChangeEvent{realtime.BookingEvent(realtime.OpUpdate, m.Booking, now)}
	for _, bid := range m.Rejected {
		events = append(events, realtime.BidEvent(realtime.OpUpdate, bid, m.Booking, now))
	}
	s.publish(ctx, events...)
}
