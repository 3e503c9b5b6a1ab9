package bidding

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/clock"
	"haul-bidding/internal/models"
	"haul-bidding/internal/pricing"
	"haul-bidding/internal/realtime"
	"haul-bidding/internal/repository"
	"haul-bidding/utils"
)

// Settings are the marketplace rules the service enforces.
type Settings struct {
	BiddingWindow  time.Duration
	MinBid         float64
	MaxMessageLen  int
	MaxHelpers     int
	MaxEtaMinutes  int
	PublishTimeout time.Duration
}

// DefaultSettings mirrors the production marketplace.
func DefaultSettings() Settings {
	return Settings{
		BiddingWindow:  5 * time.Minute,
		MinBid:         100,
		MaxMessageLen:  500,
		MaxHelpers:     4,
		MaxEtaMinutes:  24 * 60,
		PublishTimeout: 2 * time.Second,
	}
}

// BiddingService owns the booking lifecycle: it is the only writer of booking
// status, award fields and bid status.
type BiddingService struct {
	repo     repository.AuctionDB
	broker   realtime.Broker
	clock    clock.Clock
	settings Settings
	validate *validator.Validate
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, broker realtime.Broker, clk clock.Clock, settings Settings) *BiddingService {
	return &BiddingService{
		repo:     repo,
		broker:   broker,
		clock:    clk,
		settings: settings,
		validate: newValidator(),
	}
}

// CreateBookingInput is what a customer submits to open an auction.
type CreateBookingInput struct {
	CustomerID      string          `validate:"required"`
	Category        models.Category `validate:"required,category"`
	Description     string          `validate:"required,max=1000"`
	Pickup          models.Location `validate:"required"`
	Dropoff         models.Location `validate:"required"`
	DistanceKm      *float64        `validate:"omitempty,gte=0,lte=5000"`
	WeightKg        float64         `validate:"gte=0,lte=10000"`
	HelperRequested bool
}

// CreateBooking prices the request and opens its bidding window.
func (s *BiddingService) CreateBooking(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	if err := s.check(in); err != nil {
		return models.Booking{}, err
	}

	distance := pricing.DistanceKm(in.Pickup.Latitude, in.Pickup.Longitude, in.Dropoff.Latitude, in.Dropoff.Longitude)
	if in.DistanceKm != nil {
		distance = *in.DistanceKm
	}

	now := s.clock.Now()
	b := models.Booking{
		BookingID:       utils.GenerateID(),
		CustomerID:      in.CustomerID,
		Category:        in.Category,
		Description:     in.Description,
		Pickup:          in.Pickup,
		Dropoff:         in.Dropoff,
		DistanceKm:      distance,
		WeightKg:        in.WeightKg,
		HelperRequested: in.HelperRequested,
		Status:          models.StatusAcceptingBids,
		BiddingEndsAt:   now.Add(s.settings.BiddingWindow),
		Version:         1,
		CreatedAt:       now,
	}
	b.SuggestedPrice = pricing.Estimate(pricing.FromBooking(b))

	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return models.Booking{}, fmt.Errorf("service: failed to create booking for customer %s: %w", in.CustomerID, err)
	}
	s.publish(ctx, realtime.BookingEvent(realtime.OpInsert, b, now))
	return b, nil
}

// GetBooking returns a booking by id
func (s *BiddingService) GetBooking(ctx context.Context, bookingID string) (models.Booking, error) {
	if bookingID == "" {
		return models.Booking{}, fmt.Errorf("service: %w - empty booking ID", biddingerrors.ErrValidation)
	}
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, fmt.Errorf("service: failed to get booking %s: %w", bookingID, err)
	}
	return b, nil
}

// ListCustomerBookings returns a customer's booking history, newest first
func (s *BiddingService) ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	if customerID == "" {
		return nil, fmt.Errorf("service: %w - empty customer ID", biddingerrors.ErrValidation)
	}
	bookings, err := s.repo.ListBookingsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bookings for customer %s: %w", customerID, err)
	}
	return bookings, nil
}

// SubmitBidInput is a driver's offer.
type SubmitBidInput struct {
	BookingID   string `validate:"required"`
	DriverID    string `validate:"required"`
	Amount      float64
	EtaMinutes  int `validate:"gt=0"`
	HelperCount int `validate:"min=0"`
	Message     string
}

// SubmitBid validates and records a driver's bid. The booking must be
// accepting bids at the server's current time.
func (s *BiddingService) SubmitBid(ctx context.Context, in SubmitBidInput) (models.Bid, error) {
	now := s.clock.Now()
	if err := s.validateBid(in); err != nil {
		if s.windowElapsed(ctx, in.BookingID, now) {
			return models.Bid{}, fmt.Errorf("service: bid on booking %s: %w - window ended before the bid arrived", in.BookingID, biddingerrors.ErrWindowClosed)
		}
		return models.Bid{}, err
	}

	bid := models.Bid{
		BidID:       utils.GenerateID(),
		BookingID:   in.BookingID,
		DriverID:    in.DriverID,
		Amount:      in.Amount,
		EtaMinutes:  in.EtaMinutes,
		Message:     in.Message,
		HelperCount: in.HelperCount,
		Status:      models.BidPending,
		CreatedAt:   now,
	}

	booking, err := s.repo.InsertBid(ctx, bid, now)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid on booking %s by driver %s: %w", in.BookingID, in.DriverID, err)
	}
	s.publish(ctx, realtime.BidEvent(realtime.OpInsert, bid, booking, now))
	return bid, nil
}

// validateBid checks input validity and marketplace rules for bidding
func (s *BiddingService) validateBid(in SubmitBidInput) error {
	errs := ValidationErrors{}
	if err := s.check(in); err != nil {
		var fieldErrs ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		errs = append(errs, fieldErrs...)
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		errs = append(errs, ValidationError{Field: "Amount", Message: "Amount must be a finite number"})
	} else if in.Amount < s.settings.MinBid {
		errs = append(errs, ValidationError{Field: "Amount", Message: fmt.Sprintf("minimum bid is %.0f", s.settings.MinBid)})
	}
	if s.settings.MaxEtaMinutes > 0 && in.EtaMinutes > s.settings.MaxEtaMinutes {
		errs = append(errs, ValidationError{Field: "EtaMinutes", Message: fmt.Sprintf("EtaMinutes must be at most %d", s.settings.MaxEtaMinutes)})
	}
	if in.HelperCount > s.settings.MaxHelpers {
		errs = append(errs, ValidationError{Field: "HelperCount", Message: fmt.Sprintf("HelperCount must be at most %d", s.settings.MaxHelpers)})
	}
	if len([]rune(in.Message)) > s.settings.MaxMessageLen {
		errs = append(errs, ValidationError{Field: "Message", Message: fmt.Sprintf("Message must be at most %d characters", s.settings.MaxMessageLen)})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// windowElapsed reports whether the booking's bidding window has passed at
// now. A late bid is refused as late even when it is also malformed.
func (s *BiddingService) windowElapsed(ctx context.Context, bookingID string, now time.Time) bool {
	if bookingID == "" {
		return false
	}
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return false
	}
	return !now.Before(b.BiddingEndsAt)
}

// ListPending returns the pending bids of a booking, lowest amount first
func (s *BiddingService) ListPending(ctx context.Context, bookingID string) ([]models.Bid, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("service: %w - empty booking ID", biddingerrors.ErrValidation)
	}
	bids, err := s.repo.ListPendingBids(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bids for booking %s: %w", bookingID, err)
	}
	return bids, nil
}

// ListDriverBids returns every bid a driver has placed, newest first
func (s *BiddingService) ListDriverBids(ctx context.Context, driverID string) ([]models.Bid, error) {
	if driverID == "" {
		return nil, fmt.Errorf("service: %w - empty driver ID", biddingerrors.ErrValidation)
	}
	bids, err := s.repo.ListBidsByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bids for driver %s: %w", driverID, err)
	}
	return bids, nil
}

// RoomSnapshot is the bidding room as of now: the booking and its pending bids.
func (s *BiddingService) RoomSnapshot(ctx context.Context, bookingID string) (realtime.RoomSnapshot, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return realtime.RoomSnapshot{}, err
	}
	pending, err := s.ListPending(ctx, bookingID)
	if err != nil {
		return realtime.RoomSnapshot{}, err
	}
	return realtime.RoomSnapshot{Booking: b, Pending: pending}, nil
}

// WatchRoom streams one booking's room: a snapshot, then its changes, and a
// fresh snapshot whenever the stream had to be re-established.
func (s *BiddingService) WatchRoom(ctx context.Context, bookingID string) iter.Seq2[realtime.Update[realtime.RoomSnapshot], error] {
	f := realtime.Filter{BookingID: bookingID}
	return realtime.Watch(ctx, s.broker, f, func(ctx context.Context) (realtime.RoomSnapshot, error) {
		return s.RoomSnapshot(ctx, bookingID)
	})
}

// Quote is the customer-facing price estimate.
type Quote struct {
	SuggestedPrice float64            `json:"suggested_price"`
	RangeLow       float64            `json:"range_low"`
	RangeHigh      float64            `json:"range_high"`
	QuickBids      []pricing.QuickBid `json:"quick_bids"`
}

// Quote prices in without creating anything.
func (s *BiddingService) Quote(in pricing.Input) Quote {
	price := pricing.Estimate(in)
	low, high := pricing.Range(price)
	return Quote{SuggestedPrice: price, RangeLow: low, RangeHigh: high, QuickBids: pricing.QuickBids(price)}
}

// publish hands events to the broker. Failures are logged, never returned:
// the write they describe has already committed.
func (s *BiddingService) publish(ctx context.Context, events ...realtime.ChangeEvent) {
	if s.broker == nil || len(events) == 0 {
		return
	}
	timeout := s.settings.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	for _, ev := range events {
		if err := s.broker.Publish(ctx, ev); err != nil {
			utils.Warn("Failed to publish change event", map[string]any{
				"event_id":   ev.ID,
				"booking_id": ev.BookingID,
				"table":      ev.Table,
				"op":         ev.Op,
				"error":      err.Error(),
			})
		}
	}
}
