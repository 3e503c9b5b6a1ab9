// Package realtime fans booking and bid changes out to subscribers. Delivery
// is at-least-once with no replay: a subscriber that falls behind or
// reconnects must resynchronise from a fresh snapshot, which Watch does.
package realtime

import (
	"context"
	"errors"
	"slices"
	"time"

	"haul-bidding/internal/models"
	"haul-bidding/utils"
)

// Table names the entity an event is about.
type Table string

const (
	TableBookings Table = "bookings"
	TableBids     Table = "bids"
)

// Op is the kind of write.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
)

var (
	// ErrLagged ends a subscription whose buffer overflowed.
	ErrLagged = errors.New("realtime: subscriber fell behind")
	// ErrClosed ends every subscription when the broker shuts down.
	ErrClosed = errors.New("realtime: broker closed")
)

// ChangeEvent is one row change. Version is the booking version after the
// write, which orders events of one booking.
type ChangeEvent struct {
	ID            string               `json:"id"`
	Table         Table                `json:"table"`
	Op            Op                   `json:"op"`
	BookingID     string               `json:"booking_id"`
	BookingStatus models.BookingStatus `json:"booking_status"`
	Version       int64                `json:"version"`
	Booking       *models.Booking      `json:"booking,omitempty"`
	Bid           *models.Bid          `json:"bid,omitempty"`
	At            time.Time            `json:"at"`
}

// BookingEvent describes a write to b.
func BookingEvent(op Op, b models.Booking, at time.Time) ChangeEvent {
	return ChangeEvent{
		ID:            utils.GenerateID(),
		Table:         TableBookings,
		Op:            op,
		BookingID:     b.BookingID,
		BookingStatus: b.Status,
		Version:       b.Version,
		Booking:       &b,
		At:            at,
	}
}

// BidEvent describes a write to bid; parent is the booking as of that write.
func BidEvent(op Op, bid models.Bid, parent models.Booking, at time.Time) ChangeEvent {
	return ChangeEvent{
		ID:            utils.GenerateID(),
		Table:         TableBids,
		Op:            op,
		BookingID:     bid.BookingID,
		BookingStatus: parent.Status,
		Version:       parent.Version,
		Bid:           &bid,
		At:            at,
	}
}

// Filter selects events. Zero fields match everything.
type Filter struct {
	BookingID string                 `json:"booking_id,omitempty"`
	Tables    []Table                `json:"tables,omitempty"`
	Statuses  []models.BookingStatus `json:"statuses,omitempty"`
}

// Match reports whether ev passes f.
func (f Filter) Match(ev ChangeEvent) bool {
	if f.BookingID != "" && f.BookingID != ev.BookingID {
		return false
	}
	if len(f.Tables) > 0 && !slices.Contains(f.Tables, ev.Table) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, ev.BookingStatus) {
		return false
	}
	return true
}

//go:generate mockgen -destination=mock_broker.go -package=realtime haul-bidding/internal/realtime Broker

// Broker publishes change events and hands out subscriptions.
type Broker interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Subscribe(ctx context.Context, f Filter) (Subscription, error)
}

// Subscription is a live stream of matching events. Events is closed when the
// subscription ends; Err then says why.
type Subscription interface {
	Events() <-chan ChangeEvent
	Err() error
	Close()
}
