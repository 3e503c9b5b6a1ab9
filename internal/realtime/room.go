package realtime

import (
	"haul-bidding/internal/models"
	"haul-bidding/internal/repository"
)

// RoomSnapshot is the full state of one bidding room.
type RoomSnapshot struct {
	Booking models.Booking `json:"booking"`
	Pending []models.Bid   `json:"pending_bids"`
}

// RoomView merges a snapshot with the events that follow it. Applying the
// same event twice, or an older one after a newer one, leaves it unchanged.
type RoomView struct {
	booking models.Booking
	pending map[string]models.Bid
	settled map[string]models.BidStatus
}

func NewRoomView() *RoomView {
	return &RoomView{
		pending: make(map[string]models.Bid),
		settled: make(map[string]models.BidStatus),
	}
}

// Reset discards everything and starts over from s.
func (v *RoomView) Reset(s RoomSnapshot) {
	v.booking = s.Booking
	v.pending = make(map[string]models.Bid, len(s.Pending))
	v.settled = make(map[string]models.BidStatus)
	for _, b := range s.Pending {
		v.pending[b.BidID] = b
	}
}

// Apply folds ev into the view and reports whether anything changed.
func (v *RoomView) Apply(ev ChangeEvent) bool {
	if ev.BookingID != v.booking.BookingID {
		return false
	}
	switch ev.Table {
	case TableBookings:
		if ev.Booking == nil || ev.Version <= v.booking.Version {
			return false
		}
		v.booking = *ev.Booking
		if v.booking.Status != models.StatusAcceptingBids {
			for id := range v.pending {
				v.settled[id] = models.BidRejected
			}
			clear(v.pending)
		}
		return true

	case TableBids:
		if ev.Bid == nil {
			return false
		}
		bid := *ev.Bid
		if ev.Version > v.booking.Version {
			v.booking.Version = ev.Version
		}
		if bid.Status != models.BidPending {
			_, had := v.pending[bid.BidID]
			delete(v.pending, bid.BidID)
			v.settled[bid.BidID] = bid.Status
			return had
		}
		if _, done := v.settled[bid.BidID]; done {
			return false
		}
		if _, dup := v.pending[bid.BidID]; dup {
			return false
		}
		if v.booking.Status != models.StatusAcceptingBids {
			return false
		}
		v.pending[bid.BidID] = bid
		return true
	}
	return false
}

// Snapshot returns the current state with pending bids cheapest first.
func (v *RoomView) Snapshot() RoomSnapshot {
	pending := make([]models.Bid, 0, len(v.pending))
	for _, b := range v.pending {
		pending = append(pending, b)
	}
	repository.SortPending(pending)
	return RoomSnapshot{Booking: v.booking, Pending: pending}
}

// Lowest returns the cheapest pending bid.
func (v *RoomView) Lowest() (models.Bid, bool) {
	s := v.Snapshot()
	if len(s.Pending) == 0 {
		return models.Bid{}, false
	}
	return s.Pending[0], true
}
