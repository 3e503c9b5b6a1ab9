package models

import "time"

// Category is the kind of goods being moved.
type Category string

const (
	CategoryFurniture  Category = "furniture"
	CategoryAppliances Category = "appliances"
	CategoryBulkItems  Category = "bulk_items"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFurniture, CategoryAppliances, CategoryBulkItems:
		return true
	}
	return false
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusAcceptingBids BookingStatus = "accepting_bids"
	StatusAwarded       BookingStatus = "awarded"
	StatusPickedUp      BookingStatus = "picked_up"
	StatusInTransit     BookingStatus = "in_transit"
	StatusDelivered     BookingStatus = "delivered"
	StatusCancelled     BookingStatus = "cancelled"
	StatusExpired       BookingStatus = "expired"
)

// fulfilment order; cancelled and expired sit outside it.
var statusRank = map[BookingStatus]int{
	StatusAcceptingBids: 0,
	StatusAwarded:       1,
	StatusPickedUp:      2,
	StatusInTransit:     3,
	StatusDelivered:     4,
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled || s == StatusExpired
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusExpired
}

// AtOrPastAwarded reports whether the booking has a winner.
func (s BookingStatus) AtOrPastAwarded() bool {
	r, ok := statusRank[s]
	return ok && r >= statusRank[StatusAwarded]
}

// Next returns the single fulfilment step that follows s.
func (s BookingStatus) Next() (BookingStatus, bool) {
	switch s {
	case StatusAwarded:
		return StatusPickedUp, true
	case StatusPickedUp:
		return StatusInTransit, true
	case StatusInTransit:
		return StatusDelivered, true
	}
	return "", false
}

// BidStatus is the state of a single offer.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Location is one endpoint of a delivery.
type Location struct {
	Address           string  `json:"address" bson:"address" validate:"required,max=300"`
	Latitude          float64 `json:"latitude" bson:"latitude" validate:"latitude"`
	Longitude         float64 `json:"longitude" bson:"longitude" validate:"longitude"`
	Floor             int     `json:"floor" bson:"floor" validate:"min=0,max=200"`
	ElevatorAvailable bool    `json:"elevator_available" bson:"elevator_available"`
}

// Booking represents a customer's delivery request and its lifecycle state
type Booking struct {
	BookingID       string        `json:"booking_id" bson:"_id"`
	CustomerID      string        `json:"customer_id" bson:"customer_id"`
	Category        Category      `json:"category" bson:"category"`
	Description     string        `json:"description" bson:"description"`
	Pickup          Location      `json:"pickup" bson:"pickup"`
	Dropoff         Location      `json:"dropoff" bson:"dropoff"`
	DistanceKm      float64       `json:"distance_km" bson:"distance_km"`
	WeightKg        float64       `json:"weight_kg" bson:"weight_kg"`
	HelperRequested bool          `json:"helper_requested" bson:"helper_requested"`
	SuggestedPrice  float64       `json:"suggested_price" bson:"suggested_price"`
	Status          BookingStatus `json:"status" bson:"status"`
	BiddingEndsAt   time.Time     `json:"bidding_ends_at" bson:"bidding_ends_at"`
	AcceptedBidID   *string       `json:"accepted_bid_id" bson:"accepted_bid_id"`
	FinalPrice      *float64      `json:"final_price" bson:"final_price"`
	DriverID        *string       `json:"driver_id" bson:"driver_id"`
	// Version increases by one on every write to the booking or its bids.
	Version     int64      `json:"version" bson:"version"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	AwardedAt   *time.Time `json:"awarded_at,omitempty" bson:"awarded_at"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty" bson:"picked_up_at"`
	InTransitAt *time.Time `json:"in_transit_at,omitempty" bson:"in_transit_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" bson:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at"`
}

// WindowOpen reports whether bids may still be placed at now.
func (b *Booking) WindowOpen(now time.Time) bool {
	return b.Status == StatusAcceptingBids && now.Before(b.BiddingEndsAt)
}

// Bid represents a driver's offer against a booking
type Bid struct {
	BidID       string    `json:"bid_id" bson:"_id"`
	BookingID   string    `json:"booking_id" bson:"booking_id"`
	DriverID    string    `json:"driver_id" bson:"driver_id"`
	Amount      float64   `json:"amount" bson:"amount"`
	EtaMinutes  int       `json:"eta_minutes" bson:"eta_minutes"`
	Message     string    `json:"message,omitempty" bson:"message"`
	HelperCount int       `json:"helper_count" bson:"helper_count"`
	Status      BidStatus `json:"status" bson:"status"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Job is an open booking as seen on the driver feed. BidCount and LowestBid
// are computed per query and never stored.
type Job struct {
	Booking
	BidCount  int      `json:"bid_count"`
	LowestBid *float64 `json:"lowest_bid"`
}

// SortOption orders the driver job feed.
type SortOption string

const (
	SortNewest      SortOption = "newest"
	SortPrice       SortOption = "price"
	SortCompetition SortOption = "competition"
)

// Valid reports whether o is a supported ordering.
func (o SortOption) Valid() bool {
	switch o {
	case SortNewest, SortPrice, SortCompetition:
		return true
	}
	return false
}

// AwardResult is everything an award changed.
type AwardResult struct {
	Booking  Booking `json:"booking"`
	Accepted Bid     `json:"accepted_bid"`
	Rejected []Bid   `json:"rejected_bids"`
}
