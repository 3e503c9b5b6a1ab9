package helpers

import (
	"time"

	"haul-bidding/internal/models"
	"haul-bidding/internal/pricing"
)

// Request/Response DTOs

type CreateBookingRequest struct {
	Category        models.Category `json:"category" binding:"required"`
	Description     string          `json:"description" binding:"required"`
	Pickup          models.Location `json:"pickup" binding:"required"`
	Dropoff         models.Location `json:"dropoff" binding:"required"`
	DistanceKm      *float64        `json:"distance_km"`
	WeightKg        float64         `json:"weight_kg"`
	HelperRequested bool            `json:"helper_requested"`
}

type PlaceBidRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	EtaMinutes  int     `json:"eta_minutes" binding:"required"`
	HelperCount int     `json:"helper_count"`
	Message     string  `json:"message"`
}

type AwardRequest struct {
	BidID string `json:"bid_id" binding:"required"`
}

type AdvanceRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

type JobsQuery struct {
	Sort  models.SortOption `form:"sort"`
	Limit int               `form:"limit" binding:"omitempty,min=1,max=200"`
}

type EstimateQuery struct {
	Category        models.Category `form:"category"`
	DistanceKm      float64         `form:"distance_km" binding:"gte=0"`
	Floor           int             `form:"floor" binding:"gte=0"`
	Elevator        bool            `form:"elevator"`
	WeightKg        float64         `form:"weight_kg" binding:"gte=0"`
	HelperRequested bool            `form:"helper"`
}

// PricingInput converts the query into estimator input.
func (q EstimateQuery) PricingInput() pricing.Input {
	return pricing.Input{
		Category:          q.Category,
		DistanceKm:        q.DistanceKm,
		MaxFloor:          q.Floor,
		ElevatorAvailable: q.Elevator,
		WeightKg:          q.WeightKg,
		HelperRequested:   q.HelperRequested,
	}
}

type BidResponse struct {
	BidID          string           `json:"bid_id"`
	BookingID      string           `json:"booking_id"`
	DriverID       string           `json:"driver_id"`
	Amount         float64          `json:"amount"`
	EtaMinutes     int              `json:"eta_minutes"`
	HelperCount    int              `json:"helper_count"`
	Message        string           `json:"message,omitempty"`
	Status         models.BidStatus `json:"status"`
	PlatformFee    float64          `json:"platform_fee"`
	DriverEarnings float64          `json:"driver_earnings"`
	CreatedAt      string           `json:"created_at"`
}

func NewBidResponse(b models.Bid) BidResponse {
	fee, net := pricing.Earnings(b.Amount)
	return BidResponse{
		BidID:          b.BidID,
		BookingID:      b.BookingID,
		DriverID:       b.DriverID,
		Amount:         b.Amount,
		EtaMinutes:     b.EtaMinutes,
		HelperCount:    b.HelperCount,
		Message:        b.Message,
		Status:         b.Status,
		PlatformFee:    fee,
		DriverEarnings: net,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewBidResponses(bids []models.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

type AwardResponse struct {
	Booking     models.Booking `json:"booking"`
	AcceptedBid BidResponse    `json:"accepted_bid"`
	Rejected    int            `json:"rejected_count"`
}

// RoomResponse is one frame of the bidding room stream.
type RoomResponse struct {
	Booking   models.Booking `json:"booking"`
	Pending   []BidResponse  `json:"pending_bids"`
	LowestBid *float64       `json:"lowest_bid"`
}
