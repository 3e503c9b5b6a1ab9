// Package pricing computes advisory prices for bookings. Nothing here is
// authoritative: drivers bid freely above the minimum bid.
package pricing

import (
	"math"

	"haul-bidding/internal/models"
)

const (
	BasePrice          = 200.0
	FloorPrice         = 200.0
	IncludedDistanceKm = 2.0
	PerKm              = 12.0
	PerFloorNoElevator = 50.0
	PerFloorElevator   = 10.0
	HeavyThresholdKg   = 100.0
	// charged per started HeavyStepKg above the threshold
	HeavyStepKg      = 50.0
	HeavyStepCharge  = 40.0
	HelperSurcharge  = 100.0
	RoundingStep     = 10.0
	PlatformFeeRatio = 0.15
)

var categoryMultiplier = map[models.Category]float64{
	models.CategoryFurniture:  1.0,
	models.CategoryAppliances: 1.3,
	models.CategoryBulkItems:  1.2,
}

// Input is the estimator contract. Floors are already collapsed to a single
// worst-case value; see FromBooking.
type Input struct {
	DistanceKm        float64
	Category          models.Category
	MaxFloor          int
	ElevatorAvailable bool
	WeightKg          float64
	HelperRequested   bool
}

// Estimate returns the suggested price for in, rounded to RoundingStep and
// never below FloorPrice. Out-of-range inputs are clamped instead of rejected.
func Estimate(in Input) float64 {
	in = sanitize(in)

	price := BasePrice
	if extra := in.DistanceKm - IncludedDistanceKm; extra > 0 {
		price += extra * PerKm
	}

	perFloor := PerFloorNoElevator
	if in.ElevatorAvailable {
		perFloor = PerFloorElevator
	}
	price += float64(in.MaxFloor) * perFloor

	if over := in.WeightKg - HeavyThresholdKg; over > 0 {
		price += math.Ceil(over/HeavyStepKg) * HeavyStepCharge
	}
	if in.HelperRequested {
		price += HelperSurcharge
	}

	price *= categoryMultiplier[in.Category]
	return math.Max(roundTo(price, RoundingStep), FloorPrice)
}

func sanitize(in Input) Input {
	if in.DistanceKm < 0 || math.IsNaN(in.DistanceKm) || math.IsInf(in.DistanceKm, 0) {
		in.DistanceKm = 0
	}
	if !in.Category.Valid() {
		in.Category = models.CategoryFurniture
	}
	if in.MaxFloor < 0 {
		in.MaxFloor = 0
	}
	if in.WeightKg < 0 || math.IsNaN(in.WeightKg) || math.IsInf(in.WeightKg, 0) {
		in.WeightKg = 0
	}
	return in
}

// FromBooking collapses the per-endpoint floor data of b into an Input. The
// higher floor wins, and the elevator only counts when every endpoint above
// ground level has one.
func FromBooking(b models.Booking) Input {
	maxFloor := max(b.Pickup.Floor, b.Dropoff.Floor)
	elevator := true
	for _, loc := range []models.Location{b.Pickup, b.Dropoff} {
		if loc.Floor > 0 && !loc.ElevatorAvailable {
			elevator = false
		}
	}
	return Input{
		DistanceKm:        b.DistanceKm,
		Category:          b.Category,
		MaxFloor:          maxFloor,
		ElevatorAvailable: elevator,
		WeightKg:          b.WeightKg,
		HelperRequested:   b.HelperRequested,
	}
}

// Range is the customer-facing estimate band around a suggested price.
func Range(suggested float64) (low, high float64) {
	return math.Round(suggested * 0.8), math.Round(suggested * 1.2)
}

// QuickBid is a one-tap bid amount offered to drivers.
type QuickBid struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// QuickBids returns the -20% / suggested / +20% ladder.
func QuickBids(suggested float64) []QuickBid {
	ladder := []struct {
		label string
		mult  float64
	}{
		{"-20%", 0.8},
		{"suggested", 1.0},
		{"+20%", 1.2},
	}
	out := make([]QuickBid, 0, len(ladder))
	for _, q := range ladder {
		out = append(out, QuickBid{Label: q.label, Amount: roundTo(suggested*q.mult, RoundingStep)})
	}
	return out
}

// Earnings splits a bid amount into the platform fee and what the driver keeps.
func Earnings(amount float64) (fee, net float64) {
	fee = math.Round(amount*PlatformFeeRatio*100) / 100
	return fee, amount - fee
}

func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
