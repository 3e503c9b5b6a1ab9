package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new random identifier for bookings, bids and events.
func GenerateID() string {
	return uuid.New().String()
}

// ValidID reports whether s has the shape GenerateID produces.
func ValidID(s string) bool {
	return uuid.Validate(s) == nil
}
