package ports

import (
	"context"

	"bin-telemetry-service/internal/domain"
)

// Travel distance and duration for an ordered list of stops.
type DirectionsResult struct {
	DistanceMeters  int
	DurationSeconds int
	Legs            []DirectionsLeg
}

type DirectionsLeg struct {
	FromDeviceID    string
	ToDeviceID      string
	DistanceMeters  int
	DurationSeconds int
}

// Contract for the external turn-by-turn directions lookup.
// It is consulted after the route order is fixed and never changes it.
type DirectionsProvider interface {
	GetDirections(ctx context.Context, stops []domain.DeviceLocation, travelMode string) (DirectionsResult, error)
}
