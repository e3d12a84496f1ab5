package routing

import (
	"fmt"
	"math"

	"bin-telemetry-service/internal/domain"
)

// InvalidLocationError names the device whose coordinates cannot be routed.
type InvalidLocationError struct {
	DeviceID string
	Lat, Lng float64
}

func (e *InvalidLocationError) Error() string {
	return fmt.Sprintf("device %s: invalid coordinates lat=%v lng=%v", e.DeviceID, e.Lat, e.Lng)
}

func (e *InvalidLocationError) Unwrap() error { return domain.ErrInvalidLocation }

// Validate fails on the first device with non-finite or out-of-range coordinates.
func Validate(devices []domain.DeviceLocation) error {
	for _, d := range devices {
		if !d.Coordinates.Valid() {
			return &InvalidLocationError{DeviceID: d.DeviceID, Lat: d.Lat, Lng: d.Lng}
		}
	}
	return nil
}

// Order devices into a visiting sequence using a greedy nearest-neighbor tour.
//
// The tour starts at devices[0] and repeatedly steps to the closest unvisited
// device by great-circle distance. Ties go to the device that appears first in
// the input, so the output is deterministic. No global optimization is
// attempted. Zero or one device is returned unchanged.
func NearestNeighbor(devices []domain.DeviceLocation) ([]domain.DeviceLocation, error) {
	if err := Validate(devices); err != nil {
		return nil, fmt.Errorf("nearest neighbor: %w", err)
	}

	tour := make([]domain.DeviceLocation, 0, len(devices))
	if len(devices) < 2 {
		return append(tour, devices...), nil
	}

	remaining := make([]domain.DeviceLocation, len(devices)-1)
	copy(remaining, devices[1:])
	tour = append(tour, devices[0])

	for len(remaining) > 0 {
		current := tour[len(tour)-1]

		best := -1
		minDistance := math.MaxFloat64

		// Select next stop by minimum distance (greedy step).
		for i, d := range remaining {
			dist := Haversine(current.Coordinates, d.Coordinates)
			if dist < minDistance {
				minDistance = dist
				best = i
			}
		}

		if best < 0 {
			return nil, fmt.Errorf("nearest neighbor: failed to select next device after %q", current.DeviceID)
		}

		tour = append(tour, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	return tour, nil
}
