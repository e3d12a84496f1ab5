package directions

import (
	"context"
	"math"
	"strings"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/ports"
	"bin-telemetry-service/internal/routing"
)

// Nominal speeds in km/h used when no routing service is configured.
var nominalSpeedKmh = map[string]float64{
	"walking":   5,
	"bicycling": 15,
	"cycling":   15,
	"driving":   30,
}

// EstimateProvider derives directions from great-circle distance and a
// nominal travel speed. It needs no network and is used when ORS is not
// configured, and in tests.
type EstimateProvider struct{}

func NewEstimateProvider() *EstimateProvider { return &EstimateProvider{} }

func (EstimateProvider) GetDirections(
	_ context.Context,
	stops []domain.DeviceLocation,
	travelMode string,
) (ports.DirectionsResult, error) {
	speed, ok := nominalSpeedKmh[strings.ToLower(strings.TrimSpace(travelMode))]
	if !ok {
		speed = nominalSpeedKmh["walking"]
	}

	var out ports.DirectionsResult
	for i := 1; i < len(stops); i++ {
		km := routing.Haversine(stops[i-1].Coordinates, stops[i].Coordinates)
		leg := ports.DirectionsLeg{
			FromDeviceID:    stops[i-1].DeviceID,
			ToDeviceID:      stops[i].DeviceID,
			DistanceMeters:  int(math.Round(km * 1000)),
			DurationSeconds: int(math.Round(km / speed * 3600)),
		}
		out.DistanceMeters += leg.DistanceMeters
		out.DurationSeconds += leg.DurationSeconds
		out.Legs = append(out.Legs, leg)
	}
	return out, nil
}
