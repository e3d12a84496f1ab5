package routing

import (
	"math"

	"bin-telemetry-service/internal/domain"
)

const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// points given in decimal degrees.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TourLength is the total open-path length of a visiting order in kilometres.
func TourLength(tour []domain.DeviceLocation) float64 {
	total := 0.0
	for i := 1; i < len(tour); i++ {
		total += Haversine(tour[i-1].Coordinates, tour[i].Coordinates)
	}
	return total
}
