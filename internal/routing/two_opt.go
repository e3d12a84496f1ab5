package routing

import (
	"slices"

	"bin-telemetry-service/internal/domain"
)

const improvementEpsilon = 1e-9

// TwoOpt shortens an open path by reversing segments while that lowers the
// total length. The first stop never moves. The input is not modified.
func TwoOpt(tour []domain.DeviceLocation) []domain.DeviceLocation {
	path := slices.Clone(tour)
	n := len(path)
	if n < 4 {
		return path
	}

	dist := func(i, j int) float64 { return Haversine(path[i].Coordinates, path[j].Coordinates) }

	for improved := true; improved; {
		improved = false
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				before := dist(i-1, i)
				after := dist(i-1, k)
				if k+1 < n {
					before += dist(k, k+1)
					after += dist(i, k+1)
				}
				if after < before-improvementEpsilon {
					slices.Reverse(path[i : k+1])
					improved = true
				}
			}
		}
	}
	return path
}
