package routing

import (
	"errors"
	"math"
	"testing"

	"bin-telemetry-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(id string, lat, lng float64) domain.DeviceLocation {
	return domain.DeviceLocation{DeviceID: id, Coordinates: domain.Coordinates{Lat: lat, Lng: lng}}
}

func ids(tour []domain.DeviceLocation) []string {
	out := make([]string, 0, len(tour))
	for _, d := range tour {
		out = append(out, d.DeviceID)
	}
	return out
}

func TestHaversine(t *testing.T) {
	paris := domain.Coordinates{Lat: 48.8566, Lng: 2.3522}
	london := domain.Coordinates{Lat: 51.5074, Lng: -0.1278}

	got := Haversine(paris, london)
	assert.InEpsilon(t, 343.556, got, 0.001)
	assert.InDelta(t, got, Haversine(london, paris), 1e-9)
	assert.Equal(t, 0.0, Haversine(paris, paris))
}

func TestNearestNeighborSquare(t *testing.T) {
	// East-west sides are shorter than north-south sides at 45N:
	// AB = CD = 0.786 km, BC = AD = 1.112 km, diagonals = 1.362 km.
	a := loc("A", 45.0, -75.0)
	b := loc("B", 45.0, -74.99)
	c := loc("C", 45.01, -74.99)
	d := loc("D", 45.01, -75.0)

	assert.InEpsilon(t, 0.78627, Haversine(a.Coordinates, b.Coordinates), 0.001)
	assert.InEpsilon(t, 1.11195, Haversine(a.Coordinates, d.Coordinates), 0.001)
	assert.InEpsilon(t, 1.36181, Haversine(a.Coordinates, c.Coordinates), 0.001)

	tour, err := NearestNeighbor([]domain.DeviceLocation{a, c, d, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(tour))
	assert.InEpsilon(t, 0.78627+1.11195+0.78613, TourLength(tour), 0.001)
}

func TestNearestNeighborIsPermutationWithFixedStart(t *testing.T) {
	input := []domain.DeviceLocation{
		loc("5", 49.30, -123.10),
		loc("1", 49.25, -123.00),
		loc("2", 49.28, -123.12),
		loc("3", 49.20, -123.15),
		loc("4", 49.31, -123.05),
		loc("2", 49.28, -123.12),
	}

	tour, err := NearestNeighbor(input)
	require.NoError(t, err)
	require.Len(t, tour, len(input))
	assert.Equal(t, "5", tour[0].DeviceID)
	assert.ElementsMatch(t, ids(input), ids(tour))
	assert.Equal(t, "5", input[0].DeviceID, "input is not reordered")
}

func TestNearestNeighborTrivialInputs(t *testing.T) {
	tour, err := NearestNeighbor(nil)
	require.NoError(t, err)
	assert.Empty(t, tour)

	single := []domain.DeviceLocation{loc("9", 10, 10)}
	tour, err = NearestNeighbor(single)
	require.NoError(t, err)
	assert.Equal(t, single, tour)
}

func TestNearestNeighborTieKeepsInputOrder(t *testing.T) {
	start := loc("S", 0, 0)
	north := loc("N", 0.01, 0)
	south := loc("X", -0.01, 0)

	tour, err := NearestNeighbor([]domain.DeviceLocation{start, south, north})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "X", "N"}, ids(tour))
}

func TestNearestNeighborRejectsInvalidCoordinates(t *testing.T) {
	_, err := NearestNeighbor([]domain.DeviceLocation{
		loc("1", 49.2, -123.1),
		loc("bad", math.NaN(), -123.1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidLocation))

	var le *InvalidLocationError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "bad", le.DeviceID)
	assert.Contains(t, err.Error(), "device bad")
}

func TestTwoOptUncrossesPath(t *testing.T) {
	a := loc("A", 0, 0)
	b := loc("B", 0, 0.01)
	c := loc("C", 0.01, 0.01)
	d := loc("D", 0.01, 0)

	crossed := []domain.DeviceLocation{a, c, b, d}
	improved := TwoOpt(crossed)

	assert.Equal(t, "A", improved[0].DeviceID)
	assert.ElementsMatch(t, ids(crossed), ids(improved))
	assert.Less(t, TourLength(improved), TourLength(crossed))
	assert.Equal(t, []string{"A", "C", "B", "D"}, ids(crossed), "input untouched")
}

func TestTwoOptNeverLengthensNearestNeighbor(t *testing.T) {
	input := []domain.DeviceLocation{
		loc("0", 0, 0),
		loc("1", 0, 0.01),
		loc("2", 0, -0.015),
		loc("3", 0, 0.03),
		loc("4", 0.002, 0.02),
	}
	tour, err := NearestNeighbor(input)
	require.NoError(t, err)

	improved := TwoOpt(tour)
	assert.LessOrEqual(t, TourLength(improved), TourLength(tour)+1e-9)
	assert.Equal(t, "0", improved[0].DeviceID)
	assert.ElementsMatch(t, ids(input), ids(improved))
}

func TestSelect(t *testing.T) {
	devices := []DeviceStatus{
		{Location: loc("full", 0, 0), LevelPercent: 85, Battery: 90},
		{Location: loc("predicted", 0, 0), LevelPercent: 50, Battery: 90},
		{Location: loc("battery", 0, 0), LevelPercent: 10, Battery: 20},
		{Location: loc("fine", 0, 0), LevelPercent: 10, Battery: 90},
		{Location: loc("both", 0, 0), LevelPercent: 80, Battery: 5},
	}
	due := []string{"predicted", "full"}
	rules := DefaultSelectionRules()

	stops := Select(devices, due, domain.RouteWork{EmptyBin: true, ChangeBattery: true}, rules)
	require.Len(t, stops, 4)
	assert.Equal(t, []string{"full", "battery", "both", "predicted"}, ids(Locations(stops)))
	assert.True(t, stops[2].EmptyBin)
	assert.True(t, stops[2].ChangeBattery)
	assert.True(t, stops[3].EmptyBin)
	assert.False(t, stops[3].ChangeBattery)

	stops = Select(devices, due, domain.RouteWork{ChangeBattery: true}, rules)
	assert.Equal(t, []string{"battery", "both"}, ids(Locations(stops)))
	assert.False(t, stops[1].EmptyBin)

	stops = Select(devices, due, domain.RouteWork{EmptyBin: true}, rules)
	assert.Equal(t, []string{"full", "both", "predicted"}, ids(Locations(stops)))

	assert.Empty(t, Select(devices, due, domain.RouteWork{}, rules))
}
