package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/platform/obs"
	"bin-telemetry-service/internal/ports"

	"go.uber.org/zap"
)

// ORS caps the number of waypoints per directions request.
const maxWaypoints = 50

// ORSDirectionsProvider implements DirectionsProvider using the
// OpenRouteService directions endpoint. Long routes are split into
// consecutive requests that share their boundary stop.
//
// The provider is safe for concurrent use.
type ORSDirectionsProvider struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	defaultProfile string
	maxAttempts    int
	backoff        time.Duration
	log            *zap.Logger
}

func NewORSDirectionsProvider(apiKey, baseURL, profile string, log *zap.Logger) (*ORSDirectionsProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openrouteservice.org"
	}
	if profile == "" {
		profile = "foot-walking"
	}

	return &ORSDirectionsProvider{
		session:        &http.Client{Timeout: 15 * time.Second},
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		defaultProfile: profile,
		maxAttempts:    4,
		backoff:        200 * time.Millisecond,
		log:            log,
	}, nil
}

// Profile maps a travel mode name onto an ORS routing profile.
// Unknown modes are passed through so callers can use raw ORS profiles.
func (o *ORSDirectionsProvider) Profile(travelMode string) string {
	switch strings.ToLower(strings.TrimSpace(travelMode)) {
	case "":
		return o.defaultProfile
	case "walking":
		return "foot-walking"
	case "driving":
		return "driving-car"
	case "bicycling", "cycling":
		return "cycling-regular"
	default:
		return travelMode
	}
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"segments"`
	} `json:"routes"`
}

func (o *ORSDirectionsProvider) GetDirections(
	ctx context.Context,
	stops []domain.DeviceLocation,
	travelMode string,
) (_ ports.DirectionsResult, err error) {
	defer obs.Time(ctx, o.log, "ors.GetDirections")(&err)

	if len(stops) < 2 {
		return ports.DirectionsResult{}, nil
	}

	profile := o.Profile(travelMode)
	out := ports.DirectionsResult{Legs: make([]ports.DirectionsLeg, 0, len(stops)-1)}

	for start := 0; start < len(stops)-1; start += maxWaypoints - 1 {
		end := min(start+maxWaypoints, len(stops))

		legs, err := o.fetchLegs(ctx, profile, stops[start:end])
		if err != nil {
			return ports.DirectionsResult{}, fmt.Errorf("directions stops %d-%d: %w", start, end-1, err)
		}

		for _, l := range legs {
			out.DistanceMeters += l.DistanceMeters
			out.DurationSeconds += l.DurationSeconds
		}
		out.Legs = append(out.Legs, legs...)
	}

	return out, nil
}

func (o *ORSDirectionsProvider) fetchLegs(
	ctx context.Context,
	profile string,
	stops []domain.DeviceLocation,
) ([]ports.DirectionsLeg, error) {
	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, profile)

	coords := make([][]float64, 0, len(stops))
	for _, s := range stops {
		coords = append(coords, s.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: coords})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) == 0 {
		return nil, errors.New("directions response has no routes")
	}

	segments := dr.Routes[0].Segments
	if len(segments) != len(stops)-1 {
		return nil, fmt.Errorf(
			"segment count does not match stops: segments=%d stops=%d",
			len(segments), len(stops),
		)
	}

	legs := make([]ports.DirectionsLeg, 0, len(segments))
	for i, seg := range segments {
		// ORS returns float metrics; round to whole meters and seconds.
		legs = append(legs, ports.DirectionsLeg{
			FromDeviceID:    stops[i].DeviceID,
			ToDeviceID:      stops[i+1].DeviceID,
			DistanceMeters:  int(math.Round(seg.Distance)),
			DurationSeconds: int(math.Round(seg.Duration)),
		})
	}
	return legs, nil
}
