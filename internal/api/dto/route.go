package dto

import (
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/services"
)

type PlanRouteRequest struct {
	EmptyBin      bool   `json:"empty_bin"`
	ChangeBattery bool   `json:"change_battery"`
	TwoOpt        bool   `json:"two_opt"`
	Directions    bool   `json:"directions"`
	TravelMode    string `json:"travel_mode"`
}

type RouteResponse struct {
	ID            string     `json:"id"`
	DeviceIDs     []string   `json:"device_ids"`
	EmptyBin      bool       `json:"empty_bin"`
	ChangeBattery bool       `json:"change_battery"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
}

func NewRouteResponse(r *domain.Route) RouteResponse {
	ids := r.DeviceIDs
	if ids == nil {
		ids = []string{}
	}
	return RouteResponse{
		ID:            r.ID,
		DeviceIDs:     ids,
		EmptyBin:      r.Work.EmptyBin,
		ChangeBattery: r.Work.ChangeBattery,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type StopResponse struct {
	DeviceID      string  `json:"device_id"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	EmptyBin      bool    `json:"empty_bin"`
	ChangeBattery bool    `json:"change_battery"`
}

type LegResponse struct {
	FromDeviceID    string `json:"from_device_id"`
	ToDeviceID      string `json:"to_device_id"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
}

type DirectionsResponse struct {
	DistanceMeters  int           `json:"distance_meters"`
	DurationSeconds int           `json:"duration_seconds"`
	Legs            []LegResponse `json:"legs"`
}

type PlanRouteResponse struct {
	Route      RouteResponse       `json:"route"`
	Stops      []StopResponse      `json:"stops"`
	DistanceKm float64             `json:"distance_km"`
	Directions *DirectionsResponse `json:"directions,omitempty"`
}

func NewPlanRouteResponse(p *services.PlannedRoute) PlanRouteResponse {
	res := PlanRouteResponse{
		Route:      NewRouteResponse(p.Route),
		Stops:      make([]StopResponse, 0, len(p.Stops)),
		DistanceKm: p.DistanceKm,
	}
	for _, s := range p.Stops {
		res.Stops = append(res.Stops, StopResponse{
			DeviceID:      s.DeviceID,
			Lat:           s.Lat,
			Lng:           s.Lng,
			EmptyBin:      s.EmptyBin,
			ChangeBattery: s.ChangeBattery,
		})
	}

	if d := p.Directions; d != nil {
		dr := &DirectionsResponse{
			DistanceMeters:  d.DistanceMeters,
			DurationSeconds: d.DurationSeconds,
			Legs:            make([]LegResponse, 0, len(d.Legs)),
		}
		for _, l := range d.Legs {
			dr.Legs = append(dr.Legs, LegResponse{
				FromDeviceID:    l.FromDeviceID,
				ToDeviceID:      l.ToDeviceID,
				DistanceMeters:  l.DistanceMeters,
				DurationSeconds: l.DurationSeconds,
			})
		}
		res.Directions = dr
	}
	return res
}
