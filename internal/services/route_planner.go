package services

import (
	"context"
	"fmt"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/platform/obs"
	"bin-telemetry-service/internal/ports"
	"bin-telemetry-service/internal/routing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PlanRequest struct {
	Work       domain.RouteWork
	TwoOpt     bool
	Directions bool
	TravelMode string
}

// PlannedRoute is a persisted route plus the planning detail behind it.
type PlannedRoute struct {
	Route      *domain.Route
	Stops      []routing.Stop
	DistanceKm float64
	Directions *ports.DirectionsResult
}

type RoutePlanner struct {
	devices    ports.DeviceRepository
	analysis   *AnalysisService
	routes     ports.RouteRepository
	directions ports.DirectionsProvider
	rules      routing.SelectionRules
	lookback   time.Duration
	log        *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewRoutePlanner wires the planner. directions may be nil; lookback bounds
// the reading history used for pickup predictions (zero means all history).
func NewRoutePlanner(
	devices ports.DeviceRepository,
	analysis *AnalysisService,
	routes ports.RouteRepository,
	directions ports.DirectionsProvider,
	rules routing.SelectionRules,
	lookback time.Duration,
	log *zap.Logger,
) *RoutePlanner {
	return &RoutePlanner{
		devices:    devices,
		analysis:   analysis,
		routes:     routes,
		directions: directions,
		rules:      rules,
		lookback:   lookback,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Plan selects the devices that need work, orders them with a greedy
// nearest-neighbor tour and stores the result as a pending route.
//
// Devices with a current issue are placed first so the tour starts at one of
// them. Directions are looked up after the order is fixed and a lookup
// failure does not fail the plan.
func (p *RoutePlanner) Plan(ctx context.Context, req PlanRequest) (_ *PlannedRoute, err error) {
	defer obs.Time(ctx, p.log, "routes.Plan")(&err)

	if !req.Work.EmptyBin && !req.Work.ChangeBattery {
		return nil, fmt.Errorf("plan route: %w", domain.ErrNoWork)
	}

	now := p.now()

	devices, err := p.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	statuses := make([]routing.DeviceStatus, 0, len(devices))
	for _, d := range devices {
		level, err := d.LevelPercent()
		if err != nil {
			p.log.Warn("skipping device with unusable level",
				zap.String("device_id", d.DeviceID), zap.Error(err))
			continue
		}
		statuses = append(statuses, routing.DeviceStatus{
			Location:     d.Locate(),
			LevelPercent: level,
			Battery:      d.Battery,
		})
	}

	var due []string
	if req.Work.EmptyBin {
		var from time.Time
		if p.lookback > 0 {
			from = now.Add(-p.lookback)
		}
		report, err := p.analysis.Analyze(ctx, from, time.Time{}, now)
		if err != nil {
			return nil, fmt.Errorf("plan route: %w", err)
		}
		due = report.Due
	}

	stops := routing.Select(statuses, due, req.Work, p.rules)
	if len(stops) == 0 {
		return nil, fmt.Errorf("plan route: %w", domain.ErrNothingToRoute)
	}

	tour, err := routing.NearestNeighbor(routing.Locations(stops))
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}
	if req.TwoOpt {
		tour = routing.TwoOpt(tour)
	}

	byID := make(map[string]routing.Stop, len(stops))
	for _, s := range stops {
		byID[s.DeviceID] = s
	}
	ordered := make([]routing.Stop, 0, len(tour))
	ids := make([]string, 0, len(tour))
	for _, loc := range tour {
		ordered = append(ordered, byID[loc.DeviceID])
		ids = append(ids, loc.DeviceID)
	}

	route := domain.NewRoute(p.newID(), ids, req.Work, now)
	if err := p.routes.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	p.log.Info("route planned",
		zap.String("route_id", route.ID),
		zap.Int("stops", len(ids)),
		zap.Bool("empty_bin", req.Work.EmptyBin),
		zap.Bool("change_battery", req.Work.ChangeBattery),
	)

	planned := &PlannedRoute{
		Route:      route,
		Stops:      ordered,
		DistanceKm: routing.TourLength(tour),
	}

	if req.Directions && p.directions != nil {
		res, err := p.directions.GetDirections(ctx, tour, req.TravelMode)
		if err != nil {
			p.log.Warn("directions lookup failed", zap.String("route_id", route.ID), zap.Error(err))
		} else {
			planned.Directions = &res
		}
	}

	return planned, nil
}
