package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/metrics"
	"bin-telemetry-service/internal/platform/obs"
	"bin-telemetry-service/internal/ports"

	"go.uber.org/zap"
)

// RouteLifecycle moves stored routes through pending -> started -> finished.
// Every transition is a single serialized repository update.
type RouteLifecycle struct {
	routes ports.RouteRepository
	log    *zap.Logger
	now    func() time.Time
}

func NewRouteLifecycle(routes ports.RouteRepository, log *zap.Logger) *RouteLifecycle {
	return &RouteLifecycle{
		routes: routes,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *RouteLifecycle) Get(ctx context.Context, id string) (*domain.Route, error) {
	return l.routes.Get(ctx, id)
}

func (l *RouteLifecycle) List(ctx context.Context, limit int) ([]*domain.Route, error) {
	return l.routes.ListRecent(ctx, limit)
}

func (l *RouteLifecycle) Start(ctx context.Context, id string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, l.log, "routes.Start")(&err)
	defer recordTransition("start", &err)

	r, err := l.routes.Update(ctx, id, func(r *domain.Route) error {
		return r.Start(l.now())
	})
	if err != nil {
		return nil, fmt.Errorf("start route: %w", err)
	}
	return r, nil
}

func (l *RouteLifecycle) Finish(ctx context.Context, id string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, l.log, "routes.Finish")(&err)
	defer recordTransition("finish", &err)

	r, err := l.routes.Update(ctx, id, func(r *domain.Route) error {
		return r.Finish(l.now())
	})
	if err != nil {
		return nil, fmt.Errorf("finish route: %w", err)
	}
	return r, nil
}

// Delete removes a finished route.
func (l *RouteLifecycle) Delete(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, l.log, "routes.Delete")(&err)
	defer recordTransition("delete", &err)

	if err := l.routes.Delete(ctx, id, (*domain.Route).CanDelete); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	return nil
}

func recordTransition(transition string, errp *error) {
	outcome := "ok"
	switch err := *errp; {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		outcome = "rejected"
	case errors.Is(err, domain.ErrRouteNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RouteTransitions.WithLabelValues(transition, outcome).Inc()
}
