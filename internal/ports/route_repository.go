package ports

import (
	"context"

	"bin-telemetry-service/internal/domain"
)

// Port: the route store.
//
// Update and Delete run their check-then-set with at most one writer per
// route, so two concurrent transitions on the same route cannot both succeed.
type RouteRepository interface {
	Create(ctx context.Context, r *domain.Route) error
	Get(ctx context.Context, id string) (*domain.Route, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.Route, error)
	// Load the route, apply fn and persist the result only if fn succeeds.
	Update(ctx context.Context, id string, fn func(r *domain.Route) error) (*domain.Route, error)
	// Load the route, run check and delete only if check succeeds.
	Delete(ctx context.Context, id string, check func(r *domain.Route) error) error
}
