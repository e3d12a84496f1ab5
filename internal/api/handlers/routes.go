package handlers

import (
	"context"
	"net/http"
	"strconv"

	"bin-telemetry-service/internal/api/dto"
	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultRouteLimit = 20
	maxRouteLimit     = 200
)

type Planner interface {
	Plan(ctx context.Context, req services.PlanRequest) (*services.PlannedRoute, error)
}

type Lifecycle interface {
	Get(ctx context.Context, id string) (*domain.Route, error)
	List(ctx context.Context, limit int) ([]*domain.Route, error)
	Start(ctx context.Context, id string) (*domain.Route, error)
	Finish(ctx context.Context, id string) (*domain.Route, error)
	Delete(ctx context.Context, id string) error
}

type RouteHandler struct {
	responder
	planner Planner
	routes  Lifecycle
}

func NewRouteHandler(planner Planner, routes Lifecycle, log *zap.Logger) *RouteHandler {
	return &RouteHandler{responder: responder{log: log}, planner: planner, routes: routes}
}

// Plan selects the devices needing work and stores a pending route for them.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.PlanRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	planned, err := h.planner.Plan(r.Context(), services.PlanRequest{
		Work: domain.RouteWork{
			EmptyBin:      req.EmptyBin,
			ChangeBattery: req.ChangeBattery,
		},
		TwoOpt:     req.TwoOpt,
		Directions: req.Directions,
		TravelMode: req.TravelMode,
	})
	if err != nil {
		h.writeServiceError(w, r, "plan route", err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, dto.NewPlanRouteResponse(planned))
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultRouteLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRouteLimit {
			h.writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	routes, err := h.routes.List(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, "list routes", err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, dto.NewRouteResponse(rt))
	}
	h.writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	rt, err := h.routes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "get route", err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(rt))
}

func (h *RouteHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start route", h.routes.Start)
}

func (h *RouteHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "finish route", h.routes.Finish)
}

func (h *RouteHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context, id string) (*domain.Route, error),
) {
	rt, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, op, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(rt))
}

// Delete removes a finished route.
func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.routes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, "delete route", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
