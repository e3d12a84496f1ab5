package domain

import (
	"fmt"
	"time"
)

type RouteStatus string

const (
	RouteStatusPending  RouteStatus = "pending"
	RouteStatusStarted  RouteStatus = "started"
	RouteStatusFinished RouteStatus = "finished"
)

// Work flags recorded with a route to explain why its devices were selected.
type RouteWork struct {
	EmptyBin      bool
	ChangeBattery bool
}

// Route is a dispatched service route.
// It moves strictly pending -> started -> finished and may only be deleted
// once finished. DeviceIDs is a snapshot of the optimized visiting order.
type Route struct {
	ID         string
	DeviceIDs  []string
	Work       RouteWork
	Status     RouteStatus
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// TransitionError reports a lifecycle step requested from the wrong state.
type TransitionError struct {
	RouteID   string
	Current   RouteStatus
	Requested string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("route %s: cannot %s from status %q", e.RouteID, e.Requested, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func NewRoute(id string, deviceIDs []string, work RouteWork, now time.Time) *Route {
	ids := make([]string, len(deviceIDs))
	copy(ids, deviceIDs)

	return &Route{
		ID:        id,
		DeviceIDs: ids,
		Work:      work,
		Status:    RouteStatusPending,
		CreatedAt: now,
	}
}

// Start moves a pending route to started.
func (r *Route) Start(now time.Time) error {
	if r.Status != RouteStatusPending {
		return &TransitionError{RouteID: r.ID, Current: r.Status, Requested: "start"}
	}
	r.Status = RouteStatusStarted
	r.StartedAt = &now
	return nil
}

// Finish moves a started route to finished.
func (r *Route) Finish(now time.Time) error {
	if r.Status != RouteStatusStarted {
		return &TransitionError{RouteID: r.ID, Current: r.Status, Requested: "finish"}
	}
	r.Status = RouteStatusFinished
	r.FinishedAt = &now
	return nil
}

// CanDelete returns an error unless the route has finished.
func (r *Route) CanDelete() error {
	if r.Status != RouteStatusFinished {
		return &TransitionError{RouteID: r.ID, Current: r.Status, Requested: "delete"}
	}
	return nil
}

// ParseRouteStatus validates a stored status string.
func ParseRouteStatus(s string) (RouteStatus, error) {
	switch RouteStatus(s) {
	case RouteStatusPending, RouteStatusStarted, RouteStatusFinished:
		return RouteStatus(s), nil
	}
	return "", fmt.Errorf("parse route status: unknown status %q", s)
}
