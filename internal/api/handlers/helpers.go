package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"bin-telemetry-service/internal/domain"

	"go.uber.org/zap"
)

// responder carries the logger every handler writes through.
type responder struct {
	log *zap.Logger
}

func (h responder) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func (h responder) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without detail.
func (h responder) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrRouteNotFound), errors.Is(err, domain.ErrDeviceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNothingToRoute):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTelemetry),
		errors.Is(err, domain.ErrInvalidBinHeight),
		errors.Is(err, domain.ErrNoWork):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidLocation):
		status = http.StatusUnprocessableEntity
	default:
		h.log.Error(op+" failed", zap.Error(err))
		h.writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeError(w, r, status, err.Error())
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// parseRange reads optional from/to query parameters. Both accept RFC 3339
// or a plain date; a plain-date "to" covers that whole day.
func parseRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()

	if from, err = parseBound(q.Get("from"), false); err != nil {
		return time.Time{}, time.Time{}, errors.New("from: " + err.Error())
	}
	if to, err = parseBound(q.Get("to"), true); err != nil {
		return time.Time{}, time.Time{}, errors.New("to: " + err.Error())
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, errors.New("from must not be after to")
	}
	return from, to, nil
}

func parseBound(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.New("expected RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}
