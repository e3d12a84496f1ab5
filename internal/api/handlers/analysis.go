package handlers

import (
	"context"
	"net/http"
	"time"

	"bin-telemetry-service/internal/analytics"
	"bin-telemetry-service/internal/api/dto"
	"bin-telemetry-service/internal/domain"

	"go.uber.org/zap"
)

type Analyzer interface {
	Analyze(ctx context.Context, from, to, now time.Time) (*analytics.Report, error)
	Insights(ctx context.Context, from, to time.Time) (map[string]domain.Insight, error)
}

// LatestReport exposes the most recent background analysis pass.
type LatestReport interface {
	Last() *analytics.Report
}

type AnalysisHandler struct {
	responder
	analysis Analyzer
	latest   LatestReport
	now      func() time.Time
}

// NewAnalysisHandler wires the handler. latest may be nil.
func NewAnalysisHandler(analysis Analyzer, latest LatestReport, log *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		responder: responder{log: log},
		analysis:  analysis,
		latest:    latest,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Analyze runs an analysis pass over the readings in the requested range.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.analysis.Analyze(r.Context(), from, to, h.now())
	if err != nil {
		h.writeServiceError(w, r, "analyze", err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, dto.NewReportResponse(report))
}

// Latest returns the report kept by the background watcher.
func (h *AnalysisHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.latest == nil {
		h.writeError(w, r, http.StatusNotFound, "background analysis is disabled")
		return
	}

	report := h.latest.Last()
	if report == nil {
		h.writeError(w, r, http.StatusNotFound, "no analysis pass has completed yet")
		return
	}

	h.writeJSON(w, r, http.StatusOK, dto.NewReportResponse(report))
}

func (h *AnalysisHandler) Insights(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	insights, err := h.analysis.Insights(r.Context(), from, to)
	if err != nil {
		h.writeServiceError(w, r, "insights", err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, dto.NewListInsightsResponse(from, to, insights))
}
