package dto

import (
	"slices"
	"strings"
	"time"

	"bin-telemetry-service/internal/analytics"
	"bin-telemetry-service/internal/domain"
)

type FillRateResponse struct {
	DeviceID           string  `json:"device_id"`
	RatePercentPerHour float64 `json:"rate_percent_per_hour"`
}

// HoursUntilFull and PredictedAt are null when the device never fills.
type PredictionResponse struct {
	DeviceID       string     `json:"device_id"`
	CurrentLevel   float64    `json:"current_level"`
	HoursUntilFull *float64   `json:"hours_until_full"`
	PredictedAt    *time.Time `json:"predicted_at"`
	Never          bool       `json:"never"`
}

type ReportResponse struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Estimates   []FillRateResponse   `json:"estimates"`
	Predictions []PredictionResponse `json:"predictions"`
	Due         []string             `json:"due"`
	LowFillRate []string             `json:"low_fill_rate"`
}

func NewReportResponse(r *analytics.Report) ReportResponse {
	res := ReportResponse{
		GeneratedAt: r.GeneratedAt,
		Estimates:   make([]FillRateResponse, 0, len(r.Estimates)),
		Predictions: make([]PredictionResponse, 0, len(r.Predictions)),
		Due:         nonNil(r.Due),
		LowFillRate: nonNil(r.LowFillRate),
	}

	for _, id := range sortedKeys(r.Estimates) {
		e := r.Estimates[id]
		res.Estimates = append(res.Estimates, FillRateResponse{
			DeviceID:           id,
			RatePercentPerHour: e.RatePercentPerHour,
		})
	}

	for _, id := range sortedKeys(r.Predictions) {
		p := r.Predictions[id]
		pr := PredictionResponse{DeviceID: id, CurrentLevel: p.CurrentLevel, Never: p.Never}
		if !p.Never {
			hours := p.HoursUntilFull
			at := p.PredictedAt
			pr.HoursUntilFull = &hours
			pr.PredictedAt = &at
		}
		res.Predictions = append(res.Predictions, pr)
	}

	return res
}

type AnomalyResponse struct {
	Level       string      `json:"level"`
	Occurrences int         `json:"occurrences"`
	Timestamps  []time.Time `json:"timestamps"`
}

type IntervalResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type SuddenChangeResponse struct {
	Key         string             `json:"key"`
	From        float64            `json:"from"`
	To          float64            `json:"to"`
	Occurrences int                `json:"occurrences"`
	Intervals   []IntervalResponse `json:"intervals"`
}

type InsightResponse struct {
	DeviceID           string                 `json:"device_id"`
	Pings              int                    `json:"pings"`
	LastSeen           *time.Time             `json:"last_seen"`
	AnomalyCount       int                    `json:"anomaly_count"`
	Anomalies          []AnomalyResponse      `json:"anomalies"`
	SuddenChangeCount  int                    `json:"sudden_change_count"`
	SuddenChanges      []SuddenChangeResponse `json:"sudden_changes"`
	EmptyingEventCount int                    `json:"emptying_event_count"`
	AverageFillRate    float64                `json:"average_fill_rate"`
}

type ListInsightsResponse struct {
	From     *time.Time        `json:"from"`
	To       *time.Time        `json:"to"`
	Insights []InsightResponse `json:"insights"`
}

func NewListInsightsResponse(from, to time.Time, insights map[string]domain.Insight) ListInsightsResponse {
	res := ListInsightsResponse{
		From:     timePtr(from),
		To:       timePtr(to),
		Insights: make([]InsightResponse, 0, len(insights)),
	}

	for _, id := range sortedKeys(insights) {
		ins := insights[id]
		ir := InsightResponse{
			DeviceID:           id,
			Pings:              ins.Pings,
			LastSeen:           timePtr(ins.LastSeen),
			AnomalyCount:       ins.AnomalyCount,
			Anomalies:          make([]AnomalyResponse, 0, len(ins.Anomalies)),
			SuddenChangeCount:  ins.SuddenChangeCount,
			SuddenChanges:      make([]SuddenChangeResponse, 0, len(ins.SuddenChanges)),
			EmptyingEventCount: ins.EmptyingEventCount,
			AverageFillRate:    ins.AverageFillRate,
		}
		for _, a := range ins.Anomalies {
			ir.Anomalies = append(ir.Anomalies, AnomalyResponse{
				Level:       a.Level,
				Occurrences: a.Occurrences,
				Timestamps:  a.Timestamps,
			})
		}
		for _, c := range ins.SuddenChanges {
			intervals := make([]IntervalResponse, 0, len(c.Intervals))
			for _, iv := range c.Intervals {
				intervals = append(intervals, IntervalResponse{Start: iv.Start, End: iv.End})
			}
			ir.SuddenChanges = append(ir.SuddenChanges, SuddenChangeResponse{
				Key:         c.Key,
				From:        c.From,
				To:          c.To,
				Occurrences: c.Occurrences,
				Intervals:   intervals,
			})
		}
		res.Insights = append(res.Insights, ir)
	}

	return res
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)
	return keys
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
