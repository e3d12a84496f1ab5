package analytics

import (
	"slices"
	"time"

	"bin-telemetry-service/internal/domain"
)

// DueForPickup returns devices whose predicted full time is finite and falls
// at or before now + cfg.ThresholdHours. Predictions already in the past are
// due. The result is sorted by device id.
func DueForPickup(predictions map[string]domain.FullTimePrediction, now time.Time, cfg Config) []string {
	horizon := now.UTC().Add(time.Duration(cfg.ThresholdHours * float64(time.Hour)))

	due := make([]string, 0)
	for id, p := range predictions {
		if p.Never {
			continue
		}
		if !p.PredictedAt.After(horizon) {
			due = append(due, id)
		}
	}
	slices.Sort(due)
	return due
}

// LowFillRate flags devices filling slower than cfg.LowFillRateLimit.
// Informational only; it never affects scheduling.
func LowFillRate(estimates map[string]domain.FillRateEstimate, cfg Config) []string {
	low := make([]string, 0)
	for id, e := range estimates {
		if e.RatePercentPerHour < cfg.LowFillRateLimit {
			low = append(low, id)
		}
	}
	slices.Sort(low)
	return low
}
