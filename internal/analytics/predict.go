package analytics

import (
	"math"
	"time"

	"bin-telemetry-service/internal/domain"
)

// Predictions further out than this are pinned to it; a time.Duration
// overflows a little past 290 years.
const maxHorizonHours = 100 * 365 * 24

// PredictFullTime estimates when a device reaches cfg.MaxFillPercent from its
// latest reading and fill rate.
//
// Hours may be negative when the device is already above the ceiling; the
// scheduler treats that as due now. Timestamps are handled in UTC and the
// offset is applied exactly once here.
func PredictFullTime(latest domain.Reading, rate float64, cfg Config) domain.FullTimePrediction {
	p := domain.FullTimePrediction{
		DeviceID:     latest.DeviceID,
		CurrentLevel: latest.LevelPercent,
	}

	if !(rate > 0) || math.IsInf(rate, 0) {
		p.HoursUntilFull = math.Inf(1)
		p.Never = true
		return p
	}

	hours := (cfg.MaxFillPercent - latest.LevelPercent) / rate
	p.HoursUntilFull = hours

	clamped := math.Max(math.Min(hours, maxHorizonHours), -maxHorizonHours)
	p.PredictedAt = latest.Timestamp.UTC().Add(time.Duration(clamped * float64(time.Hour)))
	return p
}

// PredictFullTimes predicts every device that has at least one reading.
// Devices without an estimate are treated as rate zero.
func PredictFullTimes(
	series map[string]domain.DeviceSeries,
	estimates map[string]domain.FillRateEstimate,
	cfg Config,
) map[string]domain.FullTimePrediction {
	out := make(map[string]domain.FullTimePrediction, len(series))
	for id, s := range series {
		latest, ok := Latest(s)
		if !ok {
			continue
		}
		latest.DeviceID = id
		out[id] = PredictFullTime(latest, estimates[id].RatePercentPerHour, cfg)
	}
	return out
}
