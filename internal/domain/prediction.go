package domain

import "time"

// FillRateEstimate is the average fill rate of one device in percent per hour.
// Zero means the rate is indeterminate.
type FillRateEstimate struct {
	DeviceID           string
	RatePercentPerHour float64
}

// FullTimePrediction tells when a device is expected to reach the fill ceiling.
// When Never is set HoursUntilFull is +Inf and PredictedAt is the zero time.
type FullTimePrediction struct {
	DeviceID       string
	CurrentLevel   float64
	HoursUntilFull float64
	PredictedAt    time.Time
	Never          bool
}
