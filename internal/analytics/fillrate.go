package analytics

import (
	"math"

	"bin-telemetry-service/internal/domain"
)

// window accumulates level change and elapsed hours between two resets.
type window struct {
	levelSum float64
	hours    float64
}

func (w window) rate() float64 {
	if w.hours <= 0 {
		return 0
	}
	return neutral(w.levelSum / w.hours)
}

// scanWindows walks a series in time order and splits it into accumulation
// windows at every reset. The last element is the window still open at the
// end of the series; it is always present.
//
// Each step with positive elapsed time adds (deltaLevel/deltaTime)*deltaTime,
// i.e. deltaLevel, weighted by the hours it covers, so short noisy intervals
// do not dominate the average.
func scanWindows(series domain.DeviceSeries, reset ResetStrategy) []window {
	windows := []window{{}}
	if len(series) < 2 {
		return windows
	}

	last := series[0]
	for _, r := range series[1:] {
		cur := &windows[len(windows)-1]
		if reset.IsReset(last.LevelPercent, r.LevelPercent) {
			windows = append(windows, window{})
		} else if dt := r.Timestamp.Sub(last.Timestamp).Hours(); dt > 0 {
			cur.levelSum += r.LevelPercent - last.LevelPercent
			cur.hours += dt
		}
		last = r
	}
	return windows
}

// EstimateFillRate computes the average fill rate of one device in percent
// per hour over the window since its last reset. Series with fewer than two
// readings, or that never accumulate positive time, yield zero.
func EstimateFillRate(series domain.DeviceSeries, reset ResetStrategy) domain.FillRateEstimate {
	est := domain.FillRateEstimate{}
	if len(series) == 0 {
		return est
	}
	est.DeviceID = series[0].DeviceID

	windows := scanWindows(sorted(series), reset)
	est.RatePercentPerHour = windows[len(windows)-1].rate()
	return est
}

// EstimateFillRates runs EstimateFillRate for every device series.
func EstimateFillRates(series map[string]domain.DeviceSeries, cfg Config) map[string]domain.FillRateEstimate {
	out := make(map[string]domain.FillRateEstimate, len(series))
	for id, s := range series {
		est := EstimateFillRate(s, cfg.EstimatorReset())
		est.DeviceID = id
		out[id] = est
	}
	return out
}

// ServiceIntervalRate is the reporting fill rate: the series is split into
// service intervals at each reset and the time-weighted rate of every
// interval that covers positive time is averaged.
func ServiceIntervalRate(series domain.DeviceSeries, reset ResetStrategy) float64 {
	var sum float64
	var n int
	for _, w := range scanWindows(sorted(series), reset) {
		if w.hours <= 0 {
			continue
		}
		sum += w.levelSum / w.hours
		n++
	}
	if n == 0 {
		return 0
	}
	return neutral(sum / float64(n))
}

// neutral maps negative, NaN and infinite rates to zero.
func neutral(rate float64) float64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0
	}
	return rate
}
