package analytics

import (
	"slices"
	"time"

	"bin-telemetry-service/internal/domain"
)

// GroupByDevice splits raw readings into per-device series sorted by time.
// Readings sharing a device and timestamp are collapsed to the first one seen.
// The input slice is not modified.
func GroupByDevice(readings []domain.Reading) map[string]domain.DeviceSeries {
	out := make(map[string]domain.DeviceSeries)
	for _, r := range readings {
		out[r.DeviceID] = append(out[r.DeviceID], r)
	}

	for id, series := range out {
		SortSeries(series)
		out[id] = dedupe(series)
	}
	return out
}

// SortSeries orders a series ascending by timestamp, keeping the relative
// order of equal timestamps.
func SortSeries(series domain.DeviceSeries) {
	slices.SortStableFunc(series, func(a, b domain.Reading) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

// sorted returns a time-ordered copy, leaving the caller's slice untouched.
func sorted(series domain.DeviceSeries) domain.DeviceSeries {
	cp := slices.Clone(series)
	SortSeries(cp)
	return cp
}

func dedupe(series domain.DeviceSeries) domain.DeviceSeries {
	if len(series) < 2 {
		return series
	}
	out := series[:1]
	for _, r := range series[1:] {
		if r.Timestamp.Equal(out[len(out)-1].Timestamp) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterRange keeps readings with from <= t <= to. A zero bound is open.
func FilterRange(series domain.DeviceSeries, from, to time.Time) domain.DeviceSeries {
	out := make(domain.DeviceSeries, 0, len(series))
	for _, r := range series {
		if !from.IsZero() && r.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Latest returns the reading with the maximum timestamp.
func Latest(series domain.DeviceSeries) (domain.Reading, bool) {
	if len(series) == 0 {
		return domain.Reading{}, false
	}
	latest := series[0]
	for _, r := range series[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return latest, true
}
