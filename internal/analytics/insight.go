package analytics

import (
	"fmt"
	"math"
	"time"

	"bin-telemetry-service/internal/domain"
)

// AnalyzeInsights scans one device series restricted to [from, to] and reports
// out-of-range readings, sudden jumps, emptying events and the average fill
// rate between services. Group order follows first occurrence, so repeated
// runs over the same readings produce identical output.
func AnalyzeInsights(series domain.DeviceSeries, from, to time.Time, cfg Config) domain.Insight {
	s := FilterRange(sorted(series), from, to)

	ins := domain.Insight{
		Anomalies:     []domain.AnomalyGroup{},
		SuddenChanges: []domain.SuddenChangeGroup{},
	}
	if len(s) == 0 {
		if len(series) > 0 {
			ins.DeviceID = series[0].DeviceID
		}
		return ins
	}
	ins.DeviceID = s[0].DeviceID
	ins.Pings = len(s)
	ins.LastSeen = s[len(s)-1].Timestamp

	anomalyIdx := map[string]int{}
	changeIdx := map[string]int{}
	emptying := cfg.EmptyingReset()

	for i, r := range s {
		if r.LevelPercent < cfg.AnomalyMin || r.LevelPercent > cfg.AnomalyMax {
			label := percentLabel(r.LevelPercent)
			idx, ok := anomalyIdx[label]
			if !ok {
				idx = len(ins.Anomalies)
				anomalyIdx[label] = idx
				ins.Anomalies = append(ins.Anomalies, domain.AnomalyGroup{Level: label})
			}
			g := &ins.Anomalies[idx]
			g.Occurrences++
			g.Timestamps = append(g.Timestamps, r.Timestamp)
			ins.AnomalyCount++
		}

		if i == 0 {
			continue
		}
		prev := s[i-1]

		if math.Abs(r.LevelPercent-prev.LevelPercent) > cfg.SuddenChangeDelta {
			key := fmt.Sprintf("%s to %s", percentLabel(prev.LevelPercent), percentLabel(r.LevelPercent))
			idx, ok := changeIdx[key]
			if !ok {
				idx = len(ins.SuddenChanges)
				changeIdx[key] = idx
				ins.SuddenChanges = append(ins.SuddenChanges, domain.SuddenChangeGroup{
					Key:  key,
					From: prev.LevelPercent,
					To:   r.LevelPercent,
				})
			}
			g := &ins.SuddenChanges[idx]
			g.Occurrences++
			g.Intervals = append(g.Intervals, domain.ChangeInterval{Start: prev.Timestamp, End: r.Timestamp})
			ins.SuddenChangeCount++
		}

		if emptying.IsReset(prev.LevelPercent, r.LevelPercent) {
			ins.EmptyingEventCount++
		}
	}

	ins.AverageFillRate = ServiceIntervalRate(s, cfg.ReportReset())
	return ins
}

// AnalyzeAllInsights runs AnalyzeInsights for every device series.
func AnalyzeAllInsights(series map[string]domain.DeviceSeries, from, to time.Time, cfg Config) map[string]domain.Insight {
	out := make(map[string]domain.Insight, len(series))
	for id, s := range series {
		ins := AnalyzeInsights(s, from, to, cfg)
		ins.DeviceID = id
		out[id] = ins
	}
	return out
}

func percentLabel(level float64) string {
	return fmt.Sprintf("%g%%", level)
}
