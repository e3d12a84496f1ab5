package domain

import "time"

// AnomalyGroup collects out-of-range readings sharing the same level.
type AnomalyGroup struct {
	Level       string
	Occurrences int
	Timestamps  []time.Time
}

// ChangeInterval is one pair of consecutive readings with a sudden jump.
type ChangeInterval struct {
	Start time.Time
	End   time.Time
}

// SuddenChangeGroup collects sudden jumps sharing the same from/to levels.
type SuddenChangeGroup struct {
	Key         string
	From        float64
	To          float64
	Occurrences int
	Intervals   []ChangeInterval
}

// Insight is the descriptive report for one device over a date range.
// It never feeds back into scheduling.
type Insight struct {
	DeviceID           string
	Pings              int
	LastSeen           time.Time
	AnomalyCount       int
	Anomalies          []AnomalyGroup
	SuddenChangeCount  int
	SuddenChanges      []SuddenChangeGroup
	EmptyingEventCount int
	AverageFillRate    float64
}
