package analytics

import "fmt"

// ResetStrategy decides whether the step prev -> cur is an emptying of the bin.
//
// The fill-rate estimator treats any drop as a reset. Insights only count a
// drop from a meaningful level to near-empty.
type ResetStrategy interface {
	IsReset(prev, cur float64) bool
	Name() string
}

// AnyDecrease resets on every decrease in level.
type AnyDecrease struct{}

func (AnyDecrease) IsReset(prev, cur float64) bool { return cur < prev }

func (AnyDecrease) Name() string { return "any-decrease" }

// ThresholdDrop resets when the level goes from above From to at most To.
type ThresholdDrop struct {
	From float64
	To   float64
}

func (t ThresholdDrop) IsReset(prev, cur float64) bool { return prev > t.From && cur <= t.To }

func (t ThresholdDrop) Name() string { return fmt.Sprintf("drop>%g<=%g", t.From, t.To) }
