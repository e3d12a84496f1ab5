package analytics

import (
	"errors"
	"fmt"
)

// Config enumerates every tunable used by one analysis pass.
// It is passed explicitly to each operation; there are no package-level
// thresholds.
type Config struct {
	// Fill ceiling in percent treated as "practically full".
	MaxFillPercent float64 `mapstructure:"max_fill_percent"`
	// Pickup lookahead window in hours.
	ThresholdHours float64 `mapstructure:"threshold_hours"`
	// Rates below this (percent/hour) are flagged as low.
	LowFillRateLimit float64 `mapstructure:"low_fill_rate_limit"`

	// Absolute level jump between consecutive readings that counts as sudden.
	SuddenChangeDelta float64 `mapstructure:"sudden_change_delta"`
	AnomalyMin        float64 `mapstructure:"anomaly_min"`
	AnomalyMax        float64 `mapstructure:"anomaly_max"`

	// Emptying event: previous level above From and current level at or below To.
	EmptyingFromPercent float64 `mapstructure:"emptying_from_percent"`
	EmptyingToPercent   float64 `mapstructure:"emptying_to_percent"`

	// Service interval boundaries for the reported average fill rate.
	ReportResetFromPercent float64 `mapstructure:"report_reset_from_percent"`
	ReportResetToPercent   float64 `mapstructure:"report_reset_to_percent"`

	// Upper bound on devices analyzed concurrently; <= 0 means unbounded.
	Parallelism int `mapstructure:"parallelism"`
}

func DefaultConfig() Config {
	return Config{
		MaxFillPercent:         75,
		ThresholdHours:         6,
		LowFillRateLimit:       0.5,
		SuddenChangeDelta:      30,
		AnomalyMin:             0,
		AnomalyMax:             100,
		EmptyingFromPercent:    20,
		EmptyingToPercent:      10,
		ReportResetFromPercent: 20,
		ReportResetToPercent:   5,
		Parallelism:            8,
	}
}

// Validate rejects configurations that would make the math meaningless.
func (c Config) Validate() error {
	var errs []error
	if c.MaxFillPercent <= 0 {
		errs = append(errs, fmt.Errorf("max_fill_percent must be positive, got %v", c.MaxFillPercent))
	}
	if c.ThresholdHours < 0 {
		errs = append(errs, fmt.Errorf("threshold_hours must not be negative, got %v", c.ThresholdHours))
	}
	if c.SuddenChangeDelta <= 0 {
		errs = append(errs, fmt.Errorf("sudden_change_delta must be positive, got %v", c.SuddenChangeDelta))
	}
	if c.AnomalyMin >= c.AnomalyMax {
		errs = append(errs, fmt.Errorf("anomaly range [%v, %v] is empty", c.AnomalyMin, c.AnomalyMax))
	}
	if c.EmptyingToPercent >= c.EmptyingFromPercent {
		errs = append(errs, fmt.Errorf("emptying drop %v -> %v must go down", c.EmptyingFromPercent, c.EmptyingToPercent))
	}
	if c.ReportResetToPercent >= c.ReportResetFromPercent {
		errs = append(errs, fmt.Errorf("report reset drop %v -> %v must go down", c.ReportResetFromPercent, c.ReportResetToPercent))
	}
	if len(errs) > 0 {
		return fmt.Errorf("analytics config: %w", errors.Join(errs...))
	}
	return nil
}

// EstimatorReset is the reset rule used by the fill-rate estimator.
func (c Config) EstimatorReset() ResetStrategy { return AnyDecrease{} }

// EmptyingReset detects emptying events counted in insights.
func (c Config) EmptyingReset() ResetStrategy {
	return ThresholdDrop{From: c.EmptyingFromPercent, To: c.EmptyingToPercent}
}

// ReportReset delimits service intervals for the reported average fill rate.
func (c Config) ReportReset() ResetStrategy {
	return ThresholdDrop{From: c.ReportResetFromPercent, To: c.ReportResetToPercent}
}
