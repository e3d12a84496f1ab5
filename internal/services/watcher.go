package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bin-telemetry-service/internal/analytics"
	"bin-telemetry-service/internal/ports"

	"go.uber.org/zap"
)

// Watcher re-runs the analysis whenever the notifier reports new readings.
// Bursts of notifications inside the debounce window cause one pass.
type Watcher struct {
	notifier ports.ReadingNotifier
	analysis *AnalysisService
	debounce time.Duration
	lookback time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu   sync.RWMutex
	last *analytics.Report
}

func NewWatcher(
	notifier ports.ReadingNotifier,
	analysis *AnalysisService,
	debounce, lookback time.Duration,
	log *zap.Logger,
) *Watcher {
	return &Watcher{
		notifier: notifier,
		analysis: analysis,
		debounce: debounce,
		lookback: lookback,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Last returns the report of the most recent pass, or nil before the first.
func (w *Watcher) Last() *analytics.Report {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

// Run blocks until ctx is done. It runs one pass at startup.
func (w *Watcher) Run(ctx context.Context) error {
	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	unsubscribe, err := w.notifier.Subscribe(ctx, notify)
	if err != nil {
		return fmt.Errorf("watch readings: %w", err)
	}
	defer unsubscribe()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
		}

		timer := time.NewTimer(w.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		// Notifications that arrived while waiting are covered by this pass.
		select {
		case <-trigger:
		default:
		}

		w.analysis.InvalidateInsights(ctx)
		w.refresh(ctx)
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	now := w.now()
	var from time.Time
	if w.lookback > 0 {
		from = now.Add(-w.lookback)
	}

	report, err := w.analysis.Analyze(ctx, from, time.Time{}, now)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("analysis pass failed", zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	w.last = report
	w.mu.Unlock()

	w.log.Info("analysis pass complete",
		zap.Int("devices", len(report.Estimates)),
		zap.Strings("due", report.Due),
		zap.Strings("low_fill_rate", report.LowFillRate),
	)
}
