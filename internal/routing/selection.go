package routing

import "bin-telemetry-service/internal/domain"

// SelectionRules are the business thresholds that put a device on a route.
type SelectionRules struct {
	LevelAlertPercent   float64 `mapstructure:"level_alert_percent"`
	BatteryAlertPercent float64 `mapstructure:"battery_alert_percent"`
}

func DefaultSelectionRules() SelectionRules {
	return SelectionRules{LevelAlertPercent: 80, BatteryAlertPercent: 25}
}

// DeviceStatus is the current state of a device as seen by selection.
type DeviceStatus struct {
	Location     domain.DeviceLocation
	LevelPercent float64
	Battery      float64
}

// Stop is a selected device with the work to do there.
type Stop struct {
	domain.DeviceLocation
	EmptyBin      bool
	ChangeBattery bool
}

// Select builds the working set for a route.
//
// With work.ChangeBattery a device with battery below the alert level is
// selected; with work.EmptyBin a device at or above the level alert, or
// predicted due for pickup, is selected. Devices with a current issue come
// first in input order, followed by devices selected only by prediction.
func Select(devices []DeviceStatus, due []string, work domain.RouteWork, rules SelectionRules) []Stop {
	isDue := make(map[string]struct{}, len(due))
	for _, id := range due {
		isDue[id] = struct{}{}
	}

	var current, predicted []Stop
	for _, d := range devices {
		full := d.LevelPercent >= rules.LevelAlertPercent
		_, dueSoon := isDue[d.Location.DeviceID]

		stop := Stop{
			DeviceLocation: d.Location,
			EmptyBin:       work.EmptyBin && (full || dueSoon),
			ChangeBattery:  work.ChangeBattery && d.Battery < rules.BatteryAlertPercent,
		}

		switch {
		case stop.ChangeBattery || (stop.EmptyBin && full):
			current = append(current, stop)
		case stop.EmptyBin:
			predicted = append(predicted, stop)
		}
	}

	return append(current, predicted...)
}

// Locations strips work flags for the optimizer.
func Locations(stops []Stop) []domain.DeviceLocation {
	out := make([]domain.DeviceLocation, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.DeviceLocation)
	}
	return out
}
