package domain

import (
	"fmt"
	"time"
)

// Device is a waste bin with its most recent telemetry.
// Level is stored as the raw sensor distance (cm from lid to trash);
// LevelPercent converts it against BinHeight. A bin that reports before an
// operator has placed it stays unregistered: it has no location or height and
// is left out of analysis and routing.
type Device struct {
	DeviceID   string
	Location   Coordinates
	BinHeight  float64
	Distance   float64
	Battery    float64
	Reception  float64
	UpdatedAt  time.Time
	Registered bool
}

// DeviceLocation is the static position the route optimizer works on.
type DeviceLocation struct {
	DeviceID string
	Coordinates
}

// LevelPercent converts a lid-to-trash distance into a fill percentage.
// The result is truncated toward zero and is not clamped: out-of-range
// values are meaningful to the insight analyzer.
func LevelPercent(distance, binHeight float64) (float64, error) {
	if binHeight <= 0 {
		return 0, fmt.Errorf("level percent: bin height %v: %w", binHeight, ErrInvalidBinHeight)
	}
	trash := binHeight - distance
	return float64(int64(trash * 100 / binHeight)), nil
}

// LevelPercent returns the current fill percentage of the device.
func (d *Device) LevelPercent() (float64, error) {
	return LevelPercent(d.Distance, d.BinHeight)
}

// Locate returns the device position for routing.
func (d *Device) Locate() DeviceLocation {
	return DeviceLocation{DeviceID: d.DeviceID, Coordinates: d.Location}
}

// TelemetryUpdate is one hardware report from a bin.
type TelemetryUpdate struct {
	DeviceID  string
	Distance  float64
	Battery   float64
	Reception float64
	At        time.Time
}

// BinReport is the outcome of storing one TelemetryUpdate.
// Reading is nil when the device is unregistered.
type BinReport struct {
	Device  *Device
	Reading *Reading
	Created bool
}
