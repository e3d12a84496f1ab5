package domain

import "errors"

var (
	ErrRouteNotFound     = errors.New("route not found")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrInvalidTransition = errors.New("invalid route transition")
	ErrInvalidLocation   = errors.New("invalid device location")
	ErrInvalidBinHeight  = errors.New("bin height must be positive")
	ErrInvalidTelemetry  = errors.New("invalid telemetry")
	ErrNoWork            = errors.New("route needs empty_bin or change_battery")
	ErrNothingToRoute    = errors.New("no devices need service")
)
