package ports

import (
	"context"
	"time"

	"bin-telemetry-service/internal/domain"
)

// Port: the telemetry store holding time-stamped fill-level readings.
type ReadingRepository interface {
	// Return readings with from <= saved_time <= to. A zero bound is open.
	ListReadings(ctx context.Context, from, to time.Time) ([]domain.Reading, error)
}

// Port: devices and their latest telemetry.
type DeviceRepository interface {
	// Registered devices only.
	ListDevices(ctx context.Context) ([]*domain.Device, error)
	// Store a bin report in one transaction. An unknown device is created
	// unregistered and fn is not called. Otherwise the telemetry is updated
	// and the reading returned by fn, if any, is appended. Nothing is written
	// when fn fails.
	RecordBinReport(
		ctx context.Context,
		u domain.TelemetryUpdate,
		fn func(d *domain.Device) (*domain.Reading, error),
	) (domain.BinReport, error)
}

// Port: weather sensors and their latest measurements.
type WeatherSensorRepository interface {
	// Registered sensors only.
	ListWeatherSensors(ctx context.Context) ([]*domain.WeatherSensor, error)
	// Upsert a report. An unknown sensor is created unregistered; created
	// reports whether that happened.
	RecordWeatherReport(ctx context.Context, r domain.WeatherReport) (s *domain.WeatherSensor, created bool, err error)
}

// Optional push trigger fired when new readings land in the store.
type ReadingNotifier interface {
	// Subscribe calls fn on every notification until the returned function is called.
	Subscribe(ctx context.Context, fn func()) (unsubscribe func(), err error)
}
