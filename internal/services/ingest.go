package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/metrics"
	"bin-telemetry-service/internal/platform/obs"
	"bin-telemetry-service/internal/ports"

	"go.uber.org/zap"
)

// BinUpdate is a raw hardware report: the sensor measures the distance from
// the lid down to the trash.
type BinUpdate struct {
	DeviceID  string
	Distance  float64
	Battery   float64
	Reception float64
}

func (u BinUpdate) validate() error {
	if strings.TrimSpace(u.DeviceID) == "" {
		return fmt.Errorf("%w: device id is required", domain.ErrInvalidTelemetry)
	}
	for name, v := range map[string]float64{"distance": u.Distance, "battery": u.Battery, "reception": u.Reception} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a finite number", domain.ErrInvalidTelemetry, name)
		}
	}
	if u.Distance < 0 {
		return fmt.Errorf("%w: distance must not be negative", domain.ErrInvalidTelemetry)
	}
	return nil
}

// WeatherUpdate is a weather sensor report. Nil fields were not reported.
type WeatherUpdate struct {
	SensorID    string
	Battery     *float64
	Reception   *float64
	Temperature *float64
	Humidity    *float64
}

func (u WeatherUpdate) validate() error {
	if strings.TrimSpace(u.SensorID) == "" {
		return fmt.Errorf("%w: sensor id is required", domain.ErrInvalidTelemetry)
	}
	fields := map[string]*float64{
		"battery":     u.Battery,
		"reception":   u.Reception,
		"temperature": u.Temperature,
		"humidity":    u.Humidity,
	}
	for name, v := range fields {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: %s is not a finite number", domain.ErrInvalidTelemetry, name)
		}
	}
	return nil
}

// TelemetryIngestor records hardware reports from bins and weather sensors.
type TelemetryIngestor struct {
	devices  ports.DeviceRepository
	weather  ports.WeatherSensorRepository
	analysis *AnalysisService
	log      *zap.Logger
	now      func() time.Time
}

func NewTelemetryIngestor(
	devices ports.DeviceRepository,
	weather ports.WeatherSensorRepository,
	analysis *AnalysisService,
	log *zap.Logger,
) *TelemetryIngestor {
	return &TelemetryIngestor{
		devices:  devices,
		weather:  weather,
		analysis: analysis,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// IngestBin stores the latest telemetry on the device and, for a registered
// bin, appends a reading stamped in UTC with the sensor distance converted
// into a fill percentage. An unknown bin is created unregistered and gets no
// reading until an operator places it.
func (t *TelemetryIngestor) IngestBin(ctx context.Context, u BinUpdate) (_ domain.BinReport, err error) {
	defer obs.Time(ctx, t.log, "telemetry.IngestBin")(&err)

	if err := u.validate(); err != nil {
		return domain.BinReport{}, fmt.Errorf("ingest bin: %w", err)
	}

	now := t.now()
	update := domain.TelemetryUpdate{
		DeviceID:  strings.TrimSpace(u.DeviceID),
		Distance:  u.Distance,
		Battery:   u.Battery,
		Reception: u.Reception,
		At:        now,
	}

	report, err := t.devices.RecordBinReport(ctx, update, func(d *domain.Device) (*domain.Reading, error) {
		if !d.Registered {
			return nil, nil
		}
		level, err := d.LevelPercent()
		if err != nil {
			return nil, err
		}
		return &domain.Reading{DeviceID: d.DeviceID, LevelPercent: level, Timestamp: now}, nil
	})
	if err != nil {
		return domain.BinReport{}, fmt.Errorf("ingest bin %s: %w", update.DeviceID, err)
	}

	switch {
	case report.Created:
		metrics.TelemetryReports.WithLabelValues("bin", "created").Inc()
		t.log.Info("unknown bin recorded as unregistered", zap.String("device_id", update.DeviceID))
	case report.Reading == nil:
		metrics.TelemetryReports.WithLabelValues("bin", "unregistered").Inc()
	default:
		metrics.TelemetryReports.WithLabelValues("bin", "updated").Inc()
	}

	if report.Reading != nil {
		metrics.ReadingsIngested.Inc()
		if t.analysis != nil {
			t.analysis.InvalidateInsights(ctx)
		}
	}

	return report, nil
}

// IngestWeather upserts a weather sensor. Unknown sensors are created
// unregistered; reported fields overwrite, missing ones are kept.
func (t *TelemetryIngestor) IngestWeather(ctx context.Context, u WeatherUpdate) (_ *domain.WeatherSensor, _ bool, err error) {
	defer obs.Time(ctx, t.log, "telemetry.IngestWeather")(&err)

	if err := u.validate(); err != nil {
		return nil, false, fmt.Errorf("ingest weather: %w", err)
	}
	if t.weather == nil {
		return nil, false, errors.New("ingest weather: no weather sensor store")
	}

	sensor, created, err := t.weather.RecordWeatherReport(ctx, domain.WeatherReport{
		SensorID:    strings.TrimSpace(u.SensorID),
		Battery:     u.Battery,
		Reception:   u.Reception,
		Temperature: u.Temperature,
		Humidity:    u.Humidity,
		At:          t.now(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("ingest weather: %w", err)
	}

	if created {
		metrics.TelemetryReports.WithLabelValues("weather", "created").Inc()
		t.log.Info("unknown weather sensor recorded as unregistered", zap.String("sensor_id", sensor.SensorID))
	} else {
		metrics.TelemetryReports.WithLabelValues("weather", "updated").Inc()
	}
	return sensor, created, nil
}

// WeatherSensors lists registered weather sensors.
func (t *TelemetryIngestor) WeatherSensors(ctx context.Context) ([]*domain.WeatherSensor, error) {
	if t.weather == nil {
		return nil, errors.New("list weather sensors: no weather sensor store")
	}
	return t.weather.ListWeatherSensors(ctx)
}
