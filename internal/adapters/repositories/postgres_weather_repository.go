package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/platform/obs"

	"go.uber.org/zap"
)

// Postgres-backed implementation of the WeatherSensorRepository port.
type PostgresWeatherRepository struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewPostgresWeatherRepository(db *sql.DB, log *zap.Logger) *PostgresWeatherRepository {
	return &PostgresWeatherRepository{DB: db, log: log}
}

const weatherColumns = `sensor_id, battery, reception, temperature, humidity, updated_at, registered`

func scanWeatherSensor(row rowScanner, extra ...any) (*domain.WeatherSensor, error) {
	var w domain.WeatherSensor
	dest := append([]any{
		&w.SensorID,
		&w.Battery,
		&w.Reception,
		&w.Temperature,
		&w.Humidity,
		&w.UpdatedAt,
		&w.Registered,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}

// Return all registered weather sensors ordered by id.
func (s *PostgresWeatherRepository) ListWeatherSensors(ctx context.Context) (_ []*domain.WeatherSensor, err error) {
	defer obs.Time(ctx, s.log, "weather.List")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres weather repository: DB is nil")
	}

	query := `SELECT ` + weatherColumns + ` FROM weather_sensors WHERE registered ORDER BY sensor_id;`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list weather sensors: query weather_sensors table: %w", err)
	}
	defer rows.Close()

	sensors := make([]*domain.WeatherSensor, 0, 16)
	for rows.Next() {
		w, err := scanWeatherSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("list weather sensors: scan row: %w", err)
		}
		sensors = append(sensors, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list weather sensors: row iteration: %w", err)
	}

	return sensors, nil
}

// RecordWeatherReport upserts a sensor. Fields missing from the report keep
// their stored value; a new sensor starts unregistered.
func (s *PostgresWeatherRepository) RecordWeatherReport(
	ctx context.Context,
	r domain.WeatherReport,
) (_ *domain.WeatherSensor, _ bool, err error) {
	defer obs.Time(ctx, s.log, "weather.RecordReport")(&err)

	if s.DB == nil {
		return nil, false, errors.New("postgres weather repository: DB is nil")
	}

	// xmax is zero only for a freshly inserted row.
	query := `
	INSERT INTO weather_sensors (sensor_id, battery, reception, temperature, humidity, updated_at, registered)
	VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	ON CONFLICT (sensor_id) DO UPDATE
	SET battery = COALESCE(EXCLUDED.battery, weather_sensors.battery),
		reception = COALESCE(EXCLUDED.reception, weather_sensors.reception),
		temperature = COALESCE(EXCLUDED.temperature, weather_sensors.temperature),
		humidity = COALESCE(EXCLUDED.humidity, weather_sensors.humidity),
		updated_at = EXCLUDED.updated_at
	RETURNING ` + weatherColumns + `, (xmax = 0) AS created;`

	var created bool
	w, err := scanWeatherSensor(
		s.DB.QueryRowContext(ctx, query, r.SensorID, r.Battery, r.Reception, r.Temperature, r.Humidity, r.At.UTC()),
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("record weather report %s: %w", r.SensorID, err)
	}
	return w, created, nil
}
