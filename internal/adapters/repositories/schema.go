package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Initialize the Postgres database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDevicesQuery := `
	CREATE TABLE IF NOT EXISTS devices (
		device_id TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		lng DOUBLE PRECISION NOT NULL DEFAULT 0,
		bin_height DOUBLE PRECISION NOT NULL DEFAULT 0,
		distance DOUBLE PRECISION NOT NULL DEFAULT 0,
		battery DOUBLE PRECISION NOT NULL DEFAULT 100,
		reception DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		registered BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createWeatherSensorsQuery := `
	CREATE TABLE IF NOT EXISTS weather_sensors (
		sensor_id TEXT PRIMARY KEY,
		battery DOUBLE PRECISION,
		reception DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		humidity DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		registered BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createReadingsQuery := `
	CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		device_id TEXT NOT NULL REFERENCES devices(device_id) ON DELETE CASCADE,
		level DOUBLE PRECISION NOT NULL,
		saved_time TIMESTAMPTZ NOT NULL
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		device_ids JSONB NOT NULL,
		empty_bin BOOLEAN NOT NULL,
		change_battery BOOLEAN NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ
	);
	`

	createReadingsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_readings_saved_time
	ON readings(saved_time, device_id);
	`

	createRoutesIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_routes_created_at
	ON routes(created_at DESC);
	`

	statements := []string{
		createDevicesQuery,
		createWeatherSensorsQuery,
		createReadingsQuery,
		createRoutesQuery,
		createReadingsIndexQuery,
		createRoutesIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type DeviceSeed struct {
	DeviceID  string  `json:"device_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	BinHeight float64 `json:"bin_height"`
	Distance  float64 `json:"distance"`
	Battery   float64 `json:"battery"`
	Reception float64 `json:"reception"`
}

type ReadingSeed struct {
	DeviceID  string    `json:"device_id"`
	Level     float64   `json:"level"`
	SavedTime time.Time `json:"saved_time"`
}

type Seed struct {
	Devices  []DeviceSeed  `json:"devices"`
	Readings []ReadingSeed `json:"readings"`
}

// Populate the database with devices and reading history from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed telemetry: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed telemetry: parse json: %w", err)
	}

	if err := validateSeed(&data); err != nil {
		return fmt.Errorf("seed telemetry: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed telemetry: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	deviceStmt, err := tx.Prepare(`
	INSERT INTO devices (device_id, lat, lng, bin_height, distance, battery, reception, registered)
	VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
	ON CONFLICT (device_id) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		bin_height = EXCLUDED.bin_height,
		distance = EXCLUDED.distance,
		battery = EXCLUDED.battery,
		reception = EXCLUDED.reception,
		registered = TRUE;
	`)
	if err != nil {
		return fmt.Errorf("seed telemetry: prepare device insert: %w", err)
	}
	defer deviceStmt.Close()

	for _, d := range data.Devices {
		if _, err := deviceStmt.Exec(d.DeviceID, d.Lat, d.Lng, d.BinHeight, d.Distance, d.Battery, d.Reception); err != nil {
			return fmt.Errorf("seed telemetry: insert device_id=%s: %w", d.DeviceID, err)
		}
	}

	readingStmt, err := tx.Prepare(`
	INSERT INTO readings (device_id, level, saved_time)
	VALUES ($1, $2, $3);
	`)
	if err != nil {
		return fmt.Errorf("seed telemetry: prepare reading insert: %w", err)
	}
	defer readingStmt.Close()

	for _, r := range data.Readings {
		if _, err := readingStmt.Exec(r.DeviceID, r.Level, r.SavedTime.UTC()); err != nil {
			return fmt.Errorf("seed telemetry: insert reading device_id=%s: %w", r.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed telemetry: commit tx: %w", err)
	}

	return nil
}

func validateSeed(data *Seed) error {
	known := make(map[string]struct{}, len(data.Devices))
	for i := range data.Devices {
		d := &data.Devices[i]
		d.DeviceID = strings.TrimSpace(d.DeviceID)
		if d.DeviceID == "" {
			return fmt.Errorf("device at index %d: device_id cannot be empty", i+1)
		}
		if d.BinHeight <= 0 {
			return fmt.Errorf("device %s: bin_height must be positive", d.DeviceID)
		}
		known[d.DeviceID] = struct{}{}
	}

	for i, r := range data.Readings {
		if _, ok := known[strings.TrimSpace(r.DeviceID)]; !ok {
			return fmt.Errorf("reading at index %d: unknown device %q", i+1, r.DeviceID)
		}
		if r.SavedTime.IsZero() {
			return fmt.Errorf("reading at index %d: saved_time is required", i+1)
		}
		data.Readings[i].DeviceID = strings.TrimSpace(r.DeviceID)
	}
	return nil
}
