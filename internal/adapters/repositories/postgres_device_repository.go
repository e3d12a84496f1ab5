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

// Postgres-backed implementation of the DeviceRepository port.
type PostgresDeviceRepository struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewPostgresDeviceRepository(db *sql.DB, log *zap.Logger) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{DB: db, log: log}
}

const deviceColumns = `device_id, lat, lng, bin_height, distance, battery, reception, updated_at, registered`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	var d domain.Device
	err := row.Scan(
		&d.DeviceID,
		&d.Location.Lat,
		&d.Location.Lng,
		&d.BinHeight,
		&d.Distance,
		&d.Battery,
		&d.Reception,
		&d.UpdatedAt,
		&d.Registered,
	)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

// Return all registered devices ordered by id.
func (s *PostgresDeviceRepository) ListDevices(ctx context.Context) (_ []*domain.Device, err error) {
	defer obs.Time(ctx, s.log, "devices.List")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres device repository: DB is nil")
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE registered ORDER BY device_id;`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: query devices table: %w", err)
	}
	defer rows.Close()

	devices := make([]*domain.Device, 0, 64)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("list devices: scan row: %w", err)
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list devices: row iteration: %w", err)
	}

	return devices, nil
}

// RecordBinReport creates an unknown device as unregistered, or updates the
// telemetry of a known one and appends the reading built by fn. Both writes
// share one transaction.
func (s *PostgresDeviceRepository) RecordBinReport(
	ctx context.Context,
	u domain.TelemetryUpdate,
	fn func(d *domain.Device) (*domain.Reading, error),
) (_ domain.BinReport, err error) {
	defer obs.Time(ctx, s.log, "devices.RecordBinReport")(&err)

	if s.DB == nil {
		return domain.BinReport{}, errors.New("postgres device repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.BinReport{}, fmt.Errorf("record bin report %s: begin tx: %w", u.DeviceID, err)
	}
	defer func() { _ = tx.Rollback() }()

	at := u.At.UTC()

	insertQuery := `
	INSERT INTO devices (device_id, distance, battery, reception, updated_at, registered)
	VALUES ($1, $2, $3, $4, $5, FALSE)
	ON CONFLICT (device_id) DO NOTHING
	RETURNING ` + deviceColumns + `;`

	d, err := scanDevice(tx.QueryRowContext(ctx, insertQuery, u.DeviceID, u.Distance, u.Battery, u.Reception, at))
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return domain.BinReport{}, fmt.Errorf("record bin report %s: commit tx: %w", u.DeviceID, err)
		}
		return domain.BinReport{Device: d, Created: true}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return domain.BinReport{}, fmt.Errorf("record bin report %s: insert device: %w", u.DeviceID, err)
	}

	// The row exists; UPDATE holds its lock until commit.
	updateQuery := `
	UPDATE devices
	SET distance = $2,
		battery = $3,
		reception = $4,
		updated_at = $5
	WHERE device_id = $1
	RETURNING ` + deviceColumns + `;`

	d, err = scanDevice(tx.QueryRowContext(ctx, updateQuery, u.DeviceID, u.Distance, u.Battery, u.Reception, at))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BinReport{}, fmt.Errorf("record bin report %s: %w", u.DeviceID, domain.ErrDeviceNotFound)
	}
	if err != nil {
		return domain.BinReport{}, fmt.Errorf("record bin report %s: update device: %w", u.DeviceID, err)
	}

	reading, err := fn(d)
	if err != nil {
		return domain.BinReport{}, err
	}
	if reading != nil {
		if err := insertReading(ctx, tx, *reading); err != nil {
			return domain.BinReport{}, fmt.Errorf("record bin report %s: %w", u.DeviceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.BinReport{}, fmt.Errorf("record bin report %s: commit tx: %w", u.DeviceID, err)
	}
	return domain.BinReport{Device: d, Reading: reading}, nil
}
