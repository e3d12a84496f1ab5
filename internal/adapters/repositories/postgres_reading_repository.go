package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/platform/obs"

	"go.uber.org/zap"
)

// Postgres-backed implementation of the ReadingRepository port.
type PostgresReadingRepository struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewPostgresReadingRepository(db *sql.DB, log *zap.Logger) *PostgresReadingRepository {
	return &PostgresReadingRepository{DB: db, log: log}
}

// Return readings inside [from, to]; a zero bound leaves that side open.
func (s *PostgresReadingRepository) ListReadings(ctx context.Context, from, to time.Time) (_ []domain.Reading, err error) {
	defer obs.Time(ctx, s.log, "readings.List")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres reading repository: DB is nil")
	}

	query := `
	SELECT
		device_id,
		level,
		saved_time
	FROM readings
	WHERE ($1::timestamptz IS NULL OR saved_time >= $1)
		AND ($2::timestamptz IS NULL OR saved_time <= $2)
	ORDER BY device_id, saved_time;
	`
	rows, err := s.DB.QueryContext(ctx, query, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("list readings: query readings table: %w", err)
	}
	defer rows.Close()

	readings := make([]domain.Reading, 0, 256)
	for rows.Next() {
		var r domain.Reading
		if err := rows.Scan(&r.DeviceID, &r.LevelPercent, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("list readings: scan row: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list readings: row iteration: %w", err)
	}

	return readings, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertReading appends a reading on db, which may be a transaction.
func insertReading(ctx context.Context, db execer, r domain.Reading) error {
	if r.DeviceID == "" {
		return errors.New("insert reading: device_id is required")
	}

	query := `
	INSERT INTO readings (device_id, level, saved_time)
	VALUES ($1, $2, $3);
	`
	if _, err := db.ExecContext(ctx, query, r.DeviceID, r.LevelPercent, r.Timestamp.UTC()); err != nil {
		return fmt.Errorf("insert reading device_id=%s: %w", r.DeviceID, err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
