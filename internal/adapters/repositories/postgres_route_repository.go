package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/platform/obs"

	"go.uber.org/zap"
)

// Postgres-backed implementation of the RouteRepository port.
// Transitions lock the route row, so concurrent writers on one route
// are serialized by the database.
type PostgresRouteRepository struct {
	DB  *sql.DB
	log *zap.Logger
}

func NewPostgresRouteRepository(db *sql.DB, log *zap.Logger) *PostgresRouteRepository {
	return &PostgresRouteRepository{DB: db, log: log}
}

const routeColumns = `id, device_ids, empty_bin, change_battery, status, created_at, started_at, finished_at`

func scanRoute(row rowScanner) (*domain.Route, error) {
	var (
		r          domain.Route
		rawIDs     []byte
		status     string
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&r.ID,
		&rawIDs,
		&r.Work.EmptyBin,
		&r.Work.ChangeBattery,
		&status,
		&r.CreatedAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(rawIDs, &r.DeviceIDs); err != nil {
		return nil, fmt.Errorf("decode device_ids: %w", err)
	}
	if r.Status, err = domain.ParseRouteStatus(status); err != nil {
		return nil, err
	}

	r.CreatedAt = r.CreatedAt.UTC()
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		r.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		r.FinishedAt = &t
	}
	return &r, nil
}

func (s *PostgresRouteRepository) Create(ctx context.Context, r *domain.Route) (err error) {
	defer obs.Time(ctx, s.log, "routes.Create")(&err)

	if s.DB == nil {
		return errors.New("postgres route repository: DB is nil")
	}

	ids := r.DeviceIDs
	if ids == nil {
		ids = []string{}
	}
	rawIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("create route %s: encode device_ids: %w", r.ID, err)
	}

	query := `
	INSERT INTO routes (` + routeColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = s.DB.ExecContext(ctx, query,
		r.ID, rawIDs, r.Work.EmptyBin, r.Work.ChangeBattery,
		string(r.Status), r.CreatedAt.UTC(), r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("create route %s: %w", r.ID, err)
	}
	return nil
}

func (s *PostgresRouteRepository) Get(ctx context.Context, id string) (_ *domain.Route, err error) {
	defer obs.Time(ctx, s.log, "routes.Get")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1;`
	r, err := scanRoute(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route %s: %w", id, domain.ErrRouteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}
	return r, nil
}

// Return the newest routes first.
func (s *PostgresRouteRepository) ListRecent(ctx context.Context, limit int) (_ []*domain.Route, err error) {
	defer obs.Time(ctx, s.log, "routes.ListRecent")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("list routes: limit must be positive, got %d", limit)
	}

	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY created_at DESC, id LIMIT $1;`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, limit)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	return routes, nil
}

// Update locks the row, applies fn and persists the lifecycle columns.
// Nothing is written when fn fails.
func (s *PostgresRouteRepository) Update(
	ctx context.Context,
	id string,
	fn func(r *domain.Route) error,
) (_ *domain.Route, err error) {
	defer obs.Time(ctx, s.log, "routes.Update")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update route %s: begin tx: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := s.lockRoute(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("update route %s: %w", id, err)
	}

	if err := fn(r); err != nil {
		return nil, err
	}

	query := `
	UPDATE routes
	SET status = $2,
		started_at = $3,
		finished_at = $4
	WHERE id = $1;
	`
	if _, err := tx.ExecContext(ctx, query, r.ID, string(r.Status), r.StartedAt, r.FinishedAt); err != nil {
		return nil, fmt.Errorf("update route %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update route %s: commit tx: %w", id, err)
	}
	return r, nil
}

// Delete locks the row and removes it only if check passes.
func (s *PostgresRouteRepository) Delete(
	ctx context.Context,
	id string,
	check func(r *domain.Route) error,
) (err error) {
	defer obs.Time(ctx, s.log, "routes.Delete")(&err)

	if s.DB == nil {
		return errors.New("postgres route repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete route %s: begin tx: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	r, err := s.lockRoute(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("delete route %s: %w", id, err)
	}

	if err := check(r); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("delete route %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete route %s: commit tx: %w", id, err)
	}
	return nil
}

func (s *PostgresRouteRepository) lockRoute(ctx context.Context, tx *sql.Tx, id string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 FOR UPDATE;`
	r, err := scanRoute(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRouteNotFound
	}
	return r, err
}
