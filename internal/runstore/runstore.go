// Package runstore persists correction run metadata and per-layer
// results to sqlite so past runs can be compared and re-exported.
package runstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lucamedeir/urpec/internal/monitoring"
	"github.com/lucamedeir/urpec/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunRecord is one correction run.
type RunRecord struct {
	RunID       string
	CreatedAt   time.Time
	PatternPath string
	ConfigJSON  string
	DX          float64
	GridRows    int
	GridCols    int
}

// LayerRecord is one output layer of a run.
type LayerRecord struct {
	RunID              string
	LayerIndex         int
	NominalDose        float64
	RepresentativeDose float64
	PolygonCount       int
	VertexCount        int
}

// Store wraps the sqlite database holding run history.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the run store at path and applies
// pending migrations.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, clock: clock}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed (already at latest version).
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Note: We don't close m here because it would close the underlying DB connection.
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// RecordRun persists the run and its layers in one transaction and
// returns the run id, generating one when the record has none.
func (s *Store) RecordRun(run RunRecord, layers []LayerRecord) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO correction_run
			(run_id, created_unix_nanos, pattern_path, config_json, dx, grid_rows, grid_cols)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UnixNano(), run.PatternPath, run.ConfigJSON,
		run.DX, run.GridRows, run.GridCols)
	if err != nil {
		return "", fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	for _, l := range layers {
		_, err = tx.Exec(`INSERT INTO correction_layer
				(run_id, layer_index, nominal_dose, representative_dose, polygon_count, vertex_count)
				VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, l.LayerIndex, l.NominalDose, l.RepresentativeDose,
			l.PolygonCount, l.VertexCount)
		if err != nil {
			return "", fmt.Errorf("failed to insert layer %d of run %s: %w", l.LayerIndex, run.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run %s: %w", run.RunID, err)
	}
	return run.RunID, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT run_id, created_unix_nanos, pattern_path, config_json, dx, grid_rows, grid_cols
			FROM correction_run ORDER BY created_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var nanos int64
		if err := rows.Scan(&r.RunID, &nanos, &r.PatternPath, &r.ConfigJSON,
			&r.DX, &r.GridRows, &r.GridCols); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunLayers returns the layer records of one run in layer order.
func (s *Store) RunLayers(runID string) ([]LayerRecord, error) {
	rows, err := s.db.Query(`SELECT run_id, layer_index, nominal_dose, representative_dose, polygon_count, vertex_count
			FROM correction_layer WHERE run_id = ? ORDER BY layer_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query layers of run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []LayerRecord
	for rows.Next() {
		var l LayerRecord
		if err := rows.Scan(&l.RunID, &l.LayerIndex, &l.NominalDose,
			&l.RepresentativeDose, &l.PolygonCount, &l.VertexCount); err != nil {
			return nil, fmt.Errorf("failed to scan layer: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
