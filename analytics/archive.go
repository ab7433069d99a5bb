package analytics

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Archive persists run metadata and per-generation stats rows to SQLite so
// runs can be compared after the fact.
type Archive struct {
	path string

	mu    sync.Mutex
	db    *sql.DB
	runID string
}

// NewArchive creates an archive backed by the SQLite file at path.
func NewArchive(path string) *Archive {
	return &Archive{path: path}
}

// Init opens the database and creates the schema if needed.
func (a *Archive) Init(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.path == "" {
		return errors.New("archive path is required")
	}
	if a.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			config BLOB,
			started_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			red INTEGER NOT NULL,
			green INTEGER NOT NULL,
			blue INTEGER NOT NULL,
			quantum INTEGER NOT NULL,
			births INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			total_energy REAL NOT NULL,
			entropy REAL NOT NULL,
			diversity REAL NOT NULL,
			fractal_dim REAL NOT NULL,
			stability TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return err
		}
	}

	a.db = db
	return nil
}

// BeginRun records a new run and returns its generated ID. Subsequent
// RecordGeneration calls attach to this run.
func (a *Archive) BeginRun(ctx context.Context, seed int64, cfgYAML []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return "", errors.New("archive not initialized")
	}

	id := uuid.NewString()
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, config, started_at)
		VALUES (?, ?, ?, ?)
	`, id, seed, cfgYAML, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	a.runID = id
	return id, nil
}

// RecordGeneration appends one stats row to the current run.
func (a *Archive) RecordGeneration(ctx context.Context, s GenerationStats) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return errors.New("archive not initialized")
	}
	if a.runID == "" {
		return errors.New("archive: BeginRun not called")
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, red, green, blue, quantum,
			births, deaths, total_energy, entropy, diversity,
			fractal_dim, stability
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.runID, s.Generation, s.Red, s.Green, s.Blue, s.Quantum,
		s.Births, s.Deaths, s.TotalEnergy, s.Entropy, s.Diversity,
		s.FractalDim, string(s.Stability))
	return err
}

// Close releases the database handle.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
