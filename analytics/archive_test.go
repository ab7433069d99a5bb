package analytics

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestArchiveLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	a := NewArchive(path)

	ctx := context.Background()
	if err := a.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer a.Close()

	runID, err := a.BeginRun(ctx, 42, []byte("grid:\n  width: 10\n"))
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if runID == "" {
		t.Fatal("BeginRun returned an empty run ID")
	}

	for gen := 1; gen <= 3; gen++ {
		s := GenerationStats{
			Generation: gen,
			Red:        10,
			FractalDim: FractalDimUndefined,
			Stability:  StabilityTransitional,
		}
		if err := a.RecordGeneration(ctx, s); err != nil {
			t.Fatalf("RecordGeneration %d: %v", gen, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopening archive: %v", err)
	}
	defer db.Close()

	var rows int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations WHERE run_id = ?", runID).Scan(&rows); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if rows != 3 {
		t.Errorf("stored generations = %d, want 3", rows)
	}

	var seed int64
	if err := db.QueryRowContext(ctx, "SELECT seed FROM runs WHERE id = ?", runID).Scan(&seed); err != nil {
		t.Fatalf("reading run row: %v", err)
	}
	if seed != 42 {
		t.Errorf("stored seed = %d, want 42", seed)
	}
}

func TestArchiveRequiresInit(t *testing.T) {
	a := NewArchive(filepath.Join(t.TempDir(), "runs.db"))
	ctx := context.Background()

	if _, err := a.BeginRun(ctx, 1, nil); err == nil {
		t.Error("BeginRun succeeded before Init")
	}
	if err := a.RecordGeneration(ctx, GenerationStats{}); err == nil {
		t.Error("RecordGeneration succeeded before Init")
	}
}

func TestArchiveRequiresPath(t *testing.T) {
	a := NewArchive("")
	if err := a.Init(context.Background()); err == nil {
		t.Error("Init succeeded without a path")
	}
}
