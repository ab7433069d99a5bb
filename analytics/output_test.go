package analytics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/quantumlife/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}

	// The nil manager is safe to use everywhere.
	if err := om.WriteStats(GenerationStats{}); err != nil {
		t.Errorf("nil WriteStats: %v", err)
	}
	if err := om.WriteConfig(&config.Config{}); err != nil {
		t.Errorf("nil WriteConfig: %v", err)
	}
	if om.Dir() != "" {
		t.Errorf("nil Dir = %q, want empty", om.Dir())
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestOutputManagerWritesStats(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	stats := GenerationStats{Generation: 1, Red: 10, TotalPopulation: 10, Stability: StabilityTransitional, FractalDim: FractalDimUndefined}
	if err := om.WriteStats(stats); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	stats.Generation = 2
	if err := om.WriteStats(stats); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatalf("reading stats.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("stats.csv has %d lines, want header plus 2 records", len(lines))
	}
	if !strings.HasPrefix(lines[0], "generation,") {
		t.Errorf("header = %q, want it to start with generation", lines[0])
	}
	if !strings.Contains(lines[1], "transitional") {
		t.Errorf("record %q missing stability label", lines[1])
	}
	if strings.HasPrefix(lines[2], "generation,") {
		t.Error("second record repeated the CSV header")
	}
}

func TestOutputManagerWritesConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default config: %v", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("reading config.yaml: %v", err)
	}
	if !strings.Contains(string(data), "width: 120") {
		t.Error("config.yaml missing grid settings")
	}
}
