package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmporong/CatRace/internal/stats"
)

func TestRunPrintsStandingsAndSavesWinner(t *testing.T) {
	var out bytes.Buffer
	record := filepath.Join(t.TempDir(), "winner.json")
	err := run(options{laps: 1, dt: 1.0 / 30, maxSeconds: 600, quiet: true, recordPath: record}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Standings") {
		t.Fatalf("expected standings table, got:\n%s", out.String())
	}
	if strings.Count(out.String(), "\n") < 8 {
		t.Fatalf("expected a row per cat, got:\n%s", out.String())
	}

	f, err := os.Open(record)
	if err != nil {
		t.Fatalf("open record: %v", err)
	}
	defer f.Close()
	rec, err := stats.LoadRecord(f)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.Name == "" {
		t.Fatal("expected a named winner")
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	if err := run(options{dt: 0}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for zero dt")
	}
	err := run(options{dt: 0.1, configPath: filepath.Join(t.TempDir(), "missing.json")}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "open race file") {
		t.Fatalf("expected wrapped open error, got=%v", err)
	}
}
