package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/simulation"
	"github.com/mmporong/CatRace/internal/stats"
	"github.com/mmporong/CatRace/internal/track"
)

func TestDefaultIsValidAndRaceable(t *testing.T) {
	rf := Default()
	assert.NoError(t, rf.Validate(stats.DefaultCatalog()))
	assert.Len(t, rf.Track.Waypoints, 12)

	r, err := rf.NewRace(stats.DefaultCatalog(), logger.Discard())
	assert.NoError(t, err)
	assert.Equal(t, simulation.PreRace, r.State())
	assert.Len(t, r.AgentIDs(), 6)
	assert.Equal(t, 3, r.TotalLaps())

	tr := r.Track()
	for _, id := range r.AgentIDs() {
		pos := r.Agent(id).Body.Position
		assert.Equal(t, 0, tr.NearestWaypointIndex(pos), "grid slot should sit on the first waypoint")
	}
}

func TestParseFillsDefaults(t *testing.T) {
	rf, err := Parse(strings.NewReader(`{"total_laps": 5, "roster": [{"name": "Tom", "preset": "tank"}]}`))
	assert.NoError(t, err)
	assert.Equal(t, 5, rf.TotalLaps)
	assert.Equal(t, Default().Track.Waypoints, rf.Track.Waypoints)
	assert.Equal(t, simulation.DefaultCountdownSeconds, rf.CountdownSeconds)
	assert.Len(t, rf.Roster, 1)
}

func TestParsePartialTuningKeepsDefaults(t *testing.T) {
	rf, err := Parse(strings.NewReader(`{"tuning": {"drain_rate": 8, "avoidance_weight": 0.25}}`))
	assert.NoError(t, err)

	r, err := rf.NewRace(stats.DefaultCatalog(), logger.Discard())
	assert.NoError(t, err)
	want := simulation.DefaultTuning()
	want.DrainRate = 8
	want.AvoidanceWeight = 0.25
	assert.Equal(t, want, r.Tuning())

	rf, err = Parse(strings.NewReader(`{"total_laps": 2}`))
	assert.NoError(t, err)
	r, err = rf.NewRace(stats.DefaultCatalog(), logger.Discard())
	assert.NoError(t, err)
	assert.Equal(t, simulation.DefaultTuning(), r.Tuning())
}

func TestEntriesApplyEnhancementAndCharm(t *testing.T) {
	rf := Default()
	rf.Roster = []RosterEntry{
		{
			Name:        "Tom",
			Preset:      "Tank",
			Enhancement: &EnhancementFile{Stat: "Speed", Value: 3},
			Charm:       &stats.Modifier{Strength: 4, Health: -2},
		},
		{Name: "Custom", Stats: &stats.Stats{Speed: 50, Acceleration: 0, Health: 0, Intelligence: 70, Strength: 70}},
	}
	entries, err := rf.Entries(stats.DefaultCatalog())
	assert.NoError(t, err)
	assert.Equal(t, stats.Stats{Speed: 11, Acceleration: 6, Health: 83, Intelligence: 30, Strength: 74}, entries[0].Stats)
	assert.Equal(t, "Tank", entries[0].Preset)
	assert.Equal(t, stats.Stats{Speed: 20, Acceleration: 1, Health: 1, Intelligence: 70, Strength: 70}, entries[1].Stats)
}

func TestValidateRejectsBrokenFiles(t *testing.T) {
	cat := stats.DefaultCatalog()
	cases := map[string]func(*RaceFile){
		"zero laps":      func(rf *RaceFile) { rf.TotalLaps = 0 },
		"short track":    func(rf *RaceFile) { rf.Track.Waypoints = rf.Track.Waypoints[:1] },
		"unknown preset": func(rf *RaceFile) { rf.Roster[0].Preset = "Garfield" },
		"unknown stat":   func(rf *RaceFile) { rf.Roster[0].Enhancement = &EnhancementFile{Stat: "luck", Value: 1} },
		"empty entry":    func(rf *RaceFile) { rf.Roster[0] = RosterEntry{Name: "nobody"} },
		"grid too small": func(rf *RaceFile) { rf.Grid = make([]track.Slot, 1) },
	}
	for name, mutate := range cases {
		rf := Default()
		mutate(&rf)
		assert.Error(t, rf.Validate(cat), name)
	}
}

func TestLoadWrapsErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "open race file")

	path := filepath.Join(t.TempDir(), "bad.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"laps": 3}`), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}
