package config

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/simulation"
	"github.com/mmporong/CatRace/internal/stats"
	"github.com/mmporong/CatRace/internal/track"
)

const (
	defaultWidth    = 6.0
	ovalRadiusX     = 40.0
	ovalRadiusY     = 20.0
	ovalPoints      = 12
	defaultSeed     = 1
	defaultGridStep = 2.0
)

// TrackFile is the authoring data of a circuit.
type TrackFile struct {
	Width     float64     `json:"width"`
	Waypoints []geom.Vec2 `json:"waypoints"`
}

// EnhancementFile is a pre-race boost on one named stat.
type EnhancementFile struct {
	Stat  string `json:"stat"`
	Value int    `json:"value"`
}

// RosterEntry picks a cat by preset name or explicit stats.
type RosterEntry struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name"`
	PlayerID    string           `json:"player_id,omitempty"`
	IsBot       bool             `json:"is_bot,omitempty"`
	Preset      string           `json:"preset,omitempty"`
	Stats       *stats.Stats     `json:"stats,omitempty"`
	Enhancement *EnhancementFile `json:"enhancement,omitempty"`
	Charm       *stats.Modifier  `json:"charm,omitempty"`
}

// RaceFile is the on-disk race configuration.
type RaceFile struct {
	Name             string             `json:"name"`
	TotalLaps        int                `json:"total_laps"`
	CountdownSeconds float64            `json:"countdown_seconds"`
	GoHoldSeconds    float64            `json:"go_hold_seconds"`
	Seed             int64              `json:"seed"`
	Variation        bool               `json:"variation"`
	Track            TrackFile          `json:"track"`
	Grid             []track.Slot       `json:"grid,omitempty"`
	GridSpacing      float64            `json:"grid_spacing,omitempty"`
	Roster           []RosterEntry      `json:"roster"`
	Tuning           *simulation.Tuning `json:"tuning,omitempty"`
}

// OvalCircuit returns the built-in counter-clockwise oval.
func OvalCircuit() TrackFile {
	pts := make([]geom.Vec2, ovalPoints)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / ovalPoints
		pts[i] = geom.V(ovalRadiusX*math.Cos(a), ovalRadiusY*math.Sin(a))
	}
	return TrackFile{Width: defaultWidth, Waypoints: pts}
}

// Default is a three-lap race of six catalog cats on the oval.
func Default() RaceFile {
	roster := make([]RosterEntry, 0, 6)
	for _, p := range []string{"Speedster", "Tank", "Brainy", "Power", "Balanced", "Sprinter"} {
		roster = append(roster, RosterEntry{Name: p, Preset: p, IsBot: true})
	}
	return RaceFile{
		Name:             "oval",
		TotalLaps:        simulation.DefaultTotalLaps,
		CountdownSeconds: simulation.DefaultCountdownSeconds,
		GoHoldSeconds:    simulation.DefaultGoHoldSeconds,
		Seed:             defaultSeed,
		Variation:        true,
		Track:            OvalCircuit(),
		GridSpacing:      defaultGridStep,
		Roster:           roster,
	}
}

// Load reads, validates and defaults a race file.
func Load(path string) (RaceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return RaceFile{}, errors.Wrapf(err, "open race file %s", path)
	}
	defer f.Close()
	rf, err := Parse(f)
	if err != nil {
		return RaceFile{}, errors.Wrapf(err, "race file %s", path)
	}
	return rf, nil
}

// Parse decodes a race file. Omitted fields take the values of Default, and
// omitted tuning fields keep simulation.DefaultTuning.
func Parse(r io.Reader) (RaceFile, error) {
	tn := simulation.DefaultTuning()
	rf := RaceFile{Tuning: &tn}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rf); err != nil {
		return RaceFile{}, errors.Wrap(err, "decode")
	}
	rf.fillDefaults()
	if err := rf.Validate(stats.DefaultCatalog()); err != nil {
		return RaceFile{}, err
	}
	return rf, nil
}

func (rf *RaceFile) fillDefaults() {
	def := Default()
	if rf.Name == "" {
		rf.Name = def.Name
	}
	if rf.TotalLaps == 0 {
		rf.TotalLaps = def.TotalLaps
	}
	if rf.CountdownSeconds == 0 {
		rf.CountdownSeconds = def.CountdownSeconds
	}
	if rf.GoHoldSeconds == 0 {
		rf.GoHoldSeconds = def.GoHoldSeconds
	}
	if len(rf.Track.Waypoints) == 0 {
		rf.Track.Waypoints = def.Track.Waypoints
	}
	if rf.Track.Width == 0 {
		rf.Track.Width = def.Track.Width
	}
	if rf.GridSpacing == 0 {
		rf.GridSpacing = def.GridSpacing
	}
	if len(rf.Roster) == 0 {
		rf.Roster = def.Roster
	}
}

// Validate checks what clamping cannot fix: unknown presets and stat names,
// and a field that does not fit the explicit grid.
func (rf RaceFile) Validate(cat *stats.Catalog) error {
	if rf.TotalLaps < 1 {
		return errors.Errorf("total_laps must be at least 1, got %d", rf.TotalLaps)
	}
	if len(rf.Track.Waypoints) < 2 {
		return errors.Errorf("track needs at least 2 waypoints, got %d", len(rf.Track.Waypoints))
	}
	if len(rf.Grid) > 0 && len(rf.Grid) < len(rf.Roster) {
		return errors.Errorf("grid has %d slots for %d racers", len(rf.Grid), len(rf.Roster))
	}
	for i, e := range rf.Roster {
		if _, err := e.resolve(cat); err != nil {
			return errors.Wrapf(err, "roster[%d]", i)
		}
	}
	return nil
}

func (e RosterEntry) resolve(cat *stats.Catalog) (stats.Stats, error) {
	var s stats.Stats
	switch {
	case e.Stats != nil:
		s = e.Stats.Clamped()
	case e.Preset != "":
		p, ok := cat.Lookup(e.Preset)
		if !ok {
			return stats.Stats{}, errors.Errorf("unknown preset %q", e.Preset)
		}
		s = p.Stats
	default:
		return stats.Stats{}, errors.New("entry needs a preset or stats")
	}
	if e.Enhancement != nil {
		t, ok := stats.ParseType(e.Enhancement.Stat)
		if !ok {
			return stats.Stats{}, errors.Errorf("unknown stat %q", e.Enhancement.Stat)
		}
		s.Modify(stats.Enhancement{Stat: t, Value: e.Enhancement.Value}.Modifier())
	}
	if e.Charm != nil {
		s.Modify(*e.Charm)
	}
	return s, nil
}

// Entries resolves the roster against cat.
func (rf RaceFile) Entries(cat *stats.Catalog) ([]simulation.Entry, error) {
	out := make([]simulation.Entry, 0, len(rf.Roster))
	for i, e := range rf.Roster {
		s, err := e.resolve(cat)
		if err != nil {
			return nil, errors.Wrapf(err, "roster[%d]", i)
		}
		name := e.Name
		if name == "" {
			name = e.Preset
		}
		out = append(out, simulation.Entry{
			ID:       e.ID,
			Name:     name,
			Preset:   strings.TrimSpace(e.Preset),
			PlayerID: e.PlayerID,
			IsBot:    e.IsBot,
			Stats:    s,
		})
	}
	return out, nil
}

func (rf RaceFile) BuildTrack(log *logger.Logger) *track.Track {
	return track.New(rf.Track.Waypoints, rf.Track.Width, log)
}

func (rf RaceFile) Options(log *logger.Logger) simulation.Options {
	opts := simulation.Options{
		TotalLaps:        rf.TotalLaps,
		CountdownSeconds: rf.CountdownSeconds,
		GoHoldSeconds:    rf.GoHoldSeconds,
		Vary:             rf.Variation,
		Seed:             rf.Seed,
		Grid:             rf.Grid,
		GridSpacing:      rf.GridSpacing,
		Log:              log,
	}
	if rf.Tuning != nil {
		opts.Tuning = *rf.Tuning
	}
	return opts
}

// NewRace builds a prepared race from the file.
func (rf RaceFile) NewRace(cat *stats.Catalog, log *logger.Logger) (*simulation.Race, error) {
	entries, err := rf.Entries(cat)
	if err != nil {
		return nil, err
	}
	return simulation.NewRace(rf.BuildTrack(log), entries, rf.Options(log)), nil
}
