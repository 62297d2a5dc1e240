package stats

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Enhancement is a single pre-race boost on one stat.
type Enhancement struct {
	Stat  Type `json:"stat"`
	Value int  `json:"value"`
}

// Modifier returns the enhancement as an additive delta.
func (e Enhancement) Modifier() Modifier {
	return Single(e.Stat, e.Value)
}

// Record is the serializable form of a player's chosen cat.
type Record struct {
	Name         string  `json:"name"`
	Preset       string  `json:"preset,omitempty"`
	Speed        float64 `json:"speed"`
	Acceleration float64 `json:"acceleration"`
	Health       int     `json:"health"`
	Intelligence int     `json:"intelligence"`
	Strength     int     `json:"strength"`
}

// NewRecord captures s under name.
func NewRecord(name, preset string, s Stats) Record {
	return Record{
		Name:         name,
		Preset:       preset,
		Speed:        s.Speed,
		Acceleration: s.Acceleration,
		Health:       s.Health,
		Intelligence: s.Intelligence,
		Strength:     s.Strength,
	}
}

// Stats returns the clamped template held by the record.
func (r Record) Stats() Stats {
	return Stats{
		Speed:        r.Speed,
		Acceleration: r.Acceleration,
		Health:       r.Health,
		Intelligence: r.Intelligence,
		Strength:     r.Strength,
	}.Clamped()
}

func SaveRecord(w io.Writer, rec Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return errors.Wrapf(err, "save stat record %q", rec.Name)
	}
	return nil
}

func LoadRecord(r io.Reader) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, errors.Wrap(err, "load stat record")
	}
	if rec.Name == "" {
		return Record{}, errors.New("load stat record: missing name")
	}
	return rec, nil
}
