package stats

import (
	"math/rand"
	"strings"
)

// Preset is a named stat template.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Stats       Stats  `json:"stats"`
}

// Catalog is an immutable list of presets, constructed once and passed to
// whoever needs template lookup.
type Catalog struct {
	presets []Preset
}

func NewCatalog(presets []Preset) *Catalog {
	c := &Catalog{presets: make([]Preset, len(presets))}
	for i, p := range presets {
		p.Stats = p.Stats.Clamped()
		c.presets[i] = p
	}
	return c
}

// DefaultCatalog holds the ten built-in cats.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Preset{
		{Name: "Speedster", Description: "famous for raw speed", Stats: Stats{18, 15, 30, 40, 35}},
		{Name: "Tank", Description: "tough and hard to tire", Stats: Stats{8, 6, 85, 30, 70}},
		{Name: "Brainy", Description: "a clever strategist", Stats: Stats{12, 10, 45, 90, 50}},
		{Name: "Power", Description: "pushes everyone aside", Stats: Stats{10, 8, 60, 35, 85}},
		{Name: "Balanced", Description: "no weak spot", Stats: Stats{12, 12, 60, 60, 60}},
		{Name: "Sprinter", Description: "explosive acceleration", Stats: Stats{14, 18, 40, 45, 40}},
		{Name: "Survivor", Description: "stamina and smarts", Stats: Stats{9, 7, 80, 75, 45}},
		{Name: "Swift", Description: "nimble on its feet", Stats: Stats{16, 16, 35, 50, 30}},
		{Name: "Smart", Description: "clever and strong", Stats: Stats{11, 9, 50, 80, 75}},
		{Name: "AllRounder", Description: "good at everything", Stats: Stats{15, 14, 70, 70, 70}},
	})
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.presets)
}

// Presets returns a copy of the catalog contents.
func (c *Catalog) Presets() []Preset {
	if c == nil {
		return nil
	}
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

// Lookup finds a preset by name, ignoring case.
func (c *Catalog) Lookup(name string) (Preset, bool) {
	if c == nil {
		return Preset{}, false
	}
	for _, p := range c.presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Random picks a preset uniformly. ok is false on an empty catalog.
func (c *Catalog) Random(rng *rand.Rand) (Preset, bool) {
	if c.Len() == 0 {
		return Preset{}, false
	}
	return c.presets[rng.Intn(len(c.presets))], true
}
