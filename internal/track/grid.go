package track

import "github.com/mmporong/CatRace/internal/geom"

// Slot is one start-grid position.
type Slot struct {
	Position   geom.Vec2 `json:"position"`
	HeadingDeg float64   `json:"heading_deg"`
}

// StartGrid lays out n slots two abreast, starting at the first waypoint and
// stepping forward along the first segment. Slots stay ahead of waypoint 0 so
// the nearest-waypoint lookup never lands on the closing segment at the start.
func (t *Track) StartGrid(n int, spacing float64) []Slot {
	if n <= 0 || t.Len() == 0 {
		return nil
	}
	if spacing <= 0 {
		spacing = 1
	}
	start := t.waypoints[0]
	fwd := geom.V(1, 0)
	if len(t.waypoints) > 1 {
		if d := t.waypoints[1].Center.Sub(start.Center); !d.IsZero() {
			fwd = d.Normalize()
		}
	}
	side := fwd.Perp()
	lane := start.Radius / 2
	heading := fwd.AngleDeg()

	slots := make([]Slot, n)
	for i := range slots {
		row := float64(i / 2)
		offset := -lane
		if i%2 == 1 {
			offset = lane
		}
		slots[i] = Slot{
			Position:   start.Center.Add(fwd.Scale(row * spacing)).Add(side.Scale(offset)),
			HeadingDeg: heading,
		}
	}
	return slots
}
