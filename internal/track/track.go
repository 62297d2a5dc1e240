package track

import (
	"math"
	"math/rand"

	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/shared/logger"
)

// Role is informational only; lap logic never reads it.
type Role int

const (
	RoleStart Role = iota
	RoleMiddle
	RoleEnd
)

func (r Role) String() string {
	switch r {
	case RoleStart:
		return "start"
	case RoleEnd:
		return "end"
	default:
		return "middle"
	}
}

// Waypoint is a circular acceptance zone around a fixed center.
type Waypoint struct {
	Index          int
	Role           Role
	Center         geom.Vec2
	Radius         float64
	Next           int // -1 on the last waypoint
	DistanceToNext float64
}

// PositionAtAngle returns the point at angleDeg on the disk, radius clamped
// to [0, Radius]. A negative radius selects the boundary.
func (w Waypoint) PositionAtAngle(angleDeg, radius float64) geom.Vec2 {
	if radius < 0 {
		radius = w.Radius
	}
	radius = geom.Clamp(radius, 0, w.Radius)
	return w.Center.Add(geom.FromAngleDeg(angleDeg, radius))
}

// PositionAtOffset maps a lateral offset in degrees onto the disk boundary.
func (w Waypoint) PositionAtOffset(offsetDeg float64) geom.Vec2 {
	return w.PositionAtAngle(geom.NormalizeDeg(offsetDeg+180), w.Radius)
}

// RandomPoint picks a point inside the disk, uniform in angle and radius.
func (w Waypoint) RandomPoint(rng *rand.Rand) geom.Vec2 {
	angle := rng.Float64() * 360
	radius := rng.Float64() * w.Radius
	return w.PositionAtAngle(angle, radius)
}

func (w Waypoint) Contains(p geom.Vec2) bool {
	return p.Dist(w.Center) <= w.Radius
}

// Clamp pulls p back onto the disk if it lies outside.
func (w Waypoint) Clamp(p geom.Vec2) geom.Vec2 {
	offset := p.Sub(w.Center)
	d := offset.Len()
	if d <= w.Radius {
		return p
	}
	return w.Center.Add(offset.Scale(w.Radius / d))
}

// Track is an ordered closed loop of waypoints. Geometry is fixed at
// construction; all queries are read-only and safe to share between agents.
type Track struct {
	log       *logger.Logger
	width     float64
	waypoints []Waypoint
	total     float64
}

// New builds a track from authoring data. A nil logger is replaced by a
// discarding one.
func New(centers []geom.Vec2, width float64, log *logger.Logger) *Track {
	if log == nil {
		log = logger.Discard()
	}
	width = math.Max(0, width)
	t := &Track{
		log:       log,
		width:     width,
		waypoints: make([]Waypoint, len(centers)),
	}
	if len(centers) == 0 {
		log.Printf("track created without waypoints")
	}
	for i, c := range centers {
		role := RoleMiddle
		if i == 0 {
			role = RoleStart
		} else if i == len(centers)-1 {
			role = RoleEnd
		}
		next := -1
		if i < len(centers)-1 {
			next = i + 1
		}
		t.waypoints[i] = Waypoint{
			Index:  i,
			Role:   role,
			Center: c,
			Radius: width / 2,
			Next:   next,
		}
	}
	for i := 0; i < len(t.waypoints)-1; i++ {
		d := t.waypoints[i].Center.Dist(t.waypoints[i+1].Center)
		t.waypoints[i].DistanceToNext = d
		t.total += d
	}
	return t
}

func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.waypoints)
}

func (t *Track) Width() float64 {
	if t == nil {
		return 0
	}
	return t.width
}

// TotalDistance sums the segments from the first to the last waypoint.
func (t *Track) TotalDistance() float64 {
	if t == nil {
		return 0
	}
	return t.total
}

func (t *Track) Waypoint(i int) (Waypoint, bool) {
	if t == nil || i < 0 || i >= len(t.waypoints) {
		return Waypoint{}, false
	}
	return t.waypoints[i], true
}

// Waypoints returns a copy of the waypoint list.
func (t *Track) Waypoints() []Waypoint {
	if t == nil {
		return nil
	}
	out := make([]Waypoint, len(t.waypoints))
	copy(out, t.waypoints)
	return out
}

// NearestWaypointIndex scans linearly; the lowest index wins ties.
// Returns -1 when the track has no waypoints.
func (t *Track) NearestWaypointIndex(p geom.Vec2) int {
	if t == nil {
		return -1
	}
	best := -1
	bestDist := math.MaxFloat64
	for i, w := range t.waypoints {
		d := p.Dist(w.Center)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// PositionAtProgress maps a fraction of the path length to a point, offset by
// offsetDeg around the disk of the segment's starting waypoint. The offset is
// clamped to half the track width either side.
func (t *Track) PositionAtProgress(progress, offsetDeg float64) geom.Vec2 {
	if t.Len() == 0 {
		if t != nil {
			t.log.Printf("position at progress requested on empty track")
		}
		return geom.Vec2{}
	}
	offsetDeg = geom.Clamp(offsetDeg, -t.width/2, t.width/2)
	progress = geom.Clamp(progress, 0, 1)
	last := t.waypoints[len(t.waypoints)-1]
	if progress >= 1 {
		return last.PositionAtOffset(offsetDeg)
	}

	target := progress * t.total
	covered := 0.0
	for i := 0; i < len(t.waypoints)-1; i++ {
		w := t.waypoints[i]
		seg := w.DistanceToNext
		if covered+seg >= target {
			f := 0.0
			if seg > 0 {
				f = (target - covered) / seg
			}
			center := w.Center.Lerp(t.waypoints[i+1].Center, f)
			return center.Add(geom.FromAngleDeg(geom.NormalizeDeg(offsetDeg+180), w.Radius))
		}
		covered += seg
	}
	return last.PositionAtOffset(offsetDeg)
}

// ProgressAt approximates path progress of p: segments before the nearest
// waypoint plus the raw distance from that waypoint's center. This is not a
// projection onto the segment and can move backwards near sharp turns.
func (t *Track) ProgressAt(p geom.Vec2) float64 {
	if t == nil || t.total <= 0 {
		return 0
	}
	nearest := t.NearestWaypointIndex(p)
	if nearest < 0 || nearest >= len(t.waypoints)-1 {
		return 1
	}
	traveled := 0.0
	for i := 0; i < nearest; i++ {
		traveled += t.waypoints[i].DistanceToNext
	}
	w := t.waypoints[nearest]
	if w.DistanceToNext > 0 {
		traveled += w.Center.Dist(p)
	}
	return geom.Clamp(traveled/t.total, 0, 1)
}

// IsInBounds tests p against the nearest waypoint's disk only.
func (t *Track) IsInBounds(p geom.Vec2) bool {
	i := t.NearestWaypointIndex(p)
	if i < 0 {
		return false
	}
	return t.waypoints[i].Contains(p)
}

// ClampToBounds clamps p onto the nearest waypoint's disk.
func (t *Track) ClampToBounds(p geom.Vec2) geom.Vec2 {
	i := t.NearestWaypointIndex(p)
	if i < 0 {
		return p
	}
	return t.waypoints[i].Clamp(p)
}
