package geom

import "math"

// Vec2 is a position or direction on the race plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{X: a.X + b.X, Y: a.Y + b.Y}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{X: a.X - b.X, Y: a.Y - b.Y}
}

func (a Vec2) Scale(f float64) Vec2 {
	return Vec2{X: a.X * f, Y: a.Y * f}
}

func (a Vec2) Dot(b Vec2) float64 {
	return a.X*b.X + a.Y*b.Y
}

func (a Vec2) Len() float64 {
	return math.Hypot(a.X, a.Y)
}

func (a Vec2) Dist(b Vec2) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (a Vec2) IsZero() bool {
	return a.X == 0 && a.Y == 0
}

// Normalize returns the unit vector, or the zero vector unchanged.
func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if l > 0 {
		return Vec2{X: a.X / l, Y: a.Y / l}
	}
	return a
}

// Limit caps the magnitude at max.
func (a Vec2) Limit(max float64) Vec2 {
	if a.Dot(a) > max*max {
		return a.Normalize().Scale(max)
	}
	return a
}

// Lerp moves a toward b by t, with t clamped to [0,1].
func (a Vec2) Lerp(b Vec2, t float64) Vec2 {
	t = Clamp(t, 0, 1)
	return Vec2{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Perp is a rotated 90 degrees counter-clockwise.
func (a Vec2) Perp() Vec2 {
	return Vec2{X: -a.Y, Y: a.X}
}

// AngleDeg is the heading of a in degrees, [-180,180].
func (a Vec2) AngleDeg() float64 {
	return math.Atan2(a.Y, a.X) * 180 / math.Pi
}

// FromAngleDeg returns a vector of length r at the given heading.
func FromAngleDeg(deg, r float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{X: math.Cos(rad) * r, Y: math.Sin(rad) * r}
}

func Clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// NormalizeDeg wraps d into [0,360).
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// NormalizeSignedDeg wraps d into (-180,180].
func NormalizeSignedDeg(d float64) float64 {
	d = NormalizeDeg(d)
	if d > 180 {
		d -= 360
	}
	return d
}
