package stats

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

const (
	MinSpeed, MaxSpeed               = 1.0, 20.0
	MinAcceleration, MaxAcceleration = 1.0, 20.0
	MinHealth, MaxHealth             = 1, 100
	MinIntelligence, MaxIntelligence = 1, 100
	MinStrength, MaxStrength         = 1, 100

	// Runtime health may be drained all the way to zero.
	MinRuntimeHealth = 0

	variationSpan = 0.2
)

// Type names one of the five stats.
type Type int

const (
	Speed Type = iota
	Acceleration
	Health
	Intelligence
	Strength
)

// AllTypes lists every stat in declaration order.
var AllTypes = []Type{Speed, Acceleration, Health, Intelligence, Strength}

func (t Type) String() string {
	switch t {
	case Speed:
		return "speed"
	case Acceleration:
		return "acceleration"
	case Health:
		return "health"
	case Intelligence:
		return "intelligence"
	case Strength:
		return "strength"
	default:
		return fmt.Sprintf("stat(%d)", int(t))
	}
}

// ParseType is the inverse of String, case-insensitive.
func ParseType(s string) (Type, bool) {
	for _, t := range AllTypes {
		if strings.EqualFold(s, t.String()) {
			return t, true
		}
	}
	return 0, false
}

// Stats holds the five agent attributes. The same struct serves as a template
// and as the runtime instance; only the health floor differs.
type Stats struct {
	Speed        float64 `json:"speed"`
	Acceleration float64 `json:"acceleration"`
	Health       int     `json:"health"`
	Intelligence int     `json:"intelligence"`
	Strength     int     `json:"strength"`
}

// Modifier is a set of additive deltas, as produced by enhancements and charms.
type Modifier struct {
	Speed        float64 `json:"speed,omitempty"`
	Acceleration float64 `json:"acceleration,omitempty"`
	Health       int     `json:"health,omitempty"`
	Intelligence int     `json:"intelligence,omitempty"`
	Strength     int     `json:"strength,omitempty"`
}

// Single builds a modifier that touches one stat.
func Single(t Type, value int) Modifier {
	var m Modifier
	switch t {
	case Speed:
		m.Speed = float64(value)
	case Acceleration:
		m.Acceleration = float64(value)
	case Health:
		m.Health = value
	case Intelligence:
		m.Intelligence = value
	case Strength:
		m.Strength = value
	}
	return m
}

// Get reads one delta as a float.
func (m Modifier) Get(t Type) float64 {
	return Stats(m).Get(t)
}

func (m Modifier) IsZero() bool {
	return m == Modifier{}
}

// Add combines two modifiers.
func (m Modifier) Add(o Modifier) Modifier {
	return Modifier{
		Speed:        m.Speed + o.Speed,
		Acceleration: m.Acceleration + o.Acceleration,
		Health:       m.Health + o.Health,
		Intelligence: m.Intelligence + o.Intelligence,
		Strength:     m.Strength + o.Strength,
	}
}

// Clamped returns s with every stat inside the template range.
func (s Stats) Clamped() Stats {
	return s.clamp(MinHealth)
}

func (s Stats) clamp(minHealth int) Stats {
	return Stats{
		Speed:        clampF(s.Speed, MinSpeed, MaxSpeed),
		Acceleration: clampF(s.Acceleration, MinAcceleration, MaxAcceleration),
		Health:       clampI(s.Health, minHealth, MaxHealth),
		Intelligence: clampI(s.Intelligence, MinIntelligence, MaxIntelligence),
		Strength:     clampI(s.Strength, MinStrength, MaxStrength),
	}
}

// Modify applies m to a template; health stays in [1,100].
func (s *Stats) Modify(m Modifier) {
	*s = s.applied(m).clamp(MinHealth)
}

// ModifyRuntime applies m to a runtime instance; health stays in [0,100].
func (s *Stats) ModifyRuntime(m Modifier) {
	*s = s.applied(m).clamp(MinRuntimeHealth)
}

func (s Stats) applied(m Modifier) Stats {
	return Stats{
		Speed:        s.Speed + m.Speed,
		Acceleration: s.Acceleration + m.Acceleration,
		Health:       s.Health + m.Health,
		Intelligence: s.Intelligence + m.Intelligence,
		Strength:     s.Strength + m.Strength,
	}
}

// Set assigns one stat on a template. Integer stats truncate value.
func (s *Stats) Set(t Type, value float64) {
	s.set(t, value, MinHealth)
}

// SetRuntime assigns one stat on a runtime instance.
func (s *Stats) SetRuntime(t Type, value float64) {
	s.set(t, value, MinRuntimeHealth)
}

func (s *Stats) set(t Type, value float64, minHealth int) {
	switch t {
	case Speed:
		s.Speed = clampF(value, MinSpeed, MaxSpeed)
	case Acceleration:
		s.Acceleration = clampF(value, MinAcceleration, MaxAcceleration)
	case Health:
		s.Health = clampI(int(value), minHealth, MaxHealth)
	case Intelligence:
		s.Intelligence = clampI(int(value), MinIntelligence, MaxIntelligence)
	case Strength:
		s.Strength = clampI(int(value), MinStrength, MaxStrength)
	}
}

// Get reads one stat as a float.
func (s Stats) Get(t Type) float64 {
	switch t {
	case Speed:
		return s.Speed
	case Acceleration:
		return s.Acceleration
	case Health:
		return float64(s.Health)
	case Intelligence:
		return float64(s.Intelligence)
	case Strength:
		return float64(s.Strength)
	}
	return 0
}

func (s Stats) Total() float64 {
	return s.Speed + s.Acceleration + float64(s.Health) + float64(s.Intelligence) + float64(s.Strength)
}

// Varied perturbs every stat by an independent factor in [-20%, +20%),
// rounding integer stats, then clamps into the template range.
func (s Stats) Varied(rng *rand.Rand) Stats {
	f := func() float64 { return 1 + (rng.Float64()*2-1)*variationSpan }
	return Stats{
		Speed:        s.Speed * f(),
		Acceleration: s.Acceleration * f(),
		Health:       int(math.Round(float64(s.Health) * f())),
		Intelligence: int(math.Round(float64(s.Intelligence) * f())),
		Strength:     int(math.Round(float64(s.Strength) * f())),
	}.Clamped()
}

func (s Stats) String() string {
	return fmt.Sprintf("speed=%.1f accel=%.1f health=%d int=%d str=%d",
		s.Speed, s.Acceleration, s.Health, s.Intelligence, s.Strength)
}

func clampF(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func clampI(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
