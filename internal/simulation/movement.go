package simulation

import (
	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/stats"
)

const (
	baseSpeedFactor     = 5.0
	strengthSpeedBonus  = 0.5
	rotationFactor      = 10.0
	maxVelocityAtFull   = 15.0
	minDesiredSpeed     = stats.MinSpeed
	maxDesiredSpeed     = stats.MaxSpeed
	impulseSettleThresh = 1e-9
)

// Body is the explicit 2D movement state of one agent. It is integrated once
// per simulation frame, independently of the AI decision cadence.
type Body struct {
	Position   geom.Vec2
	Velocity   geom.Vec2
	HeadingDeg float64

	direction    geom.Vec2
	desiredSpeed float64

	baseSpeed     float64 // resting speed derived from stats
	originalSpeed float64 // resting speed saved on exhaustion
	rotationSpeed float64
	maxVelocity   float64

	exhausted bool
	moving    bool
	collider  bool

	pending     geom.Vec2
	lastImpulse geom.Vec2
}

// stepResult reports one-shot signals produced by an integration step.
type stepResult struct {
	startedMoving bool
}

// BaseSpeed is the resting move speed, used by the AI as its speed baseline.
func (b *Body) BaseSpeed() float64 { return b.baseSpeed }

func (b *Body) MaxVelocity() float64 { return b.maxVelocity }

func (b *Body) RotationSpeed() float64 { return b.rotationSpeed }

func (b *Body) Exhausted() bool { return b.exhausted }

func (b *Body) Moving() bool { return b.moving }

func (b *Body) Collider() bool { return b.collider }

// DesiredSpeed is the speed last requested by the AI.
func (b *Body) DesiredSpeed() float64 { return b.desiredSpeed }

// LastImpulse is the most recent cross-agent push applied to this body.
func (b *Body) LastImpulse() geom.Vec2 { return b.lastImpulse }

// ApplyStats recomputes speed, turn rate and velocity cap. The resting speed
// is left alone while exhausted.
func (b *Body) ApplyStats(s stats.Stats, maxHealth int) {
	base := baseSpeedFactor * s.Speed / 10 * (1 + float64(s.Strength)/100*strengthSpeedBonus)
	b.rotationSpeed = rotationFactor * s.Acceleration / 10
	b.maxVelocity = maxVelocityAtFull * float64(maxHealth) / 100
	if !b.exhausted {
		b.baseSpeed = base
	}
}

// SetDesired hands the AI's steering decision to the integrator. speed is
// clamped to [1,20]; a zero direction means "come to rest".
func (b *Body) SetDesired(direction geom.Vec2, speed float64) {
	b.direction = direction
	b.desiredSpeed = geom.Clamp(speed, minDesiredSpeed, maxDesiredSpeed)
}

// Stop zeroes velocity and any pending steering or impulse.
func (b *Body) Stop() {
	b.Velocity = geom.Vec2{}
	b.direction = geom.Vec2{}
	b.desiredSpeed = 0
	b.pending = geom.Vec2{}
	b.moving = false
}

// Teleport places the body without integrating.
func (b *Body) Teleport(pos geom.Vec2, headingDeg float64) {
	b.Position = pos
	b.HeadingDeg = geom.NormalizeDeg(headingDeg)
}

// AddImpulse buffers a push from another agent. It is folded into velocity at
// the start of this body's next integration step.
func (b *Body) AddImpulse(v geom.Vec2) {
	b.pending = b.pending.Add(v)
}

// exhaust scales the resting speed by factor and remembers the original.
func (b *Body) exhaust(factor float64) {
	if b.exhausted {
		return
	}
	b.exhausted = true
	b.originalSpeed = b.baseSpeed
	b.baseSpeed *= factor
}

// restore undoes exhaust. It reports whether anything changed.
func (b *Body) restore() bool {
	if !b.exhausted {
		return false
	}
	b.exhausted = false
	b.baseSpeed = b.originalSpeed
	return true
}

// Forward is the unit vector along the current heading.
func (b *Body) Forward() geom.Vec2 {
	return geom.FromAngleDeg(b.HeadingDeg, 1)
}

func (b *Body) step(dt float64, tn Tuning) stepResult {
	if p := b.pending; p.Len() > impulseSettleThresh {
		b.Velocity = b.Velocity.Add(p)
		b.lastImpulse = p
		b.pending = geom.Vec2{}
	}

	if b.direction.Len() > tn.DirectionEpsilon {
		target := b.direction.Normalize().Scale(b.desiredSpeed)
		b.Velocity = b.Velocity.Lerp(target, dt*tn.BlendRate)
	} else {
		b.Velocity = b.Velocity.Lerp(geom.Vec2{}, dt*tn.DecayRate)
	}
	b.Velocity = b.Velocity.Limit(b.maxVelocity)
	b.Position = b.Position.Add(b.Velocity.Scale(dt))

	speed := b.Velocity.Len()
	if speed > tn.MovingEpsilon {
		diff := geom.NormalizeSignedDeg(b.Velocity.AngleDeg() - b.HeadingDeg)
		turn := geom.Clamp(b.rotationSpeed*dt, 0, 1)
		b.HeadingDeg = geom.NormalizeDeg(b.HeadingDeg + diff*turn)
	}

	was := b.moving
	b.moving = speed > tn.MovingEpsilon
	return stepResult{startedMoving: b.moving && !was}
}
