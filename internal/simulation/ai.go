package simulation

import (
	"math"
	"math/rand"

	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/track"
)

// decisionContext is what one agent's decision step may read. The only write
// it performs on another agent is a buffered impulse.
type decisionContext struct {
	track     *track.Track
	neighbors *neighborIndex
	tuning    Tuning
	rng       *rand.Rand
	emit      func(Event)
}

// due advances the decision timer and reports whether a decision runs now.
func (a *Agent) due(dt, interval float64) bool {
	a.decisionTimer -= dt
	if a.decisionTimer > 0 {
		return false
	}
	a.decisionTimer += interval
	if a.decisionTimer <= 0 {
		a.decisionTimer = interval
	}
	return true
}

func (a *Agent) decide(ctx decisionContext) {
	if a.State == Recovery {
		a.recover(ctx)
		return
	}

	speed := a.desiredSpeed(ctx.rng)
	a.pickTarget(ctx.track, ctx.tuning.ReachDistance, ctx.rng)

	avoid := a.avoidance(ctx.neighbors, ctx.tuning)
	overtake := a.overtaking(ctx.neighbors, ctx.tuning)

	toTarget := a.Target.Sub(a.Body.Position).Normalize()
	final := toTarget.
		Add(avoid.Scale(ctx.tuning.AvoidanceWeight)).
		Add(overtake.Scale(ctx.tuning.OvertakeWeight)).
		Normalize()
	a.Body.SetDesired(final, speed)
}

// recover holds the agent still with its collider off until health is back
// above the recovery threshold.
func (a *Agent) recover(ctx decisionContext) {
	a.Body.SetDesired(geom.Vec2{}, 0)
	a.Body.Velocity = geom.Vec2{}
	a.Body.collider = false
	if a.HealthFraction() < ctx.tuning.RecoveryThreshold {
		return
	}
	a.State = Moving
	a.Body.collider = true
	if a.Body.restore() {
		ctx.emit(Event{Kind: EventAgentResumed, AgentID: a.ID})
	}
}

// desiredSpeed: higher intelligence dampens the random variation, higher
// acceleration widens it.
func (a *Agent) desiredSpeed(rng *rand.Rand) float64 {
	accelFactor := a.Stats.Acceleration / 10
	intelFactor := float64(a.Stats.Intelligence) / 100
	variation := (rng.Float64()*2 - 1) * accelFactor
	stability := 1 - variation*(1-intelFactor)
	return geom.Clamp(a.Body.BaseSpeed()*stability, minDesiredSpeed, maxDesiredSpeed)
}

// pickTarget follows waypoints in index order and aims at a random point of
// the targeted disk.
func (a *Agent) pickTarget(tr *track.Track, reach float64, rng *rand.Rand) {
	n := tr.Len()
	if n == 0 {
		a.Target = a.Body.Position
		return
	}
	if a.TargetWaypoint < 0 || a.TargetWaypoint >= n {
		a.TargetWaypoint = 0
	}
	wp, _ := tr.Waypoint(a.TargetWaypoint)
	if a.Body.Position.Dist(wp.Center) < reach {
		a.TargetWaypoint = (a.TargetWaypoint + 1) % n
		wp, _ = tr.Waypoint(a.TargetWaypoint)
	}
	a.Target = wp.RandomPoint(rng)
}

// avoidance averages repulsion from neighbors inside the avoidance radius and
// sets the state to Avoiding or Moving.
func (a *Agent) avoidance(ix *neighborIndex, tn Tuning) geom.Vec2 {
	hits := ix.within(a.Body.Position, tn.AvoidanceRadius, a)
	if len(hits) == 0 {
		a.State = Moving
		return geom.Vec2{}
	}
	var sum geom.Vec2
	for _, h := range hits {
		weight := (tn.AvoidanceRadius - h.dist) / tn.AvoidanceRadius
		resist := geom.Clamp(1+float64(h.agent.Stats.Strength-a.Stats.Strength)/100, 0.5, 1.5)
		sum = sum.Add(h.offset.Normalize().Scale(-weight * resist))
	}
	a.State = Avoiding
	return sum.Scale(1 / float64(len(hits)))
}

// overtaking looks for the nearest weaker agent inside the forward cone. When
// found it pushes that agent sideways and returns a bypass direction.
func (a *Agent) overtaking(ix *neighborIndex, tn Tuning) geom.Vec2 {
	fwd := a.heading()
	if fwd.IsZero() {
		return geom.Vec2{}
	}
	cosCone := math.Cos(tn.OvertakeConeDeg * math.Pi / 180)

	var best *neighbor
	for _, h := range ix.within(a.Body.Position, tn.OvertakeRadius, a) {
		if h.agent.Stats.Strength >= a.Stats.Strength {
			continue
		}
		if fwd.Dot(h.offset)/h.dist < cosCone {
			continue
		}
		if best == nil || h.dist < best.dist {
			best = &h
		}
	}
	if best == nil {
		return geom.Vec2{}
	}

	a.State = Overtaking
	side := best.offset.Normalize().Perp()
	diff := float64(a.Stats.Strength - best.agent.Stats.Strength)
	best.agent.Body.AddImpulse(side.Scale(-diff * tn.PushCoefficient))
	return side.Add(fwd.Scale(tn.OvertakeForward)).Normalize()
}

// heading is the facing used for the overtaking cone. A stationary agent
// faces its steering target.
func (a *Agent) heading() geom.Vec2 {
	if a.Body.moving {
		return a.Body.Forward()
	}
	if d := a.Target.Sub(a.Body.Position); !d.IsZero() {
		return d.Normalize()
	}
	return a.Body.Forward()
}
