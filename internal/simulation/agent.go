package simulation

import (
	uuid "github.com/satori/go.uuid"

	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/stats"
	"github.com/mmporong/CatRace/internal/track"
)

// AIState is the per-agent steering mode.
type AIState int

const (
	Moving AIState = iota
	Avoiding
	Overtaking
	Defending // reserved, no transition enters it
	Recovery
)

func (s AIState) String() string {
	switch s {
	case Moving:
		return "moving"
	case Avoiding:
		return "avoiding"
	case Overtaking:
		return "overtaking"
	case Defending:
		return "defending"
	case Recovery:
		return "recovery"
	default:
		return "unknown"
	}
}

// Entry binds one racer to its stat template.
type Entry struct {
	ID       string // generated when empty
	Name     string
	Preset   string
	PlayerID string
	IsBot    bool
	Stats    stats.Stats
}

// Agent is one cat at runtime.
type Agent struct {
	ID       string
	Name     string
	Preset   string
	PlayerID string
	IsBot    bool

	// Template is the clamped base; its health is the agent's max health.
	Template stats.Stats
	// Stats is the runtime instance, mutated by boosts and stamina.
	Stats stats.Stats
	entry stats.Stats

	Body           Body
	State          AIState
	Target         geom.Vec2
	TargetWaypoint int
	Enabled        bool

	drainAcc      float64
	recoverAcc    float64
	decisionTimer float64
}

func newAgent(e Entry, runtime stats.Stats) *Agent {
	id := e.ID
	if id == "" {
		id = uuid.NewV4().String()
	}
	tmpl := e.Stats.Clamped()
	return &Agent{
		ID:       id,
		Name:     e.Name,
		Preset:   e.Preset,
		PlayerID: e.PlayerID,
		IsBot:    e.IsBot,
		Template: tmpl,
		Stats:    runtime,
		entry:    runtime,
	}
}

func (a *Agent) MaxHealth() int {
	return a.Template.Health
}

// HealthFraction is runtime health over max health.
func (a *Agent) HealthFraction() float64 {
	if a.MaxHealth() <= 0 {
		return 0
	}
	return float64(a.Stats.Health) / float64(a.MaxHealth())
}

func (a *Agent) Exhausted() bool {
	return a.Body.exhausted
}

// applyStats pushes the runtime stats into the movement body.
func (a *Agent) applyStats() {
	a.Body.ApplyStats(a.Stats, a.MaxHealth())
}

// reset returns the agent to its race-entry condition at slot.
func (a *Agent) reset(slot track.Slot, hasSlot bool, trackLen int) {
	a.Enabled = false
	a.Body.Stop()
	a.Body.restore()
	a.Stats = a.entry
	a.applyStats()
	a.Body.collider = true
	a.State = Moving
	a.drainAcc, a.recoverAcc = 0, 0
	a.decisionTimer = 0
	if hasSlot {
		a.Body.Teleport(slot.Position, slot.HeadingDeg)
	}
	a.Target = a.Body.Position
	a.TargetWaypoint = 0
	if trackLen > 1 {
		a.TargetWaypoint = 1
	}
}

// disable stops the agent in place and turns off its AI and integration.
func (a *Agent) disable() {
	a.Enabled = false
	a.Body.Stop()
}

func (a *Agent) snapshot() types.AgentState {
	return types.AgentState{
		AgentID:        a.ID,
		Name:           a.Name,
		Preset:         a.Preset,
		PlayerID:       a.PlayerID,
		IsBot:          a.IsBot,
		Position:       types.Vec2{X: a.Body.Position.X, Y: a.Body.Position.Y},
		Velocity:       types.Vec2{X: a.Body.Velocity.X, Y: a.Body.Velocity.Y},
		HeadingDeg:     a.Body.HeadingDeg,
		AIState:        a.State.String(),
		Moving:         a.Body.moving,
		Exhausted:      a.Body.exhausted,
		Enabled:        a.Enabled,
		Health:         a.Stats.Health,
		MaxHealth:      a.MaxHealth(),
		TargetWaypoint: a.TargetWaypoint,
		Stats:          types.StatBlock(a.Stats),
	}
}
