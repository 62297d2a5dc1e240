package simulation

import (
	"math/rand"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/stats"
	"github.com/mmporong/CatRace/internal/track"
)

const (
	DefaultTotalLaps        = 3
	DefaultCountdownSeconds = 3.0
	DefaultGoHoldSeconds    = 0.5
	DefaultGridSpacing      = 2.0
)

// Phase is the race lifecycle state.
type Phase int

const (
	PreRace Phase = iota
	Countdown
	Racing
	Finished
	PostRace
)

func (p Phase) String() string {
	switch p {
	case PreRace:
		return "pre_race"
	case Countdown:
		return "countdown"
	case Racing:
		return "racing"
	case Finished:
		return "finished"
	case PostRace:
		return "post_race"
	default:
		return "unknown"
	}
}

// Options configures a race. Zero values fall back to defaults; a negative
// countdown or GO hold means none. A nil Rand is seeded from Seed.
type Options struct {
	RaceID           string
	TotalLaps        int
	CountdownSeconds float64
	GoHoldSeconds    float64
	// Vary applies the once-only stat variation at race entry.
	Vary bool
	Seed int64
	Rand *rand.Rand
	// Grid overrides the slots derived from the track.
	Grid        []track.Slot
	GridSpacing float64
	Tuning      Tuning
	Log         *logger.Logger
}

// Race is the lifecycle controller. It is single-threaded: callers that drive
// it from several goroutines must serialize access.
type Race struct {
	id        string
	log       *logger.Logger
	track     *track.Track
	tuning    Tuning
	rng       *rand.Rand
	createdAt time.Time

	agents    []*Agent
	progress  []*Progress // aligned with agents, nil where the agent is nil
	standings []*Progress
	slots     []track.Slot

	phase     Phase
	clock     float64
	totalLaps int
	countSecs float64
	goHold    float64
	countdown *countdown
	tick      uint64
	closed    bool

	warnedTrack bool
	bus         Bus
}

// NewRace builds the field from entries and prepares it. tr may be nil; the
// race then runs without waypoints and every track query degrades to a no-op.
func NewRace(tr *track.Track, entries []Entry, opts Options) *Race {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	id := opts.RaceID
	if id == "" {
		id = uuid.NewV4().String()
	}
	laps := opts.TotalLaps
	if laps < 1 {
		laps = DefaultTotalLaps
	}
	countSecs := opts.CountdownSeconds
	if countSecs == 0 {
		countSecs = DefaultCountdownSeconds
	}
	hold := opts.GoHoldSeconds
	if hold == 0 {
		hold = DefaultGoHoldSeconds
	}
	spacing := opts.GridSpacing
	if spacing <= 0 {
		spacing = DefaultGridSpacing
	}

	r := &Race{
		id:        id,
		log:       log,
		track:     tr,
		tuning:    opts.Tuning.withDefaults(),
		rng:       rng,
		createdAt: time.Now().UTC(),
		totalLaps: laps,
		countSecs: countSecs,
		goHold:    hold,
	}

	for _, e := range entries {
		runtime := e.Stats.Clamped()
		if opts.Vary {
			runtime = runtime.Varied(rng)
		}
		a := newAgent(e, runtime)
		r.agents = append(r.agents, a)
		r.progress = append(r.progress, &Progress{AgentID: a.ID, Name: a.Name})
	}

	if tr.Len() == 1 {
		log.Printf("race %s: track has a single waypoint, laps can never complete", id)
	}
	r.slots = opts.Grid
	if len(r.slots) == 0 {
		if tr == nil {
			log.Printf("race %s: no track, agents keep their positions", id)
		} else {
			r.slots = tr.StartGrid(len(r.agents), spacing)
		}
	}
	r.Prepare()
	return r
}

func (r *Race) ID() string { return r.id }

func (r *Race) State() Phase { return r.phase }

// Clock is the simulated seconds elapsed while racing.
func (r *Race) Clock() float64 { return r.clock }

func (r *Race) TotalLaps() int { return r.totalLaps }

func (r *Race) Track() *track.Track { return r.track }

func (r *Race) Tuning() Tuning { return r.tuning }

// CountdownSeconds is the whole seconds left, or -1 outside the countdown.
func (r *Race) CountdownSeconds() int {
	if r.phase != Countdown || r.countdown == nil {
		return -1
	}
	return r.countdown.Seconds()
}

func (r *Race) Subscribe(fn Handler) int { return r.bus.Subscribe(fn) }

func (r *Race) Unsubscribe(id int) bool { return r.bus.Unsubscribe(id) }

func (r *Race) ClearSubscribers() { r.bus.Clear() }

// Prepare resets the field onto the start grid. Valid from any state.
func (r *Race) Prepare() {
	n := r.track.Len()
	for i, a := range r.agents {
		if a == nil {
			r.log.Printf("race %s: prepare skipped empty slot %d", r.id, i)
			continue
		}
		slot, hasSlot := track.Slot{}, i < len(r.slots)
		if hasSlot {
			slot = r.slots[i]
		} else if len(r.slots) > 0 {
			r.log.Printf("race %s: no grid slot for agent %s", r.id, a.ID)
		}
		a.reset(slot, hasSlot, n)
		if p := r.progress[i]; p != nil {
			p.Reset(a.Body.Position)
		}
	}
	r.countdown = nil
	r.phase = PreRace
	r.clock = 0
	r.standings = Rank(r.progress)
	r.publish(Event{Kind: EventPrepared})
}

// StartCountdown is valid only from PreRace or PostRace.
func (r *Race) StartCountdown() bool {
	if r.closed || (r.phase != PreRace && r.phase != PostRace) {
		return false
	}
	r.phase = Countdown
	r.countdown = newCountdown(r.countSecs, r.goHold, r.emitCountdown)
	if r.countdown.goShown && r.countdown.hold <= 0 {
		r.begin()
	}
	return true
}

// Begin cuts the countdown short and starts racing. Valid only from Countdown.
func (r *Race) Begin() bool {
	if r.phase != Countdown {
		return false
	}
	r.begin()
	return true
}

func (r *Race) begin() {
	r.countdown = nil
	r.phase = Racing
	r.clock = 0
	live := 0
	for _, a := range r.agents {
		if a != nil {
			live++
		}
	}
	k := 0
	for _, a := range r.agents {
		if a == nil {
			continue
		}
		a.Enabled = true
		// stagger first decisions across one interval
		a.decisionTimer = r.tuning.DecisionInterval * float64(k) / float64(live)
		k++
	}
	r.publish(Event{Kind: EventStarted})
}

// Finish stops every agent. Valid only from Racing, so a second call is a no-op.
func (r *Race) Finish() bool {
	if r.phase != Racing {
		return false
	}
	for _, a := range r.agents {
		if a != nil {
			a.disable()
		}
	}
	r.phase = Finished
	r.publish(Event{Kind: EventFinished, Clock: r.clock})
	return true
}

// Restart passes through PostRace, prepares and starts a new countdown. Valid
// from Finished or PostRace.
func (r *Race) Restart() bool {
	if r.closed || (r.phase != Finished && r.phase != PostRace) {
		return false
	}
	r.phase = PostRace
	r.Prepare()
	return r.StartCountdown()
}

// Abort discards any countdown or race in progress and returns to PreRace.
func (r *Race) Abort() {
	r.countdown = nil
	r.Prepare()
}

// Close disables the field and drops all subscribers. Later ticks do nothing.
func (r *Race) Close() {
	for _, a := range r.agents {
		if a != nil {
			a.disable()
		}
	}
	r.countdown = nil
	r.bus.Clear()
	r.closed = true
}

// ApplyModifier boosts one agent's runtime stats and refreshes its movement.
func (r *Race) ApplyModifier(agentID string, m stats.Modifier) bool {
	a := r.agent(agentID)
	if a == nil {
		r.log.Printf("race %s: modifier for unknown agent %q ignored", r.id, agentID)
		return false
	}
	a.Stats.ModifyRuntime(m)
	a.applyStats()
	return true
}

// Tick advances the race by dt seconds of simulated time.
func (r *Race) Tick(dt float64) {
	if r.closed || dt < 0 {
		return
	}
	r.tick++
	switch r.phase {
	case Countdown:
		if r.countdown == nil {
			r.begin()
			return
		}
		if r.countdown.advance(dt, r.emitCountdown) {
			r.begin()
		}
	case Racing:
		r.clock += dt
		r.step(dt)
	}
}

func (r *Race) step(dt float64) {
	if r.track == nil && !r.warnedTrack {
		r.log.Printf("race %s: ticking without a track", r.id)
		r.warnedTrack = true
	}

	ctx := decisionContext{
		track:     r.track,
		neighbors: buildNeighborIndex(r.agents),
		tuning:    r.tuning,
		rng:       r.rng,
		emit:      r.publish,
	}
	// decisions first, so every impulse lands before its target integrates
	for _, a := range r.agents {
		if a == nil || !a.Enabled {
			continue
		}
		if a.due(dt, r.tuning.DecisionInterval) {
			a.decide(ctx)
		}
	}
	for _, a := range r.agents {
		if a == nil || !a.Enabled {
			continue
		}
		res := a.Body.step(dt, r.tuning)
		if res.startedMoving {
			r.publish(Event{Kind: EventAgentStartedMoving, AgentID: a.ID})
		}
		a.updateStamina(dt, r.tuning, r.publish)
	}

	allFinished := true
	for i, a := range r.agents {
		p := r.progress[i]
		if a == nil || p == nil {
			continue
		}
		u := p.Update(a.Body.Position, dt, r.track, r.totalLaps)
		if u.lapCompleted {
			r.publish(Event{Kind: EventLapCompleted, AgentID: a.ID, Lap: p.Lap, Clock: r.clock})
		}
		if u.finished {
			r.publish(Event{Kind: EventAgentFinished, AgentID: a.ID, Lap: p.Lap, Clock: r.clock})
		}
		if !p.Finished {
			allFinished = false
		}
	}

	r.standings = Rank(r.progress)
	r.publish(Event{Kind: EventRankingUpdated, Clock: r.clock, Standings: r.Standings()})

	if allFinished {
		r.Finish()
	}
}

// Standings returns copies of the ranked progress records.
func (r *Race) Standings() []Progress {
	out := make([]Progress, len(r.standings))
	for i, p := range r.standings {
		out[i] = *p
	}
	return out
}

// Progress looks up one agent's record.
func (r *Race) Progress(agentID string) (Progress, bool) {
	for _, p := range r.progress {
		if p != nil && p.AgentID == agentID {
			return *p, true
		}
	}
	return Progress{}, false
}

// Agent returns the live agent, or nil. Mutating it bypasses the controller.
func (r *Race) Agent(agentID string) *Agent {
	return r.agent(agentID)
}

// AgentIDs lists the field in entry order.
func (r *Race) AgentIDs() []string {
	out := make([]string, 0, len(r.agents))
	for _, a := range r.agents {
		if a != nil {
			out = append(out, a.ID)
		}
	}
	return out
}

// Snapshot returns a deep copy of the race for replication.
func (r *Race) Snapshot() types.RaceSnapshot {
	snap := types.RaceSnapshot{
		RaceID:    r.id,
		Tick:      r.tick,
		State:     r.phase.String(),
		Clock:     r.clock,
		TotalLaps: r.totalLaps,
		Countdown: r.CountdownSeconds(),
		CreatedAt: r.createdAt,
		Agents:    make([]types.AgentState, 0, len(r.agents)),
		Standings: make([]types.ProgressState, 0, len(r.standings)),
	}
	for _, a := range r.agents {
		if a != nil {
			snap.Agents = append(snap.Agents, a.snapshot())
		}
	}
	for _, p := range r.standings {
		snap.Standings = append(snap.Standings, p.snapshot())
	}
	return snap
}

func (r *Race) agent(id string) *Agent {
	for _, a := range r.agents {
		if a != nil && a.ID == id {
			return a
		}
	}
	return nil
}

func (r *Race) emitCountdown(seconds int) {
	r.publish(Event{Kind: EventCountdownTick, Seconds: seconds})
}

func (r *Race) publish(e Event) {
	r.bus.publish(e)
}
