package simulation

// EventKind enumerates the signals published by a race.
type EventKind int

const (
	EventPrepared EventKind = iota
	EventCountdownTick
	EventStarted
	EventFinished
	EventLapCompleted
	EventRankingUpdated
	EventAgentStartedMoving
	EventAgentExhausted
	EventAgentResumed
	EventAgentFinished
)

func (k EventKind) String() string {
	switch k {
	case EventPrepared:
		return "prepared"
	case EventCountdownTick:
		return "countdown_tick"
	case EventStarted:
		return "started"
	case EventFinished:
		return "finished"
	case EventLapCompleted:
		return "lap_completed"
	case EventRankingUpdated:
		return "ranking_updated"
	case EventAgentStartedMoving:
		return "agent_started_moving"
	case EventAgentExhausted:
		return "agent_exhausted"
	case EventAgentResumed:
		return "agent_resumed"
	case EventAgentFinished:
		return "agent_finished"
	default:
		return "unknown"
	}
}

// Event is one published signal. Only the fields relevant to Kind are set.
type Event struct {
	Kind    EventKind
	AgentID string
	Seconds int // countdown ticks; 0 is GO
	Lap     int
	Clock   float64
	// Standings is a copy, set on EventRankingUpdated.
	Standings []Progress
}

// Handler receives events synchronously from inside Tick and the lifecycle
// calls. It must not call back into the race.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is an explicit callback list.
type Bus struct {
	nextID int
	subs   []subscription
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (b *Bus) Subscribe(fn Handler) int {
	if fn == nil {
		return 0
	}
	b.nextID++
	b.subs = append(b.subs, subscription{id: b.nextID, fn: fn})
	return b.nextID
}

func (b *Bus) Unsubscribe(id int) bool {
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every subscriber.
func (b *Bus) Clear() {
	b.subs = nil
}

func (b *Bus) Len() int {
	return len(b.subs)
}

func (b *Bus) publish(e Event) {
	for _, s := range b.subs {
		s.fn(e)
	}
}
