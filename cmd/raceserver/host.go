package main

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mmporong/CatRace/internal/config"
	"github.com/mmporong/CatRace/internal/shared/logger"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/simulation"
	"github.com/mmporong/CatRace/internal/stats"
)

var errUnknownAgent = errors.New("unknown agent")

// host owns the race and serializes every call into it.
type host struct {
	mu           sync.Mutex
	log          *logger.Logger
	file         config.RaceFile
	catalog      *stats.Catalog
	race         *simulation.Race
	restartDelay time.Duration
	finishedAt   time.Time
	onEvent      func(types.RaceEvent)
}

func newHost(rf config.RaceFile, cat *stats.Catalog, restartDelay time.Duration, log *logger.Logger, onEvent func(types.RaceEvent)) (*host, error) {
	if onEvent == nil {
		onEvent = func(types.RaceEvent) {}
	}
	h := &host{log: log, file: rf, catalog: cat, restartDelay: restartDelay, onEvent: onEvent}
	entries, err := rf.Entries(cat)
	if err != nil {
		return nil, errors.Wrap(err, "build roster")
	}
	h.install(entries, "")
	return h, nil
}

// install replaces the race with a fresh one and starts its countdown.
// Callers hold h.mu, or own h exclusively.
func (h *host) install(entries []simulation.Entry, raceID string) {
	if h.race != nil {
		h.race.Close()
	}
	opts := h.file.Options(h.log)
	opts.RaceID = raceID
	r := simulation.NewRace(h.file.BuildTrack(h.log), entries, opts)
	id := r.ID()
	r.Subscribe(func(e simulation.Event) {
		h.onEvent(toRaceEvent(id, e))
	})
	h.race = r
	h.finishedAt = time.Time{}
	r.StartCountdown()
	h.log.Printf("race %s installed with %d cats", id, len(r.AgentIDs()))
}

func toRaceEvent(raceID string, e simulation.Event) types.RaceEvent {
	return types.RaceEvent{
		Type:       e.Kind.String(),
		RaceID:     raceID,
		AgentID:    e.AgentID,
		Seconds:    e.Seconds,
		Lap:        e.Lap,
		Clock:      e.Clock,
		OccurredMS: time.Now().UTC().UnixMilli(),
	}
}

// tick advances the race and restarts it once the finish has been shown
// for restartDelay. A negative delay disables the restart.
func (h *host) tick(dt float64, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.race.Tick(dt)
	if h.race.State() != simulation.Finished || h.restartDelay < 0 {
		return
	}
	if h.finishedAt.IsZero() {
		h.finishedAt = now
		return
	}
	if now.Sub(h.finishedAt) >= h.restartDelay {
		h.finishedAt = time.Time{}
		h.race.Restart()
	}
}

func (h *host) snapshot() types.RaceSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.race.Snapshot()
}

func (h *host) progress(agentID string) (types.ProgressState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.race.Snapshot().Standings {
		if p.AgentID == agentID {
			return p, true
		}
	}
	return types.ProgressState{}, false
}

func (h *host) restart() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.race.State() == simulation.Racing {
		h.race.Finish()
	}
	h.finishedAt = time.Time{}
	if !h.race.Restart() {
		return h.race.StartCountdown()
	}
	return true
}

func (h *host) abort() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.race.Abort()
}

// boost applies an in-race modifier. An empty agentID falls back to the
// cat owned by playerID.
func (h *host) boost(agentID, playerID string, delta types.StatBlock) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if agentID == "" {
		for _, id := range h.race.AgentIDs() {
			if a := h.race.Agent(id); a != nil && playerID != "" && a.PlayerID == playerID {
				agentID = id
				break
			}
		}
	}
	if agentID == "" || !h.race.ApplyModifier(agentID, stats.Modifier(delta)) {
		return "", errors.Wrapf(errUnknownAgent, "boost %q", agentID)
	}
	return agentID, nil
}

// load replaces the field with a lobby assignment.
func (h *host) load(a types.RaceAssignment) error {
	if len(a.Roster) == 0 {
		return errors.New("assignment has an empty roster")
	}
	entries := make([]simulation.Entry, 0, len(a.Roster))
	for _, e := range a.Roster {
		entries = append(entries, simulation.Entry{
			Name:     e.Name,
			Preset:   e.Preset,
			PlayerID: e.PlayerID,
			IsBot:    e.IsBot,
			Stats:    stats.Stats(e.Stats).Clamped(),
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.install(entries, a.RaceID)
	return nil
}

func (h *host) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.race.Close()
}
