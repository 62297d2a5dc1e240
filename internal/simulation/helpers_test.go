package simulation

import (
	"math/rand"

	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/stats"
	"github.com/mmporong/CatRace/internal/track"
)

func squareTrack(side, width float64) *track.Track {
	return track.New([]geom.Vec2{
		geom.V(0, 0), geom.V(side, 0), geom.V(side, side), geom.V(0, side),
	}, width, nil)
}

func balanced() stats.Stats {
	return stats.Stats{Speed: 12, Acceleration: 12, Health: 60, Intelligence: 60, Strength: 60}
}

func entry(id string, s stats.Stats) Entry {
	return Entry{ID: id, Name: id, Stats: s}
}

func testOptions() Options {
	return Options{RaceID: "test", TotalLaps: 1, Rand: rand.New(rand.NewSource(42))}
}

// ctxFor builds a decision context from the race's current frame.
func ctxFor(r *Race) decisionContext {
	return decisionContext{
		track:     r.track,
		neighbors: buildNeighborIndex(r.agents),
		tuning:    r.tuning,
		rng:       r.rng,
		emit:      r.publish,
	}
}

// racing puts r straight into the Racing phase.
func racing(r *Race) {
	r.StartCountdown()
	r.Begin()
}

func runFor(r *Race, seconds, dt float64) {
	for elapsed := 0.0; elapsed < seconds; elapsed += dt {
		r.Tick(dt)
	}
}
