package simulation

import (
	"github.com/mmporong/CatRace/internal/geom"
	"github.com/mmporong/CatRace/internal/shared/types"
	"github.com/mmporong/CatRace/internal/track"
)

// Progress is the lap and standings record of one agent.
type Progress struct {
	AgentID         string
	Name            string
	Lap             int
	TrackedWaypoint int
	LapProgress     float64
	TotalProgress   float64
	Distance        float64
	LapTime         float64
	TotalTime       float64
	Finished        bool
	Rank            int

	lastPos geom.Vec2
	sampled bool
}

// progressUpdate reports the edges crossed by one sample.
type progressUpdate struct {
	lapCompleted bool
	finished     bool
}

// Reset zeroes the record and takes pos as the first sample.
func (p *Progress) Reset(pos geom.Vec2) {
	*p = Progress{AgentID: p.AgentID, Name: p.Name, Rank: p.Rank, lastPos: pos, sampled: true}
}

// Update samples pos after dt seconds. The tracked waypoint only moves
// forward; it wraps to 0 only from the last waypoint, which is the lap edge.
// A finished record is frozen.
func (p *Progress) Update(pos geom.Vec2, dt float64, tr *track.Track, totalLaps int) progressUpdate {
	var out progressUpdate
	if p.Finished {
		return out
	}
	if totalLaps < 1 {
		totalLaps = 1
	}
	if p.sampled {
		p.Distance += pos.Dist(p.lastPos)
	}
	p.lastPos, p.sampled = pos, true
	p.LapTime += dt
	p.TotalTime += dt

	n := tr.Len()
	if n == 0 {
		return out
	}
	nearest := tr.NearestWaypointIndex(pos)
	switch {
	case nearest > p.TrackedWaypoint:
		p.TrackedWaypoint = nearest
	case nearest == 0 && n >= 2 && p.TrackedWaypoint == n-1:
		p.TrackedWaypoint = 0
		p.Lap++
		p.LapTime = 0
		out.lapCompleted = true
	}

	p.LapProgress = float64(p.TrackedWaypoint) / float64(n)
	p.TotalProgress = geom.Clamp((float64(p.Lap)+p.LapProgress)/float64(totalLaps), 0, 1)
	if p.Lap >= totalLaps {
		p.Finished = true
		p.TotalProgress = 1
		out.finished = true
	}
	return out
}

func (p *Progress) snapshot() types.ProgressState {
	return types.ProgressState{
		AgentID:         p.AgentID,
		Name:            p.Name,
		Rank:            p.Rank,
		Lap:             p.Lap,
		TrackedWaypoint: p.TrackedWaypoint,
		LapProgress:     p.LapProgress,
		TotalProgress:   p.TotalProgress,
		Distance:        p.Distance,
		LapTime:         p.LapTime,
		TotalTime:       p.TotalTime,
		Finished:        p.Finished,
	}
}
