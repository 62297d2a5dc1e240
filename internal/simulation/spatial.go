package simulation

import (
	"github.com/dhconnelly/rtreego"

	"github.com/mmporong/CatRace/internal/geom"
)

const pointHalfSize = 0.005

// spatialAgent adapts an agent to the r-tree. The position is frozen at index
// build time so a rebuilt tree always matches the frame it was built from.
type spatialAgent struct {
	agent *Agent
	pos   geom.Vec2
	rect  rtreego.Rect
}

func (s *spatialAgent) Bounds() rtreego.Rect {
	return s.rect
}

// neighborIndex answers radius queries over the agents with an active
// collider. It is rebuilt once per tick, before any decisions run.
type neighborIndex struct {
	tree *rtreego.Rtree
}

func buildNeighborIndex(agents []*Agent) *neighborIndex {
	spatials := make([]rtreego.Spatial, 0, len(agents))
	for _, a := range agents {
		if a == nil || !a.Body.collider {
			continue
		}
		p := a.Body.Position
		rect, err := rtreego.NewRect(rtreego.Point{p.X - pointHalfSize, p.Y - pointHalfSize}, []float64{2 * pointHalfSize, 2 * pointHalfSize})
		if err != nil {
			continue
		}
		spatials = append(spatials, &spatialAgent{agent: a, pos: p, rect: rect})
	}
	return &neighborIndex{tree: rtreego.NewTree(2, 25, 50, spatials...)}
}

// neighbor is one query hit with its offset from the query center.
type neighbor struct {
	agent  *Agent
	offset geom.Vec2 // neighbor position minus query center
	dist   float64
}

// within returns every indexed agent other than self strictly closer than
// radius to center. Coincident agents are skipped since they give no direction.
func (ix *neighborIndex) within(center geom.Vec2, radius float64, self *Agent) []neighbor {
	if ix == nil || ix.tree == nil || radius <= 0 {
		return nil
	}
	bb, err := rtreego.NewRect(rtreego.Point{center.X - radius, center.Y - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return nil
	}
	var out []neighbor
	for _, s := range ix.tree.SearchIntersect(bb) {
		sa, ok := s.(*spatialAgent)
		if !ok || sa.agent == self {
			continue
		}
		off := sa.pos.Sub(center)
		d := off.Len()
		if d <= 0 || d >= radius {
			continue
		}
		out = append(out, neighbor{agent: sa.agent, offset: off, dist: d})
	}
	return out
}
