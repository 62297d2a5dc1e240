package track

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmporong/CatRace/internal/geom"
)

func square() *Track {
	return New([]geom.Vec2{geom.V(0, 0), geom.V(10, 0), geom.V(10, 10), geom.V(0, 10)}, 4, nil)
}

func TestConnectivityAssignedOnce(t *testing.T) {
	tr := square()
	wps := tr.Waypoints()
	assert.Len(t, wps, 4)
	assert.Equal(t, RoleStart, wps[0].Role)
	assert.Equal(t, RoleMiddle, wps[1].Role)
	assert.Equal(t, RoleMiddle, wps[2].Role)
	assert.Equal(t, RoleEnd, wps[3].Role)
	assert.Equal(t, 1, wps[0].Next)
	assert.Equal(t, -1, wps[3].Next)
	assert.InDelta(t, 10, wps[0].DistanceToNext, 1e-9)
	assert.InDelta(t, 0, wps[3].DistanceToNext, 1e-9)
	assert.InDelta(t, 30, tr.TotalDistance(), 1e-9)
	assert.InDelta(t, 2, wps[1].Radius, 1e-9)
}

func TestNearestWaypointLowestIndexWinsTies(t *testing.T) {
	tr := square()
	assert.Equal(t, 0, tr.NearestWaypointIndex(geom.V(5, 0)))
	assert.Equal(t, 1, tr.NearestWaypointIndex(geom.V(9, 0)))
	assert.Equal(t, 3, tr.NearestWaypointIndex(geom.V(0, 9)))
	assert.Equal(t, -1, New(nil, 4, nil).NearestWaypointIndex(geom.V(1, 1)))
}

func TestProgressAtAddsRawDistanceFromNearest(t *testing.T) {
	tr := square()
	cases := []struct {
		name string
		pos  geom.Vec2
		want float64
	}{
		{"at start", geom.V(0, 0), 0},
		{"near start", geom.V(3, 0), 3.0 / 30},
		{"off-axis uses raw distance", geom.V(10, 3), (10 + 3) / 30.0},
		{"last waypoint pins to one", geom.V(0, 10), 1},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, tr.ProgressAt(c.pos), 1e-9, c.name)
	}
	assert.Equal(t, 0.0, New(nil, 4, nil).ProgressAt(geom.V(1, 1)))
	var missing *Track
	assert.Equal(t, 0.0, missing.ProgressAt(geom.V(1, 1)))
}

func TestPositionAtProgressWalksSegments(t *testing.T) {
	tr := square()
	// offset 0 maps to angle 180, i.e. -x on the disk boundary
	p := tr.PositionAtProgress(0.5, 0)
	assert.InDelta(t, 8, p.X, 1e-9)
	assert.InDelta(t, 5, p.Y, 1e-9)

	end := tr.PositionAtProgress(1.5, 0)
	assert.InDelta(t, -2, end.X, 1e-9)
	assert.InDelta(t, 10, end.Y, 1e-9)

	assert.Equal(t, geom.Vec2{}, New(nil, 4, nil).PositionAtProgress(0.3, 0))
}

func TestPositionAtProgressClampsOffsetToWidth(t *testing.T) {
	tr := square()
	for _, progress := range []float64{0, 0.5, 1} {
		assert.Equal(t, tr.PositionAtProgress(progress, 2), tr.PositionAtProgress(progress, 90))
		assert.Equal(t, tr.PositionAtProgress(progress, -2), tr.PositionAtProgress(progress, -400))
	}
	assert.NotEqual(t, tr.PositionAtProgress(0, 2), tr.PositionAtProgress(0, -2))

	flat := New([]geom.Vec2{geom.V(0, 0), geom.V(10, 0)}, 0, nil)
	assert.Equal(t, flat.PositionAtProgress(0.5, 0), flat.PositionAtProgress(0.5, 30))
}

func TestPositionAtProgressSingleWaypoint(t *testing.T) {
	tr := New([]geom.Vec2{geom.V(5, 5)}, 2, nil)
	p := tr.PositionAtProgress(0.2, 0)
	assert.False(t, math.IsNaN(p.X))
	assert.InDelta(t, 4, p.X, 1e-9)
	assert.InDelta(t, 5, p.Y, 1e-9)
}

func TestBoundsUseNearestDiskOnly(t *testing.T) {
	tr := square()
	assert.True(t, tr.IsInBounds(geom.V(1, 1)))
	assert.False(t, tr.IsInBounds(geom.V(5, 0)))

	c := tr.ClampToBounds(geom.V(4, 0))
	assert.InDelta(t, 2, c.X, 1e-9)
	assert.InDelta(t, 0, c.Y, 1e-9)

	inside := geom.V(0.5, 0.5)
	assert.Equal(t, inside, tr.ClampToBounds(inside))
	assert.False(t, New(nil, 4, nil).IsInBounds(inside))
}

func TestWaypointRandomPointStaysInDisk(t *testing.T) {
	tr := square()
	w, ok := tr.Waypoint(2)
	assert.True(t, ok)
	rng := rand.New(rand.NewSource(7))
	for range 200 {
		assert.True(t, w.Contains(w.RandomPoint(rng)))
	}
	_, ok = tr.Waypoint(9)
	assert.False(t, ok)
}

func TestNegativeWidthClampsToZero(t *testing.T) {
	tr := New([]geom.Vec2{geom.V(0, 0), geom.V(1, 0)}, -3, nil)
	assert.Equal(t, 0.0, tr.Width())
	w, _ := tr.Waypoint(0)
	assert.Equal(t, w.Center, w.PositionAtAngle(45, 10))
}

func TestStartGridStaysNearFirstWaypoint(t *testing.T) {
	tr := square()
	slots := tr.StartGrid(4, 1)
	assert.Len(t, slots, 4)
	for _, s := range slots {
		assert.Equal(t, 0, tr.NearestWaypointIndex(s.Position))
		assert.InDelta(t, 0, s.HeadingDeg, 1e-9)
	}
	assert.NotEqual(t, slots[0].Position, slots[1].Position)
	assert.Nil(t, New(nil, 4, nil).StartGrid(3, 1))
}
