package geom

import (
	"math"
	"testing"
)

func TestNormalizeLeavesZeroUntouched(t *testing.T) {
	if got := (Vec2{}).Normalize(); !got.IsZero() {
		t.Fatalf("expected zero vector, got=%+v", got)
	}
	n := V(3, 4).Normalize()
	if math.Abs(n.Len()-1) > 1e-9 {
		t.Fatalf("expected unit length, got=%f", n.Len())
	}
}

func TestLimitCapsMagnitude(t *testing.T) {
	v := V(30, 40).Limit(5)
	if math.Abs(v.Len()-5) > 1e-9 {
		t.Fatalf("expected length 5, got=%f", v.Len())
	}
	small := V(1, 1).Limit(5)
	if small != V(1, 1) {
		t.Fatalf("expected unchanged vector, got=%+v", small)
	}
}

func TestLerpClampsFactor(t *testing.T) {
	a, b := V(0, 0), V(10, 0)
	if got := a.Lerp(b, 2); got != b {
		t.Fatalf("expected lerp to stop at b, got=%+v", got)
	}
	if got := a.Lerp(b, -1); got != a {
		t.Fatalf("expected lerp to stay at a, got=%+v", got)
	}
}

func TestAngleHelpers(t *testing.T) {
	if d := NormalizeDeg(-90); d != 270 {
		t.Fatalf("expected 270, got=%f", d)
	}
	if d := NormalizeSignedDeg(270); d != -90 {
		t.Fatalf("expected -90, got=%f", d)
	}
	p := FromAngleDeg(90, 2)
	if math.Abs(p.X) > 1e-9 || math.Abs(p.Y-2) > 1e-9 {
		t.Fatalf("expected (0,2), got=%+v", p)
	}
}
