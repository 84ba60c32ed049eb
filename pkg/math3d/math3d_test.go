package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestTranslateScaleCompose(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(Scale(V3(2, 2, 2)))
	got := m.MulVec3(V3(1, 1, 1))
	want := V3(3, 4, 5)
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Z, want.Z) {
		t.Errorf("MulVec3 = %v, want %v", got, want)
	}
	dir := m.MulVec3Dir(V3(1, 0, 0))
	if !near(dir.X, 2) || !near(dir.Y, 0) {
		t.Errorf("MulVec3Dir = %v, want (2,0,0)", dir)
	}
}

func TestLookAtForwardIsIdentity(t *testing.T) {
	view := LookAt(V3(0, 0, 0), V3(0, 0, -1), V3(0, 1, 0))
	id := Identity()
	for i := range view.M {
		if !near(view.M[i], id.M[i]) {
			t.Fatalf("LookAt forward = %v, want identity", view.M)
		}
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(math.Pi/3, 1, 1, 10)
	nearPt := p.MulVec3(V3(0, 0, -1))
	farPt := p.MulVec3(V3(0, 0, -10))
	if !near(nearPt.Z, -1) {
		t.Errorf("near plane z = %v, want -1", nearPt.Z)
	}
	if !near(farPt.Z, 1) {
		t.Errorf("far plane z = %v, want 1", farPt.Z)
	}
}

func TestVec3Basics(t *testing.T) {
	a, b := V3(1, 0, 0), V3(0, 1, 0)
	if c := a.Cross(b); c != V3(0, 0, 1) {
		t.Errorf("Cross = %v, want (0,0,1)", c)
	}
	if n := V3(3, 4, 0).Normalize(); !near(n.Len(), 1) {
		t.Errorf("Normalize length = %v", n.Len())
	}
	if z := Zero3().Normalize(); z != Zero3() {
		t.Errorf("Normalize(zero) = %v", z)
	}
	if m := V3(1, 5, -2).Min(V3(2, 3, -1)); m != V3(1, 3, -2) {
		t.Errorf("Min = %v", m)
	}
}
