package geom

import (
	"math"
	"testing"
)

func TestVec2_Arithmetic(t *testing.T) {
	a := V(1, 2)
	b := V(4, 6)

	if got := a.Add(b); got != V(5, 8) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != V(3, 4) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != V(2, 4) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.Dot(b); got != 16 {
		t.Errorf("Dot failed: got %v", got)
	}
	if got := V(1, 0).Cross(V(0, 1)); got != 1 {
		t.Errorf("Cross failed: got %v", got)
	}
}

func TestVec2_Normalize(t *testing.T) {
	tests := []struct {
		in   Vec2
		want Vec2
	}{
		{V(3, 4), V(0.6, 0.8)},
		{V(0, -2), V(0, -1)},
		{V(0, 0), V(0, 0)},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); !got.ApproxEqual(tt.want, 1e-12) {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVec2_Reflect(t *testing.T) {
	d := V(1, 1).Normalize()
	r := d.Reflect(V(0, 1))
	if !r.ApproxEqual(V(1, -1).Normalize(), 1e-12) {
		t.Errorf("Reflect = %v", r)
	}
}

func TestVec2_Rotate(t *testing.T) {
	r := V(1, 0).Rotate(math.Pi / 2)
	if !r.ApproxEqual(V(0, 1), 1e-12) {
		t.Errorf("Rotate = %v", r)
	}
	if p := V(1, 0).Perp(); p != V(0, 1) {
		t.Errorf("Perp = %v", p)
	}
}

func TestVec2_IsFinite(t *testing.T) {
	if !V(1, 2).IsFinite() {
		t.Error("expected finite")
	}
	if V(math.NaN(), 0).IsFinite() || V(0, math.Inf(1)).IsFinite() {
		t.Error("expected non-finite")
	}
}
