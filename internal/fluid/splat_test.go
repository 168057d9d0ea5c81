package fluid

import (
	"math"
	"testing"
)

func TestSplatScalar_Center(t *testing.T) {
	n := 5
	c := NewGrid(n)

	SplatScalar(c, 0.5, 0.5, 0.25, 3)

	if got := c.At(2, 2); got != 3 {
		t.Errorf("center = %v, want 3", got)
	}
	r := 0.25 * float64(n-1)
	want := 3 * math.Exp(-1/(r*r+splatEps))
	if got := c.At(2, 3); math.Abs(got-want) > 1e-12 {
		t.Errorf("one cell off center = %v, want %v", got, want)
	}
	if c.At(0, 0) >= c.At(1, 1) {
		t.Error("weight must decay with distance")
	}
}

func TestSplatScalar_Additive(t *testing.T) {
	n := 16
	twice := NewGrid(n)
	once := NewGrid(n)

	SplatScalar(twice, 0.3, 0.6, 0.1, 0.4)
	SplatScalar(twice, 0.3, 0.6, 0.1, 0.9)
	SplatScalar(once, 0.3, 0.6, 0.1, 1.3)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(twice.At(i, j)-once.At(i, j)) > 1e-12 {
				t.Fatalf("splats do not superpose at [%d][%d]: %v vs %v", i, j, twice.At(i, j), once.At(i, j))
			}
		}
	}
}

func TestSplatScalar_ZeroRadius(t *testing.T) {
	n := 5
	c := NewGrid(n)

	SplatScalar(c, 0, 0, 0, 1)

	if c.At(0, 0) != 1 {
		t.Errorf("point splat center = %v, want 1", c.At(0, 0))
	}
	if c.At(0, 1) != 0 {
		t.Errorf("point splat should vanish one cell away, got %v", c.At(0, 1))
	}
}

func TestSplatVector(t *testing.T) {
	n := 9
	u, v := NewGrid(n), NewGrid(n)

	SplatVector(u, v, 0.5, 0.5, 0.2, 2, -1)

	if got := u.At(4, 4); got != 2 {
		t.Errorf("u center = %v, want 2", got)
	}
	if got := v.At(4, 4); got != -1 {
		t.Errorf("v center = %v, want -1", got)
	}
	for k := 0; k < n; k++ {
		if u.At(k, 0) != 0 || u.At(k, n-1) != 0 || v.At(0, k) != 0 || v.At(n-1, k) != 0 {
			t.Fatalf("boundary not enforced at %d", k)
		}
	}
}
