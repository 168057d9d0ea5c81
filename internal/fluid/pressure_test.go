package fluid

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestJacobiPressure_ZeroIters(t *testing.T) {
	div := gridFrom(8, func(i, j int) float64 { return float64(i - j) })

	p := JacobiPressure(div, 0)

	if L2(p) != 0 {
		t.Errorf("zero sweeps should leave p = 0, got norm %v", L2(p))
	}
}

func TestJacobiPressure_NeumannEdges(t *testing.T) {
	n := 10
	div := gridFrom(n, func(i, j int) float64 {
		return math.Sin(float64(i)*0.5) * math.Cos(float64(j)*0.3)
	})

	for _, iters := range []int{1, 2, 7, 60} {
		p := JacobiPressure(div, iters)
		for k := 0; k < n; k++ {
			if p.At(k, 0) != p.At(k, 1) || p.At(k, n-1) != p.At(k, n-2) {
				t.Errorf("iters=%d: column edge at row %d does not copy its neighbour", iters, k)
			}
			if p.At(0, k) != p.At(1, k) || p.At(n-1, k) != p.At(n-2, k) {
				t.Errorf("iters=%d: row edge at col %d does not copy its neighbour", iters, k)
			}
		}
	}
}

func TestJacobiPressure_SingleSweep(t *testing.T) {
	n := 5
	div := NewGrid(n)
	div.Set(2, 2, 4)

	p := JacobiPressure(div, 1)

	// p starts at zero, so one sweep yields -div/4 at the source.
	if got := p.At(2, 2); got != -1 {
		t.Errorf("p[2][2] = %v, want -1", got)
	}
	if got := p.At(1, 2); got != 0 {
		t.Errorf("p[1][2] = %v, want 0", got)
	}
}

func TestJacobiPressure_Deterministic(t *testing.T) {
	n := 70
	div := gridFrom(n, func(i, j int) float64 { return math.Sin(float64(i*7+j*3) * 0.01) })

	a := JacobiPressure(div, 25)
	b := JacobiPressure(div, 25)

	if !mat.Equal(a, b) {
		t.Error("Jacobi solve must be bitwise reproducible")
	}
}

func TestProject_ZeroItersOnlyEnforcesBoundary(t *testing.T) {
	n := 6
	u := gridFrom(n, func(i, j int) float64 { return float64(i + j) })
	v := gridFrom(n, func(i, j int) float64 { return float64(i * j) })
	wantU := mat.DenseCopyOf(u)
	wantV := mat.DenseCopyOf(v)
	EnforceNoThrough(wantU, wantV)

	Project(u, v, 0)

	if !mat.Equal(u, wantU) || !mat.Equal(v, wantV) {
		t.Error("iters=0 must skip the pressure correction")
	}
}

func TestProject_RestStaysAtRest(t *testing.T) {
	n := 8
	u := NewGrid(n)
	v := NewGrid(n)

	Project(u, v, 30)

	if L2(u) != 0 || L2(v) != 0 {
		t.Error("projection of a field at rest must stay at rest")
	}
}
