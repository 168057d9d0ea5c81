package fluid

import (
	"math"
	"testing"
)

func TestBilinearSample(t *testing.T) {
	n := 5
	f := gridFrom(n, func(i, j int) float64 { return float64(10*i + j) })

	tests := []struct {
		name     string
		x, y     float64
		expected float64
	}{
		{"grid point", 2, 3, 32},
		{"origin", 0, 0, 0},
		{"half step in x", 1.5, 1, 11.5},
		{"half step in y", 1, 1.5, 16},
		{"cell center", 2.5, 2.5, 27.5},
		{"clamped below", -3, -7, 0},
		{"NaN position", math.NaN(), math.NaN(), 0},
		{"NaN column", math.NaN(), 2, 20},
		{"infinite position", math.Inf(-1), math.Inf(1), float64(10*(n-1)) - 10*sampleEps},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BilinearSample(f, tt.x, tt.y); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("sample(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestBilinearSample_ClampedAbove(t *testing.T) {
	n := 4
	f := gridFrom(n, func(i, j int) float64 { return float64(j) })

	got := BilinearSample(f, 100, 100)
	want := float64(n-1) - sampleEps
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("sample beyond the far edge = %v, want %v", got, want)
	}
}

func TestAdvectScalar_Translation(t *testing.T) {
	n := 9
	c := gridFrom(n, func(i, j int) float64 { return float64(j) })
	u := gridFrom(n, func(i, j int) float64 { return 1 })
	v := NewGrid(n)
	dst := NewGrid(n)

	AdvectScalar(dst, c, u, v, 1, 0)

	for i := 0; i < n; i++ {
		for j := 1; j < n; j++ {
			if got := dst.At(i, j); math.Abs(got-float64(j-1)) > 1e-9 {
				t.Fatalf("dst[%d][%d] = %v, want %v", i, j, got, j-1)
			}
		}
		if dst.At(i, 0) != 0 {
			t.Fatalf("inflow edge should clamp to column 0, got %v", dst.At(i, 0))
		}
	}
}

func TestAdvectScalar_ZeroDissipationKeepsValues(t *testing.T) {
	n := 6
	c := gridFrom(n, func(i, j int) float64 { return float64(i*n + j) })
	dst := NewGrid(n)

	AdvectScalar(dst, c, NewGrid(n), NewGrid(n), 0.3, 0)

	for i := 0; i < n-1; i++ {
		for j := 0; j < n-1; j++ {
			if dst.At(i, j) != c.At(i, j) {
				t.Fatalf("at rest, dst[%d][%d] = %v, want %v", i, j, dst.At(i, j), c.At(i, j))
			}
		}
	}
}

func TestAdvectVector_EnforcesBoundary(t *testing.T) {
	n := 8
	u := gridFrom(n, func(i, j int) float64 { return 0.4 })
	v := gridFrom(n, func(i, j int) float64 { return -0.3 })
	du, dv := NewGrid(n), NewGrid(n)

	AdvectVector(du, dv, u, v, 0.5, 0.1)

	for k := 0; k < n; k++ {
		if du.At(k, 0) != 0 || du.At(k, n-1) != 0 || dv.At(0, k) != 0 || dv.At(n-1, k) != 0 {
			t.Fatalf("boundary not enforced at %d", k)
		}
	}
	want := 0.4 * math.Exp(-0.1*0.5)
	if got := du.At(3, 3); math.Abs(got-want) > 1e-12 {
		t.Errorf("uniform u after advection = %v, want %v", got, want)
	}
}

func TestAdvect_AliasPanics(t *testing.T) {
	n := 4
	c := NewGrid(n)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when destination aliases source")
		}
	}()
	AdvectScalar(c, c, NewGrid(n), NewGrid(n), 0.1, 0)
}
