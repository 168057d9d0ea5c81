package fluid

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NewGrid returns a zeroed n×n grid indexed [row][col] = [y][x].
func NewGrid(n int) *mat.Dense {
	return mat.NewDense(n, n, nil)
}

// cells exposes the backing slice of m along with its row stride.
func cells(m *mat.Dense) ([]float64, int) {
	raw := m.RawMatrix()
	return raw.Data, raw.Stride
}

// values returns the grid's elements as one contiguous slice, copying only
// when the grid is a strided view.
func values(m *mat.Dense) []float64 {
	r, c := m.Dims()
	d, s := cells(m)
	if s == c {
		return d[:r*c]
	}
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, d[i*s:i*s+c]...)
	}
	return out
}

// L2 is the Frobenius norm of m.
func L2(m *mat.Dense) float64 {
	return mat.Norm(m, 2)
}

// Max returns the largest element of m.
func Max(m *mat.Dense) float64 {
	return floats.Max(values(m))
}

// Min returns the smallest element of m.
func Min(m *mat.Dense) float64 {
	return floats.Min(values(m))
}

// Mean returns the arithmetic mean of m.
func Mean(m *mat.Dense) float64 {
	v := values(m)
	return floats.Sum(v) / float64(len(v))
}
