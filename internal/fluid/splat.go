package fluid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// splatEps keeps the Gaussian finite for a zero radius.
const splatEps = 1e-6

// DefaultSplatRadius is the normalized radius of a typical interactive splat.
const DefaultSplatRadius = 0.05

// Splat is an additive Gaussian source at normalized coordinates.
// The dye branch fires iff Dye != 0; the velocity branch iff Fx or Fy != 0.
type Splat struct {
	X, Y   float64
	Dye    float64
	Fx, Fy float64
	Radius float64
}

// gaussian evaluates the splat weight for every cell and hands it to add,
// row by row. The weight covers the full grid.
func gaussian(n int, x, y, radius float64, add func(i, j int, w float64)) {
	scale := float64(n - 1)
	cx, cy := x*scale, y*scale
	r := radius * scale
	denom := r*r + splatEps

	parallelRows(0, n, func(start, end int) {
		for i := start; i < end; i++ {
			dy := float64(i) - cy
			for j := 0; j < n; j++ {
				dx := float64(j) - cx
				add(i, j, math.Exp(-(dx*dx+dy*dy)/denom))
			}
		}
	})
}

// SplatScalar adds amount·G to c, where G is a Gaussian centered at the
// normalized position (x, y) with normalized radius.
func SplatScalar(c *mat.Dense, x, y, radius, amount float64) {
	n, _ := c.Dims()
	cd, cs := cells(c)
	gaussian(n, x, y, radius, func(i, j int, w float64) {
		cd[i*cs+j] += amount * w
	})
}

// SplatVector adds (fx·G, fy·G) to (u, v) and reapplies the no-through
// condition.
func SplatVector(u, v *mat.Dense, x, y, radius, fx, fy float64) {
	n, _ := u.Dims()
	ud, us := cells(u)
	vd, vs := cells(v)
	gaussian(n, x, y, radius, func(i, j int, w float64) {
		ud[i*us+j] += fx * w
		vd[i*vs+j] += fy * w
	})
	EnforceNoThrough(u, v)
}
