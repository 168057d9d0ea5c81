package fluid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Divergence returns the finite-difference divergence of (u, v) in a fresh grid.
func Divergence(u, v *mat.Dense) *mat.Dense {
	n, _ := u.Dims()
	div := NewGrid(n)
	DivergenceInto(div, u, v)
	return div
}

// DivergenceInto writes the divergence of (u, v) into dst.
//
// Interior cells use centered differences. The left and right columns are
// overwritten with one-sided differences of u, then the top and bottom rows
// add a one-sided difference of v, so corners carry both terms.
func DivergenceInto(dst, u, v *mat.Dense) {
	n, _ := u.Dims()
	dst.Zero()
	dd, ds := cells(dst)
	ud, us := cells(u)
	vd, vs := cells(v)

	parallelRows(1, n-1, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 1; j < n-1; j++ {
				dd[i*ds+j] = 0.5 * ((ud[i*us+j+1] - ud[i*us+j-1]) + (vd[(i+1)*vs+j] - vd[(i-1)*vs+j]))
			}
		}
	})

	for i := 0; i < n; i++ {
		dd[i*ds] = ud[i*us+1] - ud[i*us]
		dd[i*ds+n-1] = ud[i*us+n-1] - ud[i*us+n-2]
	}
	for j := 0; j < n; j++ {
		dd[j] += vd[vs+j] - vd[j]
		dd[(n-1)*ds+j] += vd[(n-1)*vs+j] - vd[(n-2)*vs+j]
	}
}

// Curl returns the scalar vorticity dv/dx - du/dy of (u, v) in a fresh grid.
func Curl(u, v *mat.Dense) *mat.Dense {
	n, _ := u.Dims()
	w := NewGrid(n)
	CurlInto(w, u, v)
	return w
}

// CurlInto writes the scalar vorticity of (u, v) into dst. Edge columns come
// from one-sided v differences; edge rows then subtract a one-sided u
// difference.
func CurlInto(dst, u, v *mat.Dense) {
	n, _ := u.Dims()
	dst.Zero()
	wd, ws := cells(dst)
	ud, us := cells(u)
	vd, vs := cells(v)

	parallelRows(1, n-1, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 1; j < n-1; j++ {
				wd[i*ws+j] = 0.5 * ((vd[i*vs+j+1] - vd[i*vs+j-1]) - (ud[(i+1)*us+j] - ud[(i-1)*us+j]))
			}
		}
	})

	for i := 0; i < n; i++ {
		wd[i*ws] = vd[i*vs+1] - vd[i*vs]
		wd[i*ws+n-1] = vd[i*vs+n-1] - vd[i*vs+n-2]
	}
	for j := 0; j < n; j++ {
		wd[j] -= ud[us+j] - ud[j]
		wd[(n-1)*ws+j] -= ud[(n-1)*us+j] - ud[(n-2)*us+j]
	}
}

// VorticityMagnitude returns |curl(u, v)|.
func VorticityMagnitude(u, v *mat.Dense) *mat.Dense {
	w := Curl(u, v)
	w.Apply(func(_, _ int, x float64) float64 {
		if x < 0 {
			return -x
		}
		return x
	}, w)
	return w
}

// VelocityMagnitude returns sqrt(u² + v²) per cell.
func VelocityMagnitude(u, v *mat.Dense) *mat.Dense {
	n, _ := u.Dims()
	mag := NewGrid(n)
	mag.Apply(func(i, j int, _ float64) float64 {
		a, b := u.At(i, j), v.At(i, j)
		return math.Sqrt(a*a + b*b)
	}, mag)
	return mag
}
