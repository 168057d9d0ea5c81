package fluid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// sampleEps keeps back-traced positions strictly inside the last cell so
// that the upper corner index stays in range.
const sampleEps = 1e-3

// BilinearSample interpolates f at the fractional position (x, y), where x
// is the column and y the row coordinate. Positions are clamped to
// [0, N-1-ε]; a NaN position samples at 0 so that non-finite velocity
// propagates as NaN values instead of an out-of-range index.
func BilinearSample(f *mat.Dense, x, y float64) float64 {
	d, s := cells(f)
	n, _ := f.Dims()
	return bilinear(d, s, n, x, y)
}

func bilinear(d []float64, s, n int, x, y float64) float64 {
	x, y = clampSample(x, n), clampSample(y, n)

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := min(x0+1, n-1), min(y0+1, n-1)
	wx, wy := x-float64(x0), y-float64(y0)

	return (1-wx)*(1-wy)*d[y0*s+x0] +
		wx*(1-wy)*d[y0*s+x1] +
		(1-wx)*wy*d[y1*s+x0] +
		wx*wy*d[y1*s+x1]
}

func clampSample(c float64, n int) float64 {
	if !(c > 0) {
		return 0
	}
	return math.Min(c, float64(n-1)-sampleEps)
}

// decay is the per-step dissipation factor exp(-diss·dt); diss ≤ 0 disables it.
func decay(diss, dt float64) float64 {
	if diss > 0 {
		return math.Exp(-diss * dt)
	}
	return 1
}

// AdvectScalar traces every cell of c backwards along (u, v) for dt and
// writes the resampled, dissipated value into dst. dst must not alias c.
// No boundary condition is applied to the scalar.
func AdvectScalar(dst, c, u, v *mat.Dense, dt, diss float64) {
	if dst == c {
		panic("fluid: advection destination aliases its source")
	}
	n, _ := c.Dims()
	cd, cs := cells(c)
	od, ods := cells(dst)
	ud, us := cells(u)
	vd, vs := cells(v)
	k := decay(diss, dt)

	parallelRows(0, n, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < n; j++ {
				xb := float64(j) - dt*ud[i*us+j]
				yb := float64(i) - dt*vd[i*vs+j]
				od[i*ods+j] = bilinear(cd, cs, n, xb, yb) * k
			}
		}
	})
}

// AdvectVector self-advects (u, v): both components are resampled at the
// position traced back along the same pre-advection velocity. The result
// is written into (dstU, dstV), which must not alias the sources, and the
// no-through condition is reapplied.
func AdvectVector(dstU, dstV, u, v *mat.Dense, dt, diss float64) {
	if dstU == u || dstV == v || dstU == v || dstV == u {
		panic("fluid: advection destination aliases its source")
	}
	n, _ := u.Dims()
	ud, us := cells(u)
	vd, vs := cells(v)
	ou, ous := cells(dstU)
	ov, ovs := cells(dstV)
	k := decay(diss, dt)

	parallelRows(0, n, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < n; j++ {
				xb := float64(j) - dt*ud[i*us+j]
				yb := float64(i) - dt*vd[i*vs+j]
				ou[i*ous+j] = bilinear(ud, us, n, xb, yb) * k
				ov[i*ovs+j] = bilinear(vd, vs, n, xb, yb) * k
			}
		}
	})

	EnforceNoThrough(dstU, dstV)
}
