package fluid

import "gonum.org/v1/gonum/mat"

// DefaultIters is the reference number of Jacobi sweeps per projection.
const DefaultIters = 60

// JacobiPressure solves ∇²p = div with exactly iters Jacobi sweeps starting
// from p = 0. There is no convergence test, so the cost is fixed.
func JacobiPressure(div *mat.Dense, iters int) *mat.Dense {
	n, _ := div.Dims()
	return jacobiInto(NewGrid(n), NewGrid(n), div, iters)
}

// jacobiInto runs the sweeps ping-ponging between p and next and returns
// whichever buffer holds the final iterate.
func jacobiInto(p, next, div *mat.Dense, iters int) *mat.Dense {
	n, _ := div.Dims()
	p.Zero()
	dd, ds := cells(div)

	for k := 0; k < iters; k++ {
		pd, ps := cells(p)
		nd, ns := cells(next)

		parallelRows(1, n-1, func(start, end int) {
			for i := start; i < end; i++ {
				for j := 1; j < n-1; j++ {
					nd[i*ns+j] = 0.25 * (pd[i*ps+j+1] + pd[i*ps+j-1] + pd[(i+1)*ps+j] + pd[(i-1)*ps+j] - dd[i*ds+j])
				}
			}
		})

		// Neumann edges copy from this sweep's interior: columns, then rows.
		for i := 0; i < n; i++ {
			nd[i*ns] = nd[i*ns+1]
			nd[i*ns+n-1] = nd[i*ns+n-2]
		}
		copy(nd[:n], nd[ns:ns+n])
		copy(nd[(n-1)*ns:(n-1)*ns+n], nd[(n-2)*ns:(n-2)*ns+n])

		p, next = next, p
	}
	return p
}

// Project removes the pressure gradient from (u, v) in place so that the
// field is approximately divergence-free. With iters == 0 only the
// boundary condition is applied.
func Project(u, v *mat.Dense, iters int) {
	n, _ := u.Dims()
	newProjector(n).project(u, v, iters)
}

// projector owns the transient buffers of one projection. Pressure never
// outlives a call.
type projector struct {
	div, p, next *mat.Dense
}

func newProjector(n int) *projector {
	return &projector{div: NewGrid(n), p: NewGrid(n), next: NewGrid(n)}
}

func (pr *projector) project(u, v *mat.Dense, iters int) {
	EnforceNoThrough(u, v)
	if iters <= 0 {
		return
	}

	DivergenceInto(pr.div, u, v)
	p := jacobiInto(pr.p, pr.next, pr.div, iters)
	subtractGradient(u, v, p)

	EnforceNoThrough(u, v)
}

// subtractGradient applies u -= ∂p/∂x on interior columns and v -= ∂p/∂y on
// interior rows using centered differences.
func subtractGradient(u, v, p *mat.Dense) {
	n, _ := u.Dims()
	pd, ps := cells(p)
	ud, us := cells(u)
	vd, vs := cells(v)

	for i := 0; i < n; i++ {
		for j := 1; j < n-1; j++ {
			ud[i*us+j] -= 0.5 * (pd[i*ps+j+1] - pd[i*ps+j-1])
		}
	}
	for i := 1; i < n-1; i++ {
		for j := 0; j < n; j++ {
			vd[i*vs+j] -= 0.5 * (pd[(i+1)*ps+j] - pd[(i-1)*ps+j])
		}
	}
}
