package fluid

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// confinementEps regularizes the normalization of ∇|ω|.
const confinementEps = 1e-5

// VorticityConfinement adds dt·strength·(N × ω) to (u, v) in place, where
// N is the normalized gradient of |ω|. Strength ≤ 0 leaves the field
// untouched.
func VorticityConfinement(u, v *mat.Dense, strength, dt float64) {
	if strength <= 0 {
		return
	}
	n, _ := u.Dims()
	w := Curl(u, v)
	wd, ws := cells(w)
	ud, us := cells(u)
	vd, vs := cells(v)

	// Edge cells have a zero gradient, so their force is zero too.
	parallelRows(1, n-1, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 1; j < n-1; j++ {
				gx := 0.5 * (math.Abs(wd[i*ws+j+1]) - math.Abs(wd[i*ws+j-1]))
				gy := 0.5 * (math.Abs(wd[(i+1)*ws+j]) - math.Abs(wd[(i-1)*ws+j]))
				norm := math.Sqrt(gx*gx+gy*gy) + confinementEps
				nx, ny := gx/norm, gy/norm
				omega := wd[i*ws+j]
				ud[i*us+j] += dt * strength * ny * omega
				vd[i*vs+j] -= dt * strength * nx * omega
			}
		}
	})

	EnforceNoThrough(u, v)
}
