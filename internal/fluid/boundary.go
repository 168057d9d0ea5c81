package fluid

import "gonum.org/v1/gonum/mat"

// EnforceNoThrough zeroes the wall-normal velocity on every edge: the first
// and last columns of u and the first and last rows of v.
func EnforceNoThrough(u, v *mat.Dense) {
	n, _ := u.Dims()
	ud, us := cells(u)
	vd, vs := cells(v)
	for i := 0; i < n; i++ {
		ud[i*us] = 0
		ud[i*us+n-1] = 0
	}
	for j := 0; j < n; j++ {
		vd[j] = 0
		vd[(n-1)*vs+j] = 0
	}
}
