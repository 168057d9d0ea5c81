package fluid

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
)

func randomGrid(rng *rand.Rand, n int) *mat.Dense {
	g := NewGrid(n)
	g.Apply(func(_, _ int, _ float64) float64 { return rng.Float64()*2 - 1 }, g)
	return g
}

func expectNoThrough(u, v *mat.Dense) {
	n, _ := u.Dims()
	for k := 0; k < n; k++ {
		Expect(u.At(k, 0)).To(BeZero())
		Expect(u.At(k, n-1)).To(BeZero())
		Expect(v.At(0, k)).To(BeZero())
		Expect(v.At(n-1, k)).To(BeZero())
	}
}

var _ = Describe("Projection", func() {
	It("leaves no flow through the walls for arbitrary input", func() {
		rng := rand.New(rand.NewSource(7))
		for _, n := range []int{3, 8, 33} {
			for _, iters := range []int{0, 1, 60} {
				u, v := randomGrid(rng, n), randomGrid(rng, n)
				Project(u, v, iters)
				expectNoThrough(u, v)
			}
		}
	})

	DescribeTable("does not increase the divergence norm",
		func(n, iters int, splats []Splat) {
			u, v := NewGrid(n), NewGrid(n)
			for _, sp := range splats {
				SplatVector(u, v, sp.X, sp.Y, sp.Radius, sp.Fx, sp.Fy)
			}
			pre := L2(Divergence(u, v))

			Project(u, v, iters)

			Expect(L2(Divergence(u, v))).To(BeNumerically("<=", pre+divergenceSlack))
		},
		Entry("single jet", 64, 60, []Splat{{X: 0.5, Y: 0.5, Fx: 1, Radius: 0.1}}),
		Entry("diagonal jet, one sweep", 32, 1, []Splat{{X: 0.4, Y: 0.3, Fx: 0.5, Fy: 0.5, Radius: 0.08}}),
		Entry("opposing jets", 64, 80, []Splat{
			{X: 0.3, Y: 0.5, Fx: 1, Radius: 0.1},
			{X: 0.7, Y: 0.5, Fx: -1, Radius: 0.1},
		}),
		Entry("vertical pair", 48, 20, []Splat{
			{X: 0.5, Y: 0.25, Fy: 0.7, Radius: 0.06},
			{X: 0.5, Y: 0.75, Fy: 0.7, Radius: 0.06},
		}),
	)

	It("strictly reduces the divergence of opposing jets", func() {
		n := 64
		u, v := NewGrid(n), NewGrid(n)
		SplatVector(u, v, 0.3, 0.5, 0.1, 1, 0)
		SplatVector(u, v, 0.7, 0.5, 0.1, -1, 0)
		pre := L2(Divergence(u, v))
		Expect(pre).To(BeNumerically(">", 0))

		Project(u, v, DefaultIters)

		Expect(L2(Divergence(u, v))).To(BeNumerically("<", pre))
	})
})

var _ = Describe("Vorticity confinement", func() {
	It("is the identity when strength is zero", func() {
		rng := rand.New(rand.NewSource(3))
		u, v := randomGrid(rng, 12), randomGrid(rng, 12)
		u0, v0 := mat.DenseCopyOf(u), mat.DenseCopyOf(v)

		VorticityConfinement(u, v, 0, 0.1)
		VorticityConfinement(u, v, -4, 0.1)

		Expect(mat.Equal(u, u0)).To(BeTrue())
		Expect(mat.Equal(v, v0)).To(BeTrue())
	})

	It("modifies a swirling field and keeps the walls closed", func() {
		n := 16
		u, v := NewGrid(n), NewGrid(n)
		SplatVector(u, v, 0.4, 0.5, 0.08, 0, 1)
		SplatVector(u, v, 0.6, 0.5, 0.08, 0, -1)
		u0 := mat.DenseCopyOf(u)

		VorticityConfinement(u, v, 6, 0.08)

		Expect(mat.Equal(u, u0)).To(BeFalse())
		expectNoThrough(u, v)
	})
})

var _ = Describe("Semi-Lagrangian sampling", func() {
	It("returns stored values exactly at grid points", func() {
		rng := rand.New(rand.NewSource(11))
		f := randomGrid(rng, 10)
		for i := 0; i < 9; i++ {
			for j := 0; j < 9; j++ {
				Expect(BilinearSample(f, float64(j), float64(i))).To(Equal(f.At(i, j)))
			}
		}
	})

	It("scales a uniform field at rest by exp(-d·dt)", func() {
		n, dt, d := 20, 0.08, 0.7
		c := NewGrid(n)
		c.Apply(func(_, _ int, _ float64) float64 { return 1.5 }, c)
		dst := NewGrid(n)

		AdvectScalar(dst, c, NewGrid(n), NewGrid(n), dt, d)

		want := 1.5 * math.Exp(-d*dt)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				Expect(dst.At(i, j)).To(BeNumerically("~", want, 1e-12))
			}
		}
	})
})

var _ = Describe("Simulation", func() {
	var s *Simulation

	BeforeEach(func() {
		var err error
		s, err = New(32, DefaultParams())
		Expect(err).NotTo(HaveOccurred())
	})

	It("resets idempotently", func() {
		Expect(s.AddSplat(Splat{X: 0.5, Y: 0.5, Dye: 1, Fx: 0.5, Radius: 0.1})).To(Succeed())
		Expect(s.Step()).To(Succeed())

		s.Reset()
		first := []*mat.Dense{mat.DenseCopyOf(s.U()), mat.DenseCopyOf(s.V()), mat.DenseCopyOf(s.Dye())}
		s.Reset()

		Expect(mat.Equal(s.U(), first[0])).To(BeTrue())
		Expect(mat.Equal(s.V(), first[1])).To(BeTrue())
		Expect(mat.Equal(s.Dye(), first[2])).To(BeTrue())
		Expect(L2(s.U()) + L2(s.V()) + L2(s.Dye())).To(BeZero())
		Expect(s.StepCount()).To(BeZero())
		Expect(s.DivergenceHistory()).To(BeEmpty())
	})

	It("superposes dye splats", func() {
		other, err := New(32, DefaultParams())
		Expect(err).NotTo(HaveOccurred())

		Expect(s.AddSplat(Splat{X: 0.2, Y: 0.7, Dye: 0.3, Radius: 0.05})).To(Succeed())
		Expect(s.AddSplat(Splat{X: 0.2, Y: 0.7, Dye: 0.5, Radius: 0.05})).To(Succeed())
		Expect(other.AddSplat(Splat{X: 0.2, Y: 0.7, Dye: 0.8, Radius: 0.05})).To(Succeed())

		Expect(mat.EqualApprox(s.Dye(), other.Dye(), 1e-12)).To(BeTrue())
	})

	It("keeps the walls closed after every step", func() {
		Expect(s.AddSplat(Splat{X: 0.3, Y: 0.4, Dye: 1, Fx: 0.6, Fy: 0.2, Radius: 0.08})).To(Succeed())
		for i := 0; i < 5; i++ {
			Expect(s.Step()).To(Succeed())
			expectNoThrough(s.U(), s.V())
		}
		Expect(s.StepCount()).To(Equal(5))
		Expect(s.DivergenceHistory()).To(HaveLen(5))
	})
})
