package render

import (
	"math"

	"github.com/san-kum/fluidlab/internal/fluid"
	"gonum.org/v1/gonum/mat"
)

type Scale int

const (
	// Linear maps [min, max] onto [0, 1].
	Linear Scale = iota
	// Symmetric maps [-max|x|, max|x|] onto [0, 1] so zero sits at 0.5.
	Symmetric
)

// Normalize returns a fresh grid with f rescaled into [0, 1]. A constant
// field maps to 0 under Linear and 0.5 under Symmetric.
func Normalize(f *mat.Dense, s Scale) *mat.Dense {
	lo, hi := fluid.Min(f), fluid.Max(f)
	out := mat.DenseCopyOf(f)

	switch s {
	case Symmetric:
		bound := math.Max(math.Abs(lo), math.Abs(hi))
		if bound == 0 {
			out.Apply(func(_, _ int, _ float64) float64 { return 0.5 }, out)
			return out
		}
		out.Apply(func(_, _ int, x float64) float64 { return 0.5 + 0.5*x/bound }, out)
	default:
		span := hi - lo
		if span == 0 {
			out.Zero()
			return out
		}
		out.Apply(func(_, _ int, x float64) float64 { return (x - lo) / span }, out)
	}
	return out
}

// Style is the default colormap and scale for one named field.
type Style struct {
	Colormap string
	Scale    Scale
}

var fieldStyles = map[string]Style{
	"dye":          {Colormap: "dye", Scale: Linear},
	"velocity_mag": {Colormap: "viridis", Scale: Linear},
	"vorticity":    {Colormap: "viridis", Scale: Linear},
	"u":            {Colormap: "diverging", Scale: Symmetric},
	"v":            {Colormap: "diverging", Scale: Symmetric},
	"divergence":   {Colormap: "diverging", Scale: Symmetric},
}

// StyleFor returns the default style for a field name. Unknown names get a
// grayscale linear style.
func StyleFor(field string) Style {
	if st, ok := fieldStyles[field]; ok {
		return st
	}
	return Style{Colormap: "grayscale", Scale: Linear}
}
