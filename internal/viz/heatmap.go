package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fluidlab/internal/render"
	"gonum.org/v1/gonum/mat"
)

// upper half block: foreground paints the top sample, background the bottom
const halfBlock = "▀"

// Heatmap renders f as width×height characters. Each character covers two
// vertically stacked samples so the aspect ratio stays close to square.
// Samples are taken nearest-neighbour.
func Heatmap(f *mat.Dense, cm render.Colormap, s render.Scale, width, height int) string {
	norm := render.Normalize(f, s)
	rows, cols := norm.Dims()
	width = min(max(width, 1), cols)
	height = min(max(height, 1), (rows+1)/2)

	var b strings.Builder
	for r := 0; r < height; r++ {
		top := (2 * r) * rows / (2 * height)
		bottom := min((2*r+1)*rows/(2*height), rows-1)
		for c := 0; c < width; c++ {
			j := c * cols / width
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(cm.Hex(norm.At(top, j)))).
				Background(lipgloss.Color(cm.Hex(norm.At(bottom, j))))
			b.WriteString(style.Render(halfBlock))
		}
		if r < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
