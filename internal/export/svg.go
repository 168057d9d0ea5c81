package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/fluidlab/internal/render"
	"gonum.org/v1/gonum/mat"
)

// QuiverOptions controls velocity arrow plots.
type QuiverOptions struct {
	Stride   int // sample every Stride cells
	CellSize float64
	Colormap render.Colormap
}

// QuiverSVG draws one arrow per sampled cell, scaled so the fastest arrow
// spans Stride cells and colored by speed. Row 0 is the top of the plot,
// matching render.Frame.
func QuiverSVG(u, v *mat.Dense, opts QuiverOptions) (string, error) {
	ru, cu := u.Dims()
	rv, cv := v.Dims()
	if ru != rv || cu != cv {
		return "", fmt.Errorf("export: velocity components differ in shape: %dx%d vs %dx%d", ru, cu, rv, cv)
	}
	if opts.Stride < 1 {
		opts.Stride = 1
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 4
	}
	if len(opts.Colormap.Palette) == 0 {
		cm, err := render.GetColormap("viridis")
		if err != nil {
			return "", err
		}
		opts.Colormap = cm
	}

	peak := 0.0
	for i := 0; i < ru; i += opts.Stride {
		for j := 0; j < cu; j += opts.Stride {
			peak = math.Max(peak, math.Hypot(u.At(i, j), v.At(i, j)))
		}
	}

	width := float64(cu) * opts.CellSize
	height := float64(ru) * opts.CellSize

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g stroke-width="%.2f" stroke-linecap="round">
`, width, height, width, height, math.Max(opts.CellSize/4, 0.5)))

	if peak > 0 && !math.IsNaN(peak) && !math.IsInf(peak, 0) {
		reach := float64(opts.Stride) * opts.CellSize / peak
		head := opts.CellSize * float64(opts.Stride) * 0.3
		for i := 0; i < ru; i += opts.Stride {
			for j := 0; j < cu; j += opts.Stride {
				ux, vy := u.At(i, j), v.At(i, j)
				speed := math.Hypot(ux, vy)
				if speed == 0 {
					continue
				}
				x0 := (float64(j) + 0.5) * opts.CellSize
				y0 := (float64(i) + 0.5) * opts.CellSize
				x1 := x0 + ux*reach
				y1 := y0 + vy*reach
				color := opts.Colormap.Hex(speed / peak)
				sb.WriteString(arrow(x0, y0, x1, y1, head*speed/peak, color))
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String(), nil
}

func arrow(x0, y0, x1, y1, head float64, color string) string {
	angle := math.Atan2(y1-y0, x1-x0)
	const spread = math.Pi / 7
	lx := x1 - head*math.Cos(angle-spread)
	ly := y1 - head*math.Sin(angle-spread)
	rx := x1 - head*math.Cos(angle+spread)
	ry := y1 - head*math.Sin(angle+spread)
	return fmt.Sprintf(`<path stroke="%s" fill="none" d="M%.1f,%.1f L%.1f,%.1f M%.1f,%.1f L%.1f,%.1f L%.1f,%.1f"/>
`, color, x0, y0, x1, y1, lx, ly, x1, y1, rx, ry)
}

// SeriesSVG plots a diagnostic time series as a polyline, step on the x
// axis. Non-finite samples break the line.
func SeriesSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, y := range values {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	if math.IsInf(minY, 1) {
		return ""
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	last := float64(len(values) - 1)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, strokeColor))

	pen := "M"
	for i, y := range values {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			pen = "M"
			continue
		}
		px := float64(i) / last * float64(width)
		py := float64(height) - (y-minY)/rangeY*float64(height)
		if pen == "L" {
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", pen, px, py))
		pen = "L"
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
