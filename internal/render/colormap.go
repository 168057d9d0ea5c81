package render

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/mazznoer/colorgrad"
)

const paletteSize = 256

// Colormap maps normalized values in [0, 1] onto a 256-entry palette.
type Colormap struct {
	Name    string
	Palette color.Palette
}

func newColormap(name string, grad colorgrad.Gradient, reverse bool) Colormap {
	colors := grad.Colors(paletteSize)
	pal := make(color.Palette, len(colors))
	for i, c := range colors {
		if reverse {
			pal[len(colors)-1-i] = c
		} else {
			pal[i] = c
		}
	}
	return Colormap{Name: name, Palette: pal}
}

var colormaps = map[string]Colormap{
	"dye":       newColormap("dye", colorgrad.Inferno(), false),
	"viridis":   newColormap("viridis", colorgrad.Viridis(), false),
	"diverging": newColormap("diverging", colorgrad.RdBu(), false),
	"grayscale": newColormap("grayscale", colorgrad.Greys(), true),
}

func GetColormap(name string) (Colormap, error) {
	cm, ok := colormaps[name]
	if !ok {
		return Colormap{}, fmt.Errorf("unknown colormap %q (have %v)", name, ColormapNames())
	}
	return cm, nil
}

func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for name := range colormaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Index returns the palette index for t, clamping to [0, 1]. NaN maps to 0.
func (c Colormap) Index(t float64) uint8 {
	if !(t > 0) {
		return 0
	}
	if t >= 1 {
		return paletteSize - 1
	}
	return uint8(t*(paletteSize-1) + 0.5)
}

func (c Colormap) At(t float64) color.Color {
	return c.Palette[c.Index(t)]
}

// Hex renders the color for t as #rrggbb.
func (c Colormap) Hex(t float64) string {
	r, g, b, _ := c.At(t).RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
