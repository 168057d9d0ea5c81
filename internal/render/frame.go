package render

import (
	"image"
	"image/png"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Frame paints f into a paletted image with each cell drawn as a
// scale×scale block. Row 0 is the top of the image.
func Frame(f *mat.Dense, cm Colormap, s Scale, scale int) *image.Paletted {
	if scale < 1 {
		scale = 1
	}
	norm := Normalize(f, s)
	rows, cols := norm.Dims()
	img := image.NewPaletted(image.Rect(0, 0, cols*scale, rows*scale), cm.Palette)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			idx := cm.Index(norm.At(i, j))
			for py := 0; py < scale; py++ {
				off := img.PixOffset(j*scale, i*scale+py)
				for px := 0; px < scale; px++ {
					img.Pix[off+px] = idx
				}
			}
		}
	}
	return img
}

func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
