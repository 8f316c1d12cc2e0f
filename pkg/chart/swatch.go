package chart

// Renders a swatch card: for each patch, the raw camera color, the
// corrected color, and the reference, side by side. The quickest way
// to see where a fitted model is struggling.

import(
	"fmt"
	"image"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

const (
	swatchSize   = 48
	swatchGutter = 4
	labelHeight  = 14
)

func clamp01(v float64) float64 {
	if v < 0 { return 0 }
	if v > 1 { return 1 }
	return v
}

// RenderSwatchCard draws the card for one measurement and its
// corrected Nx3 XYZ estimates. fontPath may be empty, in which case
// the patches go unlabelled.
func RenderSwatchCard(m Measurement, corrected mat.Matrix, cols int, fontPath string) (image.Image, error) {
	rows, ccols := corrected.Dims()
	if ccols != 3 || rows != len(m.Patches) {
		return nil, fmt.Errorf("swatch card: corrected matrix is %dx%d, want %dx3", rows, ccols, len(m.Patches))
	}
	if cols < 1 {
		cols = 6
	}
	gridRows := (len(m.Patches) + cols - 1) / cols

	cellW := 3*swatchSize + 4*swatchGutter
	cellH := swatchSize + labelHeight + 2*swatchGutter

	dc := gg.NewContext(cols*cellW, gridRows*cellH)
	dc.SetRGB(0.15, 0.15, 0.15)
	dc.Clear()

	labelled := false
	if fontPath != "" {
		fontBytes, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("swatch font %s: %w", fontPath, err)
		}
		f, err := truetype.Parse(fontBytes)
		if err != nil {
			return nil, fmt.Errorf("swatch font %s: %w", fontPath, err)
		}
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: 10}))
		labelled = true
	}

	for i, p := range m.Patches {
		cx := float64((i % cols) * cellW)
		cy := float64((i / cols) * cellH)

		// Raw camera response, clamped straight into sRGB. Wrong by
		// definition (that's what we're correcting), but that's the
		// point of showing it.
		raw := colorful.Color{
			R: clamp01(p.CameraRGB[0]),
			G: clamp01(p.CameraRGB[1]),
			B: clamp01(p.CameraRGB[2]),
		}
		got := colorful.Xyz(corrected.At(i,0), corrected.At(i,1), corrected.At(i,2)).Clamped()
		ref := colorful.Xyz(p.RefXYZ[0], p.RefXYZ[1], p.RefXYZ[2]).Clamped()

		for j, col := range []colorful.Color{raw, got, ref} {
			x := cx + float64(swatchGutter + j*(swatchSize+swatchGutter))
			y := cy + float64(swatchGutter)
			dc.SetRGB(col.R, col.G, col.B)
			dc.DrawRectangle(x, y, swatchSize, swatchSize)
			dc.Fill()
		}

		if labelled {
			dc.SetRGB(0.9, 0.9, 0.9)
			dc.DrawString(p.Name, cx+swatchGutter, cy+float64(swatchGutter+swatchSize+labelHeight-3))
		}
	}

	return dc.Image(), nil
}

func SaveSwatchCard(filename string, img image.Image) error {
	if err := gg.SavePNG(filename, img); err != nil {
		return fmt.Errorf("swatch write %s: %w", filename, err)
	}
	return nil
}
