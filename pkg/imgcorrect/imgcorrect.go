package imgcorrect

// Applies a fitted model set to a whole image. Two paths:
// - "linear" runs the 3x3 model per pixel, the cheap preview path
// - "ensemble" batches each scanline through the full blended
//   correction, the quality path
// Both end in the same XYZ -> sRGB conversion and 16-bit output.

import(
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/codahale/hdrhistogram"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/hdrcolor"
	"gonum.org/v1/gonum/mat"

	"github.com/colorbench/chartcal/pkg/cmath"
	"github.com/colorbench/chartcal/pkg/correct"
)

type Corrector struct {
	Models    correct.Models
	Method    string // "ensemble" (default) or "linear"
	Verbosity int
}

// pixelRGB reads a pixel into camera-space HDR RGB, floored at zero.
// Sensor data shouldn't go negative, but fractional-power expansion
// can't tolerate it if it does, so clamping is our job here - the
// core refuses rather than clamps.
func pixelRGB(c color.Color) hdrcolor.RGB {
	r, g, b, _ := c.RGBA()
	v := cmath.Vec3{
		float64(r) / float64(0xFFFF),
		float64(g) / float64(0xFFFF),
		float64(b) / float64(0xFFFF),
	}
	v.FloorAt(0)
	return hdrcolor.RGB{R: v[0], G: v[1], B: v[2]}
}

func xyzToOutput(xyz hdrcolor.XYZ) color.RGBA64 {
	srgb := colorful.Xyz(xyz.X, xyz.Y, xyz.Z).Clamped()
	return color.RGBA64{
		R: uint16(srgb.R * 0xFFFF),
		G: uint16(srgb.G * 0xFFFF),
		B: uint16(srgb.B * 0xFFFF),
		A: 0xFFFF,
	}
}

// Correct runs the whole image through the model set and returns a
// 16-bit sRGB image.
func (c Corrector)Correct(img image.Image) (image.Image, error) {
	switch c.Method {
	case "", "ensemble":
		return c.correctEnsemble(img)
	case "linear":
		return c.correctLinear(img), nil
	default:
		return nil, fmt.Errorf("imgcorrect: no method named %q", c.Method)
	}
}

func (c Corrector)correctLinear(img image.Image) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA64(bounds)
	m3 := c.Models.LinearMat3()

	if c.Verbosity > 0 {
		log.Printf("linear correction matrix:-\n%s", m3)
	}

	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			rgb := pixelRGB(img.At(x, y))
			v := m3.Apply(cmath.Vec3{rgb.R, rgb.G, rgb.B})
			out.SetRGBA64(x, y, xyzToOutput(hdrcolor.XYZ{X: v[0], Y: v[1], Z: v[2]}))
		}
	}
	return out
}

func (c Corrector)correctEnsemble(img image.Image) (image.Image, error) {
	bounds := img.Bounds()
	out := image.NewRGBA64(bounds)
	width := bounds.Dx()
	if width == 0 || bounds.Dy() == 0 {
		return out, nil
	}

	// Output luminance distribution, in 0.01% of full scale; tells
	// us how much of the result the gamut clamp is eating.
	lumHist := hdrhistogram.New(1, 20000, 3)

	row := mat.NewDense(width, 3, nil)
	for y:=bounds.Min.Y; y<bounds.Max.Y; y++ {
		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			rgb := pixelRGB(img.At(x, y))
			row.SetRow(x - bounds.Min.X, []float64{rgb.R, rgb.G, rgb.B})
		}

		xyz, err := correct.ApplyEnsembleCorrection(row, c.Models)
		if err != nil {
			return nil, fmt.Errorf("imgcorrect row %d: %w", y, err)
		}

		for x:=bounds.Min.X; x<bounds.Max.X; x++ {
			i := x - bounds.Min.X
			p := hdrcolor.XYZ{X: xyz.At(i,0), Y: xyz.At(i,1), Z: xyz.At(i,2)}
			lumHist.RecordValue(int64(p.Y * 10000))
			out.SetRGBA64(x, y, xyzToOutput(p))
		}
	}

	if c.Verbosity > 0 {
		log.Printf("corrected %dx%d; Y p50=%.3f p99=%.3f max=%.3f\n",
			bounds.Dx(), bounds.Dy(),
			float64(lumHist.ValueAtQuantile(50)) / 10000.0,
			float64(lumHist.ValueAtQuantile(99)) / 10000.0,
			float64(lumHist.Max()) / 10000.0)
	}

	return out, nil
}
