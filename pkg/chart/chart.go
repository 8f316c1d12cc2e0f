package chart

// A calibration chart is an ordered grid of patches with known
// reference colors. Row order is meaningful everywhere in this
// repo - measurement rows, matrix rows and patch rows all
// correspond by index.

import(
	"github.com/lucasb-eyer/go-colorful"
)

type Patch struct {
	Name    string
	X, Y, Z float64 // reference tristimulus, Y normalized to [0,1]
}

type Chart struct {
	Name    string
	Rows    int
	Cols    int
	Patches []Patch // row-major, matching the Rows x Cols grid
}

// The classic 24-patch chart, with the well-known published sRGB
// aim values. Reference XYZ is derived from those at load time so
// there's only one set of numbers to keep right.
var classicPatches = []struct {
	name    string
	r, g, b uint8
}{
	{"dark skin",     115,  82,  68},
	{"light skin",    194, 150, 130},
	{"blue sky",       98, 122, 157},
	{"foliage",        87, 108,  67},
	{"blue flower",   133, 128, 177},
	{"bluish green",  103, 189, 170},
	{"orange",        214, 126,  44},
	{"purplish blue",  80,  91, 166},
	{"moderate red",  193,  90,  99},
	{"purple",         94,  60, 108},
	{"yellow green",  157, 188,  64},
	{"orange yellow", 224, 163,  46},
	{"blue",           56,  61, 150},
	{"green",          70, 148,  73},
	{"red",           175,  54,  60},
	{"yellow",        231, 199,  31},
	{"magenta",       187,  86, 149},
	{"cyan",            8, 133, 161},
	{"white",         243, 243, 242},
	{"neutral 8",     200, 200, 200},
	{"neutral 6.5",   160, 160, 160},
	{"neutral 5",     122, 122, 122},
	{"neutral 3.5",    85,  85,  85},
	{"black",          52,  52,  52},
}

func ColorChecker() Chart {
	c := Chart{
		Name: "colorchecker-classic",
		Rows: 4,
		Cols: 6,
	}
	for _, p := range classicPatches {
		col := colorful.Color{
			R: float64(p.r) / 255.0,
			G: float64(p.g) / 255.0,
			B: float64(p.b) / 255.0,
		}
		x, y, z := col.Xyz()
		c.Patches = append(c.Patches, Patch{Name: p.name, X: x, Y: y, Z: z})
	}
	return c
}
