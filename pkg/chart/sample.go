package chart

// Builds a Measurement from a photograph of a chart: average the
// center of each grid cell into one camera RGB triple, and pull the
// exposure metadata out of the EXIF so the measurement file records
// how it was shot.

import(
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
	_ "image/png"
)

// A GridSpec places the chart's patch grid inside the photo. Inset
// is the fraction of each cell skipped on every side before
// averaging, to stay clear of patch borders and markers.
type GridSpec struct {
	Bounds image.Rectangle
	Rows   int
	Cols   int
	Inset  float64
}

func DefaultGridSpec(img image.Image, c Chart) GridSpec {
	return GridSpec{
		Bounds: img.Bounds(),
		Rows:   c.Rows,
		Cols:   c.Cols,
		Inset:  0.25,
	}
}

type ExposureInfo struct {
	ISO          int64
	ApertureX10  int64
	ShutterNum   int64
	ShutterDenom int64
}

// SamplePatches walks the chart grid over the photo and produces a
// Measurement pairing each cell's mean camera RGB with the chart's
// reference XYZ. Patch order is the chart's row-major order.
func SamplePatches(img image.Image, c Chart, grid GridSpec) (Measurement, error) {
	if grid.Rows*grid.Cols != len(c.Patches) {
		return Measurement{}, fmt.Errorf("grid is %dx%d but chart %q has %d patches",
			grid.Rows, grid.Cols, c.Name, len(c.Patches))
	}

	m := Measurement{Chart: c.Name}

	cellW := float64(grid.Bounds.Dx()) / float64(grid.Cols)
	cellH := float64(grid.Bounds.Dy()) / float64(grid.Rows)

	for row:=0; row<grid.Rows; row++ {
		for col:=0; col<grid.Cols; col++ {
			x0 := grid.Bounds.Min.X + int(cellW * (float64(col) + grid.Inset))
			x1 := grid.Bounds.Min.X + int(cellW * (float64(col) + 1 - grid.Inset))
			y0 := grid.Bounds.Min.Y + int(cellH * (float64(row) + grid.Inset))
			y1 := grid.Bounds.Min.Y + int(cellH * (float64(row) + 1 - grid.Inset))

			var sumR, sumG, sumB float64
			n := 0
			for y:=y0; y<y1; y++ {
				for x:=x0; x<x1; x++ {
					r, g, b, _ := img.At(x, y).RGBA()
					sumR += float64(r) / float64(0xFFFF)
					sumG += float64(g) / float64(0xFFFF)
					sumB += float64(b) / float64(0xFFFF)
					n++
				}
			}
			if n == 0 {
				return Measurement{}, fmt.Errorf("grid cell %d,%d is empty after inset", row, col)
			}

			patch := c.Patches[row*grid.Cols + col]
			m.Patches = append(m.Patches, PatchMeasurement{
				Name:      patch.Name,
				CameraRGB: [3]float64{sumR / float64(n), sumG / float64(n), sumB / float64(n)},
				RefXYZ:    [3]float64{patch.X, patch.Y, patch.Z},
			})
		}
	}

	return m, nil
}

// LoadChartImage reads a chart photo (TIFF or PNG), and for TIFFs
// also digs the exposure metadata out of the EXIF.
func LoadChartImage(filename string) (image.Image, ExposureInfo, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".tif", ".tiff":
		return loadChartTIFF(filename)

	case ".png":
		f, err := os.Open(filename)
		if err != nil {
			return nil, ExposureInfo{}, fmt.Errorf("open %s: %w", filename, err)
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, ExposureInfo{}, fmt.Errorf("decode %s: %w", filename, err)
		}
		return img, ExposureInfo{}, nil

	default:
		return nil, ExposureInfo{}, fmt.Errorf("chart image %s: unhandled extension %q", filename, ext)
	}
}

func loadChartTIFF(filename string) (image.Image, ExposureInfo, error) {
	ei := ExposureInfo{}

	// First, try to load the EXIF metadata. A chart shot without it
	// is still usable; we just can't record how it was exposed.
	if reader, err := os.Open(filename); err != nil {
		return nil, ei, fmt.Errorf("open+r exif '%s': %v", filename, err)

	} else if ex, err := exif.Decode(reader); err != nil {
		reader.Close()

	} else {
		if tag,err := ex.Get(exif.ISOSpeedRatings); err == nil {
			if val,err := tag.Int64(0); err == nil {
				ei.ISO = val
			}
		}

		if tag,err := ex.Get(exif.FNumber); err == nil {
			if num,denom,err := tag.Rat2(0); err == nil {
				switch denom {
				case 10: ei.ApertureX10 = num
				case  5: ei.ApertureX10 = num * 2
				case  1: ei.ApertureX10 = num * 10
				}
			}
		}

		if tag,err := ex.Get(exif.ExposureTime); err == nil {
			if num,denom,err := tag.Rat2(0); err == nil {
				ei.ShutterNum, ei.ShutterDenom = num, denom
			}
		}

		reader.Close()
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, ei, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, ei, fmt.Errorf("tiff decode %s: %w", filename, err)
	}
	return img, ei, nil
}

// Stamp copies the exposure info onto a measurement.
func (ei ExposureInfo)Stamp(m *Measurement) {
	m.ISO = ei.ISO
	m.ApertureX10 = ei.ApertureX10
	if ei.ShutterDenom != 0 {
		m.ShutterSpeed = fmt.Sprintf("%d/%d", ei.ShutterNum, ei.ShutterDenom)
	}
}
