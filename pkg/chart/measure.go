package chart

// A Measurement is one capture of a chart: the camera's RGB response
// for each patch, paired with the patch's reference XYZ. This is the
// minimal data the correction core consumes, plus enough capture
// metadata to tell two measurement files apart later.

import(
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"
	"gonum.org/v1/gonum/mat"
)

type PatchMeasurement struct {
	Name      string
	CameraRGB [3]float64 `yaml:"camerargb,flow"`
	RefXYZ    [3]float64 `yaml:"refxyz,flow"`
}

type Measurement struct {
	Chart        string
	Camera       string
	ISO          int64  `yaml:",omitempty"`
	ApertureX10  int64  `yaml:",omitempty"` // f-number x10, as found in EXIF rationals
	ShutterSpeed string `yaml:",omitempty"` // e.g. "1/250"

	Patches      []PatchMeasurement
}

// RGBMatrix returns the Nx3 camera response matrix, patch order
// preserved.
func (m Measurement)RGBMatrix() *mat.Dense {
	out := mat.NewDense(len(m.Patches), 3, nil)
	for i, p := range m.Patches {
		out.SetRow(i, p.CameraRGB[:])
	}
	return out
}

// XYZMatrix returns the Nx3 reference matrix, patch order preserved.
func (m Measurement)XYZMatrix() *mat.Dense {
	out := mat.NewDense(len(m.Patches), 3, nil)
	for i, p := range m.Patches {
		out.SetRow(i, p.RefXYZ[:])
	}
	return out
}

func (m Measurement)AsYaml() string {
	b, err := yaml.Marshal(m)
	if err != nil {
		log.Fatalf("Can't marshal measurement yaml: %v\n", err)
	}
	return string(b)
}

func SaveMeasurement(filename string, m Measurement) error {
	if err := os.WriteFile(filename, []byte(m.AsYaml()), 0644); err != nil {
		return fmt.Errorf("measurement write %s: %w", filename, err)
	}
	return nil
}

func newMeasurementFromYaml(b []byte) (Measurement, error) {
	var m Measurement
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Measurement{}, err
	}
	if len(m.Patches) == 0 {
		return Measurement{}, fmt.Errorf("measurement has no patches")
	}
	return m, nil
}

func LoadMeasurement(filename string) (Measurement, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Measurement{}, fmt.Errorf("measurement read %s: %w", filename, err)
	}

	m, err := newMeasurementFromYaml(contents)
	if err != nil {
		return Measurement{}, fmt.Errorf("measurement parse %s: %w", filename, err)
	}
	return m, nil
}
