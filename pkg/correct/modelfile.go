package correct

// YAML persistence for a fitted Models bundle. Matrices travel as
// row-major data plus shape, so the file is diffable and editable by
// hand when someone wants to poke at a model.

import(
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v2"
	"gonum.org/v1/gonum/mat"

	"github.com/colorbench/chartcal/pkg/rootpoly"
)

type matrixFile struct {
	Rows int
	Cols int
	Data []float64 `yaml:",flow"`
}

type modelFile struct {
	Homography matrixFile
	Linear     matrixFile
	RootPoly   matrixFile `yaml:"rootpoly"`
	Ensemble   matrixFile
}

func toMatrixFile(m *mat.Dense) matrixFile {
	rows, cols := m.Dims()
	mf := matrixFile{Rows: rows, Cols: cols, Data: make([]float64, 0, rows*cols)}
	for i:=0; i<rows; i++ {
		mf.Data = append(mf.Data, m.RawRowView(i)...)
	}
	return mf
}

func (mf matrixFile)toDense(name, want string, checkShape func(r, c int) bool) (*mat.Dense, error) {
	if mf.Rows*mf.Cols != len(mf.Data) {
		return nil, fmt.Errorf("model %s: %dx%d shape disagrees with %d values", name, mf.Rows, mf.Cols, len(mf.Data))
	}
	if !checkShape(mf.Rows, mf.Cols) {
		return nil, fmt.Errorf("model %s: is %dx%d, want %s", name, mf.Rows, mf.Cols, want)
	}
	return mat.NewDense(mf.Rows, mf.Cols, mf.Data), nil
}

func (m Models)AsYaml() string {
	mf := modelFile{
		Homography: toMatrixFile(m.Homography),
		Linear:     toMatrixFile(m.Linear),
		RootPoly:   toMatrixFile(m.RootPoly),
		Ensemble:   toMatrixFile(m.Ensemble),
	}
	b, err := yaml.Marshal(mf)
	if err != nil {
		log.Fatalf("Can't marshal models yaml: %v\n", err)
	}
	return string(b)
}

func SaveModels(filename string, m Models) error {
	if err := os.WriteFile(filename, []byte(m.AsYaml()), 0644); err != nil {
		return fmt.Errorf("models write %s: %w", filename, err)
	}
	return nil
}

func newModelsFromYaml(b []byte) (Models, error) {
	var mf modelFile
	if err := yaml.Unmarshal(b, &mf); err != nil {
		return Models{}, err
	}

	is3x3 := func(r, c int) bool { return r == 3 && c == 3 }

	var m Models
	var err error
	if m.Homography, err = mf.Homography.toDense("homography", "3x3", is3x3); err != nil {
		return Models{}, err
	}
	if m.Linear, err = mf.Linear.toDense("linear", "3x3", is3x3); err != nil {
		return Models{}, err
	}
	m.RootPoly, err = mf.RootPoly.toDense("rootpoly", "k(d)x3", func(r, c int) bool {
		_, ok := rootpoly.DegreeForTerms(r)
		return ok && c == 3
	})
	if err != nil {
		return Models{}, err
	}
	if m.Ensemble, err = mf.Ensemble.toDense("ensemble", "9x3", func(r, c int) bool { return r == 9 && c == 3 }); err != nil {
		return Models{}, err
	}

	return m, nil
}

func LoadModels(filename string) (Models, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Models{}, fmt.Errorf("models read %s: %w", filename, err)
	}
	return newModelsFromYaml(contents)
}
