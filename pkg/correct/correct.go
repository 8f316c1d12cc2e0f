package correct

// The apply side of color correction: map camera RGB into XYZ
// through fitted models. Three methods (linear, color homography,
// root-polynomial), plus an ensemble that blends all three estimates
// through a learned weighting matrix.
//
// Everything here is a pure transform over in-memory matrices. No
// logging, no I/O; shape errors surface to the caller and the caller
// decides what to say about them.

import(
	"gonum.org/v1/gonum/mat"

	"github.com/colorbench/chartcal/pkg/cmath"
	"github.com/colorbench/chartcal/pkg/rootpoly"
)

// Models bundles the fitted matrices for one camera/illuminant
// combination. Treat a Models as immutable once loaded; concurrent
// apply calls share it freely.
type Models struct {
	Homography *mat.Dense // 3x3 color homography
	Linear     *mat.Dense // 3x3
	RootPoly   *mat.Dense // k(d)x3, the row count implies the degree
	Ensemble   *mat.Dense // 9x3, blends [Homography|Linear|RootPoly]
}

// Degree recovers the root-polynomial degree implied by the fitted
// matrix's row count.
func (m Models)Degree() (int, bool) {
	if m.RootPoly == nil {
		return 0, false
	}
	rows, _ := m.RootPoly.Dims()
	return rootpoly.DegreeForTerms(rows)
}

// LinearMat3 is the 3x3 linear model transposed into column-vector
// form, for per-pixel loops (see pkg/imgcorrect).
func (m Models)LinearMat3() cmath.Mat3 {
	var m3 cmath.Mat3
	for i:=0; i<3; i++ {
		for j:=0; j<3; j++ {
			m3[i*3+j] = m.Linear.At(i,j)
		}
	}
	return m3.Transpose()
}

func checkRGB(op string, rgb mat.Matrix) error {
	if _, cols := rgb.Dims(); cols != 3 {
		return mismatch(op, rgb, "Nx3 RGB")
	}
	return nil
}

// ApplyLinear maps RGB through a fitted 3x3 matrix: XYZ = RGB.M.
func ApplyLinear(rgb mat.Matrix, m *mat.Dense) (*mat.Dense, error) {
	if err := checkRGB("apply linear", rgb); err != nil {
		return nil, err
	}
	if r, c := m.Dims(); r != 3 || c != 3 {
		return nil, mismatch("apply linear model", m, "3x3")
	}

	var out mat.Dense
	out.Mul(rgb, m)
	return &out, nil
}

// ApplyHomography maps RGB through a fitted 3x3 color homography.
// The homography is defined only up to per-sample scale; that scale
// was estimated away during fitting, so the apply step is a plain
// product. It is NOT interchangeable with the linear model - the two
// were fitted under different objectives.
func ApplyHomography(rgb mat.Matrix, h *mat.Dense) (*mat.Dense, error) {
	if err := checkRGB("apply homography", rgb); err != nil {
		return nil, err
	}
	if r, c := h.Dims(); r != 3 || c != 3 {
		return nil, mismatch("apply homography model", h, "3x3")
	}

	var out mat.Dense
	out.Mul(rgb, h)
	return &out, nil
}

// ApplyRootPolynomial expands RGB to the degree implied by the fitted
// matrix's row count, then maps: XYZ = Expand(RGB).M.
func ApplyRootPolynomial(rgb mat.Matrix, m *mat.Dense) (*mat.Dense, error) {
	if err := checkRGB("apply rootpoly", rgb); err != nil {
		return nil, err
	}

	rows, cols := m.Dims()
	degree, ok := rootpoly.DegreeForTerms(rows)
	if !ok || cols != 3 {
		return nil, mismatch("apply rootpoly model", m, "k(d)x3 for d in 1..4")
	}

	features, err := rootpoly.Expand(rgb, degree)
	if err != nil {
		return nil, err
	}

	var out mat.Dense
	out.Mul(features, m)
	return &out, nil
}

// EvaluateEnsembleFeatures runs all three sub-correctors over raw RGB
// and concatenates their XYZ estimates, in the fixed order
// [Homography|Linear|RootPoly]. This is the feature matrix the
// ensemble weights were fitted against, so the order here and the
// order at fit time are the same code path.
func EvaluateEnsembleFeatures(rgb mat.Matrix, m Models) (*mat.Dense, error) {
	if err := checkRGB("ensemble features", rgb); err != nil {
		return nil, err
	}

	homo, err := ApplyHomography(rgb, m.Homography)
	if err != nil {
		return nil, err
	}
	lin, err := ApplyLinear(rgb, m.Linear)
	if err != nil {
		return nil, err
	}
	rp, err := ApplyRootPolynomial(rgb, m.RootPoly)
	if err != nil {
		return nil, err
	}

	rows, _ := rgb.Dims()
	out := mat.NewDense(rows, 9, nil)
	for i:=0; i<rows; i++ {
		for j:=0; j<3; j++ {
			out.Set(i, j,   homo.At(i,j))
			out.Set(i, j+3, lin.At(i,j))
			out.Set(i, j+6, rp.At(i,j))
		}
	}
	return out, nil
}

// BlendEnsemble collapses the concatenated per-method estimates into
// the final XYZ: Final = Estimates.Ensemble.
func BlendEnsemble(estimates mat.Matrix, ensemble *mat.Dense) (*mat.Dense, error) {
	_, ecols := estimates.Dims()
	erows, _ := ensemble.Dims()
	if ecols != erows {
		return nil, mismatch("blend ensemble", ensemble, "rows matching estimate width")
	}

	var out mat.Dense
	out.Mul(estimates, ensemble)
	return &out, nil
}

// ApplyEnsembleCorrection is the production entry point. Exactly 3
// columns means raw RGB: evaluate all three sub-correctors, then
// blend. More than 3 columns means the caller already assembled the
// per-method estimates (the offline ensemble-fitting path does this)
// and we go straight to the blend.
func ApplyEnsembleCorrection(x mat.Matrix, m Models) (*mat.Dense, error) {
	_, cols := x.Dims()

	switch {
	case cols == 3:
		estimates, err := EvaluateEnsembleFeatures(x, m)
		if err != nil {
			return nil, err
		}
		return BlendEnsemble(estimates, m.Ensemble)

	case cols > 3:
		return BlendEnsemble(x, m.Ensemble)

	default:
		return nil, mismatch("ensemble correction", x, "Nx3 RGB or pre-combined estimates")
	}
}
