package correct

// Offline fitting of the correction models from paired (camera RGB,
// reference XYZ) chart measurements. This runs once per
// camera/illuminant; the apply path never touches it.

import(
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/colorbench/chartcal/pkg/rootpoly"
)

const (
	homographyMaxIter = 50
	homographyTol     = 1e-9

	// The three sub-correctors all estimate the same XYZ, so the
	// concatenated ensemble features are strongly collinear and a
	// bare QR solve can hit a singular R. A whisper of ridge on the
	// normal matrix keeps the blend solvable without visibly biasing
	// it.
	ensembleRidge = 1e-8
)

// lstsq solves min |a.x - b| by QR. The system must be determined or
// overdetermined; QR factorization panics on a wide matrix, so an
// undersampled fit (fewer patches than model coefficients) has to be
// caught here and surfaced as the usual shape error.
func lstsq(a, b mat.Matrix) (*mat.Dense, error) {
	ar, ac := a.Dims()
	_, bc := b.Dims()
	if ar < ac {
		return nil, mismatch("least squares", a, fmt.Sprintf("at least %d rows for %d coefficients", ac, ac))
	}

	var qr mat.QR
	qr.Factorize(a)

	x := mat.NewDense(ac, bc, nil)
	if err := qr.SolveTo(x, false, b); err != nil {
		return nil, fmt.Errorf("least squares solve: %w", err)
	}
	return x, nil
}

// ridgeLstsq solves the normal equations (a'a + lambda.I)x = a'b.
func ridgeLstsq(a, b mat.Matrix, lambda float64) (*mat.Dense, error) {
	_, ac := a.Dims()

	var ata, atb, x mat.Dense
	ata.Mul(a.T(), a)
	for i:=0; i<ac; i++ {
		ata.Set(i, i, ata.At(i,i) + lambda)
	}
	atb.Mul(a.T(), b)

	if err := x.Solve(&ata, &atb); err != nil {
		return nil, fmt.Errorf("ridge solve: %w", err)
	}
	return &x, nil
}

func checkPairs(op string, rgb, xyz mat.Matrix) error {
	rr, rc := rgb.Dims()
	xr, xc := xyz.Dims()
	if rc != 3 {
		return mismatch(op, rgb, "Nx3 RGB")
	}
	if xc != 3 || xr != rr {
		return mismatch(op, xyz, fmt.Sprintf("%dx3 XYZ", rr))
	}
	return nil
}

// FitLinear fits the 3x3 least-squares map RGB -> XYZ.
func FitLinear(rgb, xyz mat.Matrix) (*mat.Dense, error) {
	if err := checkPairs("fit linear", rgb, xyz); err != nil {
		return nil, err
	}
	return lstsq(rgb, xyz)
}

// FitRootPolynomial expands RGB to the requested degree and fits the
// k(d)x3 correction matrix. The expansion goes through the same term
// table the apply path uses.
func FitRootPolynomial(rgb, xyz mat.Matrix, degree int) (*mat.Dense, error) {
	if err := checkPairs("fit rootpoly", rgb, xyz); err != nil {
		return nil, err
	}

	features, err := rootpoly.Expand(rgb, degree)
	if err != nil {
		return nil, err
	}
	return lstsq(features, xyz)
}

// FitHomography fits a 3x3 color homography by alternating least
// squares. A homography matches each target only up to per-sample
// scale, so each round re-estimates the scale that best aligns the
// current prediction with each reference, rescales the targets, and
// refits. Converges in a handful of rounds on chart-sized data.
func FitHomography(rgb, xyz mat.Matrix) (*mat.Dense, error) {
	if err := checkPairs("fit homography", rgb, xyz); err != nil {
		return nil, err
	}

	rows, _ := rgb.Dims()

	h, err := lstsq(rgb, xyz)
	if err != nil {
		return nil, err
	}

	scaled := mat.NewDense(rows, 3, nil)
	prev := math.Inf(1)

	for iter:=0; iter<homographyMaxIter; iter++ {
		var est mat.Dense
		est.Mul(rgb, h)

		// Per-sample scale d_i that best matches d_i.xyz_i to the
		// current prediction, in the least-squares sense. The scales
		// are renormalized to mean 1, otherwise the alternation can
		// drift everything toward zero together.
		ds := make([]float64, rows)
		mean := 0.0
		for i:=0; i<rows; i++ {
			num, den := 0.0, 0.0
			for j:=0; j<3; j++ {
				num += est.At(i,j) * xyz.At(i,j)
				den += xyz.At(i,j) * xyz.At(i,j)
			}
			ds[i] = 1.0
			if den > 0 {
				ds[i] = num / den
			}
			mean += ds[i]
		}
		mean /= float64(rows)
		if mean == 0 {
			mean = 1
		}
		for i:=0; i<rows; i++ {
			for j:=0; j<3; j++ {
				scaled.Set(i, j, xyz.At(i,j) * ds[i] / mean)
			}
		}

		var resid mat.Dense
		resid.Sub(&est, scaled)
		norm := mat.Norm(&resid, 2)
		if math.Abs(prev - norm) < homographyTol {
			break
		}
		prev = norm

		h, err = lstsq(rgb, scaled)
		if err != nil {
			return nil, err
		}
	}

	return h, nil
}

// FitEnsemble fits the 9x3 blending matrix over the concatenated
// sub-corrector estimates. It reuses EvaluateEnsembleFeatures so that
// fit-time and apply-time feature assembly can't drift apart.
func FitEnsemble(rgb, xyz mat.Matrix, m Models) (*mat.Dense, error) {
	if err := checkPairs("fit ensemble", rgb, xyz); err != nil {
		return nil, err
	}

	features, err := EvaluateEnsembleFeatures(rgb, m)
	if err != nil {
		return nil, err
	}
	return ridgeLstsq(features, xyz, ensembleRidge)
}

// Fit fits all four models from one set of chart measurements.
func Fit(rgb, xyz mat.Matrix, degree int) (Models, error) {
	var m Models
	var err error

	if m.Homography, err = FitHomography(rgb, xyz); err != nil {
		return Models{}, err
	}
	if m.Linear, err = FitLinear(rgb, xyz); err != nil {
		return Models{}, err
	}
	if m.RootPoly, err = FitRootPolynomial(rgb, xyz, degree); err != nil {
		return Models{}, err
	}
	if m.Ensemble, err = FitEnsemble(rgb, xyz, m); err != nil {
		return Models{}, err
	}

	return m, nil
}
