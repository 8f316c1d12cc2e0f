package correct

import(
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

// averagingEnsemble blends [H|L|RP] by weighting each method's
// matching output channel by 1/3.
func averagingEnsemble() *mat.Dense {
	e := mat.NewDense(9, 3, nil)
	for method:=0; method<3; method++ {
		for j:=0; j<3; j++ {
			e.Set(method*3+j, j, 1.0/3.0)
		}
	}
	return e
}

func identityModels() Models {
	return Models{
		Homography: identity3(),
		Linear:     identity3(),
		RootPoly:   identity3(), // degree 1
		Ensemble:   averagingEnsemble(),
	}
}

func TestApplyLinear(t *testing.T) {
	rgb := mat.NewDense(2, 3, []float64{
		0.2, 0.4, 0.6,
		0.1, 0.0, 0.9,
	})

	out, err := ApplyLinear(rgb, identity3())
	assert.NoError(t, err)
	assert.True(t, mat.EqualApprox(rgb, out, 1e-15))

	m := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	out, err = ApplyLinear(rgb, m)
	assert.NoError(t, err)
	assert.InDelta(t, 0.4, out.At(0,0), 1e-15)
	assert.InDelta(t, 0.4, out.At(0,1), 1e-15)
}

func TestApplyLinearBadShapes(t *testing.T) {
	rgb := mat.NewDense(1, 3, []float64{1, 1, 1})
	wide := mat.NewDense(1, 4, []float64{1, 1, 1, 1})

	_, err := ApplyLinear(wide, identity3())
	assert.ErrorAs(t, err, &DimensionMismatchError{})

	_, err = ApplyLinear(rgb, mat.NewDense(4, 3, nil))
	assert.ErrorAs(t, err, &DimensionMismatchError{})
}

func TestApplyRootPolynomialDegreeFromShape(t *testing.T) {
	rgb := mat.NewDense(1, 3, []float64{1, 1, 1})

	// 6x3 implies degree 2; all-ones input expands to all-ones
	// features, so each output channel is the model's column sum.
	m := mat.NewDense(6, 3, nil)
	for i:=0; i<6; i++ {
		m.Set(i, 0, 1)
	}
	out, err := ApplyRootPolynomial(rgb, m)
	assert.NoError(t, err)
	assert.InDelta(t, 6.0, out.At(0,0), 1e-15)
	assert.InDelta(t, 0.0, out.At(0,1), 1e-15)
}

func TestApplyRootPolynomialBadRowCount(t *testing.T) {
	rgb := mat.NewDense(1, 3, []float64{1, 1, 1})

	// 7 rows matches no k(d)
	_, err := ApplyRootPolynomial(rgb, mat.NewDense(7, 3, nil))
	assert.ErrorAs(t, err, &DimensionMismatchError{})
}

func TestEvaluateEnsembleFeatures(t *testing.T) {
	rgb := mat.NewDense(2, 3, []float64{
		0.2, 0.4, 0.6,
		0.9, 0.1, 0.5,
	})

	features, err := EvaluateEnsembleFeatures(rgb, identityModels())
	assert.NoError(t, err)

	rows, cols := features.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 9, cols)

	// With identity sub-models, the concatenation is [RGB|RGB|RGB]
	for i:=0; i<2; i++ {
		for j:=0; j<3; j++ {
			assert.InDelta(t, rgb.At(i,j), features.At(i,j),   1e-15)
			assert.InDelta(t, rgb.At(i,j), features.At(i,j+3), 1e-15)
			assert.InDelta(t, rgb.At(i,j), features.At(i,j+6), 1e-15)
		}
	}
}

func TestEnsembleIdentityRoundTrip(t *testing.T) {
	rgb := mat.NewDense(3, 3, []float64{
		0.2, 0.4, 0.6,
		0.9, 0.1, 0.5,
		1.0, 1.0, 1.0,
	})

	out, err := ApplyEnsembleCorrection(rgb, identityModels())
	assert.NoError(t, err)
	assert.True(t, mat.EqualApprox(rgb, out, 1e-12))
}

func TestEnsemblePreCombinedMode(t *testing.T) {
	// A >3 column input skips sub-model evaluation entirely; the
	// models' sub-matrices may even be nil.
	estimates := mat.NewDense(1, 9, []float64{
		1, 2, 3,  1, 2, 3,  1, 2, 3,
	})
	m := Models{Ensemble: averagingEnsemble()}

	out, err := ApplyEnsembleCorrection(estimates, m)
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, out.At(0,0), 1e-12)
	assert.InDelta(t, 2.0, out.At(0,1), 1e-12)
	assert.InDelta(t, 3.0, out.At(0,2), 1e-12)
}

func TestEnsembleShapeErrors(t *testing.T) {
	m := identityModels()

	// Too narrow to be RGB or pre-combined
	_, err := ApplyEnsembleCorrection(mat.NewDense(1, 2, nil), m)
	assert.ErrorAs(t, err, &DimensionMismatchError{})

	// Pre-combined width must match the ensemble row count
	_, err = ApplyEnsembleCorrection(mat.NewDense(1, 12, nil), m)
	assert.ErrorAs(t, err, &DimensionMismatchError{})

	_, err = BlendEnsemble(mat.NewDense(1, 9, nil), mat.NewDense(6, 3, nil))
	assert.ErrorAs(t, err, &DimensionMismatchError{})
}

func TestModelsDegree(t *testing.T) {
	m := identityModels()
	d, ok := m.Degree()
	assert.True(t, ok)
	assert.Equal(t, 1, d)

	m.RootPoly = mat.NewDense(13, 3, nil)
	d, ok = m.Degree()
	assert.True(t, ok)
	assert.Equal(t, 3, d)

	m.RootPoly = nil
	_, ok = m.Degree()
	assert.False(t, ok)
}

func TestLinearMat3(t *testing.T) {
	m := Models{Linear: mat.NewDense(3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})}
	m3 := m.LinearMat3()

	// Row-vector product [1,0,0].M picks out M's first row; the Mat3
	// column-vector form must agree.
	v := m3.Apply([3]float64{1, 0, 0})
	assert.InDelta(t, 1.0, v[0], 1e-15)
	assert.InDelta(t, 2.0, v[1], 1e-15)
	assert.InDelta(t, 3.0, v[2], 1e-15)
}
