package rootpoly

import(
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNumTerms(t *testing.T) {
	widths := map[int]int{1: 3, 2: 6, 3: 13, 4: 22}
	for degree, want := range widths {
		k, err := NumTerms(degree)
		assert.NoError(t, err)
		assert.Equal(t, want, k)

		d, ok := DegreeForTerms(want)
		assert.True(t, ok)
		assert.Equal(t, degree, d)
	}

	for _, k := range []int{0, 1, 2, 4, 5, 12, 14, 23} {
		_, ok := DegreeForTerms(k)
		assert.False(t, ok, "k=%d should imply no degree", k)
	}
}

func TestExpandBadDegree(t *testing.T) {
	rgb := mat.NewDense(1, 3, []float64{0.1, 0.2, 0.3})

	for _, degree := range []int{-1, 0, 5, 99} {
		out, err := Expand(rgb, degree)
		assert.Nil(t, out)
		assert.ErrorAs(t, err, &InvalidDegreeError{})
	}
}

func TestExpandShapes(t *testing.T) {
	rgb := mat.NewDense(4, 3, []float64{
		0.2, 0.4, 0.6,
		0.0, 0.5, 1.0,
		0.9, 0.9, 0.9,
		0.3, 0.1, 0.7,
	})

	for degree:=1; degree<=4; degree++ {
		out, err := Expand(rgb, degree)
		assert.NoError(t, err)

		k, _ := NumTerms(degree)
		rows, cols := out.Dims()
		assert.Equal(t, 4, rows)
		assert.Equal(t, k, cols)

		// First 3 columns are always the identity pass-through
		for i:=0; i<4; i++ {
			for j:=0; j<3; j++ {
				assert.Equal(t, rgb.At(i,j), out.At(i,j))
			}
		}
	}
}

func TestExpandPureRed(t *testing.T) {
	// Two of {r,g,b} are zero in every cross term, so everything past
	// the base channels vanishes.
	rgb := mat.NewDense(1, 3, []float64{1, 0, 0})

	out, err := Expand(rgb, 2)
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0}, out.RawRowView(0))
}

func TestExpandAllOnes(t *testing.T) {
	// Every monomial of 1s is 1, and every root of 1 is 1.
	rgb := mat.NewDense(1, 3, []float64{1, 1, 1})

	out, err := Expand(rgb, 3)
	assert.NoError(t, err)

	_, cols := out.Dims()
	assert.Equal(t, 13, cols)
	for j:=0; j<cols; j++ {
		assert.Equal(t, 1.0, out.At(0,j))
	}
}

func TestExpandKnownValues(t *testing.T) {
	rgb := mat.NewDense(1, 3, []float64{0.25, 1.0, 0.0})

	out, err := Expand(rgb, 2)
	assert.NoError(t, err)

	// sqrt(r.g), sqrt(r.b), sqrt(g.b)
	assert.InDelta(t, 0.5, out.At(0,3), 1e-12)
	assert.InDelta(t, 0.0, out.At(0,4), 1e-12)
	assert.InDelta(t, 0.0, out.At(0,5), 1e-12)

	out, err = Expand(rgb, 3)
	assert.NoError(t, err)
	// (r^2.g)^(1/3) = (0.0625)^(1/3)
	assert.InDelta(t, math.Pow(0.0625, 1.0/3.0), out.At(0,6), 1e-12)
	// (r.g^2)^(1/3) = (0.25)^(1/3)
	assert.InDelta(t, math.Pow(0.25, 1.0/3.0), out.At(0,8), 1e-12)
}

func TestExpandRowIndependence(t *testing.T) {
	a := mat.NewDense(2, 3, []float64{
		0.2, 0.4, 0.6,
		0.9, 0.1, 0.5,
	})
	b := mat.NewDense(2, 3, []float64{
		0.9, 0.1, 0.5,
		0.2, 0.4, 0.6,
	})

	for degree:=1; degree<=4; degree++ {
		fa, err := Expand(a, degree)
		assert.NoError(t, err)
		fb, err := Expand(b, degree)
		assert.NoError(t, err)

		_, cols := fa.Dims()
		for j:=0; j<cols; j++ {
			assert.Equal(t, fa.At(0,j), fb.At(1,j))
			assert.Equal(t, fa.At(1,j), fb.At(0,j))
		}
	}
}

func TestExpandNegativeInput(t *testing.T) {
	rgb := mat.NewDense(1, 3, []float64{0.5, -0.01, 0.5})

	out, err := Expand(rgb, 2)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrNegativeInput)
}

func TestExpandNotThreeColumns(t *testing.T) {
	wide := mat.NewDense(1, 4, []float64{1, 2, 3, 4})

	out, err := Expand(wide, 2)
	assert.Nil(t, out)
	assert.Error(t, err)
}
