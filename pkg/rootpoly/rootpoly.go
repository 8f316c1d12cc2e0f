package rootpoly

// Root-polynomial feature expansion of camera RGB, after Finlayson et
// al. Each feature is a monomial r^a.g^b.b^c taken to the power
// 1/(a+b+c), so every feature scales linearly with exposure - double
// the light, double the feature. That's the property that makes the
// fitted correction exposure-independent.
//
// The term table below is the single source of truth for column
// order. Fitting and applying a model both expand through it; if the
// orders ever diverged the predictions would be silently garbage.

import(
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// A term is the monomial r^PR * g^PG * b^PB, evaluated to the power
// 1/(PR+PG+PB).
type term struct {
	PR, PG, PB int
}

func (t term)eval(r, g, b float64) float64 {
	deg := t.PR + t.PG + t.PB
	v := math.Pow(r, float64(t.PR)) * math.Pow(g, float64(t.PG)) * math.Pow(b, float64(t.PB))
	if deg == 1 {
		return v
	}
	return math.Pow(v, 1.0/float64(deg))
}

// Terms added at each degree; the expansion for degree d is the
// concatenation of rows 1..d.
var termsByDegree = map[int][]term{
	1: {{1,0,0}, {0,1,0}, {0,0,1}},
	2: {{1,1,0}, {1,0,1}, {0,1,1}},
	3: {{2,1,0}, {2,0,1}, {1,2,0}, {1,1,1}, {1,0,2}, {0,2,1}, {0,1,2}},
	4: {{0,1,3}, {0,3,1}, {1,0,3}, {1,1,2}, {1,2,1}, {1,3,0}, {2,1,1}, {3,0,1}, {3,1,0}},
}

const MaxDegree = 4

type InvalidDegreeError struct {
	Degree int
}

func (e InvalidDegreeError)Error() string {
	return fmt.Sprintf("root-polynomial degree %d outside 1..%d", e.Degree, MaxDegree)
}

// Fractional powers of negative channel values aren't real numbers;
// callers clamp before expanding (see imgcorrect), we just refuse.
var ErrNegativeInput = errors.New("rootpoly: negative channel value in input")

func termsFor(degree int) ([]term, error) {
	if degree < 1 || degree > MaxDegree {
		return nil, InvalidDegreeError{degree}
	}
	ts := []term{}
	for d:=1; d<=degree; d++ {
		ts = append(ts, termsByDegree[d]...)
	}
	return ts, nil
}

// NumTerms returns the feature width k(d): 3, 6, 13, 22.
func NumTerms(degree int) (int, error) {
	ts, err := termsFor(degree)
	if err != nil {
		return 0, err
	}
	return len(ts), nil
}

// DegreeForTerms recovers the degree whose expansion is k columns
// wide. This is how a fitted correction matrix implies its own
// degree, from its row count.
func DegreeForTerms(k int) (int, bool) {
	n := 0
	for d:=1; d<=MaxDegree; d++ {
		n += len(termsByDegree[d])
		if n == k {
			return d, true
		}
	}
	return 0, false
}

// Expand maps an Nx3 RGB matrix to the Nx-k(d) root-polynomial
// feature matrix. Row i of the output depends only on row i of the
// input. The first 3 columns are always the RGB channels themselves.
func Expand(rgb mat.Matrix, degree int) (*mat.Dense, error) {
	ts, err := termsFor(degree)
	if err != nil {
		return nil, err
	}

	rows, cols := rgb.Dims()
	if cols != 3 {
		return nil, fmt.Errorf("rootpoly: input is %dx%d, want Nx3", rows, cols)
	}

	out := mat.NewDense(rows, len(ts), nil)
	for i:=0; i<rows; i++ {
		r, g, b := rgb.At(i,0), rgb.At(i,1), rgb.At(i,2)
		if r < 0 || g < 0 || b < 0 {
			return nil, ErrNegativeInput
		}
		for j, t := range ts {
			out.Set(i, j, t.eval(r, g, b))
		}
	}

	return out, nil
}
