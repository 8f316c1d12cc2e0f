package correct

import "fmt"

// A DimensionMismatchError means the shapes handed to an apply or fit
// call can't be multiplied together. These are fatal to the call; no
// coercion, no fallback.
type DimensionMismatchError struct {
	Op         string
	Rows, Cols int
	Want       string
}

func (e DimensionMismatchError)Error() string {
	return fmt.Sprintf("%s: matrix is %dx%d, want %s", e.Op, e.Rows, e.Cols, e.Want)
}

func mismatch(op string, m interface{ Dims() (int, int) }, want string) DimensionMismatchError {
	r, c := m.Dims()
	return DimensionMismatchError{Op: op, Rows: r, Cols: c, Want: want}
}
