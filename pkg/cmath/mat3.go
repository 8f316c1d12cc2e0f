package cmath

// 3x3 matrices and 3-vectors, used for the per-pixel color transform
// fast path. Bulk work over whole charts goes through gonum; a pixel
// loop doesn't want a mat.Dense per pixel.

import(
	"fmt"
	"golang.org/x/image/math/f64"  // Will be "image/math/f64" at some point, hopefully make this file redundant
)

type Vec3 f64.Vec3
type Mat3 f64.Mat3

// Apply treats v as a column vector: M.v
func (m Mat3)Apply(v Vec3) Vec3 {
	return Vec3{
		(m[3*0+0]*v[0] + m[3*0+1]*v[1] + m[3*0+2]*v[2]),
	  (m[3*1+0]*v[0] + m[3*1+1]*v[1] + m[3*1+2]*v[2]),
	  (m[3*2+0]*v[0] + m[3*2+1]*v[1] + m[3*2+2]*v[2]),
	}
}

// Transpose matters because the fitted models act on row vectors
// (sample-per-row matrices), while Apply treats its argument as a
// column vector.
func (m Mat3)Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

func (m Mat3)String() string {
	str := fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*0+0], m[3*0+1], m[3*0+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*1+0], m[3*1+1], m[3*1+2])
	str += fmt.Sprintf("[%10f, %10f, %10f]\n", m[3*2+0], m[3*2+1], m[3*2+2])
	return str
}

func (v *Vec3)FloorAt(min float64) {
	if v[0] < min { v[0] = min }
	if v[1] < min { v[1] = min }
	if v[2] < min { v[2] = min }
}
