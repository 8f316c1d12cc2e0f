package chart

// Calibration quality report: per-patch CIEDE2000 delta-E between the
// corrected estimates and the references, with summary stats and a
// coarse histogram for eyeballing the error distribution.

import(
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/mat"
)

type PatchError struct {
	Name   string
	DeltaE float64
}

type Report struct {
	Patches    []PatchError
	MeanDeltaE float64
	MaxDeltaE  float64
	Hist       histogram.Histogram
}

// NewReport compares a corrected Nx3 XYZ matrix against the
// measurement's references, row for row.
func NewReport(m Measurement, corrected mat.Matrix) (Report, error) {
	rows, cols := corrected.Dims()
	if cols != 3 || rows != len(m.Patches) {
		return Report{}, fmt.Errorf("report: corrected matrix is %dx%d, want %dx3", rows, cols, len(m.Patches))
	}

	rep := Report{
		Hist: histogram.Histogram{NumBuckets: 20, ValMin: 0, ValMax: 20},
	}

	for i, p := range m.Patches {
		got := colorful.Xyz(corrected.At(i,0), corrected.At(i,1), corrected.At(i,2))
		ref := colorful.Xyz(p.RefXYZ[0], p.RefXYZ[1], p.RefXYZ[2])
		de := got.DistanceCIEDE2000(ref)

		rep.Patches = append(rep.Patches, PatchError{Name: p.Name, DeltaE: de})
		rep.MeanDeltaE += de
		if de > rep.MaxDeltaE {
			rep.MaxDeltaE = de
		}
		rep.Hist.Add(histogram.ScalarVal(int(de)))
	}
	rep.MeanDeltaE /= float64(len(m.Patches))

	return rep, nil
}

// WorstPatches returns the n patches with the largest delta-E,
// worst first.
func (r Report)WorstPatches(n int) []PatchError {
	sorted := make([]PatchError, len(r.Patches))
	copy(sorted, r.Patches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DeltaE > sorted[j].DeltaE })

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func (r Report)String() string {
	str := fmt.Sprintf("calibration report: mean dE %.2f, max dE %.2f over %d patches\n",
		r.MeanDeltaE, r.MaxDeltaE, len(r.Patches))

	for _, p := range r.WorstPatches(5) {
		str += fmt.Sprintf("  %-16.16s dE %5.2f\n", p.Name, p.DeltaE)
	}
	str += fmt.Sprintf("  dE distribution: %v\n", r.Hist)
	return str
}
