package lut

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report summarises how far the quantized table is from the real function at
// the sample points.
type Report struct {
	Entries      int
	MaxAbsError  float64
	MeanAbsError float64
	WorstAddress int
	Saturated    int
}

// Report compares every entry with fn evaluated at the same input.
func (t *Table) Report(fn Func) Report {
	decoded := t.Values()
	errs := make([]float64, len(decoded))
	saturated := 0
	lo, hi := t.Config.Format.Min(), t.Config.Format.Max()
	for i, got := range decoded {
		want := fn(t.Config.Input(i))
		if want > hi || want < lo {
			saturated++
		}
		errs[i] = math.Abs(got - want)
	}
	r := Report{Entries: len(errs), Saturated: saturated}
	if len(errs) == 0 {
		return r
	}
	r.WorstAddress = floats.MaxIdx(errs)
	r.MaxAbsError = errs[r.WorstAddress]
	r.MeanAbsError = stat.Mean(errs, nil)
	return r
}
