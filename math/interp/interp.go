/*package interp implements 1-D interpolation over tabulated curves.

The curves handled here come from binned profiles, so the tabulated x values
are allowed to arrive in descending order, mildly out of order, or with
duplicates. Construction sorts the table; duplicated x values keep the first
tabulated value.
*/
package interp

import (
	"math"
	"sort"
)

// Linear is a linear interpolator over a tabulated curve.
type Linear struct {
	xs, vals []float64
}

// curvePoints sorts a tabulated curve by x while keeping the (x, val) pairs
// together. The sort is stable so that duplicated x values preserve their
// tabulated order.
type curvePoints struct {
	xs, vals []float64
}

func (c *curvePoints) Len() int { return len(c.xs) }
func (c *curvePoints) Less(i, j int) bool { return c.xs[i] < c.xs[j] }
func (c *curvePoints) Swap(i, j int) {
	c.xs[i], c.xs[j] = c.xs[j], c.xs[i]
	c.vals[i], c.vals[j] = c.vals[j], c.vals[i]
}

// NewLinear creates a linear interpolator for the curve which takes on the
// values vals at the points xs. The points do not need to be sorted or
// strictly monotonic: the constructor copies and sorts them.
func NewLinear(xs, vals []float64) *Linear {
	if len(xs) != len(vals) {
		panic("Length of input slices are not equal.")
	}
	if len(xs) < 2 {
		panic("Need at least two points to interpolate.")
	}

	lin := &Linear{
		xs: make([]float64, len(xs)),
		vals: make([]float64, len(vals)),
	}
	copy(lin.xs, xs)
	copy(lin.vals, vals)
	sort.Stable(&curvePoints{lin.xs, lin.vals})

	return lin
}

// XMin returns the smallest tabulated x value.
func (lin *Linear) XMin() float64 { return lin.xs[0] }

// XMax returns the largest tabulated x value.
func (lin *Linear) XMax() float64 { return lin.xs[len(lin.xs)-1] }

// Eval returns the interpolated value at x. Lookups are O(log |xs|).
//
// Values of x outside the tabulated range evaluate to NaN. Callers which
// need a different out-of-range policy apply it on top of this.
func (lin *Linear) Eval(x float64) float64 {
	if x < lin.XMin() || x > lin.XMax() || math.IsNaN(x) {
		return math.NaN()
	}

	i2 := sort.SearchFloat64s(lin.xs, x)
	if i2 == 0 { i2 = 1 }
	i1 := i2 - 1

	x1, x2 := lin.xs[i1], lin.xs[i2]
	v1, v2 := lin.vals[i1], lin.vals[i2]
	if x2 == x1 { return v1 } // duplicated x: keep the first tabulated value

	return ((v2 - v1) / (x2 - x1)) * (x - x1) + v1
}

// EvalAll evaluates the interpolator at all the given x values. If an output
// array is given, the output is written to that array (the array is still
// returned as a convenience).
//
// If more than one output array is provided, only the first is used.
func (lin *Linear) EvalAll(xs []float64, out ...[]float64) []float64 {
	if len(out) == 0 { out = [][]float64{ make([]float64, len(xs)) } }
	for i, x := range xs { out[0][i] = lin.Eval(x) }
	return out[0]
}
