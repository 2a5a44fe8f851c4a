/*package root implements scalar root finding on an interval.
*/
package root

import (
	"math"
)

const (
	// maxIter bounds the bisection loop so a flat or ill-behaved objective
	// always terminates.
	maxIter = 64
	// xTol is the interval width below which the search stops.
	xTol = 1e-9
)

// Bisect searches (lo, hi) for a zero of f by bisection and returns the
// midpoint of the final bracket.
//
// The search assumes f is negative towards lo and positive towards hi. This
// is not checked: for the population statistics this package is used on, the
// objective is only sign-consistent rather than provably monotonic, so
// Bisect runs a bounded number of iterations and returns the best bracket
// midpoint rather than failing. A NaN objective value is treated as
// negative, which is what an empty-selection mean degenerates to.
func Bisect(lo, hi float64, f func(float64) float64) float64 {
	return BisectTol(lo, hi, xTol, f)
}

// BisectTol is Bisect with a caller-supplied interval tolerance.
func BisectTol(lo, hi, tol float64, f func(float64) float64) float64 {
	if hi <= lo {
		panic("Bisect interval is empty.")
	}
	if tol <= 0 || math.IsNaN(tol) {
		tol = xTol
	}

	for i := 0; i < maxIter && hi-lo > tol; i++ {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}
	return (lo + hi) / 2
}
