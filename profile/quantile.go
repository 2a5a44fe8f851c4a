package profile

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// QuantileProfile bins a population into equal-population bins of an
// arbitrary x quantity and reports a quantile of a y quantity in each bin.
type QuantileProfile struct {
	X []float64 // mean x per bin
	Q []float64 // the q quantile of y per bin
	N []int
	Quantile float64

	edges []float64 // interior bin edges in x
}

// Len returns the number of bins.
func (p *QuantileProfile) Len() int { return len(p.X) }

// EqualNQuantile builds an equal-population quantile profile of ys binned
// by xs.
func EqualNQuantile(xs, ys []float64, nbins int, q float64) (*QuantileProfile, error) {
	if len(xs) != len(ys) {
		panic("Length of input slices are not equal.")
	}
	if nbins < 1 {
		return nil, fmt.Errorf(
			"quantile profile needs at least 1 bin, got %d", nbins,
		)
	}
	if len(xs) < nbins {
		return nil, fmt.Errorf(
			"cannot split %d particles into %d bins", len(xs), nbins,
		)
	}
	if q < 0 || q > 1 {
		return nil, fmt.Errorf("quantile %g is not in [0, 1]", q)
	}

	order := make([]int, len(xs))
	for i := range order { order[i] = i }
	sort.Slice(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	p := &QuantileProfile{
		X: make([]float64, nbins),
		Q: make([]float64, nbins),
		N: make([]int, nbins),
		Quantile: q,
		edges: make([]float64, 0, nbins-1),
	}

	binYs := []float64{}
	for b := 0; b < nbins; b++ {
		start := b * len(order) / nbins
		end := (b + 1) * len(order) / nbins
		if b > 0 {
			p.edges = append(p.edges, (xs[order[start-1]]+xs[order[start]])/2)
		}

		binYs = binYs[:0]
		xSum := 0.0
		for _, i := range order[start:end] {
			binYs = append(binYs, ys[i])
			xSum += xs[i]
		}
		sort.Float64s(binYs)

		n := end - start
		p.N[b] = n
		p.X[b] = xSum / float64(n)
		p.Q[b] = stat.Quantile(q, stat.Empirical, binYs, nil)
	}

	return p, nil
}

// MapBack broadcasts the per-bin quantiles onto targetXs by bin membership,
// writing into out (allocated if nil). Values of x beyond the binned range
// clamp to the nearest bin.
func (p *QuantileProfile) MapBack(targetXs []float64, out []float64) []float64 {
	if out == nil { out = make([]float64, len(targetXs)) }
	for i, x := range targetXs {
		out[i] = p.Q[sort.SearchFloat64s(p.edges, x)]
	}
	return out
}
