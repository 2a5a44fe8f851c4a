/*package profile bins particles into equal-population radial bins and
reports per-bin circular-orbit reference quantities.

The bins are ordered by increasing cylindrical radius and each holds roughly
the same number of particles, so the sampling follows the mass distribution
rather than a fixed grid. Per-bin quantities can be broadcast back onto a
full particle set by radial bin membership with MapBack.
*/
package profile

import (
	"fmt"
	"math"
	"sort"

	"github.com/halosim/galkin/snap"
)

// Profile is an equal-population radial profile of a particle subset,
// carrying the circular-orbit reference quantities the decomposition
// normalizes against.
type Profile struct {
	R []float64 // mean cylindrical radius per bin
	N []int // particles per bin
	Phi []float64 // count weighted mean specific potential per bin
	VCirc []float64 // circular velocity at R
	JCirc []float64 // VCirc * R
	ECirc []float64 // Phi + VCirc^2/2

	edges []float64 // interior bin edges in cylindrical radius
}

// Len returns the number of bins.
func (p *Profile) Len() int { return len(p.R) }

// EqualN builds an equal-population radial profile of the particles idx in
// s. The circular velocity in each bin comes from the spherically enclosed
// mass of the full snapshot, vc = sqrt(G M(<r) / r), and the per-bin
// potential is converted into the specific energy basis of the snapshot's
// unit system.
func EqualN(s *snap.Snapshot, idx []int, nbins int) (*Profile, error) {
	if nbins < 1 {
		return nil, fmt.Errorf(
			"profile needs at least 1 bin, got %d: population of %d is too "+
				"small for the requested particles per bin", nbins, len(idx),
		)
	}
	if len(idx) < nbins {
		return nil, fmt.Errorf(
			"cannot split %d particles into %d bins", len(idx), nbins,
		)
	}

	phiSpec, err := s.Units.SpecificPotential(s.Phi, nil)
	if err != nil { return nil, err }

	// Sort a copy of the subset by cylindrical radius.
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.Slice(sorted, func(a, b int) bool {
		return s.Rxy(sorted[a]) < s.Rxy(sorted[b])
	})

	// Cumulative mass of the whole snapshot in spherical radius order.
	rAll := make([]float64, s.Len())
	for i := range rAll { rAll[i] = s.R(i) }
	order := make([]int, s.Len())
	for i := range order { order[i] = i }
	sort.Slice(order, func(a, b int) bool { return rAll[order[a]] < rAll[order[b]] })
	sortedR := make([]float64, s.Len())
	cumMass := make([]float64, s.Len())
	sum := 0.0
	for k, i := range order {
		sortedR[k] = rAll[i]
		sum += s.Mass[i]
		cumMass[k] = sum
	}

	p := &Profile{
		R: make([]float64, nbins),
		N: make([]int, nbins),
		Phi: make([]float64, nbins),
		VCirc: make([]float64, nbins),
		JCirc: make([]float64, nbins),
		ECirc: make([]float64, nbins),
		edges: make([]float64, 0, nbins-1),
	}

	for b := 0; b < nbins; b++ {
		start := b * len(sorted) / nbins
		end := (b + 1) * len(sorted) / nbins
		if b > 0 {
			rPrev := s.Rxy(sorted[start-1])
			rNext := s.Rxy(sorted[start])
			p.edges = append(p.edges, (rPrev+rNext)/2)
		}

		rSum, phiSum := 0.0, 0.0
		for _, i := range sorted[start:end] {
			rSum += s.Rxy(i)
			phiSum += phiSpec[i]
		}
		n := end - start
		p.N[b] = n
		p.R[b] = rSum / float64(n)
		p.Phi[b] = phiSum / float64(n)

		m := enclosedMass(sortedR, cumMass, p.R[b])
		if p.R[b] > 0 {
			p.VCirc[b] = math.Sqrt(s.Units.G * m / p.R[b])
		}
		p.JCirc[b] = p.VCirc[b] * p.R[b]
		p.ECirc[b] = p.Phi[b] + p.VCirc[b]*p.VCirc[b]/2
	}

	return p, nil
}

// enclosedMass returns the cumulative mass inside radius r given the sorted
// radii and running mass sums of the full snapshot.
func enclosedMass(sortedR, cumMass []float64, r float64) float64 {
	j := sort.SearchFloat64s(sortedR, r)
	if j == 0 { return 0 }
	return cumMass[j-1]
}

// ShiftEnergy subtracts offset from the profile's potential, which carries
// through to the circular energy. Used to put the profile on the same energy
// zero point as the particle energies.
func (p *Profile) ShiftEnergy(offset float64) {
	for b := range p.Phi {
		p.Phi[b] -= offset
		p.ECirc[b] -= offset
	}
}

// BinOf returns the radial bin index of a particle at cylindrical radius
// rxy. Radii beyond the binned range clamp to the nearest bin.
func (p *Profile) BinOf(rxy float64) int {
	return sort.SearchFloat64s(p.edges, rxy)
}

// MapBack broadcasts the per-bin values vals onto every particle of s by
// radial bin membership, writing into out (allocated if nil). vals must
// have one value per bin; it is usually one of the profile's own columns.
func (p *Profile) MapBack(vals []float64, s *snap.Snapshot, out []float64) []float64 {
	if len(vals) != p.Len() {
		panic("MapBack values do not have one entry per bin.")
	}
	if out == nil { out = make([]float64, s.Len()) }
	for i := 0; i < s.Len(); i++ {
		out[i] = vals[p.BinOf(s.Rxy(i))]
	}
	return out
}
