package decomp

import (
	"fmt"
	"math"

	"github.com/halosim/galkin/profile"
	"github.com/halosim/galkin/snap"
)

// EstimateJCircFromEnergy estimates the circular angular momentum as a
// function of energy, without a rotation curve: the population is binned
// into equal-population bins of total energy and the given upper quantile
// of the squared scalar angular momentum in each bin stands in for the
// circular value.
//
// The per-particle estimates are attached as JCirc2E and JCircE (leaving
// the rotation curve based JCirc untouched) and the quantile profile is
// returned as a diagnostic. particlesPerBin <= 0 defaults to 500 and a NaN
// quantile defaults to 0.99.
func EstimateJCircFromEnergy(
	s *snap.Snapshot, particlesPerBin int, quantile float64,
) (*profile.QuantileProfile, error) {
	if particlesPerBin <= 0 { particlesPerBin = 500 }
	if math.IsNaN(quantile) { quantile = 0.99 }

	if s.Len() == 0 {
		return nil, fmt.Errorf("snapshot contains no particles")
	}

	// The estimate works on raw total energies: no star referenced offset
	// is needed since only the binning order matters.
	if s.TE == nil {
		phiSpec, err := s.Units.SpecificPotential(s.Phi, nil)
		if err != nil { return nil, err }
		if s.KE == nil { s.KE = make([]float64, s.Len()) }
		s.TE = make([]float64, s.Len())
		for i := range s.V {
			v := &s.V[i]
			s.KE[i] = (v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) / 2
			s.TE[i] = s.KE[i] + phiSpec[i]
		}
	}

	s.AttachJ()
	j2 := make([]float64, s.Len())
	for i := range s.J {
		j := &s.J[i]
		j2[i] = j[0]*j[0] + j[1]*j[1] + j[2]*j[2]
	}

	nbins := s.Len() / particlesPerBin
	pro, err := profile.EqualNQuantile(s.TE, j2, nbins, quantile)
	if err != nil { return nil, err }

	s.JCirc2E = pro.MapBack(s.TE, s.JCirc2E)
	if s.JCircE == nil { s.JCircE = make([]float64, s.Len()) }
	for i, v := range s.JCirc2E { s.JCircE[i] = math.Sqrt(v) }

	return pro, nil
}
