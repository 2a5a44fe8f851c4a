/*package decomp performs kinematic decomposition of the stellar population
of a galaxy snapshot.

Decomp assigns every star particle to one of five dynamical components
(thin disk, halo, bulge, thick disk, pseudo bulge) from its orbital energy
and its angular momentum normalized by the circular-orbit angular momentum
at the same energy or radius. The method follows Chris Brook's decomposition
scheme: a rotation curve of the disk provides the circular reference, the
spheroid/disk angular momentum boundary is solved for so that the spheroid
has no net rotation, and an energy cut splits the bound and unbound
non-disk populations.
*/
package decomp

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/halosim/galkin/math/interp"
	"github.com/halosim/galkin/math/root"
	"github.com/halosim/galkin/profile"
	"github.com/halosim/galkin/snap"
)

// Params configures a decomposition. Zero value is not useful: start from
// DefaultParams.
type Params struct {
	// Aligned skips the face-on alignment when the caller asserts the disk
	// is already in the xy plane.
	Aligned bool

	// JDiskMin and JDiskMax bound the angular momentum ratio band of the
	// thin disk.
	JDiskMin, JDiskMax float64

	// ECut is the energy boundary between the bulge and the halo. NaN means
	// use the median stellar energy.
	ECut float64

	// JCircFromR selects the by-radius circular reference: each particle
	// takes the circular angular momentum of its radial bin instead of an
	// energy interpolation. Use when the potential is not monotonic enough
	// for the energy inversion.
	JCircFromR bool

	// LogInterp interpolates log10(j_circ) against log10(-E_circ) instead
	// of j_circ against E_circ, resolving the steep high-binding-energy end
	// of the curve. Requires a bound system (all circular energies
	// negative).
	LogInterp bool

	// AngMomSize is the radius of the region whose net angular momentum
	// defines the disk axis during alignment.
	AngMomSize float64

	// ParticlesPerBin is the approximate population of each rotation curve
	// bin.
	ParticlesPerBin int

	// DiscRadius and the snapshot's minimum softening (times three) bound
	// the disc subset the rotation curve is measured in.
	DiscRadius float64
}

// DefaultParams returns the standard decomposition parameters: disk band
// [0.8, 1.1], median energy cut, energy interpolated circular reference, a
// 3 kpc angular momentum disk, and 500 particles per rotation curve bin.
func DefaultParams() Params {
	return Params{
		JDiskMin: 0.8,
		JDiskMax: 1.1,
		ECut: math.NaN(),
		AngMomSize: 3,
		ParticlesPerBin: 500,
		DiscRadius: 1000,
	}
}

// Decomp decomposes the stellar population of s into kinematic components.
//
// The snapshot is mutated in place: the fields KE, TE, J, JCirc and
// JzByJzCirc are attached to every particle and Decomp labels (see
// Component) are written for the star particles. The rotation curve profile
// used for the circular reference is returned for inspection.
//
// Unless p.Aligned is set, the snapshot is centered and rotated face-on for
// the duration of the call and restored before returning, on every exit
// path.
func Decomp(s *snap.Snapshot, p Params) (*profile.Profile, error) {
	stars := s.Stars()
	if len(stars) == 0 {
		return nil, fmt.Errorf("snapshot contains no star particles")
	}
	if p.ParticlesPerBin < 1 {
		return nil, fmt.Errorf(
			"particles per bin must be positive, got %d", p.ParticlesPerBin,
		)
	}

	var fr *snap.Frame
	if p.Aligned {
		fr = snap.Identity(s)
	} else {
		var err error
		fr, err = snap.FaceOn(s, p.AngMomSize)
		if err != nil { return nil, err }
	}
	defer fr.Revert()

	teMax, err := buildEnergies(s, stars)
	if err != nil { return nil, err }

	log.Printf("Making disk rotation curve...")

	disc := snap.DiscSubset(s, p.DiscRadius, 3*s.MinEps())
	nbins := len(disc) / p.ParticlesPerBin
	pro, err := profile.EqualN(s, disc, nbins)
	if err != nil { return nil, err }
	pro.ShiftEnergy(teMax)

	if p.JCircFromR {
		s.JCirc = pro.MapBack(pro.JCirc, s, s.JCirc)
		s.ECirc = pro.MapBack(pro.ECirc, s, s.ECirc)
	} else {
		if err := jCircFromEnergy(s, pro, p.LogInterp); err != nil {
			return nil, err
		}
	}

	s.AttachJ()
	if s.JzByJzCirc == nil { s.JzByJzCirc = make([]float64, s.Len()) }
	for i := range s.JzByJzCirc {
		s.JzByJzCirc[i] = s.J[i][2] / s.JCirc[i]
	}

	log.Printf("Finding spheroid/disk angular momentum boundary...")

	jCrit := criticalRatio(s, stars, p.JDiskMin)

	eCut := p.ECut
	if math.IsNaN(eCut) {
		eCut = medianOf(s.TE, stars)
	}
	log.Printf("E_cut = %.2e", eCut)

	if s.Decomp == nil { s.Decomp = make([]int, s.Len()) }
	classify(s, stars, eCut, jCrit, p.JDiskMin, p.JDiskMax)

	return pro, nil
}

// buildEnergies attaches the specific kinetic and total energy of every
// particle and shifts all total energies so the most energetic star sits at
// zero, making a bound stellar population entirely non-positive. Returns
// the offset that was removed.
func buildEnergies(s *snap.Snapshot, stars []int) (teMax float64, err error) {
	phiSpec, err := s.Units.SpecificPotential(s.Phi, nil)
	if err != nil { return 0, err }

	if s.KE == nil { s.KE = make([]float64, s.Len()) }
	if s.TE == nil { s.TE = make([]float64, s.Len()) }
	for i := range s.V {
		v := &s.V[i]
		s.KE[i] = (v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) / 2
		s.TE[i] = s.KE[i] + phiSpec[i]
	}

	teMax = math.Inf(-1)
	for _, i := range stars {
		if s.TE[i] > teMax { teMax = s.TE[i] }
	}
	log.Printf("te_max = %.2e", teMax)

	floats.AddConst(-teMax, s.TE)
	return teMax, nil
}

// jCircFromEnergy attaches the circular angular momentum of every particle
// by inverting the rotation curve's circular energy.
//
// The interpolant is evaluated at each particle's total energy. Energies
// above the curve's maximum get an infinite reference (such particles are
// nearly unbound and must not look disk-like), and energies below the
// minimum clamp to the innermost bin's value rather than extrapolating.
func jCircFromEnergy(s *snap.Snapshot, pro *profile.Profile, logInterp bool) error {
	n := pro.Len()
	if n < 2 {
		return fmt.Errorf(
			"rotation curve has %d bins; need at least 2 to invert", n,
		)
	}

	// Bins are radius ordered; reverse so circular energy ascends.
	exs := make([]float64, n)
	jys := make([]float64, n)
	for b := 0; b < n; b++ {
		exs[b] = pro.ECirc[n-1-b]
		jys[b] = pro.JCirc[n-1-b]
	}

	if s.JCirc == nil { s.JCirc = make([]float64, s.Len()) }

	if logInterp {
		for b := range exs {
			if exs[b] >= 0 {
				return fmt.Errorf(
					"log interpolation requires a bound rotation curve, "+
						"but bin energy %g is not negative", exs[b],
				)
			}
			exs[b] = math.Log10(-exs[b])
			jys[b] = math.Log10(jys[b])
		}
		// log10(-E) descends where E ascends, so this curve arrives
		// reversed; NewLinear sorts it.
		jFromE := interp.NewLinear(exs, jys)
		for i := range s.TE {
			s.JCirc[i] = math.Pow(10, jFromE.Eval(math.Log10(-s.TE[i])))
		}
	} else {
		jFromE := interp.NewLinear(exs, jys)
		jFromE.EvalAll(s.TE, s.JCirc)
	}

	eMax := floats.Max(pro.ECirc)
	eMin := floats.Min(pro.ECirc)
	for i, te := range s.TE {
		if te > eMax {
			s.JCirc[i] = math.Inf(+1)
		} else if te < eMin {
			s.JCirc[i] = pro.JCirc[0]
		}
	}

	return nil
}

// criticalRatio solves for the angular momentum ratio threshold below which
// the stellar population has no net rotation, separating the pressure
// supported spheroid from the rotating components.
//
// The objective, the mean tangential velocity of the stars below the
// threshold, is a physically motivated heuristic rather than a provably
// monotonic function; the bisection is bounded (see root.Bisect) and the
// result is clamped to jDiskMin, since a boundary inside the disk band
// means the decomposition has gone wrong (a disturbed or merging system).
func criticalRatio(s *snap.Snapshot, stars []int, jDiskMin float64) float64 {
	vphi := make([]float64, len(stars))
	ratio := make([]float64, len(stars))
	for k, i := range stars {
		vphi[k] = s.VPhi(i)
		ratio[k] = s.JzByJzCirc[i]
	}

	sel := make([]float64, 0, len(stars))
	objective := func(c float64) float64 {
		sel = sel[:0]
		for k, r := range ratio {
			if r < c { sel = append(sel, vphi[k]) }
		}
		if len(sel) == 0 { return math.NaN() }
		return stat.Mean(sel, nil)
	}

	jCrit := root.Bisect(0, 5, objective)
	log.Printf("j_crit = %.2e", jCrit)

	if jCrit > jDiskMin {
		log.Printf(
			"!! j_crit exceeds j_disk_min. This is usually a sign that " +
				"something is going wrong (train-wreck galaxy?)",
		)
		log.Printf("!! j_crit will be reset to j_disk_min=%.2e", jDiskMin)
		jCrit = jDiskMin
	}
	return jCrit
}

// classify writes the component label of every star particle.
//
// The thin disk band is assigned first; the remaining rules are disjoint
// from it and from each other, so together they partition the energy/ratio
// plane and each star gets exactly one label.
func classify(
	s *snap.Snapshot, stars []int,
	eCut, jCrit, jDiskMin, jDiskMax float64,
) {
	for _, i := range stars {
		te, r := s.TE[i], s.JzByJzCirc[i]

		if r > jDiskMin && r < jDiskMax {
			s.Decomp[i] = int(ThinDisk)
			continue
		}

		switch {
		case te > eCut && r < jCrit:
			s.Decomp[i] = int(Halo)
		case te <= eCut && r < jCrit:
			s.Decomp[i] = int(Bulge)
		case te <= eCut && r >= jCrit:
			s.Decomp[i] = int(PseudoBulge)
		case te > eCut && r >= jCrit:
			s.Decomp[i] = int(ThickDisk)
		}
	}
}

func medianOf(vals []float64, idx []int) float64 {
	sel := make([]float64, len(idx))
	for k, i := range idx { sel[k] = vals[i] }
	sort.Float64s(sel)
	return stat.Quantile(0.5, stat.Empirical, sel, nil)
}

