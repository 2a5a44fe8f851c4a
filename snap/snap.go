/*package snap holds an in-memory particle snapshot and the views and
filters the analysis routines operate on.

Particles are stored as parallel slices, one scalar (or small vector) per
particle. Analysis routines attach derived fields by filling in the
corresponding slices on Snapshot: the caller owns the snapshot and decides
what to do with the attached fields afterwards.
*/
package snap

import (
	"fmt"
	"math"
)

// G is Newton's constant in the package's default unit system:
// kpc (km/s)^2 / (1e10 Msun).
const G = 43.0071

// UnitSystem relates the snapshot's stored unit conventions to the specific
// energy basis the analysis works in. Positions are in kpc, velocities in
// km/s, and masses in 1e10 Msun unless the caller says otherwise.
type UnitSystem struct {
	G float64
	// PhiScale multiplies the stored potential to express it in velocity
	// squared (specific energy) units. Zero or negative means the stored
	// potential has no known conversion.
	PhiScale float64
}

// DefaultUnits is the unit system snapshots are created with.
var DefaultUnits = UnitSystem{G: G, PhiScale: 1}

// SpecificPotential converts the stored potential values into the specific
// energy basis, writing into out (allocated if nil).
func (u UnitSystem) SpecificPotential(phi []float64, out []float64) ([]float64, error) {
	if u.PhiScale <= 0 || math.IsNaN(u.PhiScale) {
		return nil, fmt.Errorf(
			"cannot convert potential into specific energy units: " +
				"unit system has no potential scale",
		)
	}
	if out == nil { out = make([]float64, len(phi)) }
	for i, p := range phi { out[i] = p * u.PhiScale }
	return out, nil
}

// Snapshot is a particle snapshot. The first block of fields is the input
// data, the second block is derived fields attached by analysis routines.
// All slices in use have length Len().
type Snapshot struct {
	X, V [][3]float64
	Mass, Eps, Phi []float64
	IsStar []bool

	Units UnitSystem

	// Derived per-particle fields. Nil until an analysis attaches them;
	// overwritten on re-runs.
	KE, TE []float64 // specific kinetic and total energy
	J [][3]float64 // specific angular momentum
	JCirc []float64 // circular angular momentum reference
	ECirc []float64 // circular energy reference (by-radius mode only)
	JzByJzCirc []float64
	JCircE, JCirc2E []float64 // energy-quantile estimate of JCirc
	Decomp []int // kinematic component label, stars only
}

// New creates an empty snapshot with capacity for n particles and the
// default unit system.
func New(n int) *Snapshot {
	return &Snapshot{
		X: make([][3]float64, n),
		V: make([][3]float64, n),
		Mass: make([]float64, n),
		Eps: make([]float64, n),
		Phi: make([]float64, n),
		IsStar: make([]bool, n),
		Units: DefaultUnits,
	}
}

// Len returns the number of particles in the snapshot.
func (s *Snapshot) Len() int { return len(s.X) }

// Stars returns the indices of the star particles. Writes through the
// returned view go to the underlying snapshot arrays.
func (s *Snapshot) Stars() []int {
	idx := []int{}
	for i, ok := range s.IsStar {
		if ok { idx = append(idx, i) }
	}
	return idx
}

// Rxy returns particle i's cylindrical radius about the z axis.
func (s *Snapshot) Rxy(i int) float64 {
	x, y := s.X[i][0], s.X[i][1]
	return math.Sqrt(x*x + y*y)
}

// R returns particle i's spherical radius.
func (s *Snapshot) R(i int) float64 {
	x, y, z := s.X[i][0], s.X[i][1], s.X[i][2]
	return math.Sqrt(x*x + y*y + z*z)
}

// VPhi returns particle i's cylindrical tangential velocity, signed so that
// rotation about +z is positive. Particles on the axis return 0.
func (s *Snapshot) VPhi(i int) float64 {
	rxy := s.Rxy(i)
	if rxy == 0 { return 0 }
	return (s.X[i][0]*s.V[i][1] - s.X[i][1]*s.V[i][0]) / rxy
}

// DiscSubset returns the indices of particles inside a disc of the given
// cylindrical radius and vertical half height, centered on the origin and
// aligned with the xy plane.
func DiscSubset(s *Snapshot, radius, halfHeight float64) []int {
	idx := []int{}
	for i := range s.X {
		if s.Rxy(i) <= radius && math.Abs(s.X[i][2]) <= halfHeight {
			idx = append(idx, i)
		}
	}
	return idx
}

// MinEps returns the smallest gravitational softening in the snapshot.
func (s *Snapshot) MinEps() float64 {
	min := math.Inf(+1)
	for _, e := range s.Eps {
		if e < min { min = e }
	}
	return min
}

// AttachJ computes and attaches the specific angular momentum vector of
// every particle in the current frame.
func (s *Snapshot) AttachJ() {
	if s.J == nil { s.J = make([][3]float64, s.Len()) }
	for i := range s.X {
		x, v := &s.X[i], &s.V[i]
		s.J[i][0] = x[1]*v[2] - x[2]*v[1]
		s.J[i][1] = x[2]*v[0] - x[0]*v[2]
		s.J[i][2] = x[0]*v[1] - x[1]*v[0]
	}
}
