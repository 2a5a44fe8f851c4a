package snap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarsView(t *testing.T) {
	s := New(4)
	s.IsStar[1] = true
	s.IsStar[3] = true

	stars := s.Stars()
	require.Equal(t, []int{1, 3}, stars)

	// Writes through the view land in the underlying arrays.
	s.Decomp = make([]int, s.Len())
	for _, i := range stars { s.Decomp[i] = 2 }
	assert.Equal(t, []int{0, 2, 0, 2}, s.Decomp)
}

func TestDiscSubset(t *testing.T) {
	s := New(4)
	s.X[0] = [3]float64{1, 0, 0}   // inside
	s.X[1] = [3]float64{0, 30, 0}  // too far out
	s.X[2] = [3]float64{1, 1, 5}   // too high
	s.X[3] = [3]float64{-3, 4, -2} // inside

	assert.Equal(t, []int{0, 3}, DiscSubset(s, 10, 3))
}

func TestSpecificPotential(t *testing.T) {
	u := UnitSystem{G: G, PhiScale: 2}
	out, err := u.SpecificPotential([]float64{-1, -4}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -8}, out)

	_, err = UnitSystem{G: G}.SpecificPotential([]float64{-1}, nil)
	assert.Error(t, err, "unit system without a potential scale")
}

func TestVPhi(t *testing.T) {
	s := New(3)
	s.X[0] = [3]float64{1, 0, 0}
	s.V[0] = [3]float64{0, 2, 0} // prograde circular
	s.X[1] = [3]float64{0, 3, 0}
	s.V[1] = [3]float64{5, 0, 0} // retrograde
	// particle 2 sits on the axis

	assert.InDelta(t, 2.0, s.VPhi(0), 1e-12)
	assert.InDelta(t, -5.0, s.VPhi(1), 1e-12)
	assert.Equal(t, 0.0, s.VPhi(2))
}

func TestAttachJ(t *testing.T) {
	s := New(1)
	s.X[0] = [3]float64{1, 0, 0}
	s.V[0] = [3]float64{0, 3, 0}

	s.AttachJ()
	require.Len(t, s.J, 1)
	assert.InDeltaSlice(t, []float64{0, 0, 3}, s.J[0][:], 1e-12)
}

func TestMinEps(t *testing.T) {
	s := New(3)
	s.Eps[0], s.Eps[1], s.Eps[2] = 0.5, 0.2, 0.9
	assert.Equal(t, 0.2, s.MinEps())
}

func TestRxyR(t *testing.T) {
	s := New(1)
	s.X[0] = [3]float64{3, 4, 12}
	assert.InDelta(t, 5.0, s.Rxy(0), 1e-12)
	assert.InDelta(t, 13.0, s.R(0), 1e-12)
	assert.False(t, math.IsNaN(s.R(0)))
}
