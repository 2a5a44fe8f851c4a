package decomp

import (
	"bytes"
	"log"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halosim/galkin/profile"
	"github.com/halosim/galkin/snap"
)

// testGalaxy builds an already-aligned galaxy with a dominant central mass,
// nDisk stars on circular orbits in the xy plane and nSphere stars on
// isotropic low angular momentum orbits. Potentials are the point mass
// phi = -G M / r, so te = -G M / (2 r) for the circular population.
func testGalaxy(nDisk, nSphere int, seed int64) *snap.Snapshot {
	const m = 100.0
	rng := rand.New(rand.NewSource(seed))
	s := snap.New(1 + nDisk + nSphere)

	s.Mass[0] = m
	s.Phi[0] = -1e6
	s.Eps[0] = 1

	for k := 1; k <= nDisk; k++ {
		r := 2 + 18*rng.Float64()
		theta := 2 * math.Pi * rng.Float64()
		vc := math.Sqrt(s.Units.G * m / r)

		s.X[k] = [3]float64{r * math.Cos(theta), r * math.Sin(theta), 0}
		s.V[k] = [3]float64{-vc * math.Sin(theta), vc * math.Cos(theta), 0}
		s.Mass[k] = 1e-8
		s.Eps[k] = 1
		s.Phi[k] = -s.Units.G * m / r
		s.IsStar[k] = true
	}

	for k := nDisk + 1; k <= nDisk+nSphere; k++ {
		r := 2 + 18*rng.Float64()
		u, v0 := rng.Float64(), rng.Float64()
		phi, cosT := 2*math.Pi*u, 2*v0-1
		sinT := math.Sqrt(1 - cosT*cosT)
		s.X[k] = [3]float64{
			r * sinT * math.Cos(phi), r * sinT * math.Sin(phi), r * cosT,
		}
		// Radial plunge with a small random kick: bound, barely rotating.
		vr := 0.3 * math.Sqrt(s.Units.G*m/r)
		s.V[k] = [3]float64{
			-vr * s.X[k][0] / r, -vr * s.X[k][1] / r, -vr * s.X[k][2] / r,
		}
		s.V[k][0] += 0.05 * vr * (rng.Float64() - 0.5)
		s.V[k][1] += 0.05 * vr * (rng.Float64() - 0.5)
		s.Mass[k] = 1e-8
		s.Eps[k] = 1
		s.Phi[k] = -s.Units.G * m / r
		s.IsStar[k] = true
	}

	return s
}

func testParams() Params {
	p := DefaultParams()
	p.Aligned = true
	p.ParticlesPerBin = 200
	return p
}

func TestDecompAttachesFields(t *testing.T) {
	s := testGalaxy(2000, 500, 42)
	pro, err := Decomp(s, testParams())
	require.NoError(t, err)
	require.NotNil(t, pro)

	n := s.Len()
	require.Len(t, s.TE, n, "te attached to every particle, not only stars")
	require.Len(t, s.KE, n)
	require.Len(t, s.JCirc, n)
	require.Len(t, s.JzByJzCirc, n)
	require.Len(t, s.Decomp, n)

	teMax := math.Inf(-1)
	for _, i := range s.Stars() {
		if s.TE[i] > teMax { teMax = s.TE[i] }
	}
	assert.Equal(t, 0.0, teMax, "most energetic star defines the zero point")
}

func TestDecompJCircInvariants(t *testing.T) {
	s := testGalaxy(2000, 500, 43)
	pro, err := Decomp(s, testParams())
	require.NoError(t, err)

	eMax := math.Inf(-1)
	for _, e := range pro.ECirc {
		if e > eMax { eMax = e }
	}

	for i := range s.JCirc {
		if math.IsInf(s.JCirc[i], +1) {
			assert.Greater(t, s.TE[i], eMax, "infinite only above the curve")
			continue
		}
		assert.False(t, s.JCirc[i] < 0, "j_circ is never negative")
		assert.False(t, math.IsNaN(s.JCirc[i]), "clamps remove NaNs")
	}
}

func TestDecompDiskMajority(t *testing.T) {
	s := testGalaxy(3000, 300, 44)
	_, err := Decomp(s, testParams())
	require.NoError(t, err)

	counts := map[int]int{}
	stars := s.Stars()
	for _, i := range stars { counts[s.Decomp[i]]++ }

	assert.Greater(t, counts[int(ThinDisk)], len(stars)/2,
		"circular orbit population lands in the thin disk")
	for _, i := range stars {
		assert.NotEqual(t, int(Unassigned), s.Decomp[i],
			"every star gets a component")
	}
}

func TestDecompIdempotent(t *testing.T) {
	s := testGalaxy(1500, 400, 45)
	p := testParams()

	_, err := Decomp(s, p)
	require.NoError(t, err)
	first := make([]int, len(s.Decomp))
	copy(first, s.Decomp)

	_, err = Decomp(s, p)
	require.NoError(t, err)
	assert.Equal(t, first, s.Decomp, "re-running yields identical labels")
}

func TestDecompLogInterp(t *testing.T) {
	s := testGalaxy(2000, 500, 46)
	p := testParams()
	p.LogInterp = true

	_, err := Decomp(s, p)
	require.NoError(t, err)

	counts := map[int]int{}
	stars := s.Stars()
	for _, i := range stars { counts[s.Decomp[i]]++ }
	assert.Greater(t, counts[int(ThinDisk)], len(stars)/2)
}

func TestDecompByRadius(t *testing.T) {
	s := testGalaxy(2000, 500, 47)
	p := testParams()
	p.JCircFromR = true

	_, err := Decomp(s, p)
	require.NoError(t, err)
	require.Len(t, s.ECirc, s.Len(), "by-radius mode attaches E_circ too")

	counts := map[int]int{}
	stars := s.Stars()
	for _, i := range stars { counts[s.Decomp[i]]++ }
	assert.Greater(t, counts[int(ThinDisk)], len(stars)/2)
}

func TestDecompErrors(t *testing.T) {
	s := testGalaxy(100, 0, 48)
	for i := range s.IsStar { s.IsStar[i] = false }
	_, err := Decomp(s, testParams())
	assert.Error(t, err, "no stars")

	s = testGalaxy(100, 0, 49)
	p := testParams()
	p.ParticlesPerBin = 0
	_, err = Decomp(s, p)
	assert.Error(t, err, "bad particles per bin")

	s = testGalaxy(100, 0, 50)
	p = testParams()
	_, err = Decomp(s, p)
	assert.Error(t, err, "population too small for a single bin")

	s = testGalaxy(1000, 0, 51)
	s.Units.PhiScale = 0
	_, err = Decomp(s, testParams())
	assert.Error(t, err, "unit mismatch is fatal")
}

func TestClampBelowCurve(t *testing.T) {
	// A hand-built curve makes the clamp values exact.
	pro := &profile.Profile{
		R: []float64{1, 2, 3},
		Phi: []float64{-10, -6, -4},
		JCirc: []float64{5, 8, 10},
		ECirc: []float64{-8, -5, -3},
	}

	s := snap.New(3)
	s.TE = []float64{-100, -4, 100}
	require.NoError(t, jCircFromEnergy(s, pro, false))

	assert.Equal(t, 5.0, s.JCirc[0],
		"below the curve clamps to the innermost bin, no extrapolation")
	assert.InDelta(t, 8.0+2.0/2.0*(-4.0-(-5.0)), s.JCirc[1], 1e-12,
		"interior energies interpolate")
	assert.True(t, math.IsInf(s.JCirc[2], +1), "above the curve is infinite")
}

func TestLogInterpRequiresBoundCurve(t *testing.T) {
	pro := &profile.Profile{
		R: []float64{1, 2},
		Phi: []float64{-10, -6},
		JCirc: []float64{5, 8},
		ECirc: []float64{-8, 1},
	}
	s := snap.New(1)
	s.TE = []float64{-2}
	assert.Error(t, jCircFromEnergy(s, pro, true))
}

func TestCriticalRatioSafetyClamp(t *testing.T) {
	// A counter-rotating inner population pushes the solved boundary well
	// inside the disk band; the solver must refuse it and warn.
	s := snap.New(200)
	s.JzByJzCirc = make([]float64, 200)
	stars := make([]int, 200)
	for i := 0; i < 200; i++ {
		stars[i] = i
		s.Mass[i] = 1
		if i < 100 {
			s.X[i] = [3]float64{1, 0, 0}
			s.V[i] = [3]float64{0, -10, 0} // vphi = -10
			s.JzByJzCirc[i] = 0.5
		} else {
			s.X[i] = [3]float64{1, 0, 0}
			s.V[i] = [3]float64{0, 100, 0} // vphi = +100
			s.JzByJzCirc[i] = 3
		}
	}

	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)
	jCrit := criticalRatio(s, stars, 0.8)

	assert.Equal(t, 0.8, jCrit, "reset exactly to j_disk_min")
	assert.Contains(t, buf.String(), "j_crit exceeds j_disk_min")
}

func TestCriticalRatioRotatingDisk(t *testing.T) {
	// Everything rotates: the boundary collapses towards zero.
	s := snap.New(100)
	s.JzByJzCirc = make([]float64, 100)
	stars := make([]int, 100)
	for i := range stars {
		stars[i] = i
		s.X[i] = [3]float64{1, 0, 0}
		s.V[i] = [3]float64{0, 50, 0}
		s.JzByJzCirc[i] = 1
	}

	jCrit := criticalRatio(s, stars, 0.8)
	assert.Less(t, jCrit, 0.8)
}
