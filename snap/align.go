package snap

import (
	"fmt"
	"math"
)

// matrix3 is a 3x3 rotation matrix, stored row major.
type matrix3 [9]float64

// rotate rotates v in place.
func (m *matrix3) rotate(v *[3]float64) {
	v0 := m[0]*v[0] + m[1]*v[1] + m[2]*v[2]
	v1 := m[3]*v[0] + m[4]*v[1] + m[5]*v[2]
	v2 := m[6]*v[0] + m[7]*v[1] + m[8]*v[2]
	v[0], v[1], v[2] = v0, v1, v2
}

// transpose returns the inverse of a rotation matrix.
func (m *matrix3) transpose() *matrix3 {
	return &matrix3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// faceOnMatrix builds the rotation taking the unit vector along j onto the
// +z axis.
func faceOnMatrix(j [3]float64) (*matrix3, error) {
	norm := math.Sqrt(j[0]*j[0] + j[1]*j[1] + j[2]*j[2])
	if norm == 0 || math.IsNaN(norm) {
		return nil, fmt.Errorf("cannot align: degenerate angular momentum vector")
	}
	zn := [3]float64{j[0] / norm, j[1] / norm, j[2] / norm}

	// Any reference axis not parallel to zn works.
	ref := [3]float64{1, 0, 0}
	if math.Abs(zn[0]) > 0.9 { ref = [3]float64{0, 1, 0} }

	xn := [3]float64{
		ref[1]*zn[2] - ref[2]*zn[1],
		ref[2]*zn[0] - ref[0]*zn[2],
		ref[0]*zn[1] - ref[1]*zn[0],
	}
	xnorm := math.Sqrt(xn[0]*xn[0] + xn[1]*xn[1] + xn[2]*xn[2])
	xn[0], xn[1], xn[2] = xn[0]/xnorm, xn[1]/xnorm, xn[2]/xnorm

	yn := [3]float64{
		zn[1]*xn[2] - zn[2]*xn[1],
		zn[2]*xn[0] - zn[0]*xn[2],
		zn[0]*xn[1] - zn[1]*xn[0],
	}

	return &matrix3{
		xn[0], xn[1], xn[2],
		yn[0], yn[1], yn[2],
		zn[0], zn[1], zn[2],
	}, nil
}

// Frame is a scoped coordinate transformation of a snapshot. Analysis
// routines acquire a Frame, work in the transformed coordinates, and call
// Revert to put the snapshot back, usually via defer so the original frame
// is restored on every exit path.
type Frame struct {
	s *Snapshot
	xoff, voff [3]float64
	rot *matrix3
	reverted bool
}

// Identity returns a no-op frame, used when the caller asserts that the
// snapshot is already centered and aligned.
func Identity(s *Snapshot) *Frame {
	return &Frame{s: s, reverted: false}
}

// Revert restores the snapshot to the coordinate frame it was in when the
// Frame was acquired. Calling Revert more than once is a no-op.
func (f *Frame) Revert() {
	if f.reverted { return }
	f.reverted = true
	if f.rot != nil {
		inv := f.rot.transpose()
		for i := range f.s.X {
			inv.rotate(&f.s.X[i])
			inv.rotate(&f.s.V[i])
		}
	}
	for i := range f.s.X {
		for k := 0; k < 3; k++ {
			f.s.X[i][k] += f.xoff[k]
			f.s.V[i][k] += f.voff[k]
		}
	}
}

// FaceOn centers the snapshot, removes its bulk motion, and rotates it so
// that the net angular momentum of the particles within discSize of the
// center points along +z, putting the disk in the xy plane. The returned
// Frame reverts all three operations.
//
// The center is seeded at the most bound particle and refined to the mass
// weighted mean position within discSize of the seed; the bulk velocity is
// the mass weighted mean velocity of the same sphere.
func FaceOn(s *Snapshot, discSize float64) (*Frame, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("cannot align an empty snapshot")
	}
	if discSize <= 0 {
		return nil, fmt.Errorf("cannot align: disc size %g is not positive", discSize)
	}

	f := &Frame{s: s}

	// Seed at the potential minimum. Snapshots without potentials fall back
	// to the raw mass weighted mean.
	var seed [3]float64
	if len(s.Phi) == s.Len() && s.Len() > 0 {
		iMin := 0
		for i, p := range s.Phi {
			if p < s.Phi[iMin] { iMin = i }
		}
		seed = s.X[iMin]
	} else {
		seed = massCenter(s, nil)
	}

	sphere := sphereSubset(s, seed, discSize)
	if len(sphere) == 0 {
		return nil, fmt.Errorf(
			"cannot align: no particles within %g of the center", discSize,
		)
	}

	f.xoff = massCenter(s, sphere)
	for i := range s.X {
		for k := 0; k < 3; k++ { s.X[i][k] -= f.xoff[k] }
	}

	sphere = sphereSubset(s, [3]float64{}, discSize)
	f.voff = massMeanV(s, sphere)
	for i := range s.V {
		for k := 0; k < 3; k++ { s.V[i][k] -= f.voff[k] }
	}

	var j [3]float64
	for _, i := range sphere {
		m, x, v := s.Mass[i], &s.X[i], &s.V[i]
		j[0] += m * (x[1]*v[2] - x[2]*v[1])
		j[1] += m * (x[2]*v[0] - x[0]*v[2])
		j[2] += m * (x[0]*v[1] - x[1]*v[0])
	}

	rot, err := faceOnMatrix(j)
	if err != nil {
		// Undo the shifts before reporting failure.
		f.Revert()
		return nil, err
	}
	f.rot = rot
	for i := range s.X {
		rot.rotate(&s.X[i])
		rot.rotate(&s.V[i])
	}

	return f, nil
}

func sphereSubset(s *Snapshot, center [3]float64, radius float64) []int {
	idx := []int{}
	r2 := radius * radius
	for i := range s.X {
		dx := s.X[i][0] - center[0]
		dy := s.X[i][1] - center[1]
		dz := s.X[i][2] - center[2]
		if dx*dx+dy*dy+dz*dz <= r2 { idx = append(idx, i) }
	}
	return idx
}

// massCenter returns the mass weighted mean position of the given particle
// indices, or of the whole snapshot if idx is nil.
func massCenter(s *Snapshot, idx []int) [3]float64 {
	var sum [3]float64
	mTot := 0.0
	if idx == nil {
		idx = make([]int, s.Len())
		for i := range idx { idx[i] = i }
	}
	for _, i := range idx {
		m := s.Mass[i]
		mTot += m
		for k := 0; k < 3; k++ { sum[k] += m * s.X[i][k] }
	}
	if mTot == 0 { return sum }
	for k := 0; k < 3; k++ { sum[k] /= mTot }
	return sum
}

func massMeanV(s *Snapshot, idx []int) [3]float64 {
	var sum [3]float64
	mTot := 0.0
	for _, i := range idx {
		m := s.Mass[i]
		mTot += m
		for k := 0; k < 3; k++ { sum[k] += m * s.V[i][k] }
	}
	if mTot == 0 { return sum }
	for k := 0; k < 3; k++ { sum[k] /= mTot }
	return sum
}
