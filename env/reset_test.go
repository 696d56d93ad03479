package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravsels/ksim/physics"
)

func TestRandomJointPositionReset(t *testing.T) {
	m := testModel(3)
	r := NewRNG(7)

	d := newFakeData(3)
	require.NoError(t, d.SetState(m.DefaultQPos, make([]float32, m.NV)))
	require.NoError(t, (&RandomJointPositionReset{Scale: 0.1}).Reset(m, d, r))

	qpos := d.QPos()
	assert.Equal(t, m.DefaultQPos[:physics.BaseQPosDim], qpos[:physics.BaseQPosDim],
		"base pose must be untouched")
	for i := 0; i < m.NU; i++ {
		assert.InDelta(t, 0, qpos[physics.BaseQPosDim+i], 0.1+1e-6)
	}
}

func TestRandomJointPositionResetClampsToLimits(t *testing.T) {
	m := testModel(3)
	r := NewRNG(7)

	d := newFakeData(3)
	require.NoError(t, d.SetState(m.DefaultQPos, make([]float32, m.NV)))
	require.NoError(t, (&RandomJointPositionReset{Scale: 100}).Reset(m, d, r))

	for i := 0; i < m.NU; i++ {
		p := d.QPos()[physics.BaseQPosDim+i]
		lim := m.JointLimits[i]
		assert.True(t, p >= lim[0] && p <= lim[1], "joint %d at %v outside limits", i, p)
	}
}

func TestRandomJointVelocityReset(t *testing.T) {
	m := testModel(3)
	r := NewRNG(11)

	d := newFakeData(3)
	require.NoError(t, d.SetState(m.DefaultQPos, make([]float32, m.NV)))
	require.NoError(t, (&RandomJointVelocityReset{Scale: 0.5}).Reset(m, d, r))

	qvel := d.QVel()
	for i := 0; i < physics.BaseQVelDim; i++ {
		assert.Equal(t, float32(0), qvel[i], "base velocity must be untouched")
	}
	for i := 0; i < m.NU; i++ {
		assert.InDelta(t, 0, qvel[physics.BaseQVelDim+i], 0.5+1e-6)
	}
}

func TestWeightRandomization(t *testing.T) {
	m := testModel(2)
	orig := append([]float32(nil), m.BodyMass...)

	(&WeightRandomization{Scale: 0.1}).Randomize(m, NewRNG(3))
	for i, mass := range m.BodyMass {
		ratio := mass / orig[i]
		assert.True(t, ratio >= 0.9-1e-6 && ratio <= 1.1+1e-6, "body %d scaled by %v", i, ratio)
	}
}

func TestDampingRandomization(t *testing.T) {
	m := testModel(2)
	orig := append([]float32(nil), m.JointDamping...)

	(&DampingRandomization{Scale: 0.2}).Randomize(m, NewRNG(5))
	for i, damp := range m.JointDamping {
		ratio := damp / orig[i]
		assert.True(t, ratio >= 0.8-1e-6 && ratio <= 1.2+1e-6, "joint %d scaled by %v", i, ratio)
	}
}
