package env

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravsels/ksim/physics"
)

func TestBadZTermination(t *testing.T) {
	term := &BadZTermination{Lower: 0.8, Upper: 4.0}
	m := testModel(2)
	d := newFakeData(2)

	d.qpos[2] = 1.3
	assert.False(t, term.Done(m, d))
	d.qpos[2] = 0.7
	assert.True(t, term.Done(m, d))
	d.qpos[2] = 4.5
	assert.True(t, term.Done(m, d))
}

func TestPitchRollTerminations(t *testing.T) {
	m := testModel(2)
	d := newFakeData(2)

	// rotate 0.5 rad about z: roll reads 0.5, pitch reads about -0.45
	d.qpos[3] = float32(math.Cos(0.25))
	d.qpos[4] = 0
	d.qpos[5] = 0
	d.qpos[6] = float32(math.Sin(0.25))

	assert.True(t, (&RollTooGreatTermination{MaxRoll: 0.4}).Done(m, d))
	assert.False(t, (&RollTooGreatTermination{MaxRoll: 0.6}).Done(m, d))
	assert.True(t, (&PitchTooGreatTermination{MaxPitch: 0.4}).Done(m, d))
	assert.False(t, (&PitchTooGreatTermination{MaxPitch: 0.5}).Done(m, d))
}

func TestMinimumHeightTermination(t *testing.T) {
	term := &MinimumHeightTermination{MinHeight: 0.6}
	m := testModel(2)
	d := newFakeData(2)

	d.qpos[2] = 0.61
	assert.False(t, term.Done(m, d))
	d.qpos[2] = 0.59
	assert.True(t, term.Done(m, d))
}

func TestFastAccelerationTermination(t *testing.T) {
	m := testModel(2)
	d := newFakeData(2)

	term := &FastAccelerationTermination{}
	assert.False(t, term.Done(m, d))

	d.qvel[6] = 250
	assert.True(t, term.Done(m, d), "default cap is 200")
	assert.False(t, (&FastAccelerationTermination{MaxVelocity: 300}).Done(m, d))
}

func TestContactTermination(t *testing.T) {
	m := testModel(2)
	term, err := NewContactTermination(m, []string{"torso"}, DefaultContactEps)
	require.NoError(t, err)

	d := newFakeData(2)
	assert.False(t, term.Done(m, d), "no contacts at all")

	d.contacts = []physics.Contact{{Body: 1, Dist: -0.01}}
	assert.False(t, term.Done(m, d), "feet may touch the ground")

	d.contacts = []physics.Contact{{Body: 0, Dist: -0.0005}}
	assert.False(t, term.Done(m, d), "grazing contact above eps does not fire")

	d.contacts = []physics.Contact{{Body: 0, Dist: -0.01}}
	assert.True(t, term.Done(m, d))
}

func TestContactTerminationUnknownBody(t *testing.T) {
	_, err := NewContactTermination(testModel(2), []string{"tail"}, DefaultContactEps)
	assert.Error(t, err)
}

func TestEpisodeLengthTermination(t *testing.T) {
	term := &EpisodeLengthTermination{MaxSeconds: 5}
	m := testModel(2)
	d := newFakeData(2)

	d.time = 4.99
	assert.False(t, term.Done(m, d))
	d.time = 5
	assert.True(t, term.Done(m, d))
}
