package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinearVelocityCommandSampling(t *testing.T) {
	r := NewRNG(99)
	c := &LinearVelocityCommand{XScale: 0.4, YScale: 0.2}

	for i := 0; i < 100; i++ {
		v := c.Sample(r)
		assert.Equal(t, 2, len(v))
		assert.LessOrEqual(t, v[0], float32(0.4))
		assert.GreaterOrEqual(t, v[0], float32(-0.4))
		assert.LessOrEqual(t, v[1], float32(0.2))
		assert.GreaterOrEqual(t, v[1], float32(-0.2))
	}
}

func TestLinearVelocityCommandZeroProb(t *testing.T) {
	r := NewRNG(99)
	c := &LinearVelocityCommand{XScale: 0.4, YScale: 0.2, ZeroProb: 1}
	for i := 0; i < 10; i++ {
		assert.Equal(t, []float32{0, 0}, c.Sample(r))
	}
}

func TestLinearVelocityCommandUpdate(t *testing.T) {
	r := NewRNG(99)
	cur := []float32{0.1, 0.2}

	keep := &LinearVelocityCommand{XScale: 0.4, YScale: 0.2, SwitchProb: 0}
	got := keep.Update(r, cur)
	assert.Equal(t, cur, got, "zero switch probability keeps the command")

	resample := &LinearVelocityCommand{XScale: 0.4, YScale: 0.2, SwitchProb: 1, ZeroProb: 1}
	assert.Equal(t, []float32{0, 0}, resample.Update(r, cur))
}

func TestAngularVelocityCommand(t *testing.T) {
	r := NewRNG(5)
	c := &AngularVelocityCommand{Scale: 1.5}
	for i := 0; i < 50; i++ {
		v := c.Sample(r)
		assert.Equal(t, 1, len(v))
		assert.LessOrEqual(t, v[0], float32(1.5))
		assert.GreaterOrEqual(t, v[0], float32(-1.5))
	}
	zero := &AngularVelocityCommand{Scale: 1.5, ZeroProb: 1}
	assert.Equal(t, []float32{0}, zero.Sample(r))
}
