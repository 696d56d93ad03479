package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrajectoryRecord(t *testing.T) {
	tr := NewTrajectory(4)
	tr.Record([]float32{1, 2}, []float32{3}, &StepResult{
		Reward:       0.5,
		Components:   map[string]float64{"forward": 0.6, "control": -0.1},
		EpisodeSteps: 1,
	}, -1.2, 0.8)
	tr.Record([]float32{4, 5}, []float32{6}, &StepResult{
		Reward:       -1.0,
		Components:   map[string]float64{"forward": 0, "control": -1.0},
		Done:         true,
		Termination:  "bad_z",
		EpisodeSteps: 2,
	}, -0.7, 0.4)

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, []float64{0.5, -1.0}, tr.Rewards)
	assert.Equal(t, []float64{0.6, 0}, tr.Components["forward"])
	assert.Equal(t, []float64{-0.1, -1.0}, tr.Components["control"])
	assert.Equal(t, []bool{false, true}, tr.Dones)
	assert.Equal(t, []string{"", "bad_z"}, tr.Terminations)
	assert.Equal(t, []float64{-1.2, -0.7}, tr.LogProbs)
	assert.Equal(t, []float64{0.8, 0.4}, tr.Values)
	assert.Equal(t, []int{1, 2}, tr.EpisodeSteps)
}

func rolloutFixture() *RolloutSet {
	// First trajectory: one finished episode of 2 steps, one unfinished
	// step. Second: three unfinished steps.
	a := NewTrajectory(3)
	a.Record([]float32{0}, []float32{0}, &StepResult{Reward: 1, Components: map[string]float64{"forward": 1}}, 0, 0)
	a.Record([]float32{0}, []float32{0}, &StepResult{Reward: 2, Components: map[string]float64{"forward": 2}, Done: true, Termination: "bad_z"}, 0, 0)
	a.Record([]float32{0}, []float32{0}, &StepResult{Reward: 3, Components: map[string]float64{"forward": 3}}, 0, 0)

	b := NewTrajectory(3)
	for i := 0; i < 3; i++ {
		b.Record([]float32{0}, []float32{0}, &StepResult{Reward: 4, Components: map[string]float64{"forward": 4}}, 0, 0)
	}
	return &RolloutSet{Trajectories: []*Trajectory{a, b}}
}

func TestRolloutSetAggregates(t *testing.T) {
	rs := rolloutFixture()

	assert.Equal(t, 6, rs.Steps())
	assert.InDelta(t, 18.0/6, rs.MeanReward(), 1e-12)
	// One done plus two unfinished tails: three episodes over six steps.
	assert.InDelta(t, 2.0, rs.MeanEpisodeLength(), 1e-12)
	assert.InDelta(t, 3.0, rs.ComponentMeans()["forward"], 1e-12)
	assert.Equal(t, map[string]int{"bad_z": 1}, rs.TerminationCounts())
}

func TestRolloutSetEmpty(t *testing.T) {
	rs := &RolloutSet{}
	assert.Equal(t, 0, rs.Steps())
	assert.Equal(t, 0.0, rs.MeanReward())
	assert.Equal(t, 0.0, rs.MeanEpisodeLength())
}

func TestRNGRange(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 200; i++ {
		v := r.Range(-0.25, 0.5)
		assert.True(t, v >= -0.25 && v < 0.5, "draw %v out of range", v)
	}
}

func TestRNGProb(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 50; i++ {
		assert.False(t, r.Prob(0))
	}
	hits := 0
	for i := 0; i < 200; i++ {
		if r.Prob(0.5) {
			hits++
		}
	}
	assert.True(t, hits > 50 && hits < 150, "got %d hits out of 200", hits)
}

func TestRNGNormalZeroStd(t *testing.T) {
	r := NewRNG(42)
	assert.Equal(t, float32(0), r.Normal(0))
}

func TestRNGReproducible(t *testing.T) {
	a, b := NewRNG(9), NewRNG(9)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Range(-1, 1), b.Range(-1, 1))
		assert.Equal(t, a.Normal(0.3), b.Normal(0.3))
	}
}
