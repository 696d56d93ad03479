package acnet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func syntheticBatch(n, inputDim, actionDim int) *Batch {
	r := rand.New(rand.NewSource(42))
	inputs := make([]float32, n*inputDim)
	actions := make([]float32, n*actionDim)
	for i := range inputs {
		inputs[i] = r.Float32()*2 - 1
	}
	for i := range actions {
		actions[i] = r.Float32() - 0.5
	}
	lps := make([]float32, n)
	advs := make([]float32, n)
	rets := make([]float32, n)
	vals := make([]float32, n)
	for i := 0; i < n; i++ {
		lps[i] = -2 + r.Float32()
		advs[i] = float32(r.NormFloat64())
		vals[i] = r.Float32() - 0.5
		rets[i] = vals[i] + advs[i]
	}
	return &Batch{
		Inputs:     tensor.New(tensor.WithShape(n, inputDim), tensor.WithBacking(inputs)),
		Actions:    tensor.New(tensor.WithShape(n, actionDim), tensor.WithBacking(actions)),
		LogProbs:   tensor.New(tensor.WithShape(n), tensor.WithBacking(lps)),
		Advantages: tensor.New(tensor.WithShape(n), tensor.WithBacking(advs)),
		Returns:    tensor.New(tensor.WithShape(n), tensor.WithBacking(rets)),
		Values:     tensor.New(tensor.WithShape(n), tensor.WithBacking(vals)),
	}
}

func finite(t *testing.T, name string, v float64) {
	t.Helper()
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s = %v", name, v)
}

func TestTrain(t *testing.T) {
	conf := smallConf()
	a := New(conf)
	if err := a.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	before := append([]float32(nil), vector(a.Model()[0].Value())...)

	stats, err := Train(a, syntheticBatch(64, conf.InputDim, conf.ActionDim), 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	finite(t, "policy objective", stats.PolicyObjective)
	finite(t, "value objective", stats.ValueObjective)
	finite(t, "entropy objective", stats.EntropyObjective)
	finite(t, "total objective", stats.TotalObjective)
	finite(t, "average ratio", stats.AverageRatio)
	finite(t, "average log prob diff", stats.AverageLogProbDiff)
	assert.True(t, stats.AverageRatio > 0, "importance ratios are positive")
	assert.True(t, stats.AverageAdvantage >= 0)

	assert.NotEqual(t, before, vector(a.Model()[0].Value()), "weights did not move")
}

func TestTrainRejects(t *testing.T) {
	conf := smallConf()
	a := New(conf)
	require.NoError(t, a.Init())

	if _, err := Train(a, syntheticBatch(64, conf.InputDim, conf.ActionDim), 0); err == nil {
		t.Error("expected an error for zero epochs")
	}
	if _, err := Train(a, syntheticBatch(4, conf.InputDim, conf.ActionDim), 1); err == nil {
		t.Error("expected an error for a batch smaller than a minibatch")
	}

	conf.FwdOnly = true
	conf.BatchSize = 1
	fwd := New(conf)
	require.NoError(t, fwd.Init())
	if _, err := Train(fwd, syntheticBatch(64, conf.InputDim, conf.ActionDim), 1); err == nil {
		t.Error("expected an error for a fwd only net")
	}
}

func TestShuffleBatchKeepsRowsAligned(t *testing.T) {
	n, inputDim, actionDim := 16, 3, 2
	inputs := make([]float32, n*inputDim)
	actions := make([]float32, n*actionDim)
	scalars := make([]float32, n)
	for i := 0; i < n; i++ {
		for j := 0; j < inputDim; j++ {
			inputs[i*inputDim+j] = float32(i)
		}
		for j := 0; j < actionDim; j++ {
			actions[i*actionDim+j] = float32(i)
		}
		scalars[i] = float32(i)
	}
	mk := func(xs []float32, shape ...int) *tensor.Dense {
		return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(append([]float32(nil), xs...)))
	}
	data := &Batch{
		Inputs:     mk(inputs, n, inputDim),
		Actions:    mk(actions, n, actionDim),
		LogProbs:   mk(scalars, n),
		Advantages: mk(scalars, n),
		Returns:    mk(scalars, n),
		Values:     mk(scalars, n),
	}

	require.NoError(t, shuffleBatch(data))

	in := vector(data.Inputs)
	act := vector(data.Actions)
	lps := vector(data.LogProbs)
	advs := vector(data.Advantages)
	seen := make(map[float32]bool)
	for i := 0; i < n; i++ {
		row := in[i*inputDim]
		for j := 0; j < inputDim; j++ {
			assert.Equal(t, row, in[i*inputDim+j], "input row %d torn", i)
		}
		for j := 0; j < actionDim; j++ {
			assert.Equal(t, row, act[i*actionDim+j], "action row %d mismatched", i)
		}
		assert.Equal(t, row, lps[i])
		assert.Equal(t, row, advs[i])
		seen[row] = true
	}
	assert.Len(t, seen, n, "shuffle must permute, not duplicate")
}

func TestNormalize(t *testing.T) {
	xs := []float32{1, 2, 3, 4}
	normalize(xs)

	var mean float64
	for _, x := range xs {
		mean += float64(x)
	}
	mean /= 4
	assert.InDelta(t, 0, mean, 1e-6)

	var variance float64
	for _, x := range xs {
		variance += (float64(x) - mean) * (float64(x) - mean)
	}
	assert.InDelta(t, 1, math.Sqrt(variance/4), 1e-4)
}
