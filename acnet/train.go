package acnet

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"gorgonia.org/tensor/native"
	"gorgonia.org/vecf32"
)

// Batch is one flattened rollout set ready for PPO updates: N control
// steps stacked row-wise, all float32.
type Batch struct {
	Inputs  *tensor.Dense // (N, InputDim)
	Actions *tensor.Dense // (N, ActionDim)

	LogProbs   *tensor.Dense // (N) behaviour policy log-probs
	Advantages *tensor.Dense // (N) GAE advantages
	Returns    *tensor.Dense // (N) value targets
	Values     *tensor.Dense // (N) behaviour policy values
}

func (b *Batch) Len() int { return b.Inputs.Shape()[0] }

func (b *Batch) check() error {
	n := b.Len()
	for name, t := range map[string]*tensor.Dense{
		"actions":    b.Actions,
		"logprobs":   b.LogProbs,
		"advantages": b.Advantages,
		"returns":    b.Returns,
		"values":     b.Values,
	} {
		if t == nil {
			return errors.Errorf("batch: nil %s", name)
		}
		if t.Shape()[0] != n {
			return errors.Errorf("batch: %s has %d rows, inputs have %d", name, t.Shape()[0], n)
		}
	}
	return nil
}

// TrainStats are the loss metrics averaged over every minibatch run of
// one Train call.
type TrainStats struct {
	PolicyObjective    float64
	ValueObjective     float64
	EntropyObjective   float64
	TotalObjective     float64
	AverageRatio       float64
	AverageLogProbDiff float64
	AverageAdvantage   float64
}

// Train runs epochs passes of minibatched PPO updates over the batch,
// reshuffling between passes. Adam with global-norm gradient clipping per
// the network config.
func Train(a *AC, data *Batch, epochs int) (*TrainStats, error) {
	if a.FwdOnly {
		return nil, errors.New("train: fwd only network")
	}
	if epochs < 1 {
		return nil, errors.Errorf("train: %d epochs", epochs)
	}
	if err := data.check(); err != nil {
		return nil, err
	}
	bs := a.BatchSize
	batches := data.Len() / bs
	if batches == 0 {
		return nil, errors.Errorf("train: %d rows cannot fill one batch of %d", data.Len(), bs)
	}

	m := G.NewTapeMachine(a.g, G.BindDualValues(a.Model()...))
	defer m.Close()
	model := G.NodesToValueGrads(a.Model())
	solver := G.NewAdamSolver(G.WithLearnRate(a.LearningRate))

	var s slicer
	var stats TrainStats
	runs := 0
	for epoch := 0; epoch < epochs; epoch++ {
		if err := shuffleBatch(data); err != nil {
			return nil, err
		}
		for bat := 0; bat < batches; bat++ {
			batchStart := bat * bs
			batchEnd := batchStart + bs

			xs := s.Slice(data.Inputs, sli(batchStart, batchEnd))
			acts := s.Slice(data.Actions, sli(batchStart, batchEnd))
			lps := s.Slice(data.LogProbs, sli(batchStart, batchEnd))
			advs := s.Slice(data.Advantages, sli(batchStart, batchEnd))
			rets := s.Slice(data.Returns, sli(batchStart, batchEnd))
			vals := s.Slice(data.Values, sli(batchStart, batchEnd))
			if s.err != nil {
				return nil, s.err
			}

			// the normalized advantages live in a copy so the raw ones
			// survive for the next pass
			advs = advs.Clone().(*tensor.Dense)
			advData := vector(advs)
			if a.NormAdv {
				normalize(advData)
			}

			G.Let(a.input, xs)
			G.Let(a.actions, acts)
			G.Let(a.oldLogProbs, lps)
			G.Let(a.advantages, advs)
			G.Let(a.returns, rets)
			G.Let(a.oldValues, vals)
			if err := m.RunAll(); err != nil {
				return nil, errors.Wrapf(err, "ppo pass %d batch %d", epoch, bat)
			}
			clipGradNorm(model, a.MaxGradNorm)
			if err := solver.Step(model); err != nil {
				return nil, err
			}

			stats.PolicyObjective += scalar(a.policyObj)
			stats.ValueObjective += scalar(a.valueObj)
			stats.EntropyObjective += scalar(a.entropyObj)
			stats.TotalObjective += scalar(a.totalObj)
			stats.AverageRatio += scalar(a.avgRatio)
			stats.AverageLogProbDiff += scalar(a.avgLogDiff)
			stats.AverageAdvantage += meanAbs(advData)
			runs++
			m.Reset()

			tensor.ReturnTensor(xs)
			tensor.ReturnTensor(acts)
			tensor.ReturnTensor(lps)
			tensor.ReturnTensor(rets)
			tensor.ReturnTensor(vals)
		}
	}

	stats.PolicyObjective /= float64(runs)
	stats.ValueObjective /= float64(runs)
	stats.EntropyObjective /= float64(runs)
	stats.TotalObjective /= float64(runs)
	stats.AverageRatio /= float64(runs)
	stats.AverageLogProbDiff /= float64(runs)
	stats.AverageAdvantage /= float64(runs)
	return &stats, nil
}

// shuffleBatch shuffles all six tensors with the same permutation.
func shuffleBatch(data *Batch) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	inputs, err := native.MatrixF32(data.Inputs)
	if err != nil {
		return errors.Wrapf(err, "shuffle batch failed - inputs")
	}
	actions, err := native.MatrixF32(data.Actions)
	if err != nil {
		return errors.Wrapf(err, "shuffle batch failed - actions")
	}
	lps := vector(data.LogProbs)
	advs := vector(data.Advantages)
	rets := vector(data.Returns)
	vals := vector(data.Values)

	width := data.Inputs.Shape()[1]
	if w := data.Actions.Shape()[1]; w > width {
		width = w
	}
	tmp := make([]float32, width)
	swap := func(mat [][]float32, i, j int) {
		copy(tmp, mat[i])
		copy(mat[i], mat[j])
		copy(mat[j], tmp[:len(mat[j])])
	}

	for i := range inputs {
		j := r.Intn(i + 1)
		swap(inputs, i, j)
		swap(actions, i, j)
		lps[i], lps[j] = lps[j], lps[i]
		advs[i], advs[j] = advs[j], advs[i]
		rets[i], rets[j] = rets[j], rets[i]
		vals[i], vals[j] = vals[j], vals[i]
	}
	return nil
}

// clipGradNorm rescales all gradients so their joint l2 norm stays at or
// below maxNorm.
func clipGradNorm(model []G.ValueGrad, maxNorm float64) {
	if maxNorm <= 0 {
		return
	}
	var total float64
	for _, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			continue
		}
		for _, g := range vector(grad) {
			total += float64(g) * float64(g)
		}
	}
	norm := math.Sqrt(total)
	if norm <= maxNorm {
		return
	}
	scale := float32(maxNorm / (norm + 1e-6))
	for _, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			continue
		}
		scaleValue(grad, scale)
	}
}

func scaleValue(v G.Value, by float32) {
	switch data := v.Data().(type) {
	case []float32:
		vecf32.Scale(data, by)
	case float32:
		if d, ok := v.(*tensor.Dense); ok {
			d.Set(0, data*by)
		}
	}
}

// normalize rescales to zero mean, unit deviation in place.
func normalize(xs []float32) {
	if len(xs) == 0 {
		return
	}
	var mean float64
	for _, x := range xs {
		mean += float64(x)
	}
	mean /= float64(len(xs))
	var variance float64
	for _, x := range xs {
		d := float64(x) - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(xs)))
	for i, x := range xs {
		xs[i] = float32((float64(x) - mean) / (std + 1e-8))
	}
}

func meanAbs(xs []float32) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += math.Abs(float64(x))
	}
	return sum / float64(len(xs))
}
