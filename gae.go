package ksim

import (
	"gorgonia.org/tensor"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
)

// gae computes generalized advantage estimates over one trajectory with a
// reverse scan. A done step masks both the bootstrap value and the running
// trace, so the episodes inside a trajectory stay independent. The last
// step bootstraps off its own value estimate since the next one was never
// observed.
func gae(rewards, values []float64, dones []bool, gamma, lam float64) (advantages, returns []float64) {
	n := len(rewards)
	advantages = make([]float64, n)
	returns = make([]float64, n)

	var carry float64
	for t := n - 1; t >= 0; t-- {
		next := values[n-1]
		if t+1 < n {
			next = values[t+1]
		}
		mask := 1.0
		if dones[t] {
			mask = 0
		}
		delta := rewards[t] + gamma*next*mask - values[t]
		carry = delta + gamma*lam*mask*carry
		advantages[t] = carry
		returns[t] = carry + values[t]
	}
	return advantages, returns
}

// flatten concatenates a rollout set into the flat tensors the PPO update
// consumes, computing advantages and returns per trajectory on the way.
func flatten(set *env.RolloutSet, inputDim, actionDim int, gamma, lam float64) *acnet.Batch {
	n := set.Steps()
	xs := make([]float32, 0, n*inputDim)
	acts := make([]float32, 0, n*actionDim)
	lps := make([]float32, 0, n)
	advs := make([]float32, 0, n)
	rets := make([]float32, 0, n)
	vals := make([]float32, 0, n)

	for _, tr := range set.Trajectories {
		adv, ret := gae(tr.Rewards, tr.Values, tr.Dones, gamma, lam)
		for t := 0; t < tr.Len(); t++ {
			xs = append(xs, tr.Inputs[t]...)
			acts = append(acts, tr.Actions[t]...)
			lps = append(lps, float32(tr.LogProbs[t]))
			advs = append(advs, float32(adv[t]))
			rets = append(rets, float32(ret[t]))
			vals = append(vals, float32(tr.Values[t]))
		}
	}

	return &acnet.Batch{
		Inputs:     tensor.New(tensor.WithBacking(xs), tensor.WithShape(n, inputDim)),
		Actions:    tensor.New(tensor.WithBacking(acts), tensor.WithShape(n, actionDim)),
		LogProbs:   tensor.New(tensor.WithBacking(lps), tensor.WithShape(n)),
		Advantages: tensor.New(tensor.WithBacking(advs), tensor.WithShape(n)),
		Returns:    tensor.New(tensor.WithBacking(rets), tensor.WithShape(n)),
		Values:     tensor.New(tensor.WithBacking(vals), tensor.WithShape(n)),
	}
}
