package env

import (
	rng "github.com/leesper/go_rng"

	"github.com/pravsels/ksim/physics"
)

// Step is one control-step transition, the unit reward terms score: the
// simulation state before and after an action was held for a full control
// interval, plus the command vector the policy was tracking.
type Step struct {
	Model       *physics.Model
	Prev        physics.Data
	Cur         physics.Data
	Action      []float32
	PrevAction  []float32
	Commands    []float32
	Done        bool
	Termination string
	Dt          float32
}

// Trajectory is the time-major record of one environment's rollout:
// encoded network inputs, the actions taken, total and per-term rewards,
// episode bookkeeping, and the behaviour policy's log-probs and values.
type Trajectory struct {
	Inputs       [][]float32
	Actions      [][]float32
	Rewards      []float64
	Components   map[string][]float64
	Dones        []bool
	Terminations []string
	LogProbs     []float64
	Values       []float64
	EpisodeSteps []int
}

func NewTrajectory(steps int) *Trajectory {
	return &Trajectory{
		Inputs:       make([][]float32, 0, steps),
		Actions:      make([][]float32, 0, steps),
		Rewards:      make([]float64, 0, steps),
		Components:   make(map[string][]float64),
		Dones:        make([]bool, 0, steps),
		Terminations: make([]string, 0, steps),
		LogProbs:     make([]float64, 0, steps),
		Values:       make([]float64, 0, steps),
		EpisodeSteps: make([]int, 0, steps),
	}
}

// Record appends one control step. The trajectory takes ownership of the
// input and action slices.
func (tr *Trajectory) Record(input, action []float32, res *StepResult, logProb, value float64) {
	tr.Inputs = append(tr.Inputs, input)
	tr.Actions = append(tr.Actions, action)
	tr.Rewards = append(tr.Rewards, res.Reward)
	tr.Dones = append(tr.Dones, res.Done)
	tr.Terminations = append(tr.Terminations, res.Termination)
	tr.LogProbs = append(tr.LogProbs, logProb)
	tr.Values = append(tr.Values, value)
	tr.EpisodeSteps = append(tr.EpisodeSteps, res.EpisodeSteps)
	for name, v := range res.Components {
		tr.Components[name] = append(tr.Components[name], v)
	}
}

func (tr *Trajectory) Len() int { return len(tr.Rewards) }

// RolloutSet is one batch of trajectories, one per environment.
type RolloutSet struct {
	Trajectories []*Trajectory
}

// Steps is the total number of control steps across all trajectories.
func (rs *RolloutSet) Steps() int {
	n := 0
	for _, tr := range rs.Trajectories {
		n += tr.Len()
	}
	return n
}

// MeanReward is the mean per-step reward over the whole set.
func (rs *RolloutSet) MeanReward() float64 {
	var sum float64
	n := rs.Steps()
	if n == 0 {
		return 0
	}
	for _, tr := range rs.Trajectories {
		for _, r := range tr.Rewards {
			sum += r
		}
	}
	return sum / float64(n)
}

// MeanEpisodeLength is the mean number of control steps per episode.
// Unfinished trailing episodes count as one episode each.
func (rs *RolloutSet) MeanEpisodeLength() float64 {
	steps := rs.Steps()
	if steps == 0 {
		return 0
	}
	episodes := 0
	for _, tr := range rs.Trajectories {
		for _, done := range tr.Dones {
			if done {
				episodes++
			}
		}
		if n := tr.Len(); n > 0 && !tr.Dones[n-1] {
			episodes++
		}
	}
	return float64(steps) / float64(episodes)
}

// ComponentMeans averages each reward term over the whole set.
func (rs *RolloutSet) ComponentMeans() map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, tr := range rs.Trajectories {
		for name, vs := range tr.Components {
			for _, v := range vs {
				sums[name] += v
			}
			counts[name] += len(vs)
		}
	}
	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		means[name] = sum / float64(counts[name])
	}
	return means
}

// TerminationCounts tallies which terminations ended episodes.
func (rs *RolloutSet) TerminationCounts() map[string]int {
	counts := make(map[string]int)
	for _, tr := range rs.Trajectories {
		for _, name := range tr.Terminations {
			if name != "" {
				counts[name]++
			}
		}
	}
	return counts
}

// MetaState is the view of a running environment handed to output
// encoders: enough to caption a frame without exposing the environment.
type MetaState interface {
	Name() string
	Epoch() int
	Env() int
	Time() float32
	Reward() float64
	Done() (bool, string)
	State() string
}

// OutputEncoder turns a stream of environment states into some output
// form (an animated file, a live stream). Flush is called once at the end.
type OutputEncoder interface {
	Encode(ms MetaState) error
	Flush() error
}

// RNG bundles the generators one environment draws from. Every environment
// owns its own streams, keyed off its seed, so rollouts reproduce
// regardless of how workers are scheduled.
type RNG struct {
	uni   *rng.UniformGenerator
	gauss *rng.GaussianGenerator
}

func NewRNG(seed int64) *RNG {
	return &RNG{
		uni:   rng.NewUniformGenerator(seed),
		gauss: rng.NewGaussianGenerator(seed + 1),
	}
}

// Prob reports true with probability p.
func (r *RNG) Prob(p float32) bool { return r.uni.Float64() < float64(p) }

// Range draws uniformly from [lo, hi).
func (r *RNG) Range(lo, hi float32) float32 {
	return lo + float32(r.uni.Float64())*(hi-lo)
}

// Normal draws from a zero-mean gaussian with deviation std.
func (r *RNG) Normal(std float32) float32 {
	if std == 0 {
		return 0
	}
	return float32(r.gauss.Gaussian(0, float64(std)))
}
