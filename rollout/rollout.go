// Package rollout drives batches of environments against a policy,
// recording the trajectories PPO trains on. A fixed set of environments
// persists across rollouts so episodes can span training batches.
package rollout

import (
	"context"
	"runtime"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
)

// Inferer is the policy surface the engine rolls against.
type Inferer interface {
	Infer(input []float32) (mean, std []float32, value float32, err error)
}

// Render asks a rollout to feed environment 0 into an output encoder.
type Render struct {
	Encoder env.OutputEncoder
	Epoch   int
}

// Engine owns a batch of persistent environments. Rollouts unroll each
// environment for a fixed number of control steps, sampling actions from
// the policy's gaussian.
type Engine struct {
	task *env.Task
	envs []*env.Env

	// action sampling noise, one stream per environment so trajectories
	// reproduce regardless of worker scheduling
	noise []*env.RNG

	// cumulative episode reward per environment, carried across rollouts
	// for the render trailer
	episodeReward []float64
}

// seeds for the per-env streams are spread out so the env stream and the
// action noise stream of neighbouring environments never collide
const seedStride = 1000003

func NewEngine(task *env.Task, numEnvs int, seed int64) (*Engine, error) {
	if numEnvs < 1 {
		return nil, errors.Errorf("rollout: %d environments", numEnvs)
	}
	e := &Engine{
		task:          task,
		envs:          make([]*env.Env, numEnvs),
		noise:         make([]*env.RNG, numEnvs),
		episodeReward: make([]float64, numEnvs),
	}
	for i := range e.envs {
		s := seed + int64(i)*seedStride
		en, err := env.NewEnv(task, i, s)
		if err != nil {
			return nil, err
		}
		e.envs[i] = en
		e.noise[i] = env.NewRNG(s + seedStride/2)
	}
	return e, nil
}

func (e *Engine) NumEnvs() int    { return len(e.envs) }
func (e *Engine) Task() *env.Task { return e.task }

// Rollout unrolls every environment for steps control steps. Each policy
// serves one worker, so trajectories stay deterministic for a given
// engine seed no matter how the workers are scheduled. Worker count is
// the policy count, capped at NumCPU and the environment count.
func (e *Engine) Rollout(ctx context.Context, policies []Inferer, steps int, render *Render) (*env.RolloutSet, error) {
	if len(policies) == 0 {
		return nil, errors.New("rollout: no policies")
	}
	if steps < 1 {
		return nil, errors.Errorf("rollout: %d steps", steps)
	}
	workers := len(policies)
	if n := runtime.NumCPU(); n < workers {
		workers = n
	}
	if n := len(e.envs); n < workers {
		workers = n
	}

	trajectories := make([]*env.Trajectory, len(e.envs))
	for i := range trajectories {
		trajectories[i] = env.NewTrajectory(steps)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		policy := policies[w]
		g.Go(func() error {
			for i := w; i < len(e.envs); i += workers {
				rd := render
				if i != 0 {
					rd = nil
				}
				if err := e.unroll(gctx, i, policy, steps, trajectories[i], rd); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &env.RolloutSet{Trajectories: trajectories}, nil
}

func (e *Engine) unroll(ctx context.Context, i int, policy Inferer, steps int, tr *env.Trajectory, render *Render) error {
	en := e.envs[i]
	noise := e.noise[i]
	input := make([]float32, e.task.InputDim())

	for t := 0; t < steps; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		en.Observe(input)
		mean, std, value, err := policy.Infer(input)
		if err != nil {
			return errors.Wrapf(err, "rollout: env %d step %d", i, t)
		}
		if err := checkFinite(mean, std); err != nil {
			return errors.Wrapf(err, "rollout: env %d step %d", i, t)
		}

		action := make([]float32, len(mean))
		acnet.SampleGaussian(action, mean, std, func() float32 { return noise.Normal(1) })
		logProb := acnet.GaussianLogProb(action, mean, std)

		res, err := en.Step(action)
		if err != nil {
			return errors.Wrapf(err, "rollout: env %d step %d", i, t)
		}
		tr.Record(append([]float32(nil), input...), action, res, logProb, float64(value))

		e.episodeReward[i] += res.Reward
		if render != nil {
			if err := render.Encoder.Encode(e.meta(en, res, render.Epoch, e.episodeReward[i])); err != nil {
				return errors.Wrapf(err, "rollout: encoding env %d step %d", i, t)
			}
		}
		if res.Done {
			e.episodeReward[i] = 0
		}
	}
	return nil
}

func (e *Engine) meta(en *env.Env, res *env.StepResult, epoch int, reward float64) env.MetaState {
	ms := metaState{
		name:   e.task.Name,
		epoch:  epoch,
		env:    en.ID(),
		time:   float32(res.EpisodeSteps) * e.task.CtrlDt,
		reward: reward,
		done:   res.Done,
		term:   res.Termination,
		state:  en.Data().String(),
	}
	if res.Done {
		// the environment already reset; show the state that ended the
		// episode, not the fresh pose
		ms.state = res.FinalState
	}
	return ms
}

type metaState struct {
	name   string
	epoch  int
	env    int
	time   float32
	reward float64
	done   bool
	term   string
	state  string
}

func (ms metaState) Name() string         { return ms.name }
func (ms metaState) Epoch() int           { return ms.epoch }
func (ms metaState) Env() int             { return ms.env }
func (ms metaState) Time() float32        { return ms.time }
func (ms metaState) Reward() float64      { return ms.reward }
func (ms metaState) Done() (bool, string) { return ms.done, ms.term }
func (ms metaState) State() string        { return ms.state }

func checkFinite(mean, std []float32) error {
	for _, v := range mean {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return errors.Errorf("non-finite policy mean %v", v)
		}
	}
	for _, v := range std {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return errors.Errorf("non-finite policy std %v", v)
		}
	}
	return nil
}
