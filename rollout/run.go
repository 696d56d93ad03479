package rollout

import (
	"context"

	"github.com/pkg/errors"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
)

// RunPolicy rolls a single fresh environment against the policy for steps
// control steps without recording a trajectory, feeding every state to the
// encoder when one is given. This is the viewer and eval path.
func RunPolicy(ctx context.Context, task *env.Task, policy Inferer, seed int64, steps int, enc env.OutputEncoder) error {
	en, err := env.NewEnv(task, 0, seed)
	if err != nil {
		return err
	}
	noise := env.NewRNG(seed + seedStride/2)
	input := make([]float32, task.InputDim())

	var reward float64
	for t := 0; t < steps; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		en.Observe(input)
		mean, std, _, err := policy.Infer(input)
		if err != nil {
			return errors.Wrapf(err, "run: step %d", t)
		}
		if err := checkFinite(mean, std); err != nil {
			return errors.Wrapf(err, "run: step %d", t)
		}

		action := make([]float32, len(mean))
		acnet.SampleGaussian(action, mean, std, func() float32 { return noise.Normal(1) })
		res, err := en.Step(action)
		if err != nil {
			return errors.Wrapf(err, "run: step %d", t)
		}
		reward += res.Reward

		if enc != nil {
			ms := metaState{
				name:   task.Name,
				env:    0,
				time:   float32(res.EpisodeSteps) * task.CtrlDt,
				reward: reward,
				done:   res.Done,
				term:   res.Termination,
				state:  en.Data().String(),
			}
			if res.Done {
				ms.state = res.FinalState
			}
			if err := enc.Encode(ms); err != nil {
				return errors.Wrapf(err, "run: encoding step %d", t)
			}
		}
		if res.Done {
			reward = 0
		}
	}
	return nil
}
