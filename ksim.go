// Package ksim is a task-definition framework for training locomotion
// policies on simulated robots. A task declares what the robot observes,
// what it is commanded to do and how it is scored; the trainer turns that
// declaration into batched rollouts and PPO updates over a gorgonia
// actor-critic network.
package ksim

import (
	"context"
	"log"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
	"github.com/pravsels/ksim/rollout"
)

// Trainer wires a task, its rollout engine, the actor-critic network and
// the PPO update into one training loop.
type Trainer struct {
	conf   Config
	task   *env.Task
	nn     *acnet.AC
	agent  *Agent
	engine *rollout.Engine
	stats  *Statistics

	runDir     string
	epoch      int
	bestReward float64
}

// New builds a Trainer for the task and creates its run directory. The
// network dimensions always come from the task; the other network
// settings come from conf.Net when set and fall back to the acnet
// defaults otherwise.
func New(task *env.Task, conf Config) (*Trainer, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid trainer config %+v", conf)
	}
	nnConf := conf.Net
	if nnConf.Hidden == 0 {
		nnConf = acnet.DefaultConf(task.InputDim(), task.ActionDim())
	}
	nnConf.InputDim = task.InputDim()
	nnConf.ActionDim = task.ActionDim()
	nnConf.FwdOnly = false
	conf.Net = nnConf
	if !nnConf.IsValid() {
		return nil, errors.Errorf("invalid network config %+v", nnConf)
	}

	nn := acnet.New(nnConf)
	if err := nn.Init(); err != nil {
		return nil, errors.WithMessage(err, "initializing the actor-critic network")
	}
	engine, err := rollout.NewEngine(task, conf.NumEnvs, conf.Seed)
	if err != nil {
		return nil, err
	}

	runDir, err := newRunDir(conf.RunDir, conf.Name)
	if err != nil {
		return nil, err
	}
	if err := conf.Save(filepath.Join(runDir, "config.yml")); err != nil {
		return nil, err
	}

	terms := make([]string, 0, len(task.Rewards))
	for _, r := range task.Rewards {
		terms = append(terms, r.Name())
	}
	stats := makeStatistics(terms)
	if err := stats.LogToCSV(filepath.Join(runDir, "train.tsv")); err != nil {
		return nil, err
	}

	return &Trainer{
		conf:   conf,
		task:   task,
		nn:     nn,
		agent:  newAgent(nn),
		engine: engine,
		stats:  stats,
		runDir: runDir,
	}, nil
}

func (t *Trainer) Epoch() int              { return t.epoch }
func (t *Trainer) RunDir() string          { return t.runDir }
func (t *Trainer) Statistics() *Statistics { return t.stats }

// Learn runs the PPO training loop until the configured number of epochs
// or the context ends.
func (t *Trainer) Learn(ctx context.Context) error {
	rolloutSteps := t.steps(t.conf.RolloutSeconds)
	for ; t.epoch < t.conf.Epochs; t.epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.agent.SwitchToInference(t.workers()); err != nil {
			return err
		}
		set, err := t.engine.Rollout(ctx, t.agent.Policies(), rolloutSteps, nil)
		if err != nil {
			return errors.Wrapf(err, "rollout for epoch %d", t.epoch)
		}

		batch := flatten(set, t.task.InputDim(), t.task.ActionDim(), t.conf.Gamma, t.conf.Lambda)
		ts, err := acnet.Train(t.nn, batch, t.conf.UpdateEpochs)
		if err != nil {
			return errors.Wrapf(err, "ppo update for epoch %d", t.epoch)
		}

		t.stats.Log(t.epoch, set, ts)
		mean := set.MeanReward()
		log.Printf("epoch %d: steps %d, mean reward %.4f, episode length %.1f, total objective %.4f",
			t.epoch, set.Steps(), mean, set.MeanEpisodeLength(), ts.TotalObjective)

		if t.conf.RenderEvery > 0 && t.conf.OutputEncoder != nil && (t.epoch+1)%t.conf.RenderEvery == 0 {
			if err := t.render(ctx); err != nil {
				return err
			}
		}
		if t.conf.CheckpointEvery > 0 && (t.epoch+1)%t.conf.CheckpointEvery == 0 {
			if err := t.checkpoint("checkpoint.gob", mean); err != nil {
				return err
			}
		}
		if mean > t.bestReward || t.epoch == 0 {
			t.bestReward = mean
			if err := t.checkpoint("best.gob", mean); err != nil {
				return err
			}
		}
	}
	if t.conf.OutputEncoder != nil {
		if err := t.conf.OutputEncoder.Flush(); err != nil {
			return errors.WithMessage(err, "flushing the output encoder")
		}
	}
	return nil
}

// Eval runs evaluation rollouts with the current weights and returns the
// resulting set.
func (t *Trainer) Eval(ctx context.Context) (*env.RolloutSet, error) {
	if err := t.agent.SwitchToInference(t.workers()); err != nil {
		return nil, err
	}
	return t.engine.Rollout(ctx, t.agent.Policies(), t.steps(t.conf.EvalSeconds), nil)
}

// RunEnvironment rolls a fresh environment with the current weights and
// feeds every frame to the configured output encoder. No training
// happens; an untrained Trainer views its random init.
func (t *Trainer) RunEnvironment(ctx context.Context, seconds float64) error {
	inf, err := acnet.Infer(t.nn)
	if err != nil {
		return err
	}
	defer inf.Close()

	if err := rollout.RunPolicy(ctx, t.task, inf, t.conf.Seed, t.steps(seconds), t.conf.OutputEncoder); err != nil {
		return err
	}
	if t.conf.OutputEncoder != nil {
		return t.conf.OutputEncoder.Flush()
	}
	return nil
}

// Save checkpoints the current network to filename.
func (t *Trainer) Save(filename string) error {
	return SaveCheckpoint(filename, t.nn, Checkpoint{Epoch: t.epoch, MeanReward: t.bestReward})
}

// Load replaces the training network with checkpointed weights. Training
// resumes after the checkpointed epoch.
func (t *Trainer) Load(filename string) error {
	nn, ck, err := LoadCheckpoint(filename, t.conf.Net)
	if err != nil {
		return err
	}
	if err := t.agent.Close(); err != nil {
		return err
	}
	t.nn = nn
	t.agent = newAgent(nn)
	t.epoch = ck.Epoch + 1
	t.bestReward = ck.MeanReward
	return nil
}

// Close releases the inference pool and the statistics file.
func (t *Trainer) Close() error {
	var errs manyErr
	if err := t.agent.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := t.stats.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// render runs an eval-length rollout through a fresh inference clone,
// feeding env 0's frames to the output encoder.
func (t *Trainer) render(ctx context.Context) error {
	inf, err := acnet.Infer(t.nn)
	if err != nil {
		return err
	}
	defer inf.Close()

	render := &rollout.Render{Encoder: t.conf.OutputEncoder, Epoch: t.epoch}
	_, err = t.engine.Rollout(ctx, []rollout.Inferer{inf}, t.steps(t.conf.EvalSeconds), render)
	return errors.Wrapf(err, "render for epoch %d", t.epoch)
}

func (t *Trainer) checkpoint(name string, meanReward float64) error {
	return SaveCheckpoint(filepath.Join(t.runDir, name), t.nn, Checkpoint{Epoch: t.epoch, MeanReward: meanReward})
}

func (t *Trainer) steps(seconds float64) int {
	n := int(seconds/float64(t.task.CtrlDt) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

func (t *Trainer) workers() int {
	n := runtime.NumCPU()
	if t.conf.NumEnvs < n {
		n = t.conf.NumEnvs
	}
	return n
}
