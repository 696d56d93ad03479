// Package env is the environment side of the trainer: the data model that
// threads observations, commands, rewards and terminations through a
// physics engine, and the declarative term libraries tasks assemble.
//
// A Task describes an environment; an Env is one running instance with
// its own randomized model and RNG streams. Environments step at the
// control rate, running several physics substeps per control step.
package env

import (
	"github.com/pkg/errors"

	"github.com/pravsels/ksim/physics"
)

// Env is one running environment instance.
type Env struct {
	task  *Task
	model *physics.Model
	data  physics.Data
	prev  physics.Data
	rng   *RNG
	id    int

	ctrl       []float32
	commands   []float32
	prevAction []float32
	steps      int
}

// NewEnv builds environment id with its own randomized model clone and
// RNG stream, resets it and leaves it ready to step.
func NewEnv(t *Task, id int, seed int64) (*Env, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	e := &Env{
		task:       t,
		model:      t.Model.Clone(),
		rng:        NewRNG(seed),
		id:         id,
		ctrl:       make([]float32, t.Model.NU),
		prevAction: make([]float32, t.Model.NU),
	}
	for _, r := range t.Randomizations {
		r.Randomize(e.model, e.rng)
	}
	var err error
	if e.data, err = t.Engine.Init(e.model); err != nil {
		return nil, errors.Wrapf(err, "env %d", id)
	}
	e.prev = e.data.Clone()
	if err := e.Reset(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset places the robot at the default pose, applies the reset terms and
// samples fresh commands.
func (e *Env) Reset() error {
	qpos := append([]float32(nil), e.model.DefaultQPos...)
	qvel := make([]float32, e.model.NV)
	if err := e.data.SetState(qpos, qvel); err != nil {
		return errors.Wrapf(err, "env %d", e.id)
	}
	for _, r := range e.task.Resets {
		if err := r.Reset(e.model, e.data, e.rng); err != nil {
			return errors.Wrapf(err, "env %d: reset %s", e.id, r.Name())
		}
	}
	e.commands = e.commands[:0]
	for _, c := range e.task.Commands {
		e.commands = append(e.commands, c.Sample(e.rng)...)
	}
	for i := range e.prevAction {
		e.prevAction[i] = 0
	}
	e.steps = 0
	return nil
}

// Observe encodes the network input for the current state into dst, which
// must be InputDim wide: each observation term in order with its noise
// applied, then the current commands.
func (e *Env) Observe(dst []float32) {
	off := 0
	for _, o := range e.task.Observations {
		w := dst[off : off+o.Size()]
		o.Observe(e.model, e.data, e.prevAction, w)
		if noise := o.Noise(); noise > 0 {
			for i := range w {
				w[i] += e.rng.Normal(noise)
			}
		}
		off += o.Size()
	}
	copy(dst[off:], e.commands)
}

// StepResult summarizes one control step.
type StepResult struct {
	Reward       float64
	Components   map[string]float64
	Done         bool
	Termination  string
	EpisodeSteps int

	// FinalState holds the terminal state's textual form when Done; the
	// environment has already auto-reset by the time the caller sees it.
	FinalState string
}

// Step advances one control step: the action is held for Decimation
// physics substeps (the first few reuse the previous action when action
// latency is configured), the transition is scored by the reward terms,
// terminations are checked and the environment auto-resets when done.
func (e *Env) Step(action []float32) (*StepResult, error) {
	t := e.task
	if len(action) != e.model.NU {
		return nil, errors.Errorf("env %d: want %d actions, got %d", e.id, e.model.NU, len(action))
	}
	if err := e.data.CopyInto(e.prev); err != nil {
		return nil, errors.Wrapf(err, "env %d", e.id)
	}

	dec := t.Decimation()
	lat := 0
	if t.MaxActionLatency > 0 {
		sec := e.rng.Range(t.MinActionLatency, t.MaxActionLatency)
		lat = int(sec/t.Dt + 0.5)
		if lat > dec {
			lat = dec
		}
	}
	for i := 0; i < dec; i++ {
		act := action
		if i < lat {
			act = e.prevAction
		}
		t.Actuator.Ctrl(e.model, e.data, act, e.ctrl)
		if err := t.Engine.Step(e.model, e.data, e.ctrl, t.Dt); err != nil {
			return nil, errors.Wrapf(err, "env %d", e.id)
		}
	}

	res := &StepResult{Components: make(map[string]float64, len(t.Rewards))}
	for _, term := range t.Terminations {
		if term.Done(e.model, e.data) {
			res.Done = true
			res.Termination = term.Name()
			break
		}
	}

	s := &Step{
		Model:       e.model,
		Prev:        e.prev,
		Cur:         e.data,
		Action:      action,
		PrevAction:  e.prevAction,
		Commands:    e.commands,
		Done:        res.Done,
		Termination: res.Termination,
		Dt:          t.CtrlDt,
	}
	for _, r := range t.Rewards {
		v := r.Compute(s)
		res.Components[r.Name()] = v
		res.Reward += v
	}

	e.steps++
	res.EpisodeSteps = e.steps

	if res.Done {
		res.FinalState = e.data.String()
		if err := e.Reset(); err != nil {
			return nil, err
		}
		return res, nil
	}

	copy(e.prevAction, action)
	off := 0
	for _, c := range t.Commands {
		cur := e.commands[off : off+c.Size()]
		copy(cur, c.Update(e.rng, cur))
		off += c.Size()
	}
	return res, nil
}

func (e *Env) ID() int               { return e.id }
func (e *Env) Task() *Task           { return e.task }
func (e *Env) Model() *physics.Model { return e.model }
func (e *Env) Data() physics.Data    { return e.data }
func (e *Env) Time() float32         { return e.data.Time() }
func (e *Env) EpisodeSteps() int     { return e.steps }
func (e *Env) Commands() []float32   { return e.commands }
func (e *Env) PrevAction() []float32 { return e.prevAction }
