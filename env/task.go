package env

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/pravsels/ksim/physics"
)

// Task is the declarative bundle defining one trainable environment: the
// compiled model and engine to step it, the actuator model, and the term
// lists that shape what the policy sees and learns.
type Task struct {
	Name     string
	Model    *physics.Model
	Engine   physics.Engine
	Actuator Actuator

	Observations   []Observation
	Commands       []Command
	Rewards        []Reward
	Terminations   []Termination
	Resets         []Reset
	Randomizations []Randomization

	// Dt is the physics timestep, CtrlDt the control interval. Every
	// control step runs CtrlDt/Dt physics substeps.
	Dt     float32
	CtrlDt float32

	// Action latency range in seconds. Each control step samples a
	// latency and applies the previous action for that long before the
	// new one takes effect.
	MinActionLatency float32
	MaxActionLatency float32
}

func (t *Task) Validate() error {
	if t.Name == "" {
		return errors.New("task: no name")
	}
	if t.Model == nil {
		return errors.Errorf("task %s: no model", t.Name)
	}
	if t.Engine == nil {
		return errors.Errorf("task %s: no physics engine", t.Name)
	}
	if t.Actuator == nil {
		return errors.Errorf("task %s: no actuator model", t.Name)
	}
	if len(t.Observations) == 0 {
		return errors.Errorf("task %s: no observations", t.Name)
	}
	if len(t.Rewards) == 0 {
		return errors.Errorf("task %s: no reward terms", t.Name)
	}
	if t.Dt <= 0 {
		return errors.Errorf("task %s: nonpositive dt %v", t.Name, t.Dt)
	}
	if t.CtrlDt < t.Dt {
		return errors.Errorf("task %s: ctrl dt %v below physics dt %v", t.Name, t.CtrlDt, t.Dt)
	}
	dec := t.Decimation()
	if math32.Abs(float32(dec)*t.Dt-t.CtrlDt) > 1e-6 {
		return errors.Errorf("task %s: ctrl dt %v is not a multiple of dt %v", t.Name, t.CtrlDt, t.Dt)
	}
	if t.MinActionLatency < 0 || t.MaxActionLatency < t.MinActionLatency {
		return errors.Errorf("task %s: bad action latency range [%v, %v]",
			t.Name, t.MinActionLatency, t.MaxActionLatency)
	}
	if t.MaxActionLatency > t.CtrlDt {
		return errors.Errorf("task %s: action latency %v exceeds ctrl dt %v",
			t.Name, t.MaxActionLatency, t.CtrlDt)
	}
	return nil
}

// InputDim is the width of the encoded network input: every observation
// term in order, then every command.
func (t *Task) InputDim() int {
	n := 0
	for _, o := range t.Observations {
		n += o.Size()
	}
	for _, c := range t.Commands {
		n += c.Size()
	}
	return n
}

// ActionDim is the policy output width, one action per actuated joint.
func (t *Task) ActionDim() int { return t.Model.NU }

// Decimation is the number of physics substeps per control step.
func (t *Task) Decimation() int { return int(t.CtrlDt/t.Dt + 0.5) }
