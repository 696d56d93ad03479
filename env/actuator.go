package env

import (
	"github.com/pkg/errors"

	"github.com/pravsels/ksim/physics"
)

// Actuator turns a policy action into the control vector handed to the
// physics engine, once per physics substep.
type Actuator interface {
	Name() string
	Ctrl(m *physics.Model, d physics.Data, action, dst []float32)
}

// TorqueActuators treats actions as raw joint torques. The engine clamps
// them to the model torque limits.
type TorqueActuators struct{}

func (TorqueActuators) Name() string { return "torque" }

func (TorqueActuators) Ctrl(m *physics.Model, d physics.Data, action, dst []float32) {
	copy(dst, action)
}

// MITPositionActuators treats actions as target joint positions and runs
// a PD loop with the per-joint gains compiled from the robot metadata.
type MITPositionActuators struct{}

// NewMITPositionActuators checks that the model actually carries position
// gains, which it will not when compiled without metadata.
func NewMITPositionActuators(m *physics.Model) (*MITPositionActuators, error) {
	for i, kp := range m.KP {
		if kp <= 0 {
			return nil, errors.Errorf("mit actuators: joint %s has no position gain", m.JointNames[i])
		}
	}
	return &MITPositionActuators{}, nil
}

func (*MITPositionActuators) Name() string { return "mit_position" }

func (*MITPositionActuators) Ctrl(m *physics.Model, d physics.Data, action, dst []float32) {
	pos := physics.JointPos(d)
	vel := physics.JointVel(d)
	for i := range dst {
		dst[i] = m.KP[i]*(action[i]-pos[i]) - m.KD[i]*vel[i]
	}
}
