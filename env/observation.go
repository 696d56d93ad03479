package env

import (
	"github.com/pravsels/ksim/physics"
)

// Observation writes one slice of the encoded network input. Terms with a
// nonzero Noise get zero-mean gaussian noise added by the environment, so
// the same term definitions serve both clean and noisy training.
type Observation interface {
	Name() string
	Size() int
	Noise() float32
	Observe(m *physics.Model, d physics.Data, prevAction, dst []float32)
}

// BasePositionObservation observes the world position of the base.
type BasePositionObservation struct{ NoiseStd float32 }

func (o *BasePositionObservation) Name() string   { return "base_position" }
func (o *BasePositionObservation) Size() int      { return 3 }
func (o *BasePositionObservation) Noise() float32 { return o.NoiseStd }

func (o *BasePositionObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, d.QPos()[:3])
}

// BaseOrientationObservation observes the base quaternion, wxyz.
type BaseOrientationObservation struct{ NoiseStd float32 }

func (o *BaseOrientationObservation) Name() string   { return "base_orientation" }
func (o *BaseOrientationObservation) Size() int      { return 4 }
func (o *BaseOrientationObservation) Noise() float32 { return o.NoiseStd }

func (o *BaseOrientationObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, d.QPos()[3:7])
}

// BaseLinearVelocityObservation observes the base linear velocity.
type BaseLinearVelocityObservation struct{ NoiseStd float32 }

func (o *BaseLinearVelocityObservation) Name() string   { return "base_linear_velocity" }
func (o *BaseLinearVelocityObservation) Size() int      { return 3 }
func (o *BaseLinearVelocityObservation) Noise() float32 { return o.NoiseStd }

func (o *BaseLinearVelocityObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, d.QVel()[:3])
}

// BaseAngularVelocityObservation observes the base angular velocity.
type BaseAngularVelocityObservation struct{ NoiseStd float32 }

func (o *BaseAngularVelocityObservation) Name() string   { return "base_angular_velocity" }
func (o *BaseAngularVelocityObservation) Size() int      { return 3 }
func (o *BaseAngularVelocityObservation) Noise() float32 { return o.NoiseStd }

func (o *BaseAngularVelocityObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, d.QVel()[3:6])
}

// ProjectedGravityObservation observes the gravity direction in the base
// frame, the usual substitute for an orientation sensor.
type ProjectedGravityObservation struct{ NoiseStd float32 }

func (o *ProjectedGravityObservation) Name() string   { return "projected_gravity" }
func (o *ProjectedGravityObservation) Size() int      { return 3 }
func (o *ProjectedGravityObservation) Noise() float32 { return o.NoiseStd }

func (o *ProjectedGravityObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	g := physics.ProjectGravity(d)
	dst[0], dst[1], dst[2] = g.X, g.Y, g.Z
}

// JointPositionObservation observes all actuated joint positions.
type JointPositionObservation struct {
	NoiseStd float32

	size int
}

func NewJointPositionObservation(m *physics.Model, noise float32) *JointPositionObservation {
	return &JointPositionObservation{NoiseStd: noise, size: m.NU}
}

func (o *JointPositionObservation) Name() string   { return "joint_position" }
func (o *JointPositionObservation) Size() int      { return o.size }
func (o *JointPositionObservation) Noise() float32 { return o.NoiseStd }

func (o *JointPositionObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, physics.JointPos(d))
}

// JointVelocityObservation observes all actuated joint velocities.
type JointVelocityObservation struct {
	NoiseStd float32

	size int
}

func NewJointVelocityObservation(m *physics.Model, noise float32) *JointVelocityObservation {
	return &JointVelocityObservation{NoiseStd: noise, size: m.NU}
}

func (o *JointVelocityObservation) Name() string   { return "joint_velocity" }
func (o *JointVelocityObservation) Size() int      { return o.size }
func (o *JointVelocityObservation) Noise() float32 { return o.NoiseStd }

func (o *JointVelocityObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, physics.JointVel(d))
}

// ActuatorForceObservation observes the actuator force in generalized
// coordinates, divided by Scale to keep network inputs near unit range.
type ActuatorForceObservation struct {
	NoiseStd float32
	Scale    float32

	size int
}

func NewActuatorForceObservation(m *physics.Model, scale, noise float32) *ActuatorForceObservation {
	if scale == 0 {
		scale = 1
	}
	return &ActuatorForceObservation{NoiseStd: noise, Scale: scale, size: m.NV}
}

func (o *ActuatorForceObservation) Name() string   { return "actuator_force" }
func (o *ActuatorForceObservation) Size() int      { return o.size }
func (o *ActuatorForceObservation) Noise() float32 { return o.NoiseStd }

func (o *ActuatorForceObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	frc := d.ActuatorForce()
	for i := range dst {
		dst[i] = frc[i] / o.Scale
	}
}

// PreviousActionObservation feeds the last applied action back to the
// policy.
type PreviousActionObservation struct {
	NoiseStd float32

	size int
}

func NewPreviousActionObservation(m *physics.Model, noise float32) *PreviousActionObservation {
	return &PreviousActionObservation{NoiseStd: noise, size: m.NU}
}

func (o *PreviousActionObservation) Name() string   { return "previous_action" }
func (o *PreviousActionObservation) Size() int      { return o.size }
func (o *PreviousActionObservation) Noise() float32 { return o.NoiseStd }

func (o *PreviousActionObservation) Observe(m *physics.Model, d physics.Data, prevAction, dst []float32) {
	copy(dst, prevAction)
}
