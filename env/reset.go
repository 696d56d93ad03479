package env

import (
	"github.com/pravsels/ksim/physics"
)

// Reset perturbs a freshly reset state so episodes do not all start from
// the identical pose. Terms run in order after the default pose is set.
type Reset interface {
	Name() string
	Reset(m *physics.Model, d physics.Data, r *RNG) error
}

// RandomJointPositionReset jitters every joint position uniformly within
// Scale radians of its default, clamped to the joint limits.
type RandomJointPositionReset struct{ Scale float32 }

func (t *RandomJointPositionReset) Name() string { return "random_joint_position" }

func (t *RandomJointPositionReset) Reset(m *physics.Model, d physics.Data, r *RNG) error {
	qpos := append([]float32(nil), d.QPos()...)
	qvel := append([]float32(nil), d.QVel()...)
	for i := 0; i < m.NU; i++ {
		p := qpos[physics.BaseQPosDim+i] + r.Range(-t.Scale, t.Scale)
		lim := m.JointLimits[i]
		if p < lim[0] {
			p = lim[0]
		}
		if p > lim[1] {
			p = lim[1]
		}
		qpos[physics.BaseQPosDim+i] = p
	}
	return d.SetState(qpos, qvel)
}

// RandomJointVelocityReset jitters every joint velocity uniformly within
// Scale.
type RandomJointVelocityReset struct{ Scale float32 }

func (t *RandomJointVelocityReset) Name() string { return "random_joint_velocity" }

func (t *RandomJointVelocityReset) Reset(m *physics.Model, d physics.Data, r *RNG) error {
	qpos := append([]float32(nil), d.QPos()...)
	qvel := append([]float32(nil), d.QVel()...)
	for i := 0; i < m.NU; i++ {
		qvel[physics.BaseQVelDim+i] += r.Range(-t.Scale, t.Scale)
	}
	return d.SetState(qpos, qvel)
}
