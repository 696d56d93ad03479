package env

import (
	"math"

	"github.com/pravsels/ksim/physics"
)

// Reward scores one control-step transition. Compute returns the already
// scaled contribution; the environment sums the terms and records each one
// under its name. Penalties carry negative scales.
type Reward interface {
	Name() string
	Compute(s *Step) float64
}

// ForwardReward follows the legacy humanoid convention: negative y
// velocity is forward, clipped to [-1, 1] so early flailing cannot
// dominate the return.
type ForwardReward struct{ Scale float64 }

func (r *ForwardReward) Name() string { return "forward_reward" }

func (r *ForwardReward) Compute(s *Step) float64 {
	v := float64(s.Cur.QVel()[1])
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return r.Scale * -v
}

// ControlPenalty is the legacy squared action magnitude cost.
type ControlPenalty struct{ Scale float64 }

func (r *ControlPenalty) Name() string { return "control_penalty" }

func (r *ControlPenalty) Compute(s *Step) float64 {
	var sum float64
	for _, a := range s.Action {
		sum += float64(a) * float64(a)
	}
	return r.Scale * sum
}

// TerminationPenalty fires once on the step an episode ends.
type TerminationPenalty struct{ Scale float64 }

func (r *TerminationPenalty) Name() string { return "termination_penalty" }

func (r *TerminationPenalty) Compute(s *Step) float64 {
	if s.Done {
		return r.Scale
	}
	return 0
}

// JointVelocityPenalty penalizes squared joint velocities.
type JointVelocityPenalty struct{ Scale float64 }

func (r *JointVelocityPenalty) Name() string { return "joint_velocity_penalty" }

func (r *JointVelocityPenalty) Compute(s *Step) float64 {
	var sum float64
	for _, v := range physics.JointVel(s.Cur) {
		sum += float64(v) * float64(v)
	}
	return r.Scale * sum
}

// LinearVelocityZPenalty penalizes vertical base motion.
type LinearVelocityZPenalty struct{ Scale float64 }

func (r *LinearVelocityZPenalty) Name() string { return "linear_velocity_z_penalty" }

func (r *LinearVelocityZPenalty) Compute(s *Step) float64 {
	vz := float64(s.Cur.QVel()[2])
	return r.Scale * vz * vz
}

// AngularVelocityXYPenalty penalizes base tilt rates.
type AngularVelocityXYPenalty struct{ Scale float64 }

func (r *AngularVelocityXYPenalty) Name() string { return "angular_velocity_xy_penalty" }

func (r *AngularVelocityXYPenalty) Compute(s *Step) float64 {
	v := s.Cur.QVel()
	wx, wy := float64(v[3]), float64(v[4])
	return r.Scale * (wx*wx + wy*wy)
}

// TrackLinearVelocityReward rewards matching the commanded planar
// velocity with an exponential kernel. CmdOffset locates the (x, y)
// command pair inside the flattened command vector.
type TrackLinearVelocityReward struct {
	Scale     float64
	Sigma     float64
	CmdOffset int
}

func (r *TrackLinearVelocityReward) Name() string { return "track_linear_velocity_reward" }

func (r *TrackLinearVelocityReward) Compute(s *Step) float64 {
	sigma := r.Sigma
	if sigma == 0 {
		sigma = 0.25
	}
	v := s.Cur.QVel()
	dx := float64(v[0]) - float64(s.Commands[r.CmdOffset])
	dy := float64(v[1]) - float64(s.Commands[r.CmdOffset+1])
	return r.Scale * math.Exp(-(dx*dx+dy*dy)/sigma)
}

// TrackAngularVelocityReward rewards matching the commanded yaw rate.
type TrackAngularVelocityReward struct {
	Scale     float64
	Sigma     float64
	CmdOffset int
}

func (r *TrackAngularVelocityReward) Name() string { return "track_angular_velocity_reward" }

func (r *TrackAngularVelocityReward) Compute(s *Step) float64 {
	sigma := r.Sigma
	if sigma == 0 {
		sigma = 0.25
	}
	dw := float64(s.Cur.QVel()[5]) - float64(s.Commands[r.CmdOffset])
	return r.Scale * math.Exp(-dw*dw/sigma)
}

// BaseHeightReward rewards keeping the base near a target height.
type BaseHeightReward struct {
	Scale  float64
	Height float64
	Sigma  float64
}

func (r *BaseHeightReward) Name() string { return "base_height_reward" }

func (r *BaseHeightReward) Compute(s *Step) float64 {
	sigma := r.Sigma
	if sigma == 0 {
		sigma = 0.05
	}
	dz := float64(s.Cur.QPos()[2]) - r.Height
	return r.Scale * math.Exp(-dz*dz/sigma)
}

// ActionSmoothnessPenalty penalizes jerky action changes between control
// steps. Zero on the first step of an episode.
type ActionSmoothnessPenalty struct{ Scale float64 }

func (r *ActionSmoothnessPenalty) Name() string { return "action_smoothness_penalty" }

func (r *ActionSmoothnessPenalty) Compute(s *Step) float64 {
	if len(s.PrevAction) != len(s.Action) {
		return 0
	}
	var sum float64
	for i, a := range s.Action {
		d := float64(a) - float64(s.PrevAction[i])
		sum += d * d
	}
	return r.Scale * sum
}

// UprightReward rewards keeping the projected gravity aligned with the
// base -z axis: 1 when standing upright, -1 when inverted.
type UprightReward struct{ Scale float64 }

func (r *UprightReward) Name() string { return "upright_reward" }

func (r *UprightReward) Compute(s *Step) float64 {
	g := physics.ProjectGravity(s.Cur)
	return r.Scale * float64(-g.Z)
}
