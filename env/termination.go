package env

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/pravsels/ksim/physics"
)

// Termination decides whether the episode ends at the current state. The
// first firing term in the task list names the termination.
type Termination interface {
	Name() string
	Done(m *physics.Model, d physics.Data) bool
}

// DefaultContactEps is the separation distance below which a contact
// counts as touching.
const DefaultContactEps = -1e-3

// BadZTermination ends the episode when the base height leaves the
// healthy band.
type BadZTermination struct {
	Lower float32
	Upper float32
}

func (t *BadZTermination) Name() string { return "bad_z" }

func (t *BadZTermination) Done(m *physics.Model, d physics.Data) bool {
	z := d.QPos()[2]
	return z < t.Lower || z > t.Upper
}

// PitchTooGreatTermination ends the episode when the base pitch exceeds
// MaxPitch radians.
type PitchTooGreatTermination struct{ MaxPitch float32 }

func (t *PitchTooGreatTermination) Name() string { return "pitch_too_great" }

func (t *PitchTooGreatTermination) Done(m *physics.Model, d physics.Data) bool {
	return math32.Abs(physics.Pitch(physics.BaseQuat(d))) > t.MaxPitch
}

// RollTooGreatTermination ends the episode when the base roll exceeds
// MaxRoll radians.
type RollTooGreatTermination struct{ MaxRoll float32 }

func (t *RollTooGreatTermination) Name() string { return "roll_too_great" }

func (t *RollTooGreatTermination) Done(m *physics.Model, d physics.Data) bool {
	return math32.Abs(physics.Roll(physics.BaseQuat(d))) > t.MaxRoll
}

// MinimumHeightTermination ends the episode when the base drops below
// MinHeight.
type MinimumHeightTermination struct{ MinHeight float32 }

func (t *MinimumHeightTermination) Name() string { return "minimum_height" }

func (t *MinimumHeightTermination) Done(m *physics.Model, d physics.Data) bool {
	return d.QPos()[2] < t.MinHeight
}

// FastAccelerationTermination catches simulation blowups: any generalized
// velocity beyond the cap ends the episode. Zero MaxVelocity means the
// conventional cap of 200.
type FastAccelerationTermination struct{ MaxVelocity float32 }

func (t *FastAccelerationTermination) Name() string { return "fast_acceleration" }

func (t *FastAccelerationTermination) Done(m *physics.Model, d physics.Data) bool {
	max := t.MaxVelocity
	if max == 0 {
		max = 200
	}
	for _, v := range d.QVel() {
		if math32.Abs(v) > max {
			return true
		}
	}
	return false
}

// ContactTermination ends the episode when any of the listed bodies
// touches the ground.
type ContactTermination struct {
	bodies map[int]bool
	eps    float32
}

// NewContactTermination resolves body names against the compiled model.
func NewContactTermination(m *physics.Model, bodyNames []string, eps float32) (*ContactTermination, error) {
	t := &ContactTermination{
		bodies: make(map[int]bool, len(bodyNames)),
		eps:    eps,
	}
	for _, name := range bodyNames {
		i, ok := m.BodyIndex(name)
		if !ok {
			return nil, errors.Errorf("contact termination: no body %q in model %s", name, m.Name)
		}
		t.bodies[i] = true
	}
	return t, nil
}

func (t *ContactTermination) Name() string { return "illegal_contact" }

func (t *ContactTermination) Done(m *physics.Model, d physics.Data) bool {
	for _, c := range d.Contacts() {
		if t.bodies[c.Body] && c.Dist <= t.eps {
			return true
		}
	}
	return false
}

// EpisodeLengthTermination caps episode wall-clock time, measured on the
// simulation clock which restarts at every reset.
type EpisodeLengthTermination struct{ MaxSeconds float32 }

func (t *EpisodeLengthTermination) Name() string { return "episode_length" }

func (t *EpisodeLengthTermination) Done(m *physics.Model, d physics.Data) bool {
	return d.Time() >= t.MaxSeconds
}
