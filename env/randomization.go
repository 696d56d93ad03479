package env

import (
	"github.com/pravsels/ksim/physics"
)

// Randomization mutates a cloned model once at environment construction,
// giving every environment slightly different dynamics so the policy does
// not overfit one set of constants.
type Randomization interface {
	Name() string
	Randomize(m *physics.Model, r *RNG)
}

// WeightRandomization scales every body mass by a factor within Scale of
// one.
type WeightRandomization struct{ Scale float32 }

func (t *WeightRandomization) Name() string { return "weight_randomization" }

func (t *WeightRandomization) Randomize(m *physics.Model, r *RNG) {
	for i := range m.BodyMass {
		m.BodyMass[i] *= 1 + r.Range(-t.Scale, t.Scale)
	}
}

// DampingRandomization scales every joint damping by a factor within
// Scale of one.
type DampingRandomization struct{ Scale float32 }

func (t *DampingRandomization) Name() string { return "damping_randomization" }

func (t *DampingRandomization) Randomize(m *physics.Model, r *RNG) {
	for i := range m.JointDamping {
		m.JointDamping[i] *= 1 + r.Range(-t.Scale, t.Scale)
	}
}
