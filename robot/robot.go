// Package robot holds engine-neutral robot descriptions: the kinematic
// layout, joint parameters and actuator metadata a task needs to compile a
// physics model. Descriptions round-trip through YAML so they can be cached
// on disk next to the metadata served by a robot registry.
package robot

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pravsels/ksim/physics"
)

// fallbacks for joint parameters a description leaves at zero
const (
	defaultDamping     = 0.5
	defaultStiffness   = 5.0
	defaultInertia     = 1.0
	defaultTorqueLimit = 80.0
	defaultTimestep    = 0.005
)

// Body is one rigid link. The root body has no parent; feet are marked so
// contact terms can resolve them.
type Body struct {
	Name   string  `yaml:"name"`
	Mass   float32 `yaml:"mass"`
	Parent string  `yaml:"parent,omitempty"`
	Foot   bool    `yaml:"foot,omitempty"`
}

// Joint is one actuated hinge attached to a body.
type Joint struct {
	Name        string     `yaml:"name"`
	Body        string     `yaml:"body"`
	Default     float32    `yaml:"default,omitempty"`
	Limits      [2]float32 `yaml:"limits,flow"`
	Damping     float32    `yaml:"damping,omitempty"`
	Stiffness   float32    `yaml:"stiffness,omitempty"`
	Inertia     float32    `yaml:"inertia,omitempty"`
	TorqueLimit float32    `yaml:"torque_limit,omitempty"`
}

// Description is a complete robot model description.
type Description struct {
	Name           string  `yaml:"name"`
	StandingHeight float32 `yaml:"standing_height"`
	Timestep       float32 `yaml:"timestep,omitempty"`
	Bodies         []Body  `yaml:"bodies"`
	Joints         []Joint `yaml:"joints"`
}

// ActuatorMetadata carries the position controller gains for one joint.
type ActuatorMetadata struct {
	KP float32 `yaml:"kp"`
	KD float32 `yaml:"kd"`
}

// Metadata is the registry-side companion document to a Description.
type Metadata struct {
	Actuators        map[string]ActuatorMetadata `yaml:"actuators"`
	ControlFrequency float32                     `yaml:"control_frequency"`
}

func (d *Description) Validate() error {
	if d.Name == "" {
		return errors.New("robot: description has no name")
	}
	if d.StandingHeight <= 0 {
		return errors.Errorf("robot %s: standing height must be positive", d.Name)
	}
	if len(d.Bodies) == 0 {
		return errors.Errorf("robot %s: no bodies", d.Name)
	}

	bodies := make(map[string]bool, len(d.Bodies))
	roots := 0
	for _, b := range d.Bodies {
		if b.Name == "" {
			return errors.Errorf("robot %s: unnamed body", d.Name)
		}
		if bodies[b.Name] {
			return errors.Errorf("robot %s: duplicate body %q", d.Name, b.Name)
		}
		bodies[b.Name] = true
		if b.Mass <= 0 {
			return errors.Errorf("robot %s: body %q has nonpositive mass", d.Name, b.Name)
		}
		if b.Parent == "" {
			roots++
		}
	}
	if roots != 1 {
		return errors.Errorf("robot %s: want exactly one root body, have %d", d.Name, roots)
	}
	for _, b := range d.Bodies {
		if b.Parent != "" && !bodies[b.Parent] {
			return errors.Errorf("robot %s: body %q has unknown parent %q", d.Name, b.Name, b.Parent)
		}
	}

	joints := make(map[string]bool, len(d.Joints))
	for _, j := range d.Joints {
		if j.Name == "" {
			return errors.Errorf("robot %s: unnamed joint", d.Name)
		}
		if joints[j.Name] {
			return errors.Errorf("robot %s: duplicate joint %q", d.Name, j.Name)
		}
		joints[j.Name] = true
		if !bodies[j.Body] {
			return errors.Errorf("robot %s: joint %q attached to unknown body %q", d.Name, j.Name, j.Body)
		}
		if j.Limits[0] >= j.Limits[1] {
			return errors.Errorf("robot %s: joint %q has empty limit range", d.Name, j.Name)
		}
		if j.Default < j.Limits[0] || j.Default > j.Limits[1] {
			return errors.Errorf("robot %s: joint %q default outside limits", d.Name, j.Name)
		}
	}
	return nil
}

func (m *Metadata) Validate() error {
	if m.ControlFrequency <= 0 {
		return errors.New("robot metadata: control frequency must be positive")
	}
	for name, a := range m.Actuators {
		if a.KP <= 0 {
			return errors.Errorf("robot metadata: actuator %q has nonpositive kp", name)
		}
		if a.KD < 0 {
			return errors.Errorf("robot metadata: actuator %q has negative kd", name)
		}
	}
	return nil
}

// Compile builds the engine-neutral model. Metadata supplies per-joint
// controller gains; it may be nil for torque-controlled tasks, in which
// case the gains are left at zero.
func (d *Description) Compile(meta *Metadata) (*physics.Model, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if meta != nil {
		if err := meta.Validate(); err != nil {
			return nil, err
		}
	}

	nu := len(d.Joints)
	m := &physics.Model{
		Name:           d.Name,
		NQ:             physics.BaseQPosDim + nu,
		NV:             physics.BaseQVelDim + nu,
		NU:             nu,
		StandingHeight: d.StandingHeight,
		Gravity:        physics.StandardGravity,
		Timestep:       d.Timestep,
	}
	if m.Timestep <= 0 {
		m.Timestep = defaultTimestep
	}

	m.DefaultQPos = make([]float32, m.NQ)
	m.DefaultQPos[2] = d.StandingHeight
	m.DefaultQPos[3] = 1 // identity quat, wxyz

	for i, j := range d.Joints {
		m.JointNames = append(m.JointNames, j.Name)
		m.DefaultQPos[physics.BaseQPosDim+i] = j.Default
		m.JointLimits = append(m.JointLimits, j.Limits)
		m.JointDamping = append(m.JointDamping, nonzero(j.Damping, defaultDamping))
		m.JointStiffness = append(m.JointStiffness, nonzero(j.Stiffness, defaultStiffness))
		m.JointInertia = append(m.JointInertia, nonzero(j.Inertia, defaultInertia))
		m.TorqueLimits = append(m.TorqueLimits, nonzero(j.TorqueLimit, defaultTorqueLimit))

		var kp, kd float32
		if meta != nil {
			a, ok := meta.Actuators[j.Name]
			if !ok {
				return nil, errors.Errorf("robot %s: no actuator metadata for joint %q", d.Name, j.Name)
			}
			kp, kd = a.KP, a.KD
		}
		m.KP = append(m.KP, kp)
		m.KD = append(m.KD, kd)
	}

	for i, b := range d.Bodies {
		m.BodyNames = append(m.BodyNames, b.Name)
		m.BodyMass = append(m.BodyMass, b.Mass)
		if b.Foot {
			m.FootBodies = append(m.FootBodies, i)
		}
		if b.Parent == "" {
			m.TorsoBody = i
		}
	}
	return m, nil
}

func nonzero(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

// LoadDescription reads and validates a YAML description file.
func LoadDescription(path string) (*Description, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var d Description
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save writes the description as YAML.
func (d *Description) Save(path string) error {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, raw, 0644))
}

// LoadMetadata reads and validates a YAML metadata file.
func LoadMetadata(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var m Metadata
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the metadata as YAML.
func (m *Metadata) Save(path string) error {
	raw, err := yaml.Marshal(m)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, raw, 0644))
}
