package robot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDefaultHumanoidValid(t *testing.T) {
	d := DefaultHumanoid()
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 21, len(d.Joints))
	assert.Equal(t, 14, len(d.Bodies))

	feet := 0
	for _, b := range d.Bodies {
		if b.Foot {
			feet++
		}
	}
	assert.Equal(t, 2, feet, "a biped should have two feet")
}

func TestCompileDefaultHumanoid(t *testing.T) {
	d := DefaultHumanoid()
	m, err := d.Compile(DefaultHumanoidMetadata())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 21, m.NU)
	assert.Equal(t, 28, m.NQ)
	assert.Equal(t, 27, m.NV)
	assert.Equal(t, float32(1.3), m.DefaultQPos[2], "default pose stands at standing height")
	assert.Equal(t, float32(1), m.DefaultQPos[3], "default pose has identity orientation")
	assert.Equal(t, 2, len(m.FootBodies))
	assert.Equal(t, "torso", m.BodyNames[m.TorsoBody])

	i, ok := m.JointIndex("knee_left")
	if !ok {
		t.Fatal("knee_left not compiled")
	}
	assert.Equal(t, float32(-0.25), m.DefaultQPos[7+i])
	for j := 0; j < m.NU; j++ {
		assert.Equal(t, float32(40), m.KP[j])
		assert.Equal(t, float32(2), m.KD[j])
	}
}

func TestCompileNilMetadata(t *testing.T) {
	m, err := DefaultHumanoid().Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j < m.NU; j++ {
		assert.Equal(t, float32(0), m.KP[j], "no metadata means no gains")
	}
}

func TestCompileMissingActuator(t *testing.T) {
	meta := DefaultHumanoidMetadata()
	delete(meta.Actuators, "elbow_left")
	_, err := DefaultHumanoid().Compile(meta)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "elbow_left")
}

func TestCompileFillsJointDefaults(t *testing.T) {
	d := &Description{
		Name:           "minimal",
		StandingHeight: 0.5,
		Bodies:         []Body{{Name: "base", Mass: 1}},
		Joints: []Joint{
			{Name: "j0", Body: "base", Limits: [2]float32{-1, 1}},
		},
	}
	m, err := d.Compile(nil)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, float32(defaultDamping), m.JointDamping[0])
	assert.Equal(t, float32(defaultStiffness), m.JointStiffness[0])
	assert.Equal(t, float32(defaultInertia), m.JointInertia[0])
	assert.Equal(t, float32(defaultTorqueLimit), m.TorqueLimits[0])
	assert.Equal(t, float32(defaultTimestep), m.Timestep)
}

func TestValidateRejectsBrokenDescriptions(t *testing.T) {
	base := func() *Description {
		return &Description{
			Name:           "bot",
			StandingHeight: 1,
			Bodies: []Body{
				{Name: "torso", Mass: 5},
				{Name: "leg", Mass: 2, Parent: "torso"},
			},
			Joints: []Joint{
				{Name: "hip", Body: "leg", Limits: [2]float32{-1, 1}},
			},
		}
	}

	cases := map[string]func(*Description){
		"no name":           func(d *Description) { d.Name = "" },
		"flat height":       func(d *Description) { d.StandingHeight = 0 },
		"no bodies":         func(d *Description) { d.Bodies = nil },
		"duplicate body":    func(d *Description) { d.Bodies[1].Name = "torso" },
		"massless body":     func(d *Description) { d.Bodies[1].Mass = 0 },
		"unknown parent":    func(d *Description) { d.Bodies[1].Parent = "tail" },
		"two roots":         func(d *Description) { d.Bodies[1].Parent = "" },
		"orphan joint":      func(d *Description) { d.Joints[0].Body = "tail" },
		"duplicate joint":   func(d *Description) { d.Joints = append(d.Joints, d.Joints[0]) },
		"empty limit range": func(d *Description) { d.Joints[0].Limits = [2]float32{1, 1} },
		"default outside":   func(d *Description) { d.Joints[0].Default = 2 },
	}
	for name, mutate := range cases {
		d := base()
		mutate(d)
		assert.Error(t, d.Validate(), name)
	}
}

func TestDescriptionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.yaml")

	d := DefaultHumanoid()
	if err := d.Save(path); err != nil {
		t.Fatal(err)
	}
	d2, err := LoadDescription(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d, d2); diff != "" {
		t.Fatalf("description changed over save/load:\n%s", diff)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.yaml")

	m := DefaultHumanoidMetadata()
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}
	m2, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(m, m2); diff != "" {
		t.Fatalf("metadata changed over save/load:\n%s", diff)
	}
}

func TestToDot(t *testing.T) {
	dot := DefaultHumanoid().ToDot()
	assert.True(t, strings.HasPrefix(dot, "digraph G"), "should be a directed graph")
	for _, want := range []string{"torso", "foot_left", "hip_x_right", "knee_left"} {
		assert.Contains(t, dot, want)
	}
}
