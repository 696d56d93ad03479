package lite

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravsels/ksim/physics"
)

func testModel(joints int) *physics.Model {
	m := &physics.Model{
		Name:           "testbot",
		NQ:             physics.BaseQPosDim + joints,
		NV:             physics.BaseQVelDim + joints,
		NU:             joints,
		BodyNames:      []string{"torso", "foot_left", "foot_right"},
		BodyMass:       []float32{30, 2, 2},
		FootBodies:     []int{1, 2},
		TorsoBody:      0,
		StandingHeight: 1.0,
		Gravity:        physics.StandardGravity,
		Timestep:       0.005,
	}
	m.DefaultQPos = make([]float32, m.NQ)
	m.DefaultQPos[2] = 1.0
	m.DefaultQPos[3] = 1 // identity quat
	for i := 0; i < joints; i++ {
		m.JointNames = append(m.JointNames, "joint_"+string(rune('a'+i)))
		m.JointLimits = append(m.JointLimits, [2]float32{-1.5, 1.5})
		m.JointDamping = append(m.JointDamping, 2)
		m.JointStiffness = append(m.JointStiffness, 20)
		m.JointInertia = append(m.JointInertia, 1)
		m.TorqueLimits = append(m.TorqueLimits, 80)
		m.KP = append(m.KP, 40)
		m.KD = append(m.KD, 2)
	}
	return m
}

func TestInitDefaults(t *testing.T) {
	m := testModel(4)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	assert.Equal(t, m.DefaultQPos, d.QPos())
	assert.Equal(t, make([]float32, m.NV), d.QVel())
	assert.Equal(t, float32(0), d.Time())
	assert.Empty(t, d.Contacts())
}

func TestInitRejectsBadModel(t *testing.T) {
	m := testModel(4)
	m.NQ = 3
	_, err := New().Init(m)
	assert.Error(t, err)
}

func TestStandingSettles(t *testing.T) {
	m := testModel(6)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	ctrl := make([]float32, m.NU)
	for i := 0; i < 400; i++ {
		require.NoError(t, e.Step(m, d, ctrl, m.Timestep))
	}

	z := d.QPos()[2]
	assert.True(t, z > 0.9 && z < 1.05, "base height drifted to %v", z)
	assert.InDelta(t, 2.0, float64(d.Time()), 1e-3)

	feet := 0
	for _, c := range d.Contacts() {
		if c.Body == 1 || c.Body == 2 {
			feet++
		}
	}
	assert.Equal(t, 2, feet, "expected both feet in ground contact")
}

func TestFallReportsTorsoContact(t *testing.T) {
	m := testModel(2)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	qpos := make([]float32, m.NQ)
	copy(qpos, m.DefaultQPos)
	qpos[2] = 0.1
	require.NoError(t, d.SetState(qpos, make([]float32, m.NV)))
	require.NoError(t, e.Step(m, d, make([]float32, m.NU), m.Timestep))

	torso := false
	for _, c := range d.Contacts() {
		if c.Body == m.TorsoBody {
			torso = true
			assert.True(t, c.Dist < 0)
		}
	}
	assert.True(t, torso, "fallen base must report a torso contact")
}

func TestTorqueClamped(t *testing.T) {
	m := testModel(3)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	require.NoError(t, e.Step(m, d, []float32{1000, -1000, 5}, m.Timestep))
	frc := d.ActuatorForce()
	assert.Equal(t, m.NV, len(frc), "actuator force lives in generalized coordinates")
	for i := 0; i < physics.BaseQVelDim; i++ {
		assert.Equal(t, float32(0), frc[i], "base is unactuated")
	}
	jfrc := frc[physics.BaseQVelDim:]
	assert.Equal(t, float32(80), jfrc[0])
	assert.Equal(t, float32(-80), jfrc[1])
	assert.Equal(t, float32(5), jfrc[2])
}

func TestJointLimitStops(t *testing.T) {
	m := testModel(1)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	for i := 0; i < 600; i++ {
		require.NoError(t, e.Step(m, d, []float32{80}, m.Timestep))
	}
	jp := physics.JointPos(d)
	assert.Equal(t, float32(1.5), jp[0])
	assert.Equal(t, float32(0), physics.JointVel(d)[0])
}

func TestQuatStaysNormalized(t *testing.T) {
	m := testModel(2)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	qvel := make([]float32, m.NV)
	qvel[3], qvel[4], qvel[5] = 2, -1, 0.5
	require.NoError(t, d.SetState(m.DefaultQPos, qvel))

	for i := 0; i < 200; i++ {
		require.NoError(t, e.Step(m, d, make([]float32, m.NU), m.Timestep))
	}
	q := d.QPos()[3:7]
	norm := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	assert.InDelta(t, 1.0, float64(norm), 1e-3)
}

func TestStepValidation(t *testing.T) {
	m := testModel(2)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	assert.Error(t, e.Step(m, d, []float32{1}, m.Timestep))
	assert.Error(t, e.Step(m, d, make([]float32, m.NU), 0))
}

func TestSetStateValidation(t *testing.T) {
	m := testModel(2)
	d, err := New().Init(m)
	require.NoError(t, err)

	assert.Error(t, d.SetState(make([]float32, 1), make([]float32, m.NV)))
	assert.Error(t, d.SetState(make([]float32, m.NQ), make([]float32, 1)))
}

func TestCloneIsIndependent(t *testing.T) {
	m := testModel(2)
	e := New()
	d, err := e.Init(m)
	require.NoError(t, err)

	d2 := d.Clone()
	require.NoError(t, e.Step(m, d, []float32{10, -10}, m.Timestep))

	assert.Equal(t, m.DefaultQPos, d2.QPos())
	assert.NotEqual(t, d.QPos(), d2.QPos())
}

func TestStringListsJoints(t *testing.T) {
	m := testModel(3)
	d, err := New().Init(m)
	require.NoError(t, err)

	s := d.String()
	for _, name := range m.JointNames {
		assert.Contains(t, s, name)
	}
	assert.Equal(t, 2+m.NU, len(strings.Split(strings.TrimRight(s, "\n"), "\n")))
}
