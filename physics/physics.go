package physics

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/goki/mat32"
)

// Floating base layout. qpos is [x y z | qw qx qy qz | joints...],
// qvel is [vx vy vz | wx wy wz | joint velocities...].
const (
	BaseQPosDim = 7
	BaseQVelDim = 6
)

// StandardGravity points down at 9.81 m/s^2.
var StandardGravity = mat32.Vec3{Z: -9.81}

// Model is the engine-neutral compiled form of a robot description.
// It is immutable during stepping; randomizations operate on a Clone.
type Model struct {
	Name string

	NQ int // size of the position vector
	NV int // size of the velocity vector
	NU int // number of actuated joints

	JointNames     []string
	DefaultQPos    []float32    // len NQ, base pose included
	JointLimits    [][2]float32 // len NU
	JointDamping   []float32
	JointStiffness []float32
	JointInertia   []float32
	TorqueLimits   []float32
	KP             []float32
	KD             []float32

	BodyNames  []string
	BodyMass   []float32
	FootBodies []int // indices into BodyNames
	TorsoBody  int

	StandingHeight float32
	Gravity        mat32.Vec3
	Timestep       float32
}

// Clone deep-copies the model so that per-environment randomizations do not
// leak across environments.
func (m *Model) Clone() *Model {
	m2 := &Model{
		Name:           m.Name,
		NQ:             m.NQ,
		NV:             m.NV,
		NU:             m.NU,
		TorsoBody:      m.TorsoBody,
		StandingHeight: m.StandingHeight,
		Gravity:        m.Gravity,
		Timestep:       m.Timestep,
	}
	m2.JointNames = append(m2.JointNames, m.JointNames...)
	m2.DefaultQPos = append(m2.DefaultQPos, m.DefaultQPos...)
	m2.JointLimits = append(m2.JointLimits, m.JointLimits...)
	m2.JointDamping = append(m2.JointDamping, m.JointDamping...)
	m2.JointStiffness = append(m2.JointStiffness, m.JointStiffness...)
	m2.JointInertia = append(m2.JointInertia, m.JointInertia...)
	m2.TorqueLimits = append(m2.TorqueLimits, m.TorqueLimits...)
	m2.KP = append(m2.KP, m.KP...)
	m2.KD = append(m2.KD, m.KD...)
	m2.BodyNames = append(m2.BodyNames, m.BodyNames...)
	m2.BodyMass = append(m2.BodyMass, m.BodyMass...)
	m2.FootBodies = append(m2.FootBodies, m.FootBodies...)
	return m2
}

// JointIndex resolves a joint name to its actuator index.
func (m *Model) JointIndex(name string) (int, bool) {
	for i, n := range m.JointNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// BodyIndex resolves a body name to its index.
func (m *Model) BodyIndex(name string) (int, bool) {
	for i, n := range m.BodyNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func (m *Model) TotalMass() float32 {
	var sum float32
	for _, mass := range m.BodyMass {
		sum += mass
	}
	return sum
}

// Contact reports a body touching (or penetrating) the ground plane.
// Dist is the signed separation distance: negative means penetration.
type Contact struct {
	Body int
	Dist float32
}

// Data is the mutable simulation state owned by an engine.
//
// QPos, QVel, QAcc and ActuatorForce return live views into the state;
// reset terms write into them directly. ActuatorForce is expressed in
// generalized coordinates (len NV): six zero base entries, then the
// applied joint torques.
type Data interface {
	QPos() []float32
	QVel() []float32
	QAcc() []float32
	ActuatorForce() []float32
	Contacts() []Contact
	Time() float32

	// SetState copies qpos and qvel in, zeroes accelerations and resets time.
	SetState(qpos, qvel []float32) error
	CopyInto(dst Data) error
	Clone() Data

	fmt.Stringer
}

// Engine steps simulation state for a compiled model. MuJoCo-class
// simulators bind behind this interface; none is bundled here.
type Engine interface {
	Name() string
	Init(m *Model) (Data, error)
	Step(m *Model, d Data, ctrl []float32, dt float32) error
}

// BasePos returns the base position in world frame.
func BasePos(d Data) mat32.Vec3 {
	q := d.QPos()
	return mat32.Vec3{X: q[0], Y: q[1], Z: q[2]}
}

// BaseQuat returns the base orientation. Storage order is wxyz.
func BaseQuat(d Data) mat32.Quat {
	q := d.QPos()
	return mat32.Quat{W: q[3], X: q[4], Y: q[5], Z: q[6]}
}

func BaseLinVel(d Data) mat32.Vec3 {
	v := d.QVel()
	return mat32.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func BaseAngVel(d Data) mat32.Vec3 {
	v := d.QVel()
	return mat32.Vec3{X: v[3], Y: v[4], Z: v[5]}
}

// JointPos returns a live view of the actuated joint positions.
func JointPos(d Data) []float32 { return d.QPos()[BaseQPosDim:] }

// JointVel returns a live view of the actuated joint velocities.
func JointVel(d Data) []float32 { return d.QVel()[BaseQVelDim:] }

// Pitch extracts the base pitch angle from a wxyz quaternion.
func Pitch(q mat32.Quat) float32 {
	return math32.Atan2(2*q.X*q.Y-2*q.W*q.Z, 1-2*q.X*q.X-2*q.Y*q.Y)
}

// Roll extracts the base roll angle from a wxyz quaternion.
func Roll(q mat32.Quat) float32 {
	return math32.Atan2(2*q.X*q.Y+2*q.W*q.Z, 1-2*q.Y*q.Y-2*q.Z*q.Z)
}

// RotateInv rotates v by the inverse of q, i.e. from world into base frame.
func RotateInv(q mat32.Quat, v mat32.Vec3) mat32.Vec3 {
	// conjugate is the inverse for unit quaternions
	return rotate(mat32.Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}, v)
}

func rotate(q mat32.Quat, v mat32.Vec3) mat32.Vec3 {
	// v' = v + 2w(u x v) + 2(u x (u x v)) with u the vector part
	u := mat32.Vec3{X: q.X, Y: q.Y, Z: q.Z}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.MulScalar(2 * q.W)).Add(uuv.MulScalar(2))
}

// ProjectGravity returns the unit gravity direction expressed in the base
// frame. Upright standing reads close to (0, 0, -1).
func ProjectGravity(d Data) mat32.Vec3 {
	down := mat32.Vec3{X: 0, Y: 0, Z: -1}
	return RotateInv(BaseQuat(d), down)
}
