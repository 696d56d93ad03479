// Package lite is a deliberately small rigid body integrator used as a
// development and test double for real simulators. Joints are damped
// springs driven by torques, the floating base reacts to gravity, a ground
// support spring and crude posture couplings. It is not a physics solver
// and makes no claim to realism; it exists so that tasks, rewards and
// terminations can be exercised end to end without an external engine.
package lite

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/pravsels/ksim/physics"
)

const (
	groundStiffness = 15000.0 // ground support spring, force units
	groundDamping   = 1500.0
	planarDrag      = 0.8  // resists base drift
	driveCoupling   = 0.5  // joint velocity to base drift
	reactCoupling   = 0.05 // joint acceleration to base rotation
	angularDamping  = 2.0
	collapseGain    = 0.5 // posture deviation lowers the support height
)

type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "lite" }

func (e *Engine) Init(m *physics.Model) (physics.Data, error) {
	if m.NQ != physics.BaseQPosDim+m.NU || m.NV != physics.BaseQVelDim+m.NU {
		return nil, errors.Errorf("lite: inconsistent model dims nq %d nv %d nu %d", m.NQ, m.NV, m.NU)
	}
	if len(m.DefaultQPos) != m.NQ {
		return nil, errors.Errorf("lite: default qpos has %d entries, want %d", len(m.DefaultQPos), m.NQ)
	}
	d := &Data{
		qpos: make([]float32, m.NQ),
		qvel: make([]float32, m.NV),
		qacc: make([]float32, m.NV),
		frc:  make([]float32, m.NV),
		m:    m,
	}
	copy(d.qpos, m.DefaultQPos)
	return d, nil
}

func (e *Engine) Step(m *physics.Model, data physics.Data, ctrl []float32, dt float32) error {
	d, ok := data.(*Data)
	if !ok {
		return errors.Errorf("lite: cannot step %T", data)
	}
	if len(ctrl) != m.NU {
		return errors.Errorf("lite: ctrl has %d entries, want %d", len(ctrl), m.NU)
	}
	if dt <= 0 {
		return errors.Errorf("lite: nonpositive dt %v", dt)
	}

	// joint dynamics
	jp := d.qpos[physics.BaseQPosDim:]
	jv := d.qvel[physics.BaseQVelDim:]
	ja := d.qacc[physics.BaseQVelDim:]
	var meanVel, altVel, meanAcc, altAcc, collapse float32
	for i := 0; i < m.NU; i++ {
		tau := clamp(ctrl[i], -m.TorqueLimits[i], m.TorqueLimits[i])
		d.frc[physics.BaseQVelDim+i] = tau
		def := m.DefaultQPos[physics.BaseQPosDim+i]
		ja[i] = (tau - m.JointDamping[i]*jv[i] - m.JointStiffness[i]*(jp[i]-def)) / m.JointInertia[i]

		sign := float32(1)
		if i%2 == 1 {
			sign = -1
		}
		meanVel += jv[i]
		altVel += sign * jv[i]
		meanAcc += ja[i]
		altAcc += sign * ja[i]
		collapse += math32.Abs(jp[i] - def)
	}
	n := float32(m.NU)
	meanVel /= n
	altVel /= n
	meanAcc /= n
	altAcc /= n
	collapse = clamp(collapse/(n*math32.Pi/2), 0, 1)

	// ground support spring under the base, weakened by posture collapse
	rest := m.StandingHeight * (1 - collapseGain*collapse)
	z := d.qpos[2]
	vz := d.qvel[2]
	var fz float32
	inContact := z < rest
	if inContact {
		fz = groundStiffness*(rest-z) - groundDamping*vz
	}

	mass := m.TotalMass()
	d.qacc[0] = -planarDrag * d.qvel[0]
	d.qacc[1] = -planarDrag * d.qvel[1]
	if inContact {
		d.qacc[0] += driveCoupling * altVel
		d.qacc[1] += driveCoupling * meanVel
	}
	d.qacc[2] = m.Gravity.Z + fz/mass

	// posture reaction torques keep orientation coupled to the joints
	d.qacc[3] = reactCoupling*altAcc - angularDamping*d.qvel[3]
	d.qacc[4] = reactCoupling*meanAcc - angularDamping*d.qvel[4]
	d.qacc[5] = -angularDamping * d.qvel[5]

	// semi-implicit Euler
	for i := 0; i < m.NV; i++ {
		d.qvel[i] += d.qacc[i] * dt
	}
	for i := 0; i < 3; i++ {
		d.qpos[i] += d.qvel[i] * dt
	}
	integrateQuat(d.qpos[3:7], d.qvel[3:6], dt)
	for i := 0; i < m.NU; i++ {
		jp[i] += jv[i] * dt
		lo, hi := m.JointLimits[i][0], m.JointLimits[i][1]
		if jp[i] < lo {
			jp[i] = lo
			jv[i] = 0
		} else if jp[i] > hi {
			jp[i] = hi
			jv[i] = 0
		}
	}
	if d.qpos[2] < 0 {
		d.qpos[2] = 0
		if d.qvel[2] < 0 {
			d.qvel[2] = 0
		}
	}

	// contact reporting from the post-step state
	d.contacts = d.contacts[:0]
	if d.qpos[2] < rest {
		for _, b := range m.FootBodies {
			d.contacts = append(d.contacts, physics.Contact{Body: b, Dist: d.qpos[2] - rest})
		}
	}
	if fallen := 0.3 * m.StandingHeight; d.qpos[2] < fallen {
		d.contacts = append(d.contacts, physics.Contact{Body: m.TorsoBody, Dist: d.qpos[2] - fallen})
	}

	d.time += dt
	return nil
}

// integrateQuat advances a wxyz quaternion by a world-frame angular
// velocity and renormalizes.
func integrateQuat(q []float32, w []float32, dt float32) {
	qw, qx, qy, qz := q[0], q[1], q[2], q[3]
	wx, wy, wz := w[0], w[1], w[2]
	q[0] += -0.5 * (wx*qx + wy*qy + wz*qz) * dt
	q[1] += 0.5 * (qw*wx + wy*qz - wz*qy) * dt
	q[2] += 0.5 * (qw*wy + wz*qx - wx*qz) * dt
	q[3] += 0.5 * (qw*wz + wx*qy - wy*qx) * dt

	norm := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm == 0 {
		q[0], q[1], q[2], q[3] = 1, 0, 0, 0
		return
	}
	for i := range q {
		q[i] /= norm
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Data is the lite engine's simulation state.
type Data struct {
	qpos     []float32
	qvel     []float32
	qacc     []float32
	frc      []float32
	contacts []physics.Contact
	time     float32

	m *physics.Model
}

func (d *Data) QPos() []float32             { return d.qpos }
func (d *Data) QVel() []float32             { return d.qvel }
func (d *Data) QAcc() []float32             { return d.qacc }
func (d *Data) ActuatorForce() []float32    { return d.frc }
func (d *Data) Contacts() []physics.Contact { return d.contacts }
func (d *Data) Time() float32               { return d.time }

func (d *Data) SetState(qpos, qvel []float32) error {
	if len(qpos) != len(d.qpos) || len(qvel) != len(d.qvel) {
		return errors.Errorf("lite: state size mismatch: %d/%d, want %d/%d", len(qpos), len(qvel), len(d.qpos), len(d.qvel))
	}
	copy(d.qpos, qpos)
	copy(d.qvel, qvel)
	for i := range d.qacc {
		d.qacc[i] = 0
	}
	for i := range d.frc {
		d.frc[i] = 0
	}
	d.contacts = d.contacts[:0]
	d.time = 0
	return nil
}

func (d *Data) CopyInto(dst physics.Data) error {
	d2, ok := dst.(*Data)
	if !ok {
		return errors.Errorf("lite: cannot copy into %T", dst)
	}
	copy(d2.qpos, d.qpos)
	copy(d2.qvel, d.qvel)
	copy(d2.qacc, d.qacc)
	copy(d2.frc, d.frc)
	d2.contacts = append(d2.contacts[:0], d.contacts...)
	d2.time = d.time
	return nil
}

func (d *Data) Clone() physics.Data {
	d2 := &Data{
		qpos: make([]float32, len(d.qpos)),
		qvel: make([]float32, len(d.qvel)),
		qacc: make([]float32, len(d.qacc)),
		frc:  make([]float32, len(d.frc)),
		m:    d.m,
	}
	d.CopyInto(d2)
	return d2
}

func (d *Data) String() string {
	var sb strings.Builder
	q := physics.BaseQuat(d)
	fmt.Fprintf(&sb, "t=%7.3f  z=%5.2f  vel=(%+5.2f %+5.2f %+5.2f)\n",
		d.time, d.qpos[2], d.qvel[0], d.qvel[1], d.qvel[2])
	fmt.Fprintf(&sb, "pitch=%+5.2f  roll=%+5.2f  contacts=%d\n",
		physics.Pitch(q), physics.Roll(q), len(d.contacts))
	jp := physics.JointPos(d)
	for i, name := range d.m.JointNames {
		fmt.Fprintf(&sb, "%-16s %s %+5.2f\n", name, bar(jp[i], d.m.JointLimits[i][0], d.m.JointLimits[i][1]), jp[i])
	}
	return sb.String()
}

// bar renders a joint position within its limits as a fixed-width gauge.
func bar(v, lo, hi float32) string {
	const cells = 11
	at := 0
	if hi > lo {
		at = int((v - lo) / (hi - lo) * (cells - 1))
	}
	if at < 0 {
		at = 0
	}
	if at >= cells {
		at = cells - 1
	}
	b := []byte("[...........]")
	b[1+at] = '#'
	return string(b)
}
