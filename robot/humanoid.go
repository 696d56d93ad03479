package robot

// DefaultHumanoid is a 21 joint biped modelled on the classic humanoid
// benchmark: a three axis abdomen, six joints per leg and three per arm.
// It is the robot the walking task trains on when no registry robot is
// requested, and the fixture most tests compile.
func DefaultHumanoid() *Description {
	d := &Description{
		Name:           "default_humanoid",
		StandingHeight: 1.3,
		Timestep:       0.005,
		Bodies: []Body{
			{Name: "torso", Mass: 8.9},
			{Name: "head", Mass: 1.3, Parent: "torso"},
			{Name: "waist", Mass: 2.0, Parent: "torso"},
			{Name: "pelvis", Mass: 6.1, Parent: "waist"},
			{Name: "thigh_right", Mass: 4.5, Parent: "pelvis"},
			{Name: "shin_right", Mass: 2.6, Parent: "thigh_right"},
			{Name: "foot_right", Mass: 1.2, Parent: "shin_right", Foot: true},
			{Name: "thigh_left", Mass: 4.5, Parent: "pelvis"},
			{Name: "shin_left", Mass: 2.6, Parent: "thigh_left"},
			{Name: "foot_left", Mass: 1.2, Parent: "shin_left", Foot: true},
			{Name: "upper_arm_right", Mass: 1.6, Parent: "torso"},
			{Name: "lower_arm_right", Mass: 1.2, Parent: "upper_arm_right"},
			{Name: "upper_arm_left", Mass: 1.6, Parent: "torso"},
			{Name: "lower_arm_left", Mass: 1.2, Parent: "upper_arm_left"},
		},
	}

	type row struct {
		name    string
		body    string
		def     float32
		lo, hi  float32
		damp    float32
		stiff   float32
		inertia float32
		torque  float32
	}
	rows := []row{
		{"abdomen_z", "waist", 0, -0.79, 0.79, 5, 20, 3.0, 100},
		{"abdomen_y", "waist", 0, -1.31, 0.52, 5, 20, 3.0, 100},
		{"abdomen_x", "waist", 0, -0.61, 0.61, 5, 20, 3.0, 100},
		{"hip_x_right", "thigh_right", 0, -0.44, 0.44, 5, 20, 2.0, 120},
		{"hip_z_right", "thigh_right", 0, -1.05, 0.61, 5, 20, 2.0, 120},
		{"hip_y_right", "thigh_right", -0.2, -1.92, 0.35, 5, 20, 2.0, 120},
		{"knee_right", "shin_right", -0.25, -2.6, 0, 3, 15, 1.2, 100},
		{"ankle_y_right", "foot_right", 0, -0.87, 0.87, 2, 10, 0.5, 60},
		{"ankle_x_right", "foot_right", 0, -0.61, 0.61, 2, 10, 0.5, 60},
		{"hip_x_left", "thigh_left", 0, -0.44, 0.44, 5, 20, 2.0, 120},
		{"hip_z_left", "thigh_left", 0, -1.05, 0.61, 5, 20, 2.0, 120},
		{"hip_y_left", "thigh_left", -0.2, -1.92, 0.35, 5, 20, 2.0, 120},
		{"knee_left", "shin_left", -0.25, -2.6, 0, 3, 15, 1.2, 100},
		{"ankle_y_left", "foot_left", 0, -0.87, 0.87, 2, 10, 0.5, 60},
		{"ankle_x_left", "foot_left", 0, -0.61, 0.61, 2, 10, 0.5, 60},
		{"shoulder1_right", "upper_arm_right", 0, -1.48, 1.48, 1, 8, 0.8, 60},
		{"shoulder2_right", "upper_arm_right", 0, -1.48, 1.48, 1, 8, 0.8, 60},
		{"elbow_right", "lower_arm_right", 0, -1.57, 0.87, 1, 5, 0.4, 40},
		{"shoulder1_left", "upper_arm_left", 0, -1.48, 1.48, 1, 8, 0.8, 60},
		{"shoulder2_left", "upper_arm_left", 0, -1.48, 1.48, 1, 8, 0.8, 60},
		{"elbow_left", "lower_arm_left", 0, -1.57, 0.87, 1, 5, 0.4, 40},
	}
	for _, r := range rows {
		d.Joints = append(d.Joints, Joint{
			Name:        r.name,
			Body:        r.body,
			Default:     r.def,
			Limits:      [2]float32{r.lo, r.hi},
			Damping:     r.damp,
			Stiffness:   r.stiff,
			Inertia:     r.inertia,
			TorqueLimit: r.torque,
		})
	}
	return d
}

// DefaultHumanoidMetadata carries uniform position controller gains for
// the default humanoid, matching a 50Hz control loop.
func DefaultHumanoidMetadata() *Metadata {
	d := DefaultHumanoid()
	m := &Metadata{
		Actuators:        make(map[string]ActuatorMetadata, len(d.Joints)),
		ControlFrequency: 50,
	}
	for _, j := range d.Joints {
		m.Actuators[j.Name] = ActuatorMetadata{KP: 40, KD: 2}
	}
	return m
}
