package env

// Command generates the task command vector fed to the policy next to its
// observations. Sample draws a fresh command on reset; Update runs once
// per control step and may resample mid-episode.
type Command interface {
	Name() string
	Size() int
	Sample(r *RNG) []float32
	Update(r *RNG, cur []float32) []float32
}

// LinearVelocityCommand commands a planar base velocity, drawn uniformly
// within the per-axis scales. With probability ZeroProb the whole command
// is zeroed so the policy also learns to stand still; with probability
// SwitchProb per control step a new command is drawn mid-episode.
type LinearVelocityCommand struct {
	XScale     float32
	YScale     float32
	SwitchProb float32
	ZeroProb   float32
}

func (c *LinearVelocityCommand) Name() string { return "linear_velocity_command" }
func (c *LinearVelocityCommand) Size() int    { return 2 }

func (c *LinearVelocityCommand) Sample(r *RNG) []float32 {
	if r.Prob(c.ZeroProb) {
		return []float32{0, 0}
	}
	return []float32{
		r.Range(-c.XScale, c.XScale),
		r.Range(-c.YScale, c.YScale),
	}
}

func (c *LinearVelocityCommand) Update(r *RNG, cur []float32) []float32 {
	if r.Prob(c.SwitchProb) {
		return c.Sample(r)
	}
	return cur
}

// AngularVelocityCommand commands a yaw rate.
type AngularVelocityCommand struct {
	Scale      float32
	SwitchProb float32
	ZeroProb   float32
}

func (c *AngularVelocityCommand) Name() string { return "angular_velocity_command" }
func (c *AngularVelocityCommand) Size() int    { return 1 }

func (c *AngularVelocityCommand) Sample(r *RNG) []float32 {
	if r.Prob(c.ZeroProb) {
		return []float32{0}
	}
	return []float32{r.Range(-c.Scale, c.Scale)}
}

func (c *AngularVelocityCommand) Update(r *RNG, cur []float32) []float32 {
	if r.Prob(c.SwitchProb) {
		return c.Sample(r)
	}
	return cur
}
