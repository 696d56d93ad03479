package ksim

// Dummy is a placeholder policy with zero mean, fixed exploration noise
// and zero value. The environment viewer falls back to it when no
// checkpoint is given.
type Dummy struct {
	ActionDim int
	Std       float32
}

func (d Dummy) Infer(input []float32) (mean, std []float32, value float32, err error) {
	s := d.Std
	if s == 0 {
		s = 0.1
	}
	mean = make([]float32, d.ActionDim)
	std = make([]float32, d.ActionDim)
	for i := range std {
		std[i] = s
	}
	return mean, std, 0, nil
}
