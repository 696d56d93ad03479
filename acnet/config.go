package acnet

// Config configures the actor-critic network and its PPO update.
type Config struct {
	InputDim  int `yaml:"input_dim"`  // encoded observation+command width
	ActionDim int `yaml:"action_dim"` // one output per actuated joint
	Hidden    int `yaml:"hidden"`     // MLP width
	Depth     int `yaml:"depth"`      // hidden layers per head

	MeanScale float32 `yaml:"mean_scale"` // the tanh-squashed mean is scaled to [-MeanScale, MeanScale]
	MinStd    float32 `yaml:"min_std"`
	MaxStd    float32 `yaml:"max_std"`

	Clip         float32 `yaml:"clip"`          // PPO surrogate and value clip range
	ValueCoef    float32 `yaml:"value_coef"`
	EntropyCoef  float32 `yaml:"entropy_coef"`
	NormAdv      bool    `yaml:"norm_adv"`      // normalize advantages per minibatch
	LearningRate float64 `yaml:"learning_rate"`
	MaxGradNorm  float64 `yaml:"max_grad_norm"`

	BatchSize int  `yaml:"batch_size"` // minibatch size
	FwdOnly   bool `yaml:"-"`          // is this a fwd only graph?
}

func DefaultConf(inputDim, actionDim int) Config {
	return Config{
		InputDim:  inputDim,
		ActionDim: actionDim,
		Hidden:    64,
		Depth:     5,

		MeanScale: 1.0,
		MinStd:    0.01,
		MaxStd:    1.0,

		Clip:         0.3,
		ValueCoef:    1.0,
		EntropyCoef:  0.001,
		NormAdv:      true,
		LearningRate: 1e-4,
		MaxGradNorm:  0.5,

		BatchSize: 32,
	}
}

func (conf Config) IsValid() bool {
	return conf.InputDim >= 1 &&
		conf.ActionDim >= 1 &&
		conf.Hidden >= 1 &&
		conf.Depth >= 1 &&
		conf.MeanScale > 0 &&
		conf.MinStd > 0 &&
		conf.MaxStd > conf.MinStd &&
		conf.Clip > 0 &&
		conf.ValueCoef >= 0 &&
		conf.EntropyCoef >= 0 &&
		conf.LearningRate > 0 &&
		conf.BatchSize >= 1
}
