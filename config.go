package ksim

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
)

// Config configures one training run. The network section nests the
// actor-critic configuration so a single YAML file describes the whole
// run; input and action dimensions always come from the task, so leaving
// them (or the whole net section) zeroed is fine.
type Config struct {
	Name    string `yaml:"name"`
	Seed    int64  `yaml:"seed"`
	Epochs  int    `yaml:"epochs"`
	NumEnvs int    `yaml:"num_envs"`

	RolloutSeconds float64 `yaml:"rollout_seconds"` // sim seconds collected per env per epoch
	EvalSeconds    float64 `yaml:"eval_seconds"`    // length of eval and render rollouts
	UpdateEpochs   int     `yaml:"update_epochs"`   // PPO passes over each rollout set

	Gamma  float64 `yaml:"gamma"`  // GAE discount
	Lambda float64 `yaml:"lambda"`

	RenderEvery     int    `yaml:"render_every"`     // epochs between render rollouts, 0 disables
	CheckpointEvery int    `yaml:"checkpoint_every"` // epochs between checkpoints, 0 disables
	RunDir          string `yaml:"run_dir"`

	Net acnet.Config `yaml:"net"`

	// extensions
	OutputEncoder env.OutputEncoder `yaml:"-"`
}

func DefaultConfig(name string) Config {
	return Config{
		Name:    name,
		Seed:    42,
		Epochs:  100,
		NumEnvs: 8,

		RolloutSeconds: 20,
		EvalSeconds:    5,
		UpdateEpochs:   4,

		Gamma:  0.97,
		Lambda: 0.95,

		RenderEvery:     10,
		CheckpointEvery: 10,
		RunDir:          "runs",
	}
}

// IsValid checks the trainer-level settings. The nested network config is
// validated separately, once the task has filled in its dimensions.
func (conf Config) IsValid() bool {
	return conf.Name != "" &&
		conf.Epochs >= 1 &&
		conf.NumEnvs >= 1 &&
		conf.RolloutSeconds > 0 &&
		conf.EvalSeconds > 0 &&
		conf.UpdateEpochs >= 1 &&
		conf.Gamma > 0 && conf.Gamma <= 1 &&
		conf.Lambda >= 0 && conf.Lambda <= 1 &&
		conf.RenderEvery >= 0 &&
		conf.CheckpointEvery >= 0 &&
		conf.RunDir != ""
}

// LoadConfig reads a YAML config, overlaying it on the defaults so a file
// only needs the fields it changes.
func LoadConfig(path string) (Config, error) {
	conf := DefaultConfig("")
	data, err := os.ReadFile(path)
	if err != nil {
		return conf, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return conf, errors.Wrapf(err, "parsing config %s", path)
	}
	return conf, nil
}

// Save writes the config as YAML.
func (conf Config) Save(path string) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, data, 0644))
}
