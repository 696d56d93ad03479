package ksim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pravsels/ksim/acnet"
)

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig("walk")
	assert.True(t, conf.IsValid())
	assert.Equal(t, "walk", conf.Name)
	assert.Equal(t, 8, conf.NumEnvs)
	assert.Equal(t, 20.0, conf.RolloutSeconds)
}

func TestConfigValidation(t *testing.T) {
	breakages := map[string]func(*Config){
		"no name":          func(c *Config) { c.Name = "" },
		"zero epochs":      func(c *Config) { c.Epochs = 0 },
		"zero envs":        func(c *Config) { c.NumEnvs = 0 },
		"zero rollout":     func(c *Config) { c.RolloutSeconds = 0 },
		"zero eval":        func(c *Config) { c.EvalSeconds = 0 },
		"no update passes": func(c *Config) { c.UpdateEpochs = 0 },
		"gamma above one":  func(c *Config) { c.Gamma = 1.5 },
		"negative lambda":  func(c *Config) { c.Lambda = -0.1 },
		"no run dir":       func(c *Config) { c.RunDir = "" },
	}
	for name, breakage := range breakages {
		conf := DefaultConfig("walk")
		breakage(&conf)
		assert.False(t, conf.IsValid(), name)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	conf := DefaultConfig("roundtrip")
	conf.Seed = 99
	conf.Net = acnet.DefaultConf(29, 21)

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := conf.Save(path); err != nil {
		t.Fatalf("%+v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, conf, loaded)
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yml")
	writeFile(t, path, "name: sparse\nepochs: 3\n")

	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sparse", conf.Name)
	assert.Equal(t, 3, conf.Epochs)
	assert.Equal(t, 8, conf.NumEnvs, "unset fields keep their defaults")
	assert.Equal(t, 0.95, conf.Lambda)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
