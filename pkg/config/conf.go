package config

import (
	"os"

	"github.com/mchmarny/leadscore/pkg/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ModelDirName is the artifact directory next to the application root.
	ModelDirName = "pkl"

	PrimaryModel = "conversion_model"

	// DefaultProbability is returned for every row when no model can score.
	DefaultProbability = 0.1
)

// AlternateModels are tried, in order, when the primary artifact is
// missing or fails to load.
var AlternateModels = []string{
	"rf_conversion_model",
	"xgboost_model",
}

// Config represents the scorer configuration.
type Config struct {
	ModelDir           string   `yaml:"model_dir"`
	Primary            string   `yaml:"primary"`
	Alternates         []string `yaml:"alternates"`
	Extension          string   `yaml:"extension"`
	DefaultProbability float64  `yaml:"default_probability"`
	LogLevel           string   `yaml:"log_level"`
	HistoryDB          string   `yaml:"history_db"`
}

// Default returns the built-in configuration. ModelDir is left empty so
// the resolver derives it from the executable location.
func Default() *Config {
	return &Config{
		Primary:            PrimaryModel,
		Alternates:         append([]string{}, AlternateModels...),
		Extension:          model.FileExt,
		DefaultProbability: DefaultProbability,
		LogLevel:           "info",
	}
}

// Load reads the config file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// Validate checks the config values.
func (c *Config) Validate() error {
	if c.Primary == "" {
		return errors.New("primary model name required")
	}
	if c.DefaultProbability < 0 || c.DefaultProbability > 1 {
		return errors.Errorf("default probability must be in [0,1], got %v", c.DefaultProbability)
	}
	return nil
}
