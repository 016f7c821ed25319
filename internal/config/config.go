// Package config loads the settings of the mrl binaries from flags,
// MRL_ prefixed environment variables and an optional mrl.yaml file.
// Explicitly set flags win over the environment, which wins over the file.
package config

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so --input-path
// is read from MRL_INPUT_PATH.
const EnvPrefix = "MRL"

// Config holds the settings shared by cmd/mrl and cmd/mrl-experiment.
type Config struct {
	N           int64   `mapstructure:"n"`
	Epsilon     float64 `mapstructure:"epsilon"`
	InputPath   string  `mapstructure:"input-path"`
	Generate    string  `mapstructure:"generate"`
	Seed        int64   `mapstructure:"seed"`
	PrintOutput bool    `mapstructure:"print-output"`
	Interactive bool    `mapstructure:"interactive"`
	Compressed  bool    `mapstructure:"compressed"`
	Serve       string  `mapstructure:"serve"`
	LogLevel    string  `mapstructure:"log-level"`
	Dev         bool    `mapstructure:"dev"`

	Times       int    `mapstructure:"times"`
	Tag         string `mapstructure:"tag"`
	RankLog     string `mapstructure:"rank-log"`
	QuantileDir string `mapstructure:"quantile-dir"`
	DB          string `mapstructure:"db"`
	Baselines   bool   `mapstructure:"baselines"`
}

// RegisterSketchFlags adds the flags that describe the sketch and its input.
func RegisterSketchFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path of a yaml config file (default ./mrl.yaml if present)")
	fs.Int64P("n", "n", 0, "number of elements n in the input stream (0 counts the input first)")
	fs.Float64P("epsilon", "e", 0.01, "tolerated error epsilon")
	fs.StringP("input-path", "i", "", "path of the input stream, one integer per line")
	fs.String("generate", "", "generate n values instead of reading a file: uniform, normal, sorted, reversed or zipf")
	fs.Int64("seed", 1, "seed for generated streams and sampling")
	fs.String("log-level", "info", "log level")
	fs.Bool("dev", false, "human readable development logging")
}

// RegisterConsoleFlags adds the flags of cmd/mrl.
func RegisterConsoleFlags(fs *pflag.FlagSet) {
	fs.Bool("print-output", false, "print the sketch after every insertion")
	fs.Bool("interactive", false, "start the interactive query console")
	fs.Bool("compressed", true, "elide the middle levels when printing the final sketch")
	fs.String("serve", "", "serve queries over HTTP on this address, e.g. :8080")
}

// RegisterExperimentFlags adds the flags of cmd/mrl-experiment.
func RegisterExperimentFlags(fs *pflag.FlagSet) {
	fs.Int("times", 1000, "number of sampled rank queries")
	fs.String("tag", "", "run tag (default: input file name without extension)")
	fs.String("rank-log", "rankerrs.csv", "csv file the mean rank error is appended to")
	fs.String("quantile-dir", ".", "directory of the per-run quantile error csv")
	fs.String("db", "", "sqlite database recording every run")
	fs.Bool("baselines", false, "compare against perks, t-digest and DDSketch")
}

// Load parses args into fs and resolves the final configuration.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", path)
		}
	} else {
		v.SetConfigName("mrl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(err, "error reading config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	if cfg.Tag == "" && cfg.InputPath != "" {
		base := filepath.Base(cfg.InputPath)
		cfg.Tag = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if cfg.Tag == "" && cfg.Generate != "" {
		cfg.Tag = cfg.Generate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that do not depend on the input.
func (cfg *Config) Validate() error {
	if cfg.InputPath == "" && cfg.Generate == "" {
		return errors.New("one of --input-path or --generate is required")
	}
	if cfg.InputPath != "" && cfg.Generate != "" {
		return errors.New("--input-path and --generate are mutually exclusive")
	}
	if cfg.Generate != "" && cfg.N <= 0 {
		return errors.Errorf("--generate needs n > 0, got %d", cfg.N)
	}
	if cfg.N < 0 {
		return errors.Errorf("n should be >= 0, got %d", cfg.N)
	}
	if cfg.Epsilon <= 0 || cfg.Epsilon >= 1 {
		return errors.Errorf("epsilon should be element of (0, 1), got %v", cfg.Epsilon)
	}
	if cfg.Times < 0 {
		return errors.Errorf("times should be >= 0, got %d", cfg.Times)
	}
	return nil
}
