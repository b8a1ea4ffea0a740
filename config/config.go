// Package config loads the tool configuration from a YAML file, BINFHE_*
// environment variables and command line flags, and builds the logger,
// estimator and noise sampler it describes.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/KAIST-CryptLab/binfhe-params/core/stdparams"
	"github.com/KAIST-CryptLab/binfhe-params/estimator"
	"github.com/KAIST-CryptLab/binfhe-params/noise"
	"github.com/KAIST-CryptLab/binfhe-params/search"
)

// EnvPrefix prefixes the environment overrides, e.g. BINFHE_NOISE_SCRIPT.
const EnvPrefix = "BINFHE"

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"` // text or json
	Verbose bool   `mapstructure:"verbose"`
}

type EstimatorConfig struct {
	Kind       string   `mapstructure:"kind"` // command or analytic
	Command    string   `mapstructure:"command"`
	Args       []string `mapstructure:"args"`
	Threads    int      `mapstructure:"threads"`
	CacheDir   string   `mapstructure:"cache_dir"`
	MaxRetries int      `mapstructure:"max_retries"`
}

type NoiseConfig struct {
	Kind    string        `mapstructure:"kind"` // command, lwe or analytical
	Script  string        `mapstructure:"script"`
	SysPath string        `mapstructure:"sys_path"`
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
	Seed    string        `mapstructure:"seed"`
}

type SelectionConfig struct {
	Dist        string  `mapstructure:"dist"`
	Level       string  `mapstructure:"level"`
	LogFailure  float64 `mapstructure:"log_failure"`
	Inputs      int     `mapstructure:"inputs"`
	Samples     int     `mapstructure:"samples"`
	DigitsKS    int     `mapstructure:"digits_ks"`
	DigitsG     []int   `mapstructure:"digits_g"`
	RingDims    []int   `mapstructure:"ring_dims"`
	BaseRK      uint64  `mapstructure:"base_rk"`
	Sigma       float64 `mapstructure:"sigma"`
	Verify      bool    `mapstructure:"verify"`
	TuneDigits  bool    `mapstructure:"tune_digits"`
	Parallelism int     `mapstructure:"parallelism"`
}

// Config is the root of the configuration tree.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Noise     NoiseConfig     `mapstructure:"noise"`
	Selection SelectionConfig `mapstructure:"selection"`

	loadedFrom string
}

// LoadedFrom returns the configuration file used, if any.
func (c *Config) LoadedFrom() string {
	return c.loadedFrom
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {

	req := search.DefaultRequest()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.verbose", false)

	v.SetDefault("estimator.kind", "command")
	v.SetDefault("estimator.command", "sage")
	v.SetDefault("estimator.args", []string{"-python", "scripts/estimate.py"})
	v.SetDefault("estimator.threads", 1)
	v.SetDefault("estimator.cache_dir", "")
	v.SetDefault("estimator.max_retries", search.DefaultMaxRetries)

	v.SetDefault("noise.kind", "command")
	v.SetDefault("noise.script", "./noise_harness")
	v.SetDefault("noise.sys_path", ".")
	v.SetDefault("noise.timeout", 30*time.Minute)
	v.SetDefault("noise.workers", 0)
	v.SetDefault("noise.seed", "binfhe-params")

	v.SetDefault("selection.dist", req.Dist.String())
	v.SetDefault("selection.level", req.Level.String())
	v.SetDefault("selection.log_failure", req.LogFailure)
	v.SetDefault("selection.inputs", req.Inputs)
	v.SetDefault("selection.samples", req.Samples)
	v.SetDefault("selection.digits_ks", req.DigitsKS)
	v.SetDefault("selection.digits_g", req.DigitsG)
	v.SetDefault("selection.ring_dims", req.RingDims)
	v.SetDefault("selection.base_rk", req.BaseRK)
	v.SetDefault("selection.sigma", req.Sigma)
	v.SetDefault("selection.verify", req.Verify)
	v.SetDefault("selection.tune_digits", req.TuneDigits)
	v.SetDefault("selection.parallelism", 0)
}

// Load reads the configuration into v. path may be empty, in which case only
// defaults, environment variables and the flags bound on v apply.
func Load(v *viper.Viper, path string) (*Config, error) {

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.loadedFrom = v.ConfigFileUsed()

	return &cfg, nil
}

// BindFlags binds each named flag of fs to the configuration key of the same
// entry in keys (flag name -> key).
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// NewLogger builds the logger described by c. Verbose forces debug.
func NewLogger(c LogConfig) (*logrus.Logger, error) {

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	switch strings.ToLower(c.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}

	switch strings.ToLower(c.Level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "", "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", c.Level)
	}

	if c.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger, nil
}

// Request converts the selection section.
func (c SelectionConfig) Request() (search.Request, error) {

	dist, err := stdparams.ParseDistType(c.Dist)
	if err != nil {
		return search.Request{}, err
	}

	level, err := stdparams.ParseSecurityLevel(c.Level)
	if err != nil {
		return search.Request{}, err
	}

	req := search.Request{
		Dist:       dist,
		Level:      level,
		LogFailure: c.LogFailure,
		Inputs:     c.Inputs,
		Samples:    c.Samples,
		DigitsKS:   c.DigitsKS,
		DigitsG:    append([]int(nil), c.DigitsG...),
		RingDims:   append([]int(nil), c.RingDims...),
		BaseRK:     c.BaseRK,
		Sigma:      c.Sigma,
		Verify:     c.Verify,
		TuneDigits: c.TuneDigits,
	}

	return req, req.Validate()
}

// NewEstimator builds the lattice estimator, always behind an in-memory
// cache and, if CacheDir is set, a disk cache.
func NewEstimator(c EstimatorConfig, log logrus.FieldLogger) (estimator.Estimator, error) {

	var next estimator.Estimator

	switch strings.ToLower(c.Kind) {
	case "command":
		if c.Command == "" {
			return nil, fmt.Errorf("estimator command not set")
		}
		next = estimator.NewCommand(c.Command, c.Args, c.Threads, log)
	case "analytic":
		next = estimator.Analytic{}
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", c.Kind)
	}

	if c.CacheDir != "" {
		if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating estimator cache: %w", err)
		}
	}

	return estimator.NewCache(next, c.CacheDir, log), nil
}

// NewSampler builds the noise sampler. dist is the secret distribution of the
// parameter sets it will be asked to measure.
func NewSampler(c NoiseConfig, dist stdparams.DistType, log logrus.FieldLogger) (noise.Sampler, error) {
	switch strings.ToLower(c.Kind) {
	case "command":
		if c.Script == "" {
			return nil, fmt.Errorf("noise script not set")
		}
		return noise.NewCommand(c.Script, c.SysPath, c.Timeout, log), nil
	case "lwe":
		return noise.NewLWE(dist, c.Workers, []byte(c.Seed), log), nil
	case "analytical":
		return noise.Analytical{}, nil
	default:
		return nil, fmt.Errorf("unknown noise sampler kind %q", c.Kind)
	}
}

// NewSelector wires a selector from the whole configuration.
func (c *Config) NewSelector(log logrus.FieldLogger) (*search.Selector, search.Request, error) {

	req, err := c.Selection.Request()
	if err != nil {
		return nil, req, err
	}

	sampler, err := NewSampler(c.Noise, req.Dist, log)
	if err != nil {
		return nil, req, err
	}

	sel := &search.Selector{
		Sampler:     sampler,
		Parallelism: c.Selection.Parallelism,
		MaxRetries:  c.Estimator.MaxRetries,
		Log:         log,
	}

	if req.Verify {
		if sel.Estimator, err = NewEstimator(c.Estimator, log); err != nil {
			return nil, req, err
		}
	}

	return sel, req, nil
}
