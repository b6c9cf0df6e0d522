// Package config loads the YAML configuration of the pofr command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/estimate"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "POFR_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// LogConfig controls the command's slog handler.
type LogConfig struct {
	Level string `yaml:"level"`
}

// InversionConfig mirrors core.Config. Zero fields take the core defaults;
// a nil Background fits the background as a free parameter.
type InversionConfig struct {
	DMax       float64  `yaml:"dmax"`
	NTerms     int      `yaml:"nterms"`
	Alpha      float64  `yaml:"alpha"`
	QMin       float64  `yaml:"qmin"`
	QMax       float64  `yaml:"qmax"`
	Background *float64 `yaml:"background,omitempty"`
	SlitHeight float64  `yaml:"slit_height"`
	SlitWidth  float64  `yaml:"slit_width"`
	SlitPoints int      `yaml:"slit_points"`
}

// EstimateConfig configures the α and N sweeps run before solving.
type EstimateConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Workers         int     `yaml:"workers"`
	AlphaMin        float64 `yaml:"alpha_min"`
	AlphaMax        float64 `yaml:"alpha_max"`
	PointsPerDecade int     `yaml:"points_per_decade"`
	NMin            int     `yaml:"nmin"`
	NMax            int     `yaml:"nmax"`
}

// SyntheticConfig describes a sphere data set generated when no data file
// is given.
type SyntheticConfig struct {
	Radius float64 `yaml:"radius"`
	I0     float64 `yaml:"i0"`
	QMin   float64 `yaml:"qmin"`
	QMax   float64 `yaml:"qmax"`
	Points int     `yaml:"points"`
	RelErr float64 `yaml:"rel_err"`
	Seed   uint64  `yaml:"seed"`
}

// PlotConfig sizes the optional PNG output (centimetres).
type PlotConfig struct {
	Width   float64 `yaml:"width_cm"`
	Height  float64 `yaml:"height_cm"`
	Samples int     `yaml:"samples"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Log          LogConfig        `yaml:"log"`
	Inversion    InversionConfig  `yaml:"inversion"`
	Estimate     EstimateConfig   `yaml:"estimate"`
	BatchWorkers int              `yaml:"batch_workers"`
	Synthetic    *SyntheticConfig `yaml:"synthetic,omitempty"`
	Plot         PlotConfig       `yaml:"plot"`
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)

	return cfg
}

// Load reads a config from path. An empty path or a missing file yields
// the defaults. Unknown keys are rejected.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML and fills unset fields with defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	inv := &cfg.Inversion
	if inv.DMax == 0 {
		inv.DMax = core.DefaultDMax
	}
	if inv.NTerms == 0 {
		inv.NTerms = core.DefaultNTerms
	}
	if inv.Alpha == 0 {
		inv.Alpha = core.DefaultAlpha
	}
	if inv.SlitPoints == 0 {
		inv.SlitPoints = core.DefaultSlitPoints
	}
	est := &cfg.Estimate
	if est.AlphaMin == 0 {
		est.AlphaMin = estimate.DefaultAlphaMin
	}
	if est.AlphaMax == 0 {
		est.AlphaMax = estimate.DefaultAlphaMax
	}
	if est.PointsPerDecade == 0 {
		est.PointsPerDecade = estimate.DefaultPointsPerDecade
	}
	if est.NMin == 0 {
		est.NMin = estimate.DefaultNMin
	}
	if est.NMax == 0 {
		est.NMax = estimate.DefaultNMax
	}
	if s := cfg.Synthetic; s != nil {
		if s.Radius == 0 {
			s.Radius = 50
		}
		if s.I0 == 0 {
			s.I0 = 100
		}
		if s.QMin == 0 {
			s.QMin = 0.01
		}
		if s.QMax == 0 {
			s.QMax = 0.3
		}
		if s.Points == 0 {
			s.Points = 50
		}
		if s.RelErr == 0 {
			s.RelErr = 0.01
		}
	}
	if cfg.Plot.Width == 0 {
		cfg.Plot.Width = 24
	}
	if cfg.Plot.Height == 0 {
		cfg.Plot.Height = 10
	}
	if cfg.Plot.Samples == 0 {
		cfg.Plot.Samples = 201
	}
}

// ApplyEnv overrides fields from POFR_* variables looked up with getenv
// (os.Getenv in production). Unset or empty variables are ignored.
//
//	POFR_LOG_LEVEL POFR_DMAX POFR_NTERMS POFR_ALPHA POFR_QMIN POFR_QMAX
//	POFR_BACKGROUND POFR_ESTIMATE POFR_WORKERS POFR_BATCH_WORKERS
func (c *AppConfig) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	float := func(key string, dst *float64) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*dst = f
		return nil
	}
	integer := func(key string, dst *int) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	for key, dst := range map[string]*float64{
		"DMAX":  &c.Inversion.DMax,
		"ALPHA": &c.Inversion.Alpha,
		"QMIN":  &c.Inversion.QMin,
		"QMAX":  &c.Inversion.QMax,
	} {
		if err := float(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*int{
		"NTERMS":        &c.Inversion.NTerms,
		"WORKERS":       &c.Estimate.Workers,
		"BATCH_WORKERS": &c.BatchWorkers,
	} {
		if err := integer(key, dst); err != nil {
			return err
		}
	}
	if v := getenv(EnvPrefix + "BACKGROUND"); v != "" {
		if strings.EqualFold(v, "estimate") {
			c.Inversion.Background = nil
		} else {
			var bg float64
			if err := float("BACKGROUND", &bg); err != nil {
				return err
			}
			c.Inversion.Background = &bg
		}
	}
	if v := getenv(EnvPrefix + "ESTIMATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sESTIMATE: %w", EnvPrefix, err)
		}
		c.Estimate.Enabled = b
	}

	return nil
}

// Validate checks every field. The inversion block is checked by
// core.Config.Validate, so its errors also match core.ErrConfig.
func (c *AppConfig) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if err := c.Core().Validate(); err != nil {
		return fmt.Errorf("config: inversion: %w", err)
	}
	if c.Inversion.SlitHeight < 0 || c.Inversion.SlitWidth < 0 {
		return fmt.Errorf("%w: slit dimensions must be >= 0", ErrInvalid)
	}
	e := c.Estimate
	if e.Workers < 0 || c.BatchWorkers < 0 {
		return fmt.Errorf("%w: worker counts must be >= 0", ErrInvalid)
	}
	if !(e.AlphaMin > 0 && e.AlphaMin <= e.AlphaMax) {
		return fmt.Errorf("%w: estimate: need 0 < alpha_min <= alpha_max", ErrInvalid)
	}
	if e.PointsPerDecade < 1 {
		return fmt.Errorf("%w: estimate: points_per_decade must be >= 1", ErrInvalid)
	}
	if !(e.NMin >= 1 && e.NMin <= e.NMax) {
		return fmt.Errorf("%w: estimate: need 1 <= nmin <= nmax", ErrInvalid)
	}
	if s := c.Synthetic; s != nil {
		if s.Radius <= 0 || s.I0 <= 0 || s.RelErr <= 0 {
			return fmt.Errorf("%w: synthetic: radius, i0 and rel_err must be > 0", ErrInvalid)
		}
		if !(s.QMin > 0 && s.QMin < s.QMax) || s.Points < 2 {
			return fmt.Errorf("%w: synthetic: need 0 < qmin < qmax and points >= 2", ErrInvalid)
		}
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 || c.Plot.Samples < 3 {
		return fmt.Errorf("%w: plot: size must be > 0 and samples >= 3", ErrInvalid)
	}

	return nil
}

// SlogLevel parses Log.Level.
func (c *AppConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}

	return lvl, nil
}

// Core converts the inversion block to a core.Config.
func (c *AppConfig) Core() core.Config {
	inv := c.Inversion
	cfg := core.Config{
		QMin:           inv.QMin,
		QMax:           inv.QMax,
		DMax:           inv.DMax,
		NTerms:         inv.NTerms,
		Alpha:          inv.Alpha,
		BackgroundMode: core.BackgroundEstimate,
		SlitPoints:     inv.SlitPoints,
	}
	if inv.Background != nil {
		cfg.BackgroundMode = core.BackgroundFixed
		cfg.Background = *inv.Background
	}

	return cfg
}

// EstimateOptions converts the estimate block. Call Validate first: the
// estimate constructors panic on out-of-range values.
func (c *AppConfig) EstimateOptions() []estimate.Option {
	e := c.Estimate
	opts := []estimate.Option{
		estimate.WithAlphaRange(e.AlphaMin, e.AlphaMax),
		estimate.WithPointsPerDecade(e.PointsPerDecade),
		estimate.WithNRange(e.NMin, e.NMax),
	}
	if e.Workers > 0 {
		opts = append(opts, estimate.WithWorkers(e.Workers))
	}

	return opts
}
