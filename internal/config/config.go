// Package config loads global settings (viper: file, MLENS_* environment,
// flags) and job files (TOML or YAML).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"mlens-core/images"
)

// ErrInvalid reports a setting outside its domain.
var ErrInvalid = errors.New("config: invalid setting")

// Settings are the knobs shared by every command.
type Settings struct {
	LogLevel  string  `mapstructure:"log_level"`
	Format    string  `mapstructure:"format"`
	Method    string  `mapstructure:"method"`
	AbsTol    float64 `mapstructure:"abs_tol"`
	RelTol    float64 `mapstructure:"rel_tol"`
	Threads   int     `mapstructure:"threads"`
	Metrics   bool    `mapstructure:"metrics"`
	ESPLTable string  `mapstructure:"espl_table"`
	SunTable  string  `mapstructure:"sun_table"`
}

// Keys bound to flags by the CLI.
const (
	KeyLogLevel  = "log_level"
	KeyFormat    = "format"
	KeyMethod    = "method"
	KeyAbsTol    = "abs_tol"
	KeyRelTol    = "rel_tol"
	KeyThreads   = "threads"
	KeyMetrics   = "metrics"
	KeyESPLTable = "espl_table"
	KeySunTable  = "sun_table"
)

// EnvPrefix prefixes the environment overrides, e.g. MLENS_ABS_TOL.
const EnvPrefix = "MLENS"

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyFormat, "text")
	v.SetDefault(KeyMethod, images.SinglePoly.String())
	v.SetDefault(KeyAbsTol, 1e-2)
	v.SetDefault(KeyRelTol, 0.0)
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyMetrics, false)
	v.SetDefault(KeyESPLTable, "")
	v.SetDefault(KeySunTable, "")
}

// Load reads the settings. An explicit file must exist; otherwise mlens.yaml
// or mlens.toml in the working directory is used when present.
func Load(v *viper.Viper, file string) (Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", file, err)
		}
	} else {
		v.SetConfigName("mlens")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Settings{}, fmt.Errorf("config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %w", err)
	}
	return s, s.Validate()
}

// Validate checks every field.
func (s Settings) Validate() error {
	if _, err := images.ParseMethod(s.Method); err != nil {
		return fmt.Errorf("config: method: %v: %w", err, ErrInvalid)
	}
	if s.AbsTol < 0 || s.RelTol < 0 {
		return fmt.Errorf("config: tolerances must be non-negative (abs=%g rel=%g): %w", s.AbsTol, s.RelTol, ErrInvalid)
	}
	if s.Threads < 0 {
		return fmt.Errorf("config: threads=%d: %w", s.Threads, ErrInvalid)
	}
	return nil
}

// MethodValue is the parsed Method; call after Validate.
func (s Settings) MethodValue() images.Method {
	m, _ := images.ParseMethod(s.Method)
	return m
}
