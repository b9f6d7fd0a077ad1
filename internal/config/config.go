// Package config loads 9pdump settings from defaults, an optional YAML
// file and NINEP_* environment variables.
package config

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the complete 9pdump configuration.
//
// Sources, highest precedence first:
//  1. Environment variables (NINEP_*, e.g. NINEP_DUMP_FORMAT=yaml)
//  2. Configuration file
//  3. Default values
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Dump    DumpConfig    `mapstructure:"dump"`
	Dial    DialConfig    `mapstructure:"dial"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// DumpConfig selects what to decode and how to print it.
type DumpConfig struct {
	Format string `mapstructure:"format" validate:"required,oneof=text yaml json"`

	// A file path, "-" for standard input, or a dial string.
	Input string `mapstructure:"input" validate:"required"`

	// Largest message accepted. Accepts sizes like "64KiB".
	MaxMsize uint32 `mapstructure:"max_msize" validate:"gte=7"`
}

// DialConfig governs connecting when Input is a dial string.
type DialConfig struct {
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" validate:"gtefield=InitialBackoff"`
}

var validate = validator.New()

// Load reads configuration. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NINEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		byteSizeHook,
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("dump.format", "text")
	v.SetDefault("dump.input", "-")
	v.SetDefault("dump.max_msize", 8192+24)
	v.SetDefault("dial.max_retries", 3)
	v.SetDefault("dial.initial_backoff", 100*time.Millisecond)
	v.SetDefault("dial.max_backoff", 5*time.Second)
}

// ApplyDefaults normalizes loaded values.
func ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	cfg.Dump.Format = strings.ToLower(cfg.Dump.Format)
}

// byteSizeHook lets uint32 sizes be written as "8KiB" or "1MB".
func byteSizeHook(f, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t.Kind() != reflect.Uint32 {
		return data, nil
	}
	n, err := humanize.ParseBytes(data.(string))
	if err != nil {
		return nil, err
	}
	if n > math.MaxUint32 {
		return nil, fmt.Errorf("size %s exceeds 4GB", data)
	}
	return uint32(n), nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
