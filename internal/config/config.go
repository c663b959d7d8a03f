// Package config loads settings from defaults, an optional YAML file and the
// environment, in that order
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/wader/mpowiggle/internal/wiggle"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Speed  float64 `yaml:"speed"  env:"MPOWIGGLE_SPEED"  envDefault:"4"`
	Offset int     `yaml:"offset" env:"MPOWIGGLE_OFFSET" envDefault:"0"`
	Mode   string  `yaml:"mode"   env:"MPOWIGGLE_MODE"   envDefault:"crop"`

	CaptureDuration time.Duration `yaml:"capture_duration" env:"MPOWIGGLE_CAPTURE_DURATION" envDefault:"5s"`
	FFmpegPath      string        `yaml:"ffmpeg_path"      env:"MPOWIGGLE_FFMPEG_PATH"      envDefault:"ffmpeg"`
	FFprobePath     string        `yaml:"ffprobe_path"     env:"MPOWIGGLE_FFPROBE_PATH"     envDefault:"ffprobe"`
	TempDir         string        `yaml:"temp_dir"         env:"MPOWIGGLE_TEMP_DIR"`

	Sink      string `yaml:"sink"       env:"MPOWIGGLE_SINK"       envDefault:"file"`
	OutputDir string `yaml:"output_dir" env:"MPOWIGGLE_OUTPUT_DIR" envDefault:"."`

	MinIOEndpoint      string        `yaml:"minio_endpoint"       env:"MINIO_ENDPOINT"       envDefault:"localhost:9000"`
	MinIOAccessKey     string        `yaml:"minio_access_key"     env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey     string        `yaml:"minio_secret_key"     env:"MINIO_SECRET_KEY"`
	MinIOUseSSL        bool          `yaml:"minio_use_ssl"        env:"MINIO_USE_SSL"        envDefault:"false"`
	MinIOBucket        string        `yaml:"minio_bucket"         env:"MINIO_BUCKET"         envDefault:"wiggles"`
	MinIOPrefix        string        `yaml:"minio_prefix"         env:"MINIO_PREFIX"`
	MinIOPresignExpiry time.Duration `yaml:"minio_presign_expiry" env:"MINIO_PRESIGN_EXPIRY" envDefault:"24h"`

	LogLevel    string `yaml:"log_level"    env:"LOG_LEVEL"    envDefault:"info"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// Default returns config with only defaults applied
func Default() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load returns defaults overridden by the YAML file at path, if path is not
// empty, overridden by environment variables
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// a tag name no field has so defaults don't overwrite file values
	if err := env.ParseWithOptions(cfg, env.Options{DefaultValueTagName: "noDefault"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// Alignment returns the configured offset and mode
func (c *Config) Alignment() (wiggle.Alignment, error) {
	m, err := wiggle.ParseMode(c.Mode)
	if err != nil {
		return wiggle.Alignment{}, err
	}
	return wiggle.Alignment{Offset: c.Offset, Mode: m}, nil
}

// Playback returns the configured speed
func (c *Config) Playback() wiggle.Playback {
	return wiggle.Playback{Speed: c.Speed}
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Playback().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Offset < 0 {
		errs = append(errs, fmt.Errorf("offset %d must be >= 0", c.Offset))
	}
	if _, err := wiggle.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.CaptureDuration <= 0 {
		errs = append(errs, fmt.Errorf("capture duration %s must be > 0", c.CaptureDuration))
	}
	switch c.Sink {
	case "file":
	case "minio":
		if c.MinIOBucket == "" {
			errs = append(errs, errors.New("minio sink needs a bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink %q", c.Sink))
	}
	return errors.Join(errs...)
}
