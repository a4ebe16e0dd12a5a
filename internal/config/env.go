package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const namespace = "SCHEDULER"

// Env holds every runtime setting, loaded from SCHEDULER_* environment
// variables.
type Env struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	APIKey   string `envconfig:"API_KEY" required:"true"`

	StorageType string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir     string `envconfig:"BASE_DIR" default:"./data"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Prefix    string `envconfig:"S3_PREFIX"`
	S3Region    string `envconfig:"S3_REGION"`

	VelocityWeeks int `envconfig:"VELOCITY_WEEKS" default:"4"`
}

func Load() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if env.StorageType != "local" && env.StorageType != "s3" {
		return nil, fmt.Errorf("unknown storage type %q", env.StorageType)
	}
	if env.StorageType == "s3" && env.S3Bucket == "" {
		return nil, fmt.Errorf("s3 storage requires %s_S3_BUCKET", namespace)
	}
	if env.VelocityWeeks <= 0 {
		return nil, fmt.Errorf("velocity weeks must be positive")
	}
	return &env, nil
}

// Local reports whether the process runs in the local development
// environment.
func (e *Env) Local() bool {
	return e.Env == "local"
}

func (e *Env) Addr() string {
	return fmt.Sprintf("%s:%d", e.HTTPHost, e.HTTPPort)
}

func (e *Env) SlogLevel() slog.Level {
	switch strings.ToLower(e.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
