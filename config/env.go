// Package config loads locsync settings from the environment and from the
// project file.
package config

import (
	"time"

	"github.com/ZaguanLabs/locsync"
	"github.com/caarlos0/env/v11"
)

// Env holds settings read from environment variables. Credentials only ever
// come from here or from flags; the project file never carries them.
type Env struct {
	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	Model         string        `env:"LOCSYNC_MODEL"     envDefault:"gpt-4o-mini"`
	RedisURL      string        `env:"LOCSYNC_REDIS_URL"`
	CacheTTL      time.Duration `env:"LOCSYNC_CACHE_TTL" envDefault:"1h"`
	RPM           int           `env:"LOCSYNC_RPM"       envDefault:"0"`
	MaxRetries    int           `env:"LOCSYNC_RETRIES"   envDefault:"3"`
	LogLevel      string        `env:"LOG_LEVEL"         envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT"        envDefault:"text"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	return parseEnv(env.Options{})
}

// LoadEnvFrom reads Env from the given variables instead of the process environment.
func LoadEnvFrom(vars map[string]string) (Env, error) {
	return parseEnv(env.Options{Environment: vars})
}

func parseEnv(opts env.Options) (Env, error) {
	cfg, err := env.ParseAsWithOptions[Env](opts)
	if err != nil {
		return cfg, &locsync.ConfigurationError{Message: "reading environment", Cause: err}
	}
	if cfg.RPM < 0 {
		return cfg, &locsync.ConfigurationError{Message: "LOCSYNC_RPM must not be negative"}
	}
	if cfg.MaxRetries < 0 {
		return cfg, &locsync.ConfigurationError{Message: "LOCSYNC_RETRIES must not be negative"}
	}
	return cfg, nil
}
