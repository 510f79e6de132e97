package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for attendance-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (database URI
// credentials, AI API key) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"5000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MongoDB configuration
	Mongo MongoConfig `yaml:"mongo"`

	// Language model configuration
	AI AIConfig `yaml:"ai"`
}

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI                   string `yaml:"-" env:"MONGO_URI" env-default:"mongodb://localhost:27017"` // May carry credentials - not in YAML
	Database              string `yaml:"database" env:"MONGO_DATABASE" env-default:"college"`
	MaxPoolSize           uint64 `yaml:"max_pool_size" env:"MONGO_MAX_POOL_SIZE" env-default:"25"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds" env:"MONGO_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
	QueryTimeoutSeconds   int    `yaml:"query_timeout_seconds" env:"MONGO_QUERY_TIMEOUT_SECONDS" env-default:"10"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (c *MongoConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// QueryTimeout returns the per-query timeout as a duration.
func (c *MongoConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// AIConfig holds the language model endpoint configuration. Endpoint is any
// OpenAI-compatible base URL (Gemini's compatibility endpoint, OpenAI, or a
// local server).
type AIConfig struct {
	Endpoint              string  `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	Model                 string  `yaml:"model" env:"AI_MODEL" env-default:"gemini-2.0-flash"`
	APIKey                string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	Temperature           float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.1"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" env:"AI_REQUEST_TIMEOUT_SECONDS" env-default:"30"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *AIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent, environment variables alone are used.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database name is required")
	}
	if c.AI.Endpoint == "" {
		return fmt.Errorf("ai endpoint is required")
	}
	if c.AI.Model == "" {
		return fmt.Errorf("ai model is required")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature must be between 0 and 2, got %g", c.AI.Temperature)
	}
	return nil
}
