package sqlpilot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries the tunable settings for the pipeline. Secrets are read
// from the environment, never from the file.
type Config struct {
	ListenAddr          string  `yaml:"listen_addr"`
	Model               string  `yaml:"model"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	DefaultLimit        int     `yaml:"default_limit"`
	MaxResultRows       int     `yaml:"max_result_rows"`
	HistoryLimit        int     `yaml:"history_limit"`
	RequestLogDir       string  `yaml:"request_log_dir"`

	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds"`
	ExecutionTimeoutSeconds  int `yaml:"execution_timeout_seconds"`

	DatabaseURL  string `yaml:"-"`
	GeminiAPIKey string `yaml:"-"`
}

// DefaultConfig returns the settings used when no file is supplied.
func DefaultConfig() *Config {
	cfg := &Config{
		ListenAddr:               ":8080",
		Model:                    "gemini-2.0-flash",
		ConfidenceThreshold:      0.75,
		DefaultLimit:             100,
		MaxResultRows:            1000,
		HistoryLimit:             5,
		GenerationTimeoutSeconds: 30,
		ExecutionTimeoutSeconds:  3,
	}
	cfg.applyEnv()
	return cfg
}

// LoadConfigFile reads a YAML config file and applies defaults for any
// field the file leaves unset.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadConfigString(string(data))
}

// LoadConfigString parses YAML config content over the defaults.
func LoadConfigString(content string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
}

func (c *Config) validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxResultRows <= 0 {
		return fmt.Errorf("max_result_rows must be positive, got %d", c.MaxResultRows)
	}
	return nil
}

// GenerationTimeout bounds the external drafting call.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// ExecutionTimeout bounds the downstream query execution call.
func (c *Config) ExecutionTimeout() time.Duration {
	return time.Duration(c.ExecutionTimeoutSeconds) * time.Second
}
