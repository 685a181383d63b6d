package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`
	// SessionPath overrides where the identity selection is persisted.
	SessionPath string `yaml:"sessionPath,omitempty"`
	// Env prefixes log file names ("dev", "prod").
	Env string `yaml:"env,omitempty"`
	// LivePollInterval is how often the live attendance view refetches.
	LivePollInterval time.Duration `yaml:"livePollInterval,omitempty"`
}

const (
	configFileName  = "confirmation_tracker.yaml"
	databaseURLEnv  = "CONFIRMATION_TRACKER_DATABASE_URL"
	defaultPollTick = 10 * time.Second
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from confirmation_tracker.yaml.
// It looks for the config file in the current directory first, then in the
// user's home directory. CONFIRMATION_TRACKER_DATABASE_URL overrides the
// file's database URL when set.
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if url := os.Getenv(databaseURLEnv); url != "" {
		cfg.DatabaseURL = url
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.LivePollInterval < time.Second {
		return fmt.Errorf("livePollInterval must be at least 1s, got %s", cfg.LivePollInterval)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.LivePollInterval == 0 {
		cfg.LivePollInterval = defaultPollTick
	}
}

// findConfigFile searches for confirmation_tracker.yaml in current directory and home directory
func findConfigFile() (string, error) {
	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
