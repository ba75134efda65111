// Package config loads the process-wide configuration.
//
// Precedence: built-in defaults, then the YAML file, then environment
// variables with the JOBFLOW_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration.
type Config struct {
	// Log controls the structured logger.
	Log LogConfig `yaml:"log"`
	// Validation controls the optional validation passes.
	Validation ValidationConfig `yaml:"validation"`
	// Actions carries the site-wide action execution defaults.
	Actions ActionsConfig `yaml:"actions"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Format: json or console.
	Format string `yaml:"format"`
}

// ValidationConfig controls the optional validation passes.
type ValidationConfig struct {
	// ForkJoin is the process-wide fork/join validation flag. Fork/join
	// validation runs only when this and the job-level flag are both true.
	ForkJoin bool `yaml:"fork_join"`
}

// ActionsConfig carries the site-wide execution defaults injected into
// action nodes when neither the node nor the workflow global section
// provides them.
type ActionsConfig struct {
	// DefaultNameNode is the site-wide storage endpoint address.
	DefaultNameNode string `yaml:"default_name_node"`
	// DefaultJobTracker is the site-wide compute endpoint address.
	DefaultJobTracker string `yaml:"default_job_tracker"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Validation: ValidationConfig{
			ForkJoin: true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path (ignored when path is empty), and JOBFLOW_-prefixed environment
// variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("JOBFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JOBFLOW_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("JOBFLOW_VALIDATION_FORK_JOIN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Validation.ForkJoin = b
		}
	}
	if v := os.Getenv("JOBFLOW_ACTIONS_DEFAULT_NAME_NODE"); v != "" {
		cfg.Actions.DefaultNameNode = v
	}
	if v := os.Getenv("JOBFLOW_ACTIONS_DEFAULT_JOB_TRACKER"); v != "" {
		cfg.Actions.DefaultJobTracker = v
	}
}
