// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"time"
)

const (
	// defaultRequestTimeout is the fallback per-call timeout.
	defaultRequestTimeout = 60 * time.Second
	// defaultConcurrency is the worker pool size when not configured.
	defaultConcurrency = 5
	// defaultRetryTimes is the model invoker's retry budget.
	defaultRetryTimes = 3
	// defaultRetryDelay is the base of the exponential backoff.
	defaultRetryDelay = 1 * time.Second
	// defaultMaxTokens caps the reply length of one model call.
	defaultMaxTokens = 2000
)

// Config is the process configuration, built once at CLI parse and passed
// explicitly to constructors.
type Config struct {
	APIKey            string  `mapstructure:"api_key" json:"api_key"`
	BaseURL           string  `mapstructure:"base_url" json:"base_url"`
	ModelName         string  `mapstructure:"model_name" json:"model_name"`
	Temperature       float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens" json:"max_tokens"`
	TimeoutSeconds    int     `mapstructure:"timeout" json:"timeout,omitempty"`
	Concurrency       int     `mapstructure:"concurrency" json:"concurrency,omitempty"`
	RetryTimes        int     `mapstructure:"retry_times" json:"retry_times,omitempty"`
	RetryDelaySeconds int     `mapstructure:"retry_delay" json:"retry_delay,omitempty"`
	Debug             bool    `mapstructure:"debug" json:"debug"`
	LogFile           string  `mapstructure:"logFile" json:"logFile,omitempty"`
	ConfigPath        string  `mapstructure:"-" json:"-"`
}

// RequestTimeout returns the per-call timeout, falling back to the default.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WorkerCount returns the worker pool size K.
func (c Config) WorkerCount() int {
	if c.Concurrency <= 0 {
		return defaultConcurrency
	}
	return c.Concurrency
}

// RetryBudget returns how many attempts the model invoker makes per call.
func (c Config) RetryBudget() int {
	if c.RetryTimes <= 0 {
		return defaultRetryTimes
	}
	return c.RetryTimes
}

// RetryDelay returns the base delay for exponential backoff.
func (c Config) RetryDelay() time.Duration {
	if c.RetryDelaySeconds <= 0 {
		return defaultRetryDelay
	}
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// ReplyMaxTokens returns the per-call generation cap.
func (c Config) ReplyMaxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

// LogFilePath returns the log file path, applying a default if not set.
func (c Config) LogFilePath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return "hogbench.log"
}

// Validate checks the fields every evaluation run requires.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("missing required configuration: api_key (OPENAI_API_KEY)")
	}
	if c.ModelName == "" {
		return errors.New("missing required configuration: model_name (MODEL_NAME)")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}
