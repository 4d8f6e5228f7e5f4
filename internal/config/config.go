package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/michaelbrown/codemaster/internal/runner"
)

type ProviderConfig struct {
	BaseURL string            `mapstructure:"base_url"`
	APIKey  string            `mapstructure:"api_key"`
	Models  map[string]string `mapstructure:"models"`
}

type ChatConfig struct {
	HistoryWindow int     `mapstructure:"history_window"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	ProfilesDir   string  `mapstructure:"profiles_dir"`
}

type RunnerConfig struct {
	WorkspaceRoot  string            `mapstructure:"workspace_root"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	MaxOutputBytes int               `mapstructure:"max_output_bytes"`
	Interpreters   map[string]string `mapstructure:"interpreters"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type Config struct {
	Providers       map[string]ProviderConfig `mapstructure:"providers"`
	DefaultProvider string                    `mapstructure:"default_provider"`
	Chat            ChatConfig                `mapstructure:"chat"`
	Runner          RunnerConfig              `mapstructure:"runner"`
	Server          ServerConfig              `mapstructure:"server"`
	Storage         StorageConfig             `mapstructure:"storage"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("codemaster")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.codemaster")

	v.SetDefault("default_provider", "groq")
	v.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("providers.groq.api_key", "${GROQ_API_KEY}")
	v.SetDefault("providers.groq.models.default", "llama-3.1-8b-instant")
	v.SetDefault("chat.history_window", 10)
	v.SetDefault("chat.temperature", 0.1)
	v.SetDefault("chat.max_tokens", 4000)
	v.SetDefault("runner.timeout_seconds", runner.DefaultTimeoutSeconds)
	v.SetDefault("runner.max_output_bytes", runner.DefaultMaxOutputBytes)
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".codemaster", "codemaster.db"))

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Expand environment variables in API keys
	for name, p := range cfg.Providers {
		if strings.HasPrefix(p.APIKey, "${") && strings.HasSuffix(p.APIKey, "}") {
			envVar := p.APIKey[2 : len(p.APIKey)-1]
			p.APIKey = os.Getenv(envVar)
			cfg.Providers[name] = p
		}
	}

	return &cfg, nil
}

// IsOllama returns true if this provider looks like an Ollama instance.
func (p ProviderConfig) IsOllama() bool {
	return strings.Contains(p.BaseURL, ":11434") || strings.Contains(strings.ToLower(p.BaseURL), "ollama")
}

// Provider returns the config for a named provider, falling back to the default.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	if name == "" {
		name = c.DefaultProvider
	}
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("unknown provider: %s", name)
	}
	return p, nil
}

// RunnerOptions translates the runner section into runner.Options.
func (c *Config) RunnerOptions() runner.Options {
	interpreters := make(map[runner.Language]string, len(c.Runner.Interpreters))
	for lang, bin := range c.Runner.Interpreters {
		interpreters[runner.Language(lang)] = bin
	}
	return runner.Options{
		WorkspaceRoot:  c.Runner.WorkspaceRoot,
		MaxOutputBytes: c.Runner.MaxOutputBytes,
		Interpreters:   interpreters,
	}
}

// RunnerTimeoutSeconds is the configured default execution timeout, clamped
// to the range the runner accepts.
func (c *Config) RunnerTimeoutSeconds() int {
	secs := c.Runner.TimeoutSeconds
	if secs <= 0 || secs > runner.MaxTimeoutSeconds {
		secs = runner.DefaultTimeoutSeconds
	}
	return secs
}
