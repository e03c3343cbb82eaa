// Package config loads and hot-reloads docagent configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Config is the full client configuration.
type Config struct {
	ServerURL              string        `mapstructure:"server_url" yaml:"server_url"`
	RequestTimeout         time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	RetryAttempts          uint          `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay             time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MaxUploadSize          int64         `mapstructure:"max_upload_size" yaml:"max_upload_size"`
	JobPollInterval        time.Duration `mapstructure:"job_poll_interval" yaml:"job_poll_interval"`
	SuggestionPollInterval time.Duration `mapstructure:"suggestion_poll_interval" yaml:"suggestion_poll_interval"`
	Backend                Backend       `mapstructure:"backend" yaml:"backend"`
}

// Backend configures the locally managed backend container.
type Backend struct {
	Image         string `mapstructure:"image" yaml:"image"`
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Port          string `mapstructure:"port" yaml:"port"`
	DataPath      string `mapstructure:"data_path" yaml:"data_path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:              "http://localhost:8080",
		RequestTimeout:         30 * time.Second,
		RetryAttempts:          3,
		RetryDelay:             1 * time.Second,
		MaxUploadSize:          50 << 20,
		JobPollInterval:        5 * time.Second,
		SuggestionPollInterval: 3 * time.Second,
		Backend: Backend{
			Image:         "officemind/docagent-backend:latest",
			ContainerName: "docagent-backend",
			Port:          "8080",
		},
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a config manager and loads the initial config.
func NewManager(cfgFile string) (*Manager, error) {
	m := &Manager{}

	if err := m.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.config = cfg

	return m, nil
}

// initViper sets up viper with defaults, env binding and the config file.
func (m *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server_url", defaults.ServerURL)
	viper.SetDefault("request_timeout", defaults.RequestTimeout)
	viper.SetDefault("retry_attempts", defaults.RetryAttempts)
	viper.SetDefault("retry_delay", defaults.RetryDelay)
	viper.SetDefault("max_upload_size", defaults.MaxUploadSize)
	viper.SetDefault("job_poll_interval", defaults.JobPollInterval)
	viper.SetDefault("suggestion_poll_interval", defaults.SuggestionPollInterval)
	viper.SetDefault("backend", defaults.Backend)

	// Environment variables with DOCAGENT_ prefix
	viper.SetEnvPrefix("DOCAGENT")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.docagent")
	}

	// The config file is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func (m *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnChange registers a callback for config changes.
func (m *Manager) OnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file.
func (m *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := m.load()
		if err != nil {
			return
		}

		m.mu.Lock()
		m.config = cfg
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// WriteDefault writes the default configuration to the given path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# docagent configuration
# server_url points at the document agent backend.
# Durations are written in nanoseconds; Go syntax (30s, 1m) is
# also accepted when editing by hand. Sizes are bytes.

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
