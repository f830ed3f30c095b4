// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package config handles the user configuration: display defaults, the shell
// used to run commands, the optional dotenv file, the HTTP listen address and
// the SSH hosts commands can be run on.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth      = 80
	DefaultShell      = "/bin/sh"
	DefaultListenAddr = "127.0.0.1:8080"
	MaxWidth          = 1000
)

// SSHHost is a remote machine entries can be run on.
type SSHHost struct {
	// Name is the unique identifier used by `run --host`.
	Name string `yaml:"name"`

	Hostname string `yaml:"hostname"`
	User     string `yaml:"user"`

	// Port defaults to 22.
	Port int `yaml:"port,omitempty"`

	KeyPath string `yaml:"key_path,omitempty"`

	// Password is an optional authentication method (plaintext, discouraged)
	Password string `yaml:"password,omitempty"`

	// WorkDir is the remote directory commands are started in.
	WorkDir string `yaml:"work_dir,omitempty"`

	Disabled bool `yaml:"disabled,omitempty"`
}

// Validate checks the fields needed to dial the host.
func (h SSHHost) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Name, validation.Required),
		validation.Field(&h.Hostname, validation.Required),
		validation.Field(&h.User, validation.Required),
		validation.Field(&h.Port, validation.Min(0), validation.Max(65535)),
	)
}

// Config is the top-level application configuration.
type Config struct {
	// DefaultWidth is used when a command file has no "width".
	DefaultWidth int `yaml:"default_width,omitempty"`

	// DefaultFile is opened when no command file is given on the command line.
	DefaultFile string `yaml:"default_file,omitempty"`

	// Shell runs each command as "<shell> -c <command>".
	Shell string `yaml:"shell,omitempty"`

	// EnvFile is a dotenv file merged into the environment of every command.
	EnvFile string `yaml:"env_file,omitempty"`

	// History enables the run history database. Unset means enabled.
	History *bool `yaml:"history,omitempty"`

	ListenAddr string `yaml:"listen_addr,omitempty"`

	SSHHosts []SSHHost `yaml:"ssh_hosts"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	c := Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.DefaultWidth == 0 {
		c.DefaultWidth = DefaultWidth
	}
	if c.Shell == "" {
		c.Shell = DefaultShell
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
}

// HistoryEnabled reports whether runs should be recorded.
func (c Config) HistoryEnabled() bool {
	return c.History == nil || *c.History
}

// Validate checks value ranges and that host names are unique.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.DefaultWidth, validation.Required, validation.Min(1), validation.Max(MaxWidth)),
		validation.Field(&c.Shell, validation.Required),
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.SSHHosts),
	); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.SSHHosts))
	for _, h := range c.SSHHosts {
		if seen[h.Name] {
			return fmt.Errorf("ssh_hosts: duplicate host name %q", h.Name)
		}
		seen[h.Name] = true
	}
	return nil
}

// EnabledHosts returns the hosts that are not disabled.
func (c Config) EnabledHosts() []SSHHost {
	return slices.DeleteFunc(slices.Clone(c.SSHHosts), func(h SSHHost) bool {
		return h.Disabled
	})
}

// FindHost looks up an enabled host by name.
func (c Config) FindHost(name string) (SSHHost, bool) {
	for _, h := range c.SSHHosts {
		if h.Name == name && !h.Disabled {
			return h, true
		}
	}
	return SSHHost{}, false
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "cmd-runner", "config.yaml"), nil
}

// LoadConfig reads the configuration from DefaultConfigPath.
func LoadConfig() (Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom reads and validates the configuration at configPath. A
// missing file yields the defaults.
func LoadConfigFrom(configPath string) (Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

func EnsureConfigDir() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// SaveConfig validates cfg and writes it to DefaultConfigPath.
func SaveConfig(cfg Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(configPath, cfg)
}

func SaveConfigTo(configPath string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// rw-r-----
	if err := os.WriteFile(configPath, data, 0640); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configPath, err)
	}
	return nil
}

// ResolvePath expands a leading "~/" to the user's home directory.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path, fmt.Errorf("could not get user home directory to resolve path '%s': %w", path, err)
	}

	return filepath.Join(homeDir, path[2:]), nil
}
