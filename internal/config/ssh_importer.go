// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// PotentialHost is a Host block from ~/.ssh/config that could be imported.
type PotentialHost struct {
	Alias    string
	Hostname string
	User     string
	Port     int
	KeyPath  string
}

func DefaultSSHConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".ssh", "config"), nil
}

// ParseSSHConfig lists the importable hosts of the user's ssh config. A
// missing file yields no hosts.
func ParseSSHConfig() ([]PotentialHost, error) {
	sshConfigPath, err := DefaultSSHConfigPath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(sshConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []PotentialHost{}, nil
		}
		return nil, fmt.Errorf("failed to open ssh config file %s: %w", sshConfigPath, err)
	}
	defer f.Close()

	hosts, err := ParseSSHConfigFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh config file %s: %w", sshConfigPath, err)
	}
	return hosts, nil
}

// ParseSSHConfigFrom decodes an ssh config. Wildcard blocks and blocks
// without a user are skipped.
func ParseSSHConfigFrom(r io.Reader) ([]PotentialHost, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return nil, err
	}

	var potentialHosts []PotentialHost
	for _, host := range cfg.Hosts {
		if len(host.Patterns) == 0 {
			continue
		}
		alias := host.Patterns[0].String()
		if strings.ContainsAny(alias, "*?!") {
			continue
		}

		hostname, _ := cfg.Get(alias, "HostName")
		user, _ := cfg.Get(alias, "User")
		portStr, _ := cfg.Get(alias, "Port")
		keyPath, _ := cfg.Get(alias, "IdentityFile")

		if hostname == "" {
			hostname = alias
		}

		port := 22
		if portStr != "" {
			if p, err := strconv.Atoi(portStr); err == nil {
				port = p
			}
		}

		if resolved, err := ResolvePath(keyPath); err == nil {
			keyPath = resolved
		}

		if user == "" {
			continue
		}
		potentialHosts = append(potentialHosts, PotentialHost{
			Alias:    alias,
			Hostname: hostname,
			User:     user,
			Port:     port,
			KeyPath:  keyPath,
		})
	}

	return potentialHosts, nil
}

// ToSSHHost converts an imported ssh config block into a configured host.
func ToSSHHost(p PotentialHost, uniqueName, workDir string) (SSHHost, error) {
	if p.Hostname == "" || p.User == "" {
		return SSHHost{}, fmt.Errorf("cannot convert potential host '%s' with missing hostname or user", p.Alias)
	}
	if uniqueName == "" {
		return SSHHost{}, fmt.Errorf("a unique name is required for the host")
	}

	return SSHHost{
		Name:     uniqueName,
		Hostname: p.Hostname,
		User:     p.User,
		Port:     p.Port,
		KeyPath:  p.KeyPath,
		WorkDir:  workDir,
	}, nil
}
