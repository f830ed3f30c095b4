// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package ssh keeps a pool of SSH client connections to the configured hosts
// so repeated runs on the same host reuse one connection.
package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"cmd-runner/internal/config"
	"cmd-runner/internal/logger"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DialTimeout bounds connection setup to a host.
const DialTimeout = 10 * time.Second

// Manager caches one client per host name. It is safe for concurrent use.
type Manager struct {
	clients map[string]*ssh.Client
	mu      sync.Mutex

	// KnownHostsPath overrides ~/.ssh/known_hosts.
	KnownHostsPath string
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*ssh.Client),
	}
}

// GetClient returns a connected client for the host, reusing a cached one if
// it still answers a keepalive.
func (m *Manager) GetClient(hostConfig config.SSHHost) (*ssh.Client, error) {
	m.mu.Lock()
	client, found := m.clients[hostConfig.Name]
	if found {
		// A keepalive round trip is the cheapest liveness check available.
		if _, _, err := client.SendRequest("keepalive@openssh.com", true, nil); err == nil {
			m.mu.Unlock()
			return client, nil
		}
		if err := client.Close(); err != nil {
			logger.Warn("Error closing stale SSH client", "host", hostConfig.Name, "error", err)
		}
		delete(m.clients, hostConfig.Name)
	}
	m.mu.Unlock() // Unlock before the potentially long dial

	clientConfig, err := m.clientConfig(hostConfig)
	if err != nil {
		return nil, err
	}

	addr := Address(hostConfig)
	newClient, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh host %s (%s): %w", hostConfig.Name, addr, err)
	}
	logger.Info("Connected to SSH host", "host", hostConfig.Name, "addr", addr)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine may have connected while we were dialing.
	if existing, found := m.clients[hostConfig.Name]; found {
		if err := newClient.Close(); err != nil {
			logger.Warn("Error closing redundant SSH client", "host", hostConfig.Name, "error", err)
		}
		return existing, nil
	}
	m.clients[hostConfig.Name] = newClient
	return newClient, nil
}

// Address is host:port for the host, with port 22 by default.
func Address(h config.SSHHost) string {
	port := h.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(h.Hostname, fmt.Sprint(port))
}

func (m *Manager) clientConfig(hostConfig config.SSHHost) (*ssh.ClientConfig, error) {
	authMethods, err := authMethods(hostConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare auth methods for %s: %w", hostConfig.Name, err)
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no suitable authentication method found for %s (key, agent, or password required)", hostConfig.Name)
	}

	hostKeyCallback, err := m.hostKeyCallback()
	if err != nil {
		logger.Warn("Host key will not be verified", "host", hostConfig.Name, "error", err)
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	return &ssh.ClientConfig{
		User:            hostConfig.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         DialTimeout,
	}, nil
}

// authMethods tries, in order: the configured key file, the SSH agent, and a
// configured password.
func authMethods(hostConfig config.SSHHost) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if hostConfig.KeyPath != "" {
		keyPath, resolveErr := config.ResolvePath(hostConfig.KeyPath)
		if resolveErr != nil {
			logger.Warn("Could not resolve key path", "path", hostConfig.KeyPath, "error", resolveErr)
			keyPath = hostConfig.KeyPath
		}

		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file %s: %w", keyPath, err)
		}

		signer, err := ssh.ParsePrivateKey(key)
		var missing *ssh.PassphraseMissingError
		switch {
		case errors.As(err, &missing):
			// Encrypted keys are left to the agent.
			logger.Warn("Private key is encrypted, skipping it", "path", keyPath)
		case err != nil:
			return nil, fmt.Errorf("failed to parse private key file %s: %w", keyPath, err)
		default:
			methods = append(methods, ssh.PublicKeys(signer))
		}
	}

	if socket := os.Getenv("SSH_AUTH_SOCK"); socket != "" {
		if conn, err := net.Dial("unix", socket); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	if hostConfig.Password != "" {
		methods = append(methods, ssh.Password(hostConfig.Password))
	}

	return methods, nil
}

// Connected lists the host names with a cached client.
func (m *Manager) Connected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CloseAll closes every cached connection. Call it on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			logger.Warn("Error closing SSH client", "host", name, "error", err)
		}
		delete(m.clients, name)
	}
}

// Close drops the cached connection to one host.
func (m *Manager) Close(hostName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client, found := m.clients[hostName]; found {
		if err := client.Close(); err != nil {
			logger.Warn("Error closing SSH client", "host", hostName, "error", err)
		}
		delete(m.clients, hostName)
	}
}

// hostKeyCallback verifies against known_hosts. A missing known_hosts file
// falls back to accepting any key, with a warning.
func (m *Manager) hostKeyCallback() (ssh.HostKeyCallback, error) {
	path := m.KnownHostsPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory for known_hosts: %w", err)
		}
		path = filepath.Join(homeDir, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("known_hosts not found, host keys will not be verified", "path", path)
			return ssh.InsecureIgnoreHostKey(), nil
		}
		return nil, fmt.Errorf("failed to load or parse known_hosts file %s: %w", path, err)
	}
	return callback, nil
}
