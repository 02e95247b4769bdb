// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/sandbox-portal/lib/leaseui"
)

// portalConfig is the YAML configuration for the portal binary. The
// catalogue lives here rather than on the server: each deployment
// curates which templates its visitors see.
type portalConfig struct {
	// APIBaseURL is the root of the provisioning API.
	APIBaseURL string `yaml:"apiBaseURL"`

	// SignInURL is the browser sign-in page shown on the token entry
	// screen.
	SignInURL string `yaml:"signInURL"`

	// ConsoleURLTemplate builds console links for leased accounts;
	// "{accountId}" is substituted.
	ConsoleURLTemplate string `yaml:"consoleURLTemplate"`

	// RefreshIntervalSeconds is the dashboard auto-refresh cadence.
	RefreshIntervalSeconds int `yaml:"refreshIntervalSeconds"`

	// RequestTimeoutSeconds bounds every API call.
	RequestTimeoutSeconds int `yaml:"requestTimeoutSeconds"`

	Catalogue []leaseui.CatalogueEntry `yaml:"catalogue"`
}

// defaultConfigPath is $XDG_CONFIG_HOME/sandbox-portal/config.yaml,
// falling back to ~/.config.
func defaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "sandbox-portal", "config.yaml")
}

// loadConfig reads the config from the flag value, the
// SANDBOX_PORTAL_CONFIG environment variable, or the default path, in
// that order. There is no search beyond these: the portal talks to a
// government API, and which one must be explicit.
func loadConfig(flagPath string) (*portalConfig, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("SANDBOX_PORTAL_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath()
	}
	if path == "" {
		return nil, fmt.Errorf("no config path: set --config or SANDBOX_PORTAL_CONFIG")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var config portalConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &config, nil
}

func (config *portalConfig) validate() error {
	if config.APIBaseURL == "" {
		return fmt.Errorf("apiBaseURL is required")
	}
	if config.SignInURL == "" {
		return fmt.Errorf("signInURL is required")
	}
	if len(config.Catalogue) == 0 {
		return fmt.Errorf("catalogue must list at least one template")
	}
	return nil
}

func (config *portalConfig) refreshInterval() time.Duration {
	if config.RefreshIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(config.RefreshIntervalSeconds) * time.Second
}

func (config *portalConfig) requestTimeout() time.Duration {
	if config.RequestTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(config.RequestTimeoutSeconds) * time.Second
}
