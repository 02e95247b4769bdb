// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
apiBaseURL: https://api.sandbox.example.gov
signInURL: https://portal.example.gov/login
consoleURLTemplate: https://console.example.gov/switch/{accountId}
refreshIntervalSeconds: 45
catalogue:
  - templateId: tmpl-basic
    title: Basic Sandbox
    description: General purpose account
  - title: Misconfigured
    description: no template id, still listed
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := loadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if config.APIBaseURL != "https://api.sandbox.example.gov" {
		t.Errorf("APIBaseURL = %q", config.APIBaseURL)
	}
	if len(config.Catalogue) != 2 {
		t.Fatalf("catalogue entries = %d, want 2", len(config.Catalogue))
	}
	if config.Catalogue[0].TemplateID != "tmpl-basic" {
		t.Errorf("first entry template id = %q", config.Catalogue[0].TemplateID)
	}
	if config.refreshInterval() != 45*time.Second {
		t.Errorf("refreshInterval = %v", config.refreshInterval())
	}
	// Unset timeout falls back to the default.
	if config.requestTimeout() != 15*time.Second {
		t.Errorf("requestTimeout = %v", config.requestTimeout())
	}
}

func TestLoadConfigEnvFallback(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("SANDBOX_PORTAL_CONFIG", path)
	if _, err := loadConfig(""); err != nil {
		t.Fatalf("loadConfig via env: %v", err)
	}
}

func TestLoadConfigRejectsIncomplete(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing api", "signInURL: https://x\ncatalogue:\n  - templateId: t\n    title: T\n"},
		{"missing sign-in", "apiBaseURL: https://x\ncatalogue:\n  - templateId: t\n    title: T\n"},
		{"empty catalogue", "apiBaseURL: https://x\nsignInURL: https://y\n"},
		{"bad yaml", "apiBaseURL: [unclosed\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
