// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sandbox-portal is a terminal UI for requesting and monitoring
// short-lived cloud sandbox accounts from a lease provisioning
// service.
//
// The portal reads its catalogue and endpoints from a YAML config
// (see --config). Visitors browse the template catalogue, accept the
// Acceptable Use Policy in a modal dialog, and watch their sessions
// on a live dashboard that pauses polling while the terminal is
// hidden.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/sandbox-portal/lib/leaseui"
	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
	"github.com/bureau-foundation/sandbox-portal/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var apiURL string
	var logOutput string

	flagSet := pflag.NewFlagSet("sandbox-portal", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config YAML (default: $SANDBOX_PORTAL_CONFIG, then $XDG_CONFIG_HOME/sandbox-portal/config.yaml)")
	flagSet.StringVar(&apiURL, "api-url", "", "override the configured provisioning API base URL")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("sandbox-portal")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("sandbox-portal is interactive and needs a terminal")
	}

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		config.APIBaseURL = apiURL
	}

	// Stderr would corrupt the alt-screen display, so without
	// --log-output background records are dropped.
	logger, closeLog, err := newLogger(logOutput)
	if err != nil {
		return err
	}
	defer closeLog()

	store := sandbox.NewSessionStore(sandbox.SessionFilePath(), logger)

	client, err := sandbox.NewClient(sandbox.ClientConfig{
		BaseURL:        config.APIBaseURL,
		Logger:         logger,
		TokenSource:    store.Token,
		OnUnauthorized: store.Logout,
	})
	if err != nil {
		return err
	}

	model, err := leaseui.New(leaseui.Config{
		Service:            client,
		Client:             client,
		Sessions:           store,
		Catalogue:          config.Catalogue,
		SignInURL:          config.SignInURL,
		ConsoleURLTemplate: config.ConsoleURLTemplate,
		RefreshInterval:    config.refreshInterval(),
		RequestTimeout:     config.requestTimeout(),
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	defer model.Close()

	// WithReportFocus delivers terminal focus and blur events, which
	// drive the dashboard's polling pause.
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	_, err = program.Run()
	return err
}

func newLogger(logOutput string) (*slog.Logger, func(), error) {
	if logOutput == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	file, err := os.Create(logOutput)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file %s: %w", logOutput, err)
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), func() { file.Close() }, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Sandbox portal — terminal UI for cloud sandbox sessions.

Browse the template catalogue, request a session after accepting the
Acceptable Use Policy, and monitor your sessions on the dashboard.
The session credential persists under $XDG_RUNTIME_DIR so a restarted
portal picks up where you left off.

Usage:
  sandbox-portal [flags]

Examples:
  # Run with the default config location
  sandbox-portal

  # Run against a specific deployment
  sandbox-portal --config ./staging-config.yaml

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
