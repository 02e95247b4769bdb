// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the sandbox portal TUI.
type KeyMap struct {
	// Navigation (context-sensitive: catalogue list, dashboard table,
	// or modal policy scrolling depending on current focus).
	Up   key.Binding
	Down key.Binding
	Home key.Binding
	End  key.Binding

	// Screen switching.
	TabCatalogue key.Binding
	TabDashboard key.Binding

	// Filter (catalogue).
	FilterActivate key.Binding // Enter filter mode.
	FilterClear    key.Binding // Clear filter and exit filter mode.

	// Actions.
	Select  key.Binding // Catalogue: open the acceptance modal. Dashboard: launch.
	Refresh key.Binding // Dashboard: reload the lease list now.
	SignOut key.Binding

	// Modal.
	ModalToggle key.Binding // Toggle the acceptance checkbox.
	ModalFocus  key.Binding // Move focus between checkbox and buttons.
	ModalCancel key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k) alongside standard arrow keys.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	TabCatalogue: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "catalogue"),
	),
	TabDashboard: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "sessions"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear filter"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "sign out"),
	),
	ModalToggle: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("Space", "toggle"),
	),
	ModalFocus: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch focus"),
	),
	ModalCancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "cancel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
