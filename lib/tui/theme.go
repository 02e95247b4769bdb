// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
)

// Theme defines the color palette for the portal's terminal UI. All
// colors use lipgloss ANSI 256-color codes for broad terminal
// compatibility.
//
// Lease statuses get semantic colors, but the dashboard always renders
// the status label next to the color — color alone never carries
// meaning.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Lease status colors.
	StatusActive         lipgloss.Color
	StatusPending        lipgloss.Color
	StatusCompleted      lipgloss.Color
	StatusDenied         lipgloss.Color
	StatusBudgetExceeded lipgloss.Color

	// Error and announcement styling.
	ErrorForeground  lipgloss.Color
	NoticeForeground lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Filter match highlighting.
	SearchHighlightBackground lipgloss.Color

	// Modal surfaces.
	ModalForeground lipgloss.Color
	ModalBackground lipgloss.Color
}

// StatusColor returns the color for a lease status class. Unknown
// classes render faintly.
func (theme Theme) StatusColor(class sandbox.StatusClass) lipgloss.Color {
	switch class {
	case sandbox.ClassActive:
		return theme.StatusActive
	case sandbox.ClassPending:
		return theme.StatusPending
	case sandbox.ClassCompleted:
		return theme.StatusCompleted
	case sandbox.ClassDenied:
		return theme.StatusDenied
	case sandbox.ClassBudgetExceeded:
		return theme.StatusBudgetExceeded
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme, designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusActive:         lipgloss.Color("114"), // green
	StatusPending:        lipgloss.Color("220"), // yellow/amber
	StatusCompleted:      lipgloss.Color("245"), // gray
	StatusDenied:         lipgloss.Color("196"), // red
	StatusBudgetExceeded: lipgloss.Color("208"), // orange

	ErrorForeground:  lipgloss.Color("196"),
	NoticeForeground: lipgloss.Color("220"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	SearchHighlightBackground: lipgloss.Color("58"), // dark amber

	ModalForeground: lipgloss.Color("252"),
	ModalBackground: lipgloss.Color("237"), // slightly lighter than terminal background
}
