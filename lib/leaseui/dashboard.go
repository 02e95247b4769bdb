// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
	"github.com/bureau-foundation/sandbox-portal/lib/tui"
)

// dashboardModel holds the sessions table. Refresh scheduling lives in
// the root model (it owns the ticker and the focus/blur state); this
// struct is the data and its rendering.
type dashboardModel struct {
	leases []sandbox.Lease

	// loaded distinguishes "no sessions" from "never fetched".
	loaded   bool
	fetching bool

	// errMessage is the last refresh failure. A failed refresh keeps
	// the previous lease list on screen alongside the error.
	errMessage string

	cursor      int
	lastUpdated time.Time

	// countdown is seconds until the next automatic refresh, driven by
	// the per-second tick while auto-refresh runs.
	countdown int
}

func (dashboard *dashboardModel) setLeases(leases []sandbox.Lease, fetchedAt time.Time) {
	dashboard.leases = leases
	dashboard.loaded = true
	dashboard.fetching = false
	dashboard.errMessage = ""
	dashboard.lastUpdated = fetchedAt
	if dashboard.cursor >= len(leases) {
		dashboard.cursor = len(leases) - 1
	}
	if dashboard.cursor < 0 {
		dashboard.cursor = 0
	}
}

func (dashboard *dashboardModel) setError(message string) {
	dashboard.fetching = false
	dashboard.errMessage = message
}

func (dashboard *dashboardModel) moveCursor(delta int) {
	dashboard.cursor += delta
	if dashboard.cursor < 0 {
		dashboard.cursor = 0
	}
	if dashboard.cursor >= len(dashboard.leases) {
		dashboard.cursor = len(dashboard.leases) - 1
		if dashboard.cursor < 0 {
			dashboard.cursor = 0
		}
	}
}

// current returns the lease under the cursor, or false when the table
// is empty.
func (dashboard *dashboardModel) current() (sandbox.Lease, bool) {
	if dashboard.cursor < 0 || dashboard.cursor >= len(dashboard.leases) {
		return sandbox.Lease{}, false
	}
	return dashboard.leases[dashboard.cursor], true
}

// hasActiveSessions reports whether any lease still counts against the
// auto-refresh condition. Completed and denied sessions don't change,
// so a dashboard of only those has nothing worth polling for.
func (dashboard *dashboardModel) hasActiveSessions() bool {
	for _, lease := range dashboard.leases {
		switch sandbox.Classify(lease.Status) {
		case sandbox.ClassActive, sandbox.ClassPending:
			return true
		}
	}
	return false
}

// render produces the dashboard body: a fixed-column session table
// with colored status labels, then a refresh status line.
func (dashboard *dashboardModel) render(theme tui.Theme, now time.Time, width int, autoRefresh bool) string {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	errorText := lipgloss.NewStyle().Foreground(theme.ErrorForeground)

	var builder strings.Builder

	if !dashboard.loaded {
		if dashboard.errMessage != "" {
			builder.WriteString(errorText.Render("Could not load sessions: " + dashboard.errMessage))
		} else {
			builder.WriteString(faint.Render("Loading sessions…"))
		}
		return builder.String()
	}

	if len(dashboard.leases) == 0 {
		builder.WriteString(faint.Render("No sandbox sessions. Request one from the catalogue."))
		builder.WriteString("\n\n")
		builder.WriteString(dashboard.statusLine(theme, autoRefresh))
		return builder.String()
	}

	// Column widths: status and expiry are bounded, template takes the
	// remainder next to the fixed-width account id.
	const accountWidth = 14
	const statusWidth = 16
	const expiresWidth = 10
	const spendWidth = 15
	templateWidth := width - accountWidth - statusWidth - expiresWidth - spendWidth - 8
	if templateWidth < 12 {
		templateWidth = 12
	}

	if summary := dashboard.summary(); summary != "" {
		builder.WriteString(faint.Render(summary))
		builder.WriteString("\n\n")
	}

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %s",
		templateWidth, "TEMPLATE",
		accountWidth, "ACCOUNT",
		statusWidth, "STATUS",
		expiresWidth, "EXPIRES",
		"SPEND")
	builder.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.HeaderForeground).
		Render(header))
	builder.WriteString("\n")

	for index, lease := range dashboard.leases {
		selected := index == dashboard.cursor
		class := sandbox.Classify(lease.Status)

		marker := "  "
		if selected {
			marker = "▸ "
		}

		name := ansi.Truncate(lease.LeaseTemplateName, templateWidth, "…")
		statusLabel := class.Label()

		rowStyle := lipgloss.NewStyle().Foreground(theme.NormalText)
		if selected {
			rowStyle = rowStyle.
				Foreground(theme.SelectedForeground).
				Background(theme.SelectedBackground)
		}
		statusStyle := rowStyle.Foreground(theme.StatusColor(class))
		if selected {
			statusStyle = statusStyle.Background(theme.SelectedBackground)
		}

		row := fmt.Sprintf("%-*s  %-*s  ",
			templateWidth, name,
			accountWidth, lease.AWSAccountID)
		tail := fmt.Sprintf("  %-*s  %s",
			expiresWidth, formatExpiry(lease, now),
			formatSpend(lease))

		builder.WriteString(marker +
			rowStyle.Render(row) +
			statusStyle.Render(fmt.Sprintf("%-*s", statusWidth, statusLabel)) +
			rowStyle.Render(tail))
		builder.WriteString("\n")
	}

	builder.WriteString("\n")
	if dashboard.errMessage != "" {
		builder.WriteString(errorText.Render("Refresh failed: "+dashboard.errMessage) + "\n")
	}
	builder.WriteString(dashboard.statusLine(theme, autoRefresh))

	return builder.String()
}

// summary counts the sessions still in motion, e.g. "1 active and
// 1 pending". Settled sessions are left to the table itself.
func (dashboard *dashboardModel) summary() string {
	var active, pending int
	for _, lease := range dashboard.leases {
		switch sandbox.Classify(lease.Status) {
		case sandbox.ClassActive:
			active++
		case sandbox.ClassPending:
			pending++
		}
	}
	var parts []string
	if active > 0 {
		parts = append(parts, fmt.Sprintf("%d active", active))
	}
	if pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", pending))
	}
	return strings.Join(parts, " and ")
}

func (dashboard *dashboardModel) statusLine(theme tui.Theme, autoRefresh bool) string {
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)

	var parts []string
	if dashboard.fetching {
		parts = append(parts, "Refreshing…")
	} else if !dashboard.lastUpdated.IsZero() {
		parts = append(parts, "Updated "+dashboard.lastUpdated.Format("15:04:05"))
	}
	if autoRefresh {
		parts = append(parts, fmt.Sprintf("next refresh in %ds", dashboard.countdown))
	} else if dashboard.loaded {
		parts = append(parts, "auto-refresh paused")
	}
	return faint.Render(strings.Join(parts, " · "))
}

// formatExpiry renders time remaining on a lease, or a dash for
// sessions in a state where expiry is meaningless.
func formatExpiry(lease sandbox.Lease, now time.Time) string {
	class := sandbox.Classify(lease.Status)
	if class != sandbox.ClassActive && class != sandbox.ClassPending {
		return "—"
	}
	if lease.ExpiresAt.IsZero() {
		return "—"
	}
	remaining := lease.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return "expired"
	}
	switch {
	case remaining >= 48*time.Hour:
		return fmt.Sprintf("%dd", int(remaining.Hours()/24))
	case remaining >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(remaining.Hours()), int(remaining.Minutes())%60)
	case remaining >= time.Minute:
		return fmt.Sprintf("%dm", int(remaining.Minutes()))
	default:
		return "<1m"
	}
}

func formatSpend(lease sandbox.Lease) string {
	if lease.MaxSpend <= 0 {
		return fmt.Sprintf("$%.2f", lease.CurrentSpend)
	}
	return fmt.Sprintf("$%.2f / $%.2f", lease.CurrentSpend, lease.MaxSpend)
}
