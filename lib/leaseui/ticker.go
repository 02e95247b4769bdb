// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/sandbox-portal/lib/clock"
)

// dashboardTickMsg is delivered once per second while the dashboard's
// auto-refresh is running. It drives both the visible countdown and
// the refresh itself when the countdown reaches zero.
type dashboardTickMsg struct{}

// refreshTicker owns the dashboard's periodic tick. Stopping closes
// the done channel so the pending Wait command returns nil instead of
// blocking forever on a ticker that will never fire again: without the
// done channel every Stop/Start cycle would leak a goroutine inside
// bubbletea waiting on the old ticker's channel.
type refreshTicker struct {
	clk    clock.Clock
	ticker *clock.Ticker
	done   chan struct{}
}

func newRefreshTicker(clk clock.Clock) *refreshTicker {
	return &refreshTicker{clk: clk}
}

// Start begins ticking. Starting a running ticker restarts its cycle.
func (t *refreshTicker) Start(interval time.Duration) {
	t.Stop()
	t.ticker = t.clk.NewTicker(interval)
	t.done = make(chan struct{})
}

// Stop halts ticking. Safe to call when not running.
func (t *refreshTicker) Stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	if t.done != nil {
		close(t.done)
		t.done = nil
	}
}

// Running reports whether the ticker is active.
func (t *refreshTicker) Running() bool {
	return t.ticker != nil
}

// Wait returns a command that delivers the next tick, or nil if the
// ticker is stopped before it fires. The caller re-arms by calling
// Wait again after each dashboardTickMsg.
func (t *refreshTicker) Wait() tea.Cmd {
	if t.ticker == nil {
		return nil
	}
	tick := t.ticker.C
	done := t.done
	return func() tea.Msg {
		select {
		case <-tick:
			return dashboardTickMsg{}
		case <-done:
			return nil
		}
	}
}
