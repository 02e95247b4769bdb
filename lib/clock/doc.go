// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction so the
// portal's timers — the dashboard's refresh ticker and countdown, and
// relative-time rendering — can be tested deterministically.
//
// Production code injects Real(); tests inject Fake() and advance it
// explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	dashboard := NewDashboard(source, c)
//	c.Advance(30 * time.Second) // fires the refresh ticker
//
// When a goroutine registers a waiter (After, NewTicker), use
// WaitForTimers to block until it is pending before calling Advance.
package clock
