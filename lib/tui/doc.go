// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui provides shared terminal user interface plumbing for the
// sandbox portal: the color theme, ANSI-aware overlay compositing for
// the acceptance modal, and fuzzy matching for the catalogue filter.
//
// The portal's screens (package leaseui) import this package for a
// consistent look: one theme, one overlay mechanic, one match
// highlight convention.
package tui
