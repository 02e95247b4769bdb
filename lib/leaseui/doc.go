// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package leaseui implements the sandbox portal's terminal UI: the
// template catalogue, the Acceptable Use Policy acceptance modal, and
// the live sessions dashboard. Built on bubbletea (Elm architecture):
// one root Model owns all screen state, every mutation happens in
// Update, and View renders the whole frame from state.
//
// The root model is also the request controller. It owns the error
// taxonomy for lease submission — the modal only reports outcomes and
// never decides what a conflict or an expired credential means for
// navigation.
//
// Asynchronous results (template fetches, AUP fetch, lease list,
// submission) arrive as messages tagged with a generation counter.
// Closing the modal or tearing down the dashboard bumps the counter;
// stale results are discarded on arrival instead of being applied to
// state that has moved on.
package leaseui
