// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
)

// Service is the slice of the catalogue API the UI consumes.
// *sandbox.Client satisfies it; tests substitute scripted fakes.
type Service interface {
	AuthStatus(ctx context.Context) (*sandbox.AuthStatusResponse, error)
	LeaseTemplate(ctx context.Context, templateID string) (*sandbox.LeaseTemplate, error)
	Configuration(ctx context.Context) (*sandbox.Configuration, error)
	Leases(ctx context.Context, email string) ([]sandbox.Lease, error)
	CreateLease(ctx context.Context, templateID string) (*sandbox.CreateLeaseResponse, error)
}

// Async results carry the generation current when the request was
// issued. Update discards results whose generation no longer matches:
// a closed modal or a torn-down dashboard must not be resurrected by
// a slow response.

// templateLoadedMsg delivers the template detail fetch for the
// acceptance modal.
type templateLoadedMsg struct {
	generation int
	template   *sandbox.LeaseTemplate
	err        error
}

// aupLoadedMsg delivers the Acceptable Use Policy text for the
// acceptance modal.
type aupLoadedMsg struct {
	generation int
	text       string
	err        error
}

// leasesLoadedMsg delivers the dashboard lease list.
type leasesLoadedMsg struct {
	generation int
	leases     []sandbox.Lease
	err        error
}

// submitResultMsg delivers the outcome of a lease creation.
type submitResultMsg struct {
	generation int
	response   *sandbox.CreateLeaseResponse
	err        error
}

// signInResultMsg delivers the identity check run after the user
// pastes an access token.
type signInResultMsg struct {
	status *sandbox.AuthStatusResponse
	err    error
}

// authChangedMsg is pumped from the session store subscription into
// the bubbletea event loop.
type authChangedMsg struct {
	authenticated bool
}

func (model *Model) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), model.requestTimeout)
}

func (model *Model) fetchTemplateCmd(generation int, templateID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := model.requestContext()
		defer cancel()
		template, err := model.service.LeaseTemplate(ctx, templateID)
		return templateLoadedMsg{generation: generation, template: template, err: err}
	}
}

func (model *Model) fetchAUPCmd(generation int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := model.requestContext()
		defer cancel()
		configuration, err := model.service.Configuration(ctx)
		if err != nil {
			return aupLoadedMsg{generation: generation, err: err}
		}
		return aupLoadedMsg{generation: generation, text: configuration.AUP}
	}
}

func (model *Model) fetchLeasesCmd(generation int, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := model.requestContext()
		defer cancel()
		leases, err := model.service.Leases(ctx, email)
		return leasesLoadedMsg{generation: generation, leases: leases, err: err}
	}
}

func (model *Model) submitLeaseCmd(generation int, templateID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := model.requestContext()
		defer cancel()
		response, err := model.service.CreateLease(ctx, templateID)
		return submitResultMsg{generation: generation, response: response, err: err}
	}
}

func (model *Model) signInCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := model.requestContext()
		defer cancel()
		status, err := model.service.AuthStatus(ctx)
		return signInResultMsg{status: status, err: err}
	}
}

// listenForAuthChange pumps one session transition from the
// subscription channel into the event loop, then re-arms. The channel
// is buffered so the store's listener callback never blocks on the UI.
func (model *Model) listenForAuthChange() tea.Cmd {
	events := model.authEvents
	return func() tea.Msg {
		authenticated, ok := <-events
		if !ok {
			return nil
		}
		return authChangedMsg{authenticated: authenticated}
	}
}

// reconcileCmd validates the persisted credential against the server
// at startup. A revoked credential surfaces as an auth transition via
// the session store subscription, not as an error here.
func (model *Model) reconcileCmd(store *sandbox.SessionStore, client *sandbox.Client) tea.Cmd {
	if client == nil {
		return nil
	}
	timeout := model.requestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		store.Reconcile(ctx, client)
		return nil
	}
}

// interval guards against a zero value sneaking in from config.
func normalizeInterval(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
