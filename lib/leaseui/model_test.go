// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sandbox-portal/lib/clock"
	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
)

// fakeService is a scripted Service. Each field holds the canned
// response for one operation; call counters let tests assert traffic.
type fakeService struct {
	mu sync.Mutex

	template    *sandbox.LeaseTemplate
	templateErr error

	configuration    *sandbox.Configuration
	configurationErr error

	leases    []sandbox.Lease
	leasesErr error

	createResponse *sandbox.CreateLeaseResponse
	createErr      error

	authStatus    *sandbox.AuthStatusResponse
	authStatusErr error

	leasesCalls int
	createCalls int
}

func (f *fakeService) AuthStatus(context.Context) (*sandbox.AuthStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authStatus, f.authStatusErr
}

func (f *fakeService) LeaseTemplate(context.Context, string) (*sandbox.LeaseTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.template, f.templateErr
}

func (f *fakeService) Configuration(context.Context) (*sandbox.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configuration, f.configurationErr
}

func (f *fakeService) Leases(context.Context, string) ([]sandbox.Lease, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leasesCalls++
	return f.leases, f.leasesErr
}

func (f *fakeService) CreateLease(context.Context, string) (*sandbox.CreateLeaseResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return f.createResponse, f.createErr
}

var testTemplate = &sandbox.LeaseTemplate{
	TemplateID:           "tmpl-basic",
	Name:                 "Basic Sandbox",
	LeaseDurationInHours: 8,
	MaxSpend:             50,
}

var testCatalogue = []CatalogueEntry{
	{TemplateID: "tmpl-basic", Title: "Basic Sandbox", Description: "General purpose account"},
	{TemplateID: "tmpl-ml", Title: "Machine Learning Lab", Description: "GPU quota raised"},
	{Title: "Broken Entry", Description: "no template id"},
}

type testHarness struct {
	model   *Model
	service *fakeService
	clk     *clock.FakeClock
	store   *sandbox.SessionStore
}

func newTestModel(t *testing.T, authenticated bool) *testHarness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sandbox.NewSessionStore(filepath.Join(t.TempDir(), "session.json"), logger)
	if authenticated {
		if err := store.SetSession(sandbox.AuthSession{
			Token: "tok-1", Email: "visitor@example.gov", DisplayName: "Vis Itor",
		}); err != nil {
			t.Fatalf("SetSession: %v", err)
		}
	}

	service := &fakeService{
		template:      testTemplate,
		configuration: &sandbox.Configuration{AUP: "# Policy\n\nBe good."},
	}
	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	model, err := New(Config{
		Service:            service,
		Sessions:           store,
		Catalogue:          testCatalogue,
		SignInURL:          "https://portal.example.gov/login",
		ConsoleURLTemplate: "https://console.example.gov/switch/{accountId}",
		RefreshInterval:    30 * time.Second,
		Clock:              clk,
		Logger:             logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(model.Close)

	// Seed a terminal size so View and the modal have room.
	model.Update(tea.WindowSizeMsg{Width: 100, Height: 36})

	return &testHarness{model: model, service: service, clk: clk, store: store}
}

func press(model *Model, msg tea.KeyMsg) tea.Cmd {
	_, cmd := model.Update(msg)
	return cmd
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// openTestModal drives the UI to an open modal with both fetches
// settled.
func openTestModal(t *testing.T, h *testHarness) {
	t.Helper()
	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if h.model.modal == nil {
		t.Fatal("expected modal to open")
	}
	generation := h.model.modal.generation
	h.model.Update(templateLoadedMsg{generation: generation, template: testTemplate})
	h.model.Update(aupLoadedMsg{generation: generation, text: "# Policy\n\nBe good."})
}

func TestModalContinueDisabledUntilAccepted(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)

	modal := h.model.modal
	if !modal.fullyLoaded() {
		t.Fatal("modal should be fully loaded")
	}
	if modal.submitEnabled() {
		t.Error("Continue must stay disabled before acceptance")
	}

	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !modal.submitEnabled() {
		t.Error("Continue should enable after accepting")
	}
}

func TestModalAcceptBeforeLoadIsIgnored(t *testing.T) {
	h := newTestModel(t, true)
	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	modal := h.model.modal
	if modal == nil {
		t.Fatal("expected modal")
	}

	// Neither fetch has settled; the checkbox must not toggle.
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if modal.accepted {
		t.Error("checkbox toggled before the modal finished loading")
	}
}

func TestEnabledNoticeFiresExactlyOnce(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	modal := h.model.modal

	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !modal.enabledAnnounced {
		t.Fatal("enabled notice did not fire")
	}

	// Toggle off and on again: the state change is voiced, but the
	// "enabled" notice must not repeat.
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if h.model.notice == "Continue is now enabled." {
		t.Error("enabled notice fired more than once for the same modal")
	}
	if h.model.notice != "Terms accepted." {
		t.Errorf("notice = %q, want the acceptance state change", h.model.notice)
	}
}

func TestTemplateLoadFailureMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing template",
			err:  &sandbox.APIError{Code: sandbox.ErrCodeNotFound, StatusCode: 404},
			want: "This sandbox is currently unavailable.",
		},
		{
			name: "server failure",
			err:  &sandbox.APIError{Code: sandbox.ErrCodeServer, StatusCode: 500},
			want: "Unable to load session details.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestModel(t, true)
			press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
			modal := h.model.modal

			h.model.Update(templateLoadedMsg{generation: modal.generation, err: tc.err})
			h.model.Update(aupLoadedMsg{generation: modal.generation, text: "# Policy\n\nBe good."})
			if modal.templateErr != tc.want {
				t.Errorf("templateErr = %q, want %q", modal.templateErr, tc.want)
			}
			if modal.fullyLoaded() {
				t.Error("a failed template fetch must not count as loaded")
			}

			lines, _, _ := modal.Render(h.model.theme, 100, 36)
			plain := ansi.Strip(strings.Join(lines, "\n"))
			if !strings.Contains(plain, "Duration: Unknown") || !strings.Contains(plain, "Budget: Unknown") {
				t.Error("failed template detail should show Unknown fields")
			}
			if !strings.Contains(plain, tc.want) {
				t.Errorf("modal render missing %q", tc.want)
			}
		})
	}
}

func TestFallbackPolicyBlocksSubmission(t *testing.T) {
	h := newTestModel(t, true)
	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	modal := h.model.modal
	generation := modal.generation

	h.model.Update(templateLoadedMsg{generation: generation, template: testTemplate})
	h.model.Update(aupLoadedMsg{
		generation: generation,
		err:        &sandbox.APIError{Code: sandbox.ErrCodeServer, StatusCode: 500},
	})

	if !modal.aupFallback {
		t.Fatal("failed policy fetch should fall back to the bundled summary")
	}
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if modal.accepted {
		t.Error("acceptance toggle should be inert on the fallback policy")
	}
	if modal.submitEnabled() {
		t.Error("fallback policy must not enable submission")
	}

	modal.focus = modalFocusContinue
	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	h.service.mu.Lock()
	created := h.service.createCalls
	h.service.mu.Unlock()
	if created != 0 {
		t.Errorf("createCalls = %d, want 0", created)
	}
}

func TestStaleModalResultsDiscarded(t *testing.T) {
	h := newTestModel(t, true)
	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	staleGeneration := h.model.modal.generation

	press(h.model, tea.KeyMsg{Type: tea.KeyEscape})
	if h.model.modal != nil {
		t.Fatal("modal should close on escape")
	}

	// The in-flight fetch lands after close; nothing must resurrect.
	h.model.Update(templateLoadedMsg{generation: staleGeneration, template: testTemplate})
	h.model.Update(aupLoadedMsg{generation: staleGeneration, text: "stale"})
	if h.model.modal != nil {
		t.Error("stale results reopened the modal")
	}
}

func TestReopenedModalStartsClean(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	press(h.model, tea.KeyMsg{Type: tea.KeyEscape})

	openTestModal(t, h)
	modal := h.model.modal
	if modal.accepted {
		t.Error("acceptance leaked into a reopened modal")
	}
	if modal.enabledAnnounced {
		t.Error("enabled-notice latch leaked into a reopened modal")
	}
}

func TestSubmitConflictLandsOnDashboard(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	generation := h.model.modal.generation
	h.model.modal.submitting = true
	h.model.Update(submitResultMsg{
		generation: generation,
		err: &sandbox.APIError{
			Code:    sandbox.ErrCodeConflict,
			Message: "Active lease limit reached",
		},
	})

	if h.model.modal != nil {
		t.Fatal("a session-limit conflict must close the modal")
	}
	if h.model.screen != ScreenDashboard {
		t.Errorf("screen = %v, want dashboard", h.model.screen)
	}
	if h.model.notice != "Active lease limit reached" {
		t.Errorf("notice = %q, want the conflict explanation", h.model.notice)
	}
	if h.model.noticeLevel != noticeAssertive {
		t.Error("conflict explanation should announce assertively")
	}
}

func TestSubmitTransientErrorKeepsModalOpen(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	generation := h.model.modal.generation
	h.model.modal.submitting = true
	h.model.Update(submitResultMsg{
		generation: generation,
		err:        &sandbox.APIError{Code: sandbox.ErrCodeTimeout},
	})

	modal := h.model.modal
	if modal == nil {
		t.Fatal("a transient failure must keep the modal open")
	}
	if modal.submitting {
		t.Error("submitting flag not cleared")
	}
	if !modal.accepted {
		t.Error("acceptance must survive a transient failure")
	}
	if modal.errorMessage != "The request timed out. Try again." {
		t.Errorf("errorMessage = %q", modal.errorMessage)
	}
	if !modal.submitEnabled() {
		t.Error("retry should be possible after a transient failure")
	}
}

func TestSubmitSuccessLandsOnDashboard(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	generation := h.model.modal.generation
	h.model.modal.submitting = true
	h.model.Update(submitResultMsg{
		generation: generation,
		response:   &sandbox.CreateLeaseResponse{LeaseID: "lease-9", Status: sandbox.StatusPendingApproval},
	})

	if h.model.modal != nil {
		t.Error("modal should close on success")
	}
	if h.model.screen != ScreenDashboard {
		t.Errorf("screen = %v, want dashboard", h.model.screen)
	}
	if h.model.notice == "" {
		t.Error("success should announce")
	}
}

func TestSubmitUnauthorizedClosesModal(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	generation := h.model.modal.generation
	h.model.modal.submitting = true
	h.model.Update(submitResultMsg{
		generation: generation,
		err:        &sandbox.APIError{Code: sandbox.ErrCodeUnauthorized, StatusCode: 401},
	})

	if h.model.modal != nil {
		t.Error("expired credential must close the modal")
	}
	if h.model.noticeLevel != noticeAssertive {
		t.Error("session expiry should announce assertively")
	}
}

func TestEscapeIgnoredWhileSubmitting(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)
	press(h.model, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	h.model.modal.submitting = true

	press(h.model, tea.KeyMsg{Type: tea.KeyEscape})
	if h.model.modal == nil {
		t.Error("modal dismissed while a submission was in flight")
	}
}

func TestSignOutTearsDownAuthenticatedState(t *testing.T) {
	h := newTestModel(t, true)
	h.model.screen = ScreenDashboard
	h.model.dashboard.setLeases([]sandbox.Lease{
		{LeaseID: "l1", Status: sandbox.StatusActive},
	}, h.clk.Now())
	h.model.resumeAutoRefresh()
	if !h.model.refresh.Running() {
		t.Fatal("auto-refresh should be running")
	}

	h.model.Update(authChangedMsg{authenticated: false})

	if h.model.authenticated {
		t.Error("still authenticated after revocation")
	}
	if h.model.refresh.Running() {
		t.Error("auto-refresh still running after sign-out")
	}
	if h.model.dashboard.loaded {
		t.Error("dashboard data survived sign-out")
	}
	if h.model.screen != ScreenCatalogue {
		t.Errorf("screen = %v, want catalogue", h.model.screen)
	}
}

func TestRevocationWhileModalOpen(t *testing.T) {
	h := newTestModel(t, true)
	openTestModal(t, h)

	h.model.Update(authChangedMsg{authenticated: false})
	if h.model.modal != nil {
		t.Error("modal survived credential revocation")
	}
	if h.model.noticeLevel != noticeAssertive {
		t.Error("revocation should announce assertively")
	}
}

func TestUnauthenticatedRequestDetoursThroughSignIn(t *testing.T) {
	h := newTestModel(t, false)

	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if h.model.modal != nil {
		t.Fatal("modal must never open unauthenticated")
	}
	if h.model.screen != ScreenSignIn {
		t.Fatalf("screen = %v, want sign-in", h.model.screen)
	}
	if h.model.pendingEntry == nil || h.model.pendingEntry.TemplateID != "tmpl-basic" {
		t.Fatal("pending entry not recorded")
	}

	// Paste a token and verify it.
	h.service.authStatus = &sandbox.AuthStatusResponse{
		Email: "visitor@example.gov", DisplayName: "Vis Itor",
	}
	press(h.model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("tok-abc")})
	cmd := press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter should start verification")
	}
	h.model.Update(cmd())

	if h.model.screen == ScreenSignIn {
		t.Error("sign-in screen should be left after verification")
	}
	if h.model.modal == nil {
		t.Error("interrupted request should resume after sign-in")
	}
	if !h.model.authenticated {
		t.Error("not authenticated after successful verification")
	}
}

func TestRejectedTokenStaysOnSignIn(t *testing.T) {
	h := newTestModel(t, false)
	press(h.model, keyRune('2')) // dashboard detours to sign-in
	if h.model.screen != ScreenSignIn {
		t.Fatalf("screen = %v, want sign-in", h.model.screen)
	}

	h.service.authStatusErr = &sandbox.APIError{Code: sandbox.ErrCodeUnauthorized, StatusCode: 401}
	press(h.model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bad-token")})
	cmd := press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	h.model.Update(cmd())

	if h.model.screen != ScreenSignIn {
		t.Error("rejected token should stay on the sign-in screen")
	}
	if h.model.signIn.errMessage == "" {
		t.Error("rejection should surface an error message")
	}
}

func TestInertCatalogueEntryDoesNotOpenModal(t *testing.T) {
	h := newTestModel(t, true)
	h.model.catalogue.cursorEnd() // "Broken Entry" has no template id

	press(h.model, tea.KeyMsg{Type: tea.KeyEnter})
	if h.model.modal != nil {
		t.Error("entry without a template id opened the modal")
	}
	if h.model.notice == "" {
		t.Error("inert entry should explain itself")
	}
}

func TestNoticeFadeIgnoresStaleSequence(t *testing.T) {
	h := newTestModel(t, true)
	h.model.announce("first", noticePolite)
	staleSeq := h.model.noticeSeq
	h.model.announce("second", noticePolite)

	h.model.Update(noticeFadeMsg{seq: staleSeq})
	if h.model.notice != "second" {
		t.Error("stale fade cleared a newer notice")
	}

	h.model.Update(noticeFadeMsg{seq: h.model.noticeSeq})
	if h.model.notice != "" {
		t.Error("matching fade did not clear the notice")
	}
}
