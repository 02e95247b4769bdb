// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/sandbox-portal/lib/clock"
	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
	"github.com/bureau-foundation/sandbox-portal/lib/tui"
)

// Screen identifies the top-level view.
type Screen int

const (
	ScreenCatalogue Screen = iota
	ScreenDashboard
	ScreenSignIn
)

// Config carries the dependencies and settings for the portal UI.
type Config struct {
	// Service is the catalogue API surface. Required.
	Service Service

	// Sessions is the persisted credential store. Required.
	Sessions *sandbox.SessionStore

	// Client, when set, is reconciled against the server at startup to
	// detect credentials revoked while the portal was closed. It is
	// the same underlying client as Service in production; tests that
	// fake the Service leave it nil.
	Client *sandbox.Client

	// Catalogue is the configured template list.
	Catalogue []CatalogueEntry

	// SignInURL is where the browser-based sign-in flow lives.
	SignInURL string

	// ConsoleURLTemplate builds the cloud console URL for an account,
	// with "{accountId}" substituted.
	ConsoleURLTemplate string

	// RefreshInterval is the dashboard auto-refresh cadence.
	// Defaults to 30 seconds.
	RefreshInterval time.Duration

	// RequestTimeout bounds every API call. Defaults to 15 seconds.
	RequestTimeout time.Duration

	// Clock defaults to the real clock; tests inject a fake.
	Clock clock.Clock

	Logger *slog.Logger
}

// Model is the root bubbletea model for the portal. It owns every
// piece of UI state and is the single writer for all of it: async
// work happens in commands, results come back as messages, and only
// Update mutates.
type Model struct {
	service  Service
	sessions *sandbox.SessionStore
	clk      clock.Clock
	logger   *slog.Logger
	theme    tui.Theme
	keys     KeyMap

	width  int
	height int
	ready  bool

	screen  Screen
	focused bool // terminal focus, from FocusMsg/BlurMsg

	authenticated bool
	identity      string // display name or email while signed in

	// authEvents bridges session store callbacks into the event loop.
	authEvents  chan bool
	unsubscribe func()

	catalogue catalogueModel
	dashboard dashboardModel
	signIn    signInModel

	// modal is non-nil while the acceptance dialog is open.
	// modalGeneration fences its async results: every open bumps it,
	// and results tagged with an older generation are dropped.
	modal           *aupModal
	modalGeneration int

	// pendingEntry is the catalogue entry whose request triggered a
	// sign-in detour; the modal opens for it once sign-in completes.
	pendingEntry *CatalogueEntry
	returnScreen Screen

	// dashGeneration fences lease list results the same way.
	dashGeneration int
	refresh        *refreshTicker

	notice      string
	noticeLevel noticeLevel
	noticeSeq   int

	signInURL          string
	consoleURLTemplate string
	refreshInterval    time.Duration
	requestTimeout     time.Duration

	startupCmds []tea.Cmd
}

// New builds the root model. The session store subscription starts
// here; Close releases it.
func New(config Config) (*Model, error) {
	if config.Service == nil {
		return nil, fmt.Errorf("leaseui: Service is required")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("leaseui: Sessions is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	model := &Model{
		service:            config.Service,
		sessions:           config.Sessions,
		clk:                clk,
		logger:             logger,
		theme:              tui.DefaultTheme,
		keys:               DefaultKeyMap,
		screen:             ScreenCatalogue,
		focused:            true,
		authEvents:         make(chan bool, 8),
		catalogue:          newCatalogueModel(config.Catalogue, logger),
		refresh:            newRefreshTicker(clk),
		signInURL:          config.SignInURL,
		consoleURLTemplate: config.ConsoleURLTemplate,
		refreshInterval:    normalizeInterval(config.RefreshInterval, 30*time.Second),
		requestTimeout:     normalizeInterval(config.RequestTimeout, 15*time.Second),
	}

	// The first callback fires synchronously with the current state,
	// seeding authenticated before the event loop starts. Later
	// transitions flow through the channel into Update.
	first := true
	model.unsubscribe = config.Sessions.Subscribe(func(authenticated bool) {
		if first {
			first = false
			model.authenticated = authenticated
			return
		}
		select {
		case model.authEvents <- authenticated:
		default:
			// A full channel means the UI is hopelessly behind;
			// dropping is safe because only the latest state matters
			// and Update re-reads the store.
		}
	})
	model.identity = sessionIdentity(config.Sessions.Current())

	if reconcile := model.reconcileCmd(config.Sessions, config.Client); reconcile != nil {
		model.startupCmds = append(model.startupCmds, reconcile)
	}
	return model, nil
}

// Close releases the session store subscription. Call after the
// program exits.
func (model *Model) Close() {
	if model.unsubscribe != nil {
		model.unsubscribe()
		model.unsubscribe = nil
	}
	model.refresh.Stop()
}

func sessionIdentity(session *sandbox.AuthSession) string {
	if session == nil {
		return ""
	}
	if session.DisplayName != "" {
		return session.DisplayName
	}
	return session.Email
}

// Init starts the auth event pump and the startup credential check.
func (model *Model) Init() tea.Cmd {
	cmds := append([]tea.Cmd{model.listenForAuthChange()}, model.startupCmds...)
	model.startupCmds = nil
	if model.authenticated {
		cmds = append(cmds, model.loadDashboard())
	}
	return tea.Batch(cmds...)
}

// loadDashboard begins a lease list fetch under a fresh generation.
func (model *Model) loadDashboard() tea.Cmd {
	session := model.sessions.Current()
	if session == nil {
		return nil
	}
	model.dashGeneration++
	model.dashboard.fetching = true
	return model.fetchLeasesCmd(model.dashGeneration, session.Email)
}

func (model *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		model.ready = true
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(msg)

	case tea.FocusMsg:
		model.focused = true
		return model, model.resumeAutoRefresh()

	case tea.BlurMsg:
		model.focused = false
		model.refresh.Stop()
		return model, nil

	case authChangedMsg:
		return model, tea.Batch(model.handleAuthChanged(msg.authenticated), model.listenForAuthChange())

	case templateLoadedMsg:
		return model, model.handleTemplateLoaded(msg)

	case aupLoadedMsg:
		return model, model.handleAUPLoaded(msg)

	case submitResultMsg:
		return model, model.handleSubmitResult(msg)

	case leasesLoadedMsg:
		return model, model.handleLeasesLoaded(msg)

	case signInResultMsg:
		return model, model.handleSignInResult(msg)

	case dashboardTickMsg:
		return model, model.handleDashboardTick()

	case noticeFadeMsg:
		model.handleNoticeFade(msg)
		return model, nil
	}

	return model, nil
}

// --- Key routing ---

// handleKey routes keys by focus: the modal traps everything while
// open, then the sign-in screen, then the catalogue filter, then the
// screen-level bindings.
func (model *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return model, tea.Quit
	}

	if model.modal != nil {
		return model, model.handleModalKey(msg)
	}

	if model.screen == ScreenSignIn {
		return model, model.handleSignInKey(msg)
	}

	if model.screen == ScreenCatalogue && model.catalogue.filterActive {
		return model, model.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(msg, model.keys.TabCatalogue):
		model.screen = ScreenCatalogue
		model.refresh.Stop()
		return model, nil

	case key.Matches(msg, model.keys.TabDashboard):
		return model, model.showDashboard()

	case key.Matches(msg, model.keys.SignOut):
		if model.authenticated {
			model.sessions.Logout()
		}
		return model, nil

	case key.Matches(msg, model.keys.FilterActivate):
		if model.screen == ScreenCatalogue {
			model.catalogue.filterActive = true
		}
		return model, nil

	case key.Matches(msg, model.keys.Up):
		model.moveCursor(-1)
		return model, nil

	case key.Matches(msg, model.keys.Down):
		model.moveCursor(1)
		return model, nil

	case key.Matches(msg, model.keys.Home):
		if model.screen == ScreenCatalogue {
			model.catalogue.cursorHome()
		} else {
			model.dashboard.cursor = 0
		}
		return model, nil

	case key.Matches(msg, model.keys.End):
		if model.screen == ScreenCatalogue {
			model.catalogue.cursorEnd()
		} else {
			model.dashboard.moveCursor(len(model.dashboard.leases))
		}
		return model, nil

	case key.Matches(msg, model.keys.Refresh):
		if model.screen == ScreenDashboard && model.authenticated {
			model.dashboard.countdown = int(model.refreshInterval / time.Second)
			return model, model.loadDashboard()
		}
		return model, nil

	case key.Matches(msg, model.keys.Select):
		return model, model.handleSelect()

	case key.Matches(msg, model.keys.FilterClear):
		if model.screen == ScreenCatalogue {
			model.catalogue.clearFilter()
		}
		return model, nil
	}

	return model, nil
}

func (model *Model) moveCursor(delta int) {
	if model.screen == ScreenCatalogue {
		model.catalogue.moveCursor(delta)
	} else if model.screen == ScreenDashboard {
		model.dashboard.moveCursor(delta)
	}
}

// handleSelect is Enter outside the modal: on the catalogue it starts
// a session request, on the dashboard it launches the selected
// session.
func (model *Model) handleSelect() tea.Cmd {
	switch model.screen {
	case ScreenCatalogue:
		entry, ok := model.catalogue.current()
		if !ok {
			return nil
		}
		if !entry.valid() {
			return model.announce("This template is not available.", noticePolite)
		}
		if !model.authenticated {
			// Detour through sign-in, then reopen for this entry.
			pending := entry
			model.pendingEntry = &pending
			model.returnScreen = model.screen
			model.signIn.reset()
			model.screen = ScreenSignIn
			return nil
		}
		return model.openModal(entry)

	case ScreenDashboard:
		lease, ok := model.dashboard.current()
		if !ok {
			return nil
		}
		if !sandbox.Classify(lease.Status).Launchable() {
			return model.announce("Only active sessions can be launched.", noticePolite)
		}
		url := strings.ReplaceAll(model.consoleURLTemplate, "{accountId}", lease.AWSAccountID)
		return tea.Batch(
			copyToClipboard(url),
			model.announce("Console URL copied to clipboard.", noticePolite),
		)
	}
	return nil
}

func (model *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEscape:
		model.catalogue.clearFilter()
	case tea.KeyEnter:
		// Leave filter mode with the query applied, cursor usable.
		model.catalogue.filterActive = false
	case tea.KeyBackspace:
		if len(model.catalogue.filterQuery) > 0 {
			model.catalogue.setQuery(model.catalogue.filterQuery[:len(model.catalogue.filterQuery)-1])
		}
	case tea.KeyUp:
		model.catalogue.moveCursor(-1)
	case tea.KeyDown:
		model.catalogue.moveCursor(1)
	case tea.KeyRunes, tea.KeySpace:
		model.catalogue.setQuery(append(model.catalogue.filterQuery, msg.Runes...))
	}
	return nil
}

func (model *Model) handleSignInKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEscape:
		model.pendingEntry = nil
		model.signIn.reset()
		model.screen = model.returnScreen
		return nil
	case tea.KeyEnter:
		if model.signIn.verifying || len(model.signIn.token) == 0 {
			return nil
		}
		model.signIn.verifying = true
		model.signIn.errMessage = ""
		// Persist the pasted token so the client's token source picks
		// it up for the verification call. Identity fields fill in
		// after the server confirms the token.
		if err := model.sessions.SetSession(sandbox.AuthSession{Token: string(model.signIn.token)}); err != nil {
			model.signIn.verifying = false
			model.signIn.errMessage = "Could not store the session: " + err.Error()
			return nil
		}
		return model.signInCmd()
	case tea.KeyBackspace:
		model.signIn.backspace()
		return nil
	case tea.KeyRunes, tea.KeySpace:
		model.signIn.appendRunes(msg.Runes)
		return nil
	}
	return nil
}

// --- Modal lifecycle ---

// openModal starts the acceptance flow for a catalogue entry: a fresh
// generation, then the template and policy fetches in parallel. The
// create call itself is never deduplicated, but these reads are — a
// double-tap on Enter costs one network round trip, not two.
func (model *Model) openModal(entry CatalogueEntry) tea.Cmd {
	model.modalGeneration++
	model.modal = newAUPModal(entry, model.modalGeneration)
	return tea.Batch(
		model.fetchTemplateCmd(model.modalGeneration, entry.TemplateID),
		model.fetchAUPCmd(model.modalGeneration),
		model.announce("Session request dialog opened. Loading session terms.", noticePolite),
	)
}

// closeModal discards the dialog. Bumping the generation orphans any
// fetch or submission still in flight.
func (model *Model) closeModal() {
	model.modal = nil
	model.modalGeneration++
}

func (model *Model) handleModalKey(msg tea.KeyMsg) tea.Cmd {
	modal := model.modal

	switch {
	case key.Matches(msg, model.keys.ModalCancel):
		if modal.submitting {
			return nil
		}
		model.closeModal()
		return model.announce("Request cancelled.", noticePolite)

	case key.Matches(msg, model.keys.ModalFocus):
		modal.cycleFocus(1)
		return nil

	case msg.Type == tea.KeyShiftTab:
		modal.cycleFocus(-1)
		return nil

	case key.Matches(msg, model.keys.ModalToggle):
		return model.toggleModalAccepted()

	case key.Matches(msg, model.keys.Up):
		modal.scrollBy(-1, aupModalPolicyViewport)
		return nil

	case key.Matches(msg, model.keys.Down):
		modal.scrollBy(1, aupModalPolicyViewport)
		return nil

	case key.Matches(msg, model.keys.Select):
		switch modal.focus {
		case modalFocusCheckbox:
			return model.toggleModalAccepted()
		case modalFocusCancel:
			if modal.submitting {
				return nil
			}
			model.closeModal()
			return model.announce("Request cancelled.", noticePolite)
		case modalFocusContinue:
			return model.submitModal()
		}
	}
	return nil
}

// toggleModalAccepted flips the acceptance checkbox and voices the new
// state. The toggle is inert until the live terms have loaded, in which
// case nothing is announced.
func (model *Model) toggleModalAccepted() tea.Cmd {
	modal := model.modal
	before := modal.accepted
	modal.toggleAccepted()
	if modal.accepted == before {
		return nil
	}
	stateNotice := "Terms acceptance cleared."
	if modal.accepted {
		stateNotice = "Terms accepted."
	}
	return tea.Batch(
		model.announce(stateNotice, noticePolite),
		model.maybeAnnounceEnabled(),
	)
}

// maybeAnnounceEnabled fires the "ready" notice exactly once per
// modal, on the disabled-to-enabled transition of Continue.
func (model *Model) maybeAnnounceEnabled() tea.Cmd {
	modal := model.modal
	if modal == nil || modal.enabledAnnounced || !modal.submitEnabled() {
		return nil
	}
	modal.enabledAnnounced = true
	return model.announce("Continue is now enabled.", noticePolite)
}

func (model *Model) submitModal() tea.Cmd {
	modal := model.modal
	if modal == nil || !modal.submitEnabled() {
		return nil
	}
	modal.submitting = true
	modal.errorMessage = ""
	return tea.Batch(
		model.submitLeaseCmd(modal.generation, modal.entry.TemplateID),
		model.announce("Requesting session.", noticePolite),
	)
}

// --- Async result handlers ---

func (model *Model) handleTemplateLoaded(msg templateLoadedMsg) tea.Cmd {
	if model.modal == nil || msg.generation != model.modal.generation {
		return nil
	}
	if msg.err != nil {
		model.logger.Warn("template fetch failed",
			"template", model.modal.entry.TemplateID, "error", msg.err)
		if sandbox.IsAPIError(msg.err, sandbox.ErrCodeNotFound) {
			model.modal.setTemplateError("This sandbox is currently unavailable.")
		} else {
			model.modal.setTemplateError("Unable to load session details.")
		}
		return nil
	}
	model.modal.setTemplate(msg.template)
	return model.maybeAnnounceEnabled()
}

func (model *Model) handleAUPLoaded(msg aupLoadedMsg) tea.Cmd {
	if model.modal == nil || msg.generation != model.modal.generation {
		return nil
	}
	if msg.err != nil || strings.TrimSpace(msg.text) == "" {
		if msg.err != nil {
			model.logger.Warn("policy fetch failed, using bundled text", "error", msg.err)
		}
		model.modal.setPolicy(fallbackAUP, true)
	} else {
		model.modal.setPolicy(msg.text, false)
	}
	return model.maybeAnnounceEnabled()
}

// handleSubmitResult owns the outcome taxonomy for lease creation.
// A session-limit conflict is a dead end for the dialog, so it closes
// the modal and lands on the dashboard with an explanation; a missing
// template stays in the modal for correction or cancellation; an
// expired credential tears down the whole authenticated surface;
// transient failures invite a retry with the acceptance preserved.
func (model *Model) handleSubmitResult(msg submitResultMsg) tea.Cmd {
	if model.modal == nil || msg.generation != model.modal.generation {
		return nil
	}
	modal := model.modal
	modal.submitting = false

	if msg.err == nil {
		model.closeModal()
		notice := "Sandbox session requested."
		if msg.response != nil && sandbox.Classify(msg.response.Status) == sandbox.ClassPending {
			notice = "Sandbox session requested — awaiting approval."
		}
		model.screen = ScreenDashboard
		return tea.Batch(
			model.announce(notice, noticePolite),
			model.loadDashboard(),
		)
	}

	var apiErr *sandbox.APIError
	if errors.As(msg.err, &apiErr) {
		switch apiErr.Code {
		case sandbox.ErrCodeUnauthorized:
			// The client's unauthorized hook already cleared the
			// session; the store transition arriving via the pump
			// closes the modal. Announce here so the user sees why.
			model.closeModal()
			return model.announce("Your session has expired. Sign in again.", noticeAssertive)
		case sandbox.ErrCodeConflict:
			// Nothing the dialog offers can resolve a session-limit
			// conflict, so explain and show the existing sessions.
			model.closeModal()
			model.screen = ScreenDashboard
			return tea.Batch(
				model.announce(conflictMessage(apiErr), noticeAssertive),
				model.loadDashboard(),
			)
		case sandbox.ErrCodeNotFound:
			modal.errorMessage = "This template is no longer available."
			return nil
		default:
			if apiErr.Retryable() {
				modal.errorMessage = userMessage(msg.err) + " Try again."
				return nil
			}
		}
	}
	modal.errorMessage = userMessage(msg.err)
	return nil
}

func conflictMessage(apiErr *sandbox.APIError) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return "You already have the maximum number of active sessions."
}

// userMessage flattens an operation error into one presentable line.
func userMessage(err error) string {
	var apiErr *sandbox.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case sandbox.ErrCodeTimeout:
			return "The request timed out."
		case sandbox.ErrCodeNetwork:
			return "Could not reach the catalogue service."
		case sandbox.ErrCodeServer:
			return "The catalogue service reported an error."
		case sandbox.ErrCodeUnauthorized:
			return "Your session has expired."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return "Something went wrong."
}

func (model *Model) handleLeasesLoaded(msg leasesLoadedMsg) tea.Cmd {
	if msg.generation != model.dashGeneration {
		return nil
	}
	if msg.err != nil {
		if sandbox.IsAPIError(msg.err, sandbox.ErrCodeUnauthorized) {
			// The store transition handles teardown.
			return nil
		}
		model.logger.Warn("lease list refresh failed", "error", msg.err)
		model.dashboard.setError(userMessage(msg.err))
		return nil
	}
	model.dashboard.setLeases(msg.leases, model.clk.Now())
	return model.resumeAutoRefresh()
}

func (model *Model) handleSignInResult(msg signInResultMsg) tea.Cmd {
	if model.screen != ScreenSignIn || !model.signIn.verifying {
		return nil
	}
	model.signIn.verifying = false

	if msg.err != nil {
		// An invalid token already triggered the unauthorized hook,
		// clearing the stored stub session.
		if sandbox.IsAPIError(msg.err, sandbox.ErrCodeUnauthorized) {
			model.signIn.errMessage = "That token was not accepted. Sign in again and paste a fresh one."
		} else {
			model.signIn.errMessage = userMessage(msg.err)
		}
		return nil
	}

	session := sandbox.AuthSession{
		Token:       string(model.signIn.token),
		Email:       msg.status.Email,
		DisplayName: msg.status.DisplayName,
		Roles:       msg.status.Roles,
	}
	if err := model.sessions.SetSession(session); err != nil {
		model.signIn.errMessage = "Could not store the session: " + err.Error()
		return nil
	}
	// The auth transition (if this was a fresh sign-in) flows through
	// the pump; the screen change happens there. When the stub session
	// already counted as authenticated the transition never fires, so
	// settle the screen here too.
	return model.finishSignIn()
}

// finishSignIn leaves the sign-in screen and resumes the interrupted
// request, if any.
func (model *Model) finishSignIn() tea.Cmd {
	model.authenticated = model.sessions.IsAuthenticated()
	model.identity = sessionIdentity(model.sessions.Current())
	if model.screen == ScreenSignIn {
		model.screen = model.returnScreen
	}
	model.signIn.reset()

	cmds := []tea.Cmd{
		model.announce("Signed in as "+model.identity+".", noticePolite),
		model.loadDashboard(),
	}
	if model.pendingEntry != nil {
		entry := *model.pendingEntry
		model.pendingEntry = nil
		cmds = append(cmds, model.openModal(entry))
	}
	return tea.Batch(cmds...)
}

// handleAuthChanged applies a session store transition. Sign-out tears
// down everything derived from the credential: the modal, the lease
// list, the auto-refresh.
func (model *Model) handleAuthChanged(authenticated bool) tea.Cmd {
	if authenticated == model.authenticated {
		return nil
	}
	model.authenticated = authenticated

	if !authenticated {
		model.identity = ""
		model.refresh.Stop()
		model.dashboard = dashboardModel{}
		model.dashGeneration++
		if model.modal != nil {
			model.closeModal()
			return model.announce("Your session has expired. Sign in again.", noticeAssertive)
		}
		if model.screen == ScreenSignIn {
			// A rejected token cleared the stub session; the sign-in
			// screen already shows the verification error.
			return nil
		}
		if model.screen == ScreenDashboard {
			model.screen = ScreenCatalogue
		}
		return model.announce("Signed out.", noticePolite)
	}

	// Persisting the pasted token flips the store to authenticated
	// before the server has vouched for it. Hold the UI transition
	// until verification settles; handleSignInResult finishes it.
	if model.screen == ScreenSignIn && model.signIn.verifying {
		return nil
	}
	return model.finishSignIn()
}

// --- Dashboard refresh scheduling ---

// showDashboard switches to the sessions screen. Unauthenticated
// visitors detour through sign-in first.
func (model *Model) showDashboard() tea.Cmd {
	if !model.authenticated {
		model.pendingEntry = nil
		model.returnScreen = ScreenDashboard
		model.signIn.reset()
		model.screen = ScreenSignIn
		return nil
	}
	model.screen = ScreenDashboard
	cmds := []tea.Cmd{model.resumeAutoRefresh()}
	if !model.dashboard.loaded {
		cmds = append(cmds, model.loadDashboard())
	}
	return tea.Batch(cmds...)
}

// shouldAutoRefresh is the standing condition for the poll loop: the
// terminal focused, the dashboard on screen, a live credential, and
// at least one session that can still change.
func (model *Model) shouldAutoRefresh() bool {
	return model.focused &&
		model.authenticated &&
		model.screen == ScreenDashboard &&
		model.dashboard.hasActiveSessions()
}

// resumeAutoRefresh reconciles the ticker with the standing
// condition: starts it when due, stops it when not. Idempotent.
func (model *Model) resumeAutoRefresh() tea.Cmd {
	if !model.shouldAutoRefresh() {
		model.refresh.Stop()
		return nil
	}
	if model.refresh.Running() {
		return nil
	}
	model.dashboard.countdown = int(model.refreshInterval / time.Second)
	model.refresh.Start(time.Second)
	return model.refresh.Wait()
}

// handleDashboardTick advances the countdown; at zero it fires a
// refresh and rewinds.
func (model *Model) handleDashboardTick() tea.Cmd {
	if !model.refresh.Running() {
		return nil
	}
	model.dashboard.countdown--
	cmds := []tea.Cmd{model.refresh.Wait()}
	if model.dashboard.countdown <= 0 {
		model.dashboard.countdown = int(model.refreshInterval / time.Second)
		cmds = append(cmds, model.loadDashboard())
	}
	return tea.Batch(cmds...)
}

// --- View ---

func (model *Model) View() string {
	if !model.ready {
		return "Loading…"
	}

	header := model.renderHeader()
	body := model.renderBody()
	footer := model.renderFooter()

	// Fix the footer to the bottom row.
	headerLines := strings.Count(header, "\n") + 1
	footerLines := strings.Count(footer, "\n") + 1
	bodyBudget := model.height - headerLines - footerLines
	if bodyBudget < 1 {
		bodyBudget = 1
	}
	bodyLines := strings.Split(body, "\n")
	if len(bodyLines) > bodyBudget {
		bodyLines = bodyLines[:bodyBudget]
	}
	for len(bodyLines) < bodyBudget {
		bodyLines = append(bodyLines, "")
	}

	view := header + "\n" + strings.Join(bodyLines, "\n") + "\n" + footer

	if model.modal != nil {
		overlay, anchorX, anchorY := model.modal.Render(model.theme, model.width, model.height)
		view = tui.SpliceOverlay(view, overlay, anchorX, anchorY)
	}
	return view
}

func (model *Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground).
		Render("Sandbox Portal")

	tab := func(label string, active bool) string {
		style := lipgloss.NewStyle().Foreground(model.theme.FaintText)
		if active {
			style = lipgloss.NewStyle().
				Bold(true).
				Foreground(model.theme.HeaderForeground).
				Underline(true)
		}
		return style.Render(label)
	}
	tabs := tab("1 Catalogue", model.screen == ScreenCatalogue) + "  " +
		tab("2 Sessions", model.screen == ScreenDashboard)

	who := "not signed in"
	if model.authenticated && model.identity != "" {
		who = model.identity
	}
	identity := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render(who)

	left := title + "   " + tabs
	gap := model.width - lipgloss.Width(left) - lipgloss.Width(identity) - 1
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + identity

	rule := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	return line + "\n" + rule
}

func (model *Model) renderBody() string {
	switch model.screen {
	case ScreenSignIn:
		return model.signIn.render(model.theme, model.signInURL, model.width)
	case ScreenDashboard:
		return model.dashboard.render(model.theme, model.clk.Now(), model.width, model.refresh.Running())
	default:
		body := ""
		if model.catalogue.filterActive || len(model.catalogue.filterQuery) > 0 {
			filterStyle := lipgloss.NewStyle().Foreground(model.theme.NoticeForeground)
			cursor := ""
			if model.catalogue.filterActive {
				cursor = "▏"
			}
			body = filterStyle.Render("/"+string(model.catalogue.filterQuery)+cursor) + "\n\n"
		}
		return body + model.catalogue.render(model.theme, model.width, model.height-6)
	}
}

func (model *Model) renderFooter() string {
	if model.notice != "" {
		style := lipgloss.NewStyle().Foreground(model.theme.NoticeForeground)
		if model.noticeLevel == noticeAssertive {
			style = lipgloss.NewStyle().
				Bold(true).
				Foreground(model.theme.ErrorForeground)
		}
		return style.Render(model.notice)
	}

	help := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	switch {
	case model.modal != nil:
		return help.Render("Tab focus · Space accept · Enter confirm · Esc cancel")
	case model.screen == ScreenSignIn:
		return help.Render("Paste token · Enter verify · Esc back")
	case model.screen == ScreenDashboard:
		action := "Enter launch"
		if lease, ok := model.dashboard.current(); ok && !sandbox.Classify(lease.Status).Launchable() {
			action = "no actions available"
		}
		return help.Render("j/k move · " + action + " · r refresh · 1 catalogue · S sign out · q quit")
	default:
		return help.Render("j/k move · Enter request · / filter · 2 sessions · q quit")
	}
}
