// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sandbox-portal/lib/sandbox"
	"github.com/bureau-foundation/sandbox-portal/lib/tui"
)

// fallbackAUP is shown when the Acceptable Use Policy cannot be
// fetched. Acceptance of the fallback text is still binding, so the
// modal flags it visibly rather than silently substituting.
const fallbackAUP = `# Acceptable Use Policy

The live policy text could not be retrieved. The following summary
applies until the full policy is available.

- Sandbox accounts are for **evaluation and training only**. No
  production workloads, no production data.
- Do not store personally identifiable information, protected health
  information, or classified material in a sandbox account.
- Accounts are wiped when the session ends. Anything you need must be
  exported before expiry.
- Spend is capped per session. Exceeding the cap ends the session.
- All activity is logged and subject to audit.`

// modalFocus identifies the focused control inside the acceptance
// modal. Tab cycles through these; keys never reach the screen behind
// the modal while it is open.
type modalFocus int

const (
	modalFocusPolicy modalFocus = iota
	modalFocusCheckbox
	modalFocusContinue
	modalFocusCancel
)

// aupModal is the Acceptable Use Policy acceptance dialog. It is pure
// state: fetches, submission, and the resulting navigation all happen
// in the root model, which also owns the generation counter that
// fences this modal's async results.
type aupModal struct {
	entry      CatalogueEntry
	generation int

	// Template detail fetch. A failure here is terminal: the request
	// cannot proceed against a template we cannot describe.
	template    *sandbox.LeaseTemplate
	templateErr string

	// Policy fetch. aupFallback marks the bundled text standing in
	// for an unreachable policy endpoint; the fallback is displayed
	// but never satisfies the submit gate, because the user must not
	// accept policy text the portal could not confirm is current.
	aupFetched  bool
	aupText     string
	aupFallback bool

	// Rendered policy cache, invalidated on resize.
	renderedPolicy []string
	renderedWidth  int
	scroll         int

	accepted   bool
	submitting bool

	// Submission failure shown inside the modal. Cleared on retry.
	errorMessage string

	focus modalFocus

	// The "ready" notice fires exactly once per modal on the
	// disabled-to-enabled transition of the Continue button.
	enabledAnnounced bool
}

// newAUPModal opens the dialog with focus on Cancel, so a stray Enter
// before the user has read anything dismisses rather than submits.
func newAUPModal(entry CatalogueEntry, generation int) *aupModal {
	return &aupModal{
		entry:      entry,
		generation: generation,
		focus:      modalFocusCancel,
	}
}

// fullyLoaded reports whether both fetches succeeded: the template
// arrived and the live policy text is present. The bundled fallback
// text never counts.
func (modal *aupModal) fullyLoaded() bool {
	return modal.template != nil && modal.templateErr == "" &&
		modal.aupFetched && !modal.aupFallback
}

// submitEnabled gates the Continue button: everything loaded, the box
// checked, and no submission already in flight.
func (modal *aupModal) submitEnabled() bool {
	return modal.fullyLoaded() && modal.accepted && !modal.submitting
}

func (modal *aupModal) setTemplate(template *sandbox.LeaseTemplate) {
	modal.template = template
	modal.templateErr = ""
}

func (modal *aupModal) setTemplateError(message string) {
	modal.templateErr = message
}

func (modal *aupModal) setPolicy(text string, fallback bool) {
	modal.aupFetched = true
	modal.aupText = text
	modal.aupFallback = fallback
	modal.renderedPolicy = nil
}

func (modal *aupModal) toggleAccepted() {
	if !modal.fullyLoaded() || modal.submitting {
		return
	}
	modal.accepted = !modal.accepted
}

// cycleFocus moves focus forward (delta 1) or backward (delta -1)
// through the modal's controls, wrapping at both ends.
func (modal *aupModal) cycleFocus(delta int) {
	const controls = 4
	modal.focus = modalFocus((int(modal.focus) + delta + controls) % controls)
}

func (modal *aupModal) scrollBy(delta, viewportHeight int) {
	modal.scroll += delta
	max := len(modal.renderedPolicy) - viewportHeight
	if max < 0 {
		max = 0
	}
	if modal.scroll > max {
		modal.scroll = max
	}
	if modal.scroll < 0 {
		modal.scroll = 0
	}
}

// Modal chrome: 2 columns border + 2 padding horizontal; 2 lines
// border, 1 title, 1 detail, 1 blank, 1 checkbox, 1 buttons, 1 footer
// vertical. The policy viewport gets the remainder.
const (
	aupModalChromeWidth    = 4
	aupModalChromeHeight   = 8
	aupModalMinInnerWidth  = 40
	aupModalMinViewport    = 4
	aupModalMargin         = 3
	aupModalPolicyViewport = 12
)

// Render produces the modal overlay lines and the anchor position for
// splicing onto the main view.
func (modal *aupModal) Render(theme tui.Theme, screenWidth, screenHeight int) ([]string, int, int) {
	modalWidth := screenWidth - aupModalMargin*2
	if modalWidth < aupModalMinInnerWidth+aupModalChromeWidth {
		modalWidth = aupModalMinInnerWidth + aupModalChromeWidth
	}
	if modalWidth > screenWidth {
		modalWidth = screenWidth
	}
	innerWidth := modalWidth - aupModalChromeWidth

	viewport := aupModalPolicyViewport
	maxViewport := screenHeight - aupModalChromeHeight - aupModalMargin*2
	if viewport > maxViewport {
		viewport = maxViewport
	}
	if viewport < aupModalMinViewport {
		viewport = aupModalMinViewport
	}

	background := lipgloss.NewStyle().Background(theme.ModalBackground)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.HeaderForeground).
		Background(theme.ModalBackground)
	textStyle := lipgloss.NewStyle().
		Foreground(theme.ModalForeground).
		Background(theme.ModalBackground)
	faintStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Background(theme.ModalBackground)
	errorStyle := lipgloss.NewStyle().
		Foreground(theme.ErrorForeground).
		Background(theme.ModalBackground)
	noticeStyle := lipgloss.NewStyle().
		Foreground(theme.NoticeForeground).
		Background(theme.ModalBackground)

	pad := func(content string) string {
		return tui.PadOverlayLine(content, innerWidth, background)
	}

	var lines []string

	// Title and template detail.
	title := "Request sandbox: " + modal.entry.Title
	lines = append(lines, pad(titleStyle.Render(ansi.Truncate(title, innerWidth, "…"))))
	lines = append(lines, pad(modal.detailLine(textStyle, faintStyle, errorStyle)))
	lines = append(lines, pad(""))

	// Policy viewport.
	lines = append(lines, modal.policyLines(theme, innerWidth, viewport, pad, faintStyle, noticeStyle)...)
	lines = append(lines, pad(""))

	// Checkbox.
	lines = append(lines, pad(modal.checkboxLine(textStyle, faintStyle)))

	// Buttons and error.
	lines = append(lines, pad(modal.buttonLine(theme)))
	if modal.errorMessage != "" {
		lines = append(lines, pad(errorStyle.Render(ansi.Truncate(modal.errorMessage, innerWidth, "…"))))
	}

	// Footer.
	footer := "Tab focus · Space accept · Enter confirm · Esc cancel"
	lines = append(lines, pad(faintStyle.Render(ansi.Truncate(footer, innerWidth, "…"))))

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.BorderColor).
		Background(theme.ModalBackground)

	rendered := borderStyle.Render(strings.Join(lines, "\n"))
	resultLines := strings.Split(rendered, "\n")

	renderedWidth := 0
	if len(resultLines) > 0 {
		renderedWidth = ansi.StringWidth(resultLines[0])
	}
	anchorX := (screenWidth - renderedWidth) / 2
	anchorY := (screenHeight - len(resultLines)) / 2
	if anchorX < 0 {
		anchorX = 0
	}
	if anchorY < 0 {
		anchorY = 0
	}
	return resultLines, anchorX, anchorY
}

func (modal *aupModal) detailLine(text, faint, errorStyle lipgloss.Style) string {
	if modal.templateErr != "" {
		// Failed details never show stale or zero numbers.
		return errorStyle.Render(modal.templateErr + " · Duration: Unknown · Budget: Unknown")
	}
	if modal.template == nil {
		return faint.Render("Loading session details…")
	}
	detail := describeDuration(modal.template.LeaseDurationInHours) +
		" · " + describeBudget(modal.template.MaxSpend)
	return text.Render(detail)
}

// policyLines renders the scrollable policy viewport, including the
// fallback notice and scroll indicator.
func (modal *aupModal) policyLines(
	theme tui.Theme,
	innerWidth, viewport int,
	pad func(string) string,
	faint, notice lipgloss.Style,
) []string {
	var lines []string

	if !modal.aupFetched {
		lines = append(lines, pad(faint.Render("Loading Acceptable Use Policy…")))
		for len(lines) < viewport {
			lines = append(lines, pad(""))
		}
		return lines
	}

	if modal.aupFallback {
		lines = append(lines, pad(notice.Render("⚠ Live policy unavailable — showing bundled summary. Requests are disabled.")))
	}

	if modal.renderedPolicy == nil || modal.renderedWidth != innerWidth {
		raw := renderPolicyMarkdown(modal.aupText, theme, innerWidth)
		modal.renderedPolicy = strings.Split(raw, "\n")
		modal.renderedWidth = innerWidth
		modal.scrollBy(0, viewport)
	}

	contentRows := viewport - (len(lines))
	scrollable := len(modal.renderedPolicy) > contentRows
	if scrollable {
		contentRows-- // reserve the indicator row
	}

	for row := 0; row < contentRows; row++ {
		index := modal.scroll + row
		if index < len(modal.renderedPolicy) {
			line := ansi.Truncate(modal.renderedPolicy[index], innerWidth, "…")
			lines = append(lines, pad(line))
		} else {
			lines = append(lines, pad(""))
		}
	}

	if scrollable {
		indicator := "↓ more"
		if modal.scroll > 0 && modal.scroll+contentRows >= len(modal.renderedPolicy) {
			indicator = "↑ start"
		} else if modal.scroll > 0 {
			indicator = "↑↓ scroll"
		}
		lines = append(lines, pad(faint.Render(indicator)))
	}
	return lines
}

func (modal *aupModal) checkboxLine(text, faint lipgloss.Style) string {
	box := "[ ]"
	if modal.accepted {
		box = "[x]"
	}
	label := box + " I have read and accept the Acceptable Use Policy"
	style := text
	if !modal.fullyLoaded() {
		style = faint
	}
	if modal.focus == modalFocusCheckbox {
		style = style.Bold(true).Underline(true)
	}
	return style.Render(label)
}

func (modal *aupModal) buttonLine(theme tui.Theme) string {
	continueLabel := "[ Continue ]"
	if modal.submitting {
		continueLabel = "[ Requesting… ]"
	}

	continueStyle := lipgloss.NewStyle().Background(theme.ModalBackground)
	if modal.submitEnabled() || modal.submitting {
		continueStyle = continueStyle.Foreground(theme.ModalForeground)
	} else {
		continueStyle = continueStyle.Foreground(theme.FaintText)
	}
	if modal.focus == modalFocusContinue {
		continueStyle = continueStyle.Bold(true).Reverse(true)
	}

	cancelStyle := lipgloss.NewStyle().
		Foreground(theme.ModalForeground).
		Background(theme.ModalBackground)
	if modal.focus == modalFocusCancel {
		cancelStyle = cancelStyle.Bold(true).Reverse(true)
	}

	spacer := lipgloss.NewStyle().Background(theme.ModalBackground).Render("   ")
	return continueStyle.Render(continueLabel) + spacer + cancelStyle.Render("[ Cancel ]")
}
