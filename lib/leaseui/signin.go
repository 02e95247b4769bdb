// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/sandbox-portal/lib/tui"
)

// signInModel is the token entry screen. The portal has no embedded
// browser: the user signs in at the identity provider's URL, copies
// the issued access token, and pastes it here. The token is verified
// against the catalogue API before the session persists.
type signInModel struct {
	token     []rune
	verifying bool

	// errMessage is the last verification failure.
	errMessage string
}

func (signIn *signInModel) reset() {
	signIn.token = nil
	signIn.verifying = false
	signIn.errMessage = ""
}

func (signIn *signInModel) appendRunes(runes []rune) {
	if signIn.verifying {
		return
	}
	for _, character := range runes {
		// Tokens never contain whitespace; dropping it makes pasted
		// tokens with stray line breaks work.
		if character == ' ' || character == '\n' || character == '\r' || character == '\t' {
			continue
		}
		signIn.token = append(signIn.token, character)
	}
}

func (signIn *signInModel) backspace() {
	if signIn.verifying || len(signIn.token) == 0 {
		return
	}
	signIn.token = signIn.token[:len(signIn.token)-1]
}

// render produces the sign-in screen body.
func (signIn *signInModel) render(theme tui.Theme, signInURL string, width int) string {
	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground)
	errorText := lipgloss.NewStyle().Foreground(theme.ErrorForeground)

	var builder strings.Builder
	builder.WriteString(header.Render("Sign in") + "\n\n")
	builder.WriteString(normal.Render("1. Open the sign-in page in your browser:") + "\n")
	builder.WriteString("   " + normal.Underline(true).Render(signInURL) + "\n\n")
	builder.WriteString(normal.Render("2. Complete sign-in and copy the access token it shows.") + "\n\n")
	builder.WriteString(normal.Render("3. Paste the token below and press Enter.") + "\n\n")

	// Mask the token: show only enough to confirm the paste landed.
	display := strings.Repeat("•", len(signIn.token))
	if len(display) > width-10 {
		display = display[:width-10]
	}
	if display == "" {
		display = faint.Render("(waiting for token)")
	} else {
		display = normal.Render(display)
	}
	builder.WriteString("   Token: " + display + "\n\n")

	if signIn.verifying {
		builder.WriteString(faint.Render("Verifying token…") + "\n")
	}
	if signIn.errMessage != "" {
		builder.WriteString(errorText.Render(signIn.errMessage) + "\n")
	}

	return builder.String()
}
