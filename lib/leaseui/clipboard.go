// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// copyToClipboard writes text to the system clipboard via the OSC 52
// terminal escape sequence. Writes directly to /dev/tty to bypass
// bubbletea's managed output — OSC 52 is invisible (no screen effect)
// so it's safe to write alongside the TUI renderer.
//
// Uses BEL (\x07) as the OSC terminator rather than ST (\x1b\\)
// because BEL is a single byte that survives intact through layered
// terminal environments (SSH, tmux, screen).
//
// When tmux is detected (via $TMUX or $TERM prefix), sends the OSC 52
// both via tmux DCS passthrough (for allow-passthrough configurations)
// and directly (for set-clipboard configurations). Duplicate clipboard
// sets are harmless.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			return nil
		}
		defer tty.Close()

		encoded := base64.StdEncoding.EncodeToString([]byte(text))
		osc52 := fmt.Sprintf("\x1b]52;c;%s\x07", encoded)

		// Detect tmux: TMUX env var (local tmux), or TERM prefix
		// (forwarded through SSH from a local tmux session).
		inTmux := os.Getenv("TMUX") != "" ||
			strings.HasPrefix(os.Getenv("TERM"), "tmux") ||
			strings.HasPrefix(os.Getenv("TERM"), "screen")

		if inTmux {
			// tmux DCS passthrough: escapes are doubled inside the DCS
			// wrapper. Requires tmux allow-passthrough on.
			fmt.Fprintf(tty, "\x1bPtmux;\x1b%s\x1b\\", osc52)
		}

		// Direct OSC 52: works without tmux, or with tmux
		// set-clipboard on/external.
		tty.WriteString(osc52)
		return nil
	}
}
