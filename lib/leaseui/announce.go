// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// noticeLevel distinguishes routine status updates from ones the user
// must not miss. Polite notices fade after a few seconds; assertive
// notices stay until replaced or explicitly cleared.
type noticeLevel int

const (
	noticePolite noticeLevel = iota
	noticeAssertive
)

// noticeFadeDelay is how long a polite notice stays visible.
const noticeFadeDelay = 4 * time.Second

// noticeFadeMsg clears the status notice. The sequence number matches
// the notice the fade was scheduled for; a newer notice ignores fades
// scheduled for its predecessors.
type noticeFadeMsg struct {
	seq int
}

// announce replaces the status notice. Identical consecutive polite
// notices still reset the fade timer so the notice stays visible.
func (model *Model) announce(text string, level noticeLevel) tea.Cmd {
	model.noticeSeq++
	model.notice = text
	model.noticeLevel = level

	if level == noticeAssertive {
		return nil
	}
	seq := model.noticeSeq
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{seq: seq}
	})
}

func (model *Model) clearNotice() {
	model.noticeSeq++
	model.notice = ""
}

func (model *Model) handleNoticeFade(msg noticeFadeMsg) {
	if msg.seq == model.noticeSeq {
		model.notice = ""
	}
}
