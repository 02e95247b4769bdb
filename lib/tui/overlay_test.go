// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"
	"testing"
)

func TestSpliceOverlayReplacesRegion(t *testing.T) {
	view := strings.Join([]string{
		"aaaaaaaaaa",
		"bbbbbbbbbb",
		"cccccccccc",
	}, "\n")

	spliced := SpliceOverlay(view, []string{"XXX", "YYY"}, 3, 1)
	lines := strings.Split(spliced, "\n")

	if !strings.Contains(lines[1], "XXX") {
		t.Errorf("line 1 = %q, want overlay content", lines[1])
	}
	if !strings.Contains(lines[2], "YYY") {
		t.Errorf("line 2 = %q, want overlay content", lines[2])
	}
	if lines[0] != "aaaaaaaaaa" {
		t.Errorf("line 0 = %q, want untouched", lines[0])
	}
	if !strings.HasPrefix(lines[1], "bbb") || !strings.HasSuffix(lines[1], "bbbb") {
		t.Errorf("line 1 = %q, want original content on both sides", lines[1])
	}
}

func TestSpliceOverlayOutOfBoundsLinesSkipped(t *testing.T) {
	view := "only line"
	spliced := SpliceOverlay(view, []string{"A", "B", "C"}, 0, 0)
	if len(strings.Split(spliced, "\n")) != 1 {
		t.Error("overlay lines past the view bottom must not add lines")
	}
}

func TestSpliceOverlayEmptyOverlay(t *testing.T) {
	view := "unchanged"
	if got := SpliceOverlay(view, nil, 2, 0); got != view {
		t.Errorf("got %q, want view unchanged", got)
	}
}

func TestExtractExcerpt(t *testing.T) {
	body := "\n\nFirst real line\nSecond line here\n\nThird"
	excerpt := ExtractExcerpt(body, 80, 2)
	if len(excerpt) != 2 {
		t.Fatalf("got %d lines, want 2", len(excerpt))
	}
	if excerpt[0] != "First real line" || excerpt[1] != "Second line here" {
		t.Errorf("excerpt = %v", excerpt)
	}
}

func TestExtractExcerptTruncates(t *testing.T) {
	excerpt := ExtractExcerpt("a very long description line that keeps going", 10, 1)
	if len(excerpt) != 1 {
		t.Fatalf("got %d lines, want 1", len(excerpt))
	}
	if !strings.HasSuffix(excerpt[0], "…") {
		t.Errorf("excerpt %q not truncated with ellipsis", excerpt[0])
	}
}
