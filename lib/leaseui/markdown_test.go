// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/sandbox-portal/lib/tui"
)

// strippedPolicy renders policy markdown and returns ANSI-stripped
// visible text.
func strippedPolicy(input string, width int) string {
	return ansi.Strip(renderPolicyMarkdown(input, tui.DefaultTheme, width))
}

func TestRenderPolicyEmpty(t *testing.T) {
	if result := renderPolicyMarkdown("", tui.DefaultTheme, 80); result != "" {
		t.Errorf("expected empty output for empty input, got %q", result)
	}
}

func TestRenderPolicyParagraphReflow(t *testing.T) {
	// Policy text arrives hard-wrapped at ~40 columns; at a wide modal
	// the soft breaks must become spaces.
	input := "Sandbox accounts are provided for\nevaluation and training purposes\nonly, never production workloads."
	result := strippedPolicy(input, 120)

	if strings.Contains(result, "\n") {
		t.Errorf("expected single reflowed line, got:\n%s", result)
	}
	if !strings.Contains(result, "for evaluation and") {
		t.Errorf("soft break not converted to space:\n%s", result)
	}
}

func TestRenderPolicyWrapsToWidth(t *testing.T) {
	input := "A fairly long sentence that must wrap to the requested narrow width of the policy viewport."
	result := strippedPolicy(input, 30)
	for _, line := range strings.Split(result, "\n") {
		if len(line) > 30 {
			t.Errorf("line exceeds width 30: %q", line)
		}
	}
}

func TestRenderPolicyHeadingsAndLists(t *testing.T) {
	input := "# Acceptable Use\n\n## Scope\n\n- no production data\n- no PII\n\n1. export before expiry\n2. spend is capped"
	result := strippedPolicy(input, 80)

	for _, want := range []string{
		"Acceptable Use",
		"Scope",
		"• no production data",
		"• no PII",
		"1. export before expiry",
		"2. spend is capped",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("rendered policy missing %q:\n%s", want, result)
		}
	}

	if raw := renderPolicyMarkdown(input, tui.DefaultTheme, 80); raw == result {
		t.Error("expected ANSI styling in heading output")
	}
}

func TestRenderPolicyBlockquotePrefix(t *testing.T) {
	input := "> All activity is logged."
	result := strippedPolicy(input, 80)
	if !strings.Contains(result, "│ All activity is logged.") {
		t.Errorf("blockquote prefix missing:\n%s", result)
	}
}

func TestRenderPolicyFencedCode(t *testing.T) {
	input := "Run:\n\n```sh\naws sts get-caller-identity\n```"
	result := strippedPolicy(input, 80)
	if !strings.Contains(result, "aws sts get-caller-identity") {
		t.Errorf("code block content missing:\n%s", result)
	}
}

func TestRenderPolicyTable(t *testing.T) {
	input := "| Category | Allowed |\n| --- | --- |\n| Compute | yes |\n| Production data | no |"
	result := strippedPolicy(input, 80)

	for _, want := range []string{"Category", "Allowed", "Compute", "Production data"} {
		if !strings.Contains(result, want) {
			t.Errorf("table output missing %q:\n%s", want, result)
		}
	}
}

func TestRenderPolicyStripsHTML(t *testing.T) {
	input := "Before <b>inline</b> after."
	result := strippedPolicy(input, 80)
	if strings.Contains(result, "<b>") {
		t.Errorf("HTML tag leaked into output:\n%s", result)
	}
	if !strings.Contains(result, "inline") {
		t.Errorf("HTML text content dropped:\n%s", result)
	}
}
