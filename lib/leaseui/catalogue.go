// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package leaseui

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/sandbox-portal/lib/tui"
)

// CatalogueEntry is one template offer in the catalogue, as declared
// in the portal's configuration file. The display fields are local;
// the TemplateID ties the entry to the server-side lease template.
type CatalogueEntry struct {
	TemplateID  string `yaml:"templateId"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// valid reports whether the entry can be requested. Entries without a
// template ID render but stay inert: a single bad configuration row
// must not take down the rest of the catalogue.
func (entry CatalogueEntry) valid() bool {
	return entry.TemplateID != ""
}

// catalogueModel holds the template list, the fuzzy filter, and the
// cursor. It is pure state; all API traffic goes through the root
// model.
type catalogueModel struct {
	entries []CatalogueEntry

	// Filter state. filterActive means keystrokes edit the query.
	filterActive bool
	filterQuery  []rune

	// visible is the filtered, rank-ordered view over entries,
	// recomputed whenever the query changes.
	visible []catalogueRow
	cursor  int

	slab *util.Slab
}

type catalogueRow struct {
	entry     CatalogueEntry
	score     int
	positions map[int]bool // matched rune positions in the title
}

func newCatalogueModel(entries []CatalogueEntry, logger *slog.Logger) catalogueModel {
	for _, entry := range entries {
		if !entry.valid() {
			logger.Error("catalogue entry has no template id, it will not be requestable",
				"title", entry.Title)
		}
	}
	catalogue := catalogueModel{
		entries: entries,
		slab:    tui.NewFuzzySlab(),
	}
	catalogue.applyFilter()
	return catalogue
}

// applyFilter recomputes the visible rows. With an empty query all
// entries show in configuration order; otherwise rows are ranked by
// fzf score, ties broken by configuration order (stable sort).
func (catalogue *catalogueModel) applyFilter() {
	catalogue.visible = catalogue.visible[:0]

	if len(catalogue.filterQuery) == 0 {
		for _, entry := range catalogue.entries {
			catalogue.visible = append(catalogue.visible, catalogueRow{entry: entry})
		}
	} else {
		for _, entry := range catalogue.entries {
			haystack := entry.Title + " " + entry.Description
			match := tui.FuzzyMatch(haystack, catalogue.filterQuery, catalogue.slab)
			if match.Score <= 0 {
				continue
			}
			positions := make(map[int]bool, len(match.Positions))
			titleLength := len([]rune(entry.Title))
			for _, position := range match.Positions {
				if position < titleLength {
					positions[position] = true
				}
			}
			catalogue.visible = append(catalogue.visible, catalogueRow{
				entry:     entry,
				score:     match.Score,
				positions: positions,
			})
		}
		sort.SliceStable(catalogue.visible, func(a, b int) bool {
			return catalogue.visible[a].score > catalogue.visible[b].score
		})
	}

	if catalogue.cursor >= len(catalogue.visible) {
		catalogue.cursor = len(catalogue.visible) - 1
	}
	if catalogue.cursor < 0 {
		catalogue.cursor = 0
	}
}

func (catalogue *catalogueModel) moveCursor(delta int) {
	catalogue.cursor += delta
	if catalogue.cursor < 0 {
		catalogue.cursor = 0
	}
	if catalogue.cursor >= len(catalogue.visible) {
		catalogue.cursor = len(catalogue.visible) - 1
		if catalogue.cursor < 0 {
			catalogue.cursor = 0
		}
	}
}

func (catalogue *catalogueModel) cursorHome() { catalogue.cursor = 0 }

func (catalogue *catalogueModel) cursorEnd() {
	if len(catalogue.visible) > 0 {
		catalogue.cursor = len(catalogue.visible) - 1
	}
}

// current returns the entry under the cursor, or false when the
// filtered view is empty.
func (catalogue *catalogueModel) current() (CatalogueEntry, bool) {
	if catalogue.cursor < 0 || catalogue.cursor >= len(catalogue.visible) {
		return CatalogueEntry{}, false
	}
	return catalogue.visible[catalogue.cursor].entry, true
}

func (catalogue *catalogueModel) setQuery(query []rune) {
	catalogue.filterQuery = query
	catalogue.applyFilter()
}

func (catalogue *catalogueModel) clearFilter() {
	catalogue.filterActive = false
	catalogue.filterQuery = nil
	catalogue.applyFilter()
}

// render produces the catalogue body: one two-line block per template
// (title, then a faint description) with the cursor row highlighted
// and fuzzy match positions marked in the title.
func (catalogue *catalogueModel) render(theme tui.Theme, width, height int) string {
	var builder strings.Builder

	if len(catalogue.visible) == 0 {
		empty := "No templates configured."
		if len(catalogue.filterQuery) > 0 {
			empty = fmt.Sprintf("No templates match %q.", string(catalogue.filterQuery))
		}
		builder.WriteString(lipgloss.NewStyle().Foreground(theme.FaintText).Render(empty))
		return builder.String()
	}

	normal := lipgloss.NewStyle().Foreground(theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(theme.FaintText)
	selectedTitle := lipgloss.NewStyle().
		Foreground(theme.SelectedForeground).
		Background(theme.SelectedBackground).
		Bold(true)
	matched := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Background(theme.SearchHighlightBackground)

	// Two lines per row plus a separator line.
	rowsVisible := height / 3
	if rowsVisible < 1 {
		rowsVisible = 1
	}
	first := 0
	if catalogue.cursor >= rowsVisible {
		first = catalogue.cursor - rowsVisible + 1
	}

	for index := first; index < len(catalogue.visible) && index < first+rowsVisible; index++ {
		row := catalogue.visible[index]
		selected := index == catalogue.cursor

		titleStyle := normal.Bold(true)
		if selected {
			titleStyle = selectedTitle
		}

		marker := "  "
		if selected {
			marker = "▸ "
		}

		title := catalogue.styledTitle(row, titleStyle, matched)
		if !row.entry.valid() {
			title += " " + faint.Render("(unavailable)")
		}
		builder.WriteString(marker + title + "\n")

		description := row.entry.Description
		if lipgloss.Width(description) > width-4 {
			description = truncateRunes(description, width-5) + "…"
		}
		builder.WriteString("  " + faint.Render(description) + "\n\n")
	}

	return strings.TrimRight(builder.String(), "\n")
}

// styledTitle renders a row title with fuzzy match positions
// highlighted. Selected-row styling wins over match highlighting.
func (catalogue *catalogueModel) styledTitle(row catalogueRow, base, matched lipgloss.Style) string {
	if len(row.positions) == 0 {
		return base.Render(row.entry.Title)
	}
	var builder strings.Builder
	for position, character := range []rune(row.entry.Title) {
		if row.positions[position] {
			builder.WriteString(matched.Render(string(character)))
		} else {
			builder.WriteString(base.Render(string(character)))
		}
	}
	return builder.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// describeDuration formats a template's lease duration for display.
func describeDuration(hours float64) string {
	if hours <= 0 {
		return "unspecified duration"
	}
	if hours < 24 {
		return fmt.Sprintf("%g hours", hours)
	}
	days := hours / 24
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%g days", days)
}

// describeBudget formats a template's spend ceiling for display.
func describeBudget(maxSpend float64) string {
	if maxSpend <= 0 {
		return "no spend limit"
	}
	return fmt.Sprintf("$%.2f budget", maxSpend)
}
