// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"unicode"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	// fzf's algo package requires one-time initialization of its
	// character-class and bonus tables before any matcher runs.
	algo.Init("default")
}

// FuzzyResult is the outcome of matching a pattern against one text:
// the fzf score (0 means no match) and the rune positions of the
// matched characters for highlight rendering.
type FuzzyResult struct {
	Score     int
	Positions []int
}

// FuzzyMatch runs fzf's V2 matcher case-insensitively. The pattern
// must already be the raw user input; both sides are lowercased here.
// A nil slab is allowed (allocates per call); reuse a slab via
// NewFuzzySlab across the rows of one filter pass.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{}
	}

	lowered := make([]rune, len(pattern))
	for i, r := range pattern {
		lowered[i] = unicode.ToLower(r)
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Score <= 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = *positions
	}
	return matched
}

// NewFuzzySlab allocates a scratch slab sized for typical catalogue
// rows. Reusing one slab across a filter pass avoids per-row
// allocations in the matcher.
func NewFuzzySlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}
