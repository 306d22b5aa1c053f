// Package filter narrows thread and post records according to the operator
// word lists and the recency threshold.
package filter

import (
	"strings"

	"github.com/JakeFAU/board-crawler/internal/board"
)

// Dedupe keeps the first record seen for each id, preserving order.
func Dedupe(refs []board.ThreadRef) []board.ThreadRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]board.ThreadRef, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// MatchTitles keeps records whose title contains any of words, ignoring case.
// An empty word list matches nothing: an unconfigured search must not crawl
// every thread.
func MatchTitles(refs []board.ThreadRef, words []string) []board.ThreadRef {
	m := newMatcher(words)
	out := make([]board.ThreadRef, 0, len(refs))
	if m.empty() {
		return out
	}
	for _, r := range refs {
		if m.matches(r.Title) {
			out = append(out, r)
		}
	}
	return out
}

// matcher performs case-insensitive substring matching against a word list.
type matcher struct {
	words []string
}

func newMatcher(words []string) matcher {
	lower := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		lower = append(lower, strings.ToLower(w))
	}
	return matcher{words: lower}
}

func (m matcher) empty() bool {
	return len(m.words) == 0
}

func (m matcher) matches(field string) bool {
	if m.empty() {
		return false
	}
	field = strings.ToLower(field)
	for _, w := range m.words {
		if strings.Contains(field, w) {
			return true
		}
	}
	return false
}
