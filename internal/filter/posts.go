package filter

import (
	"time"

	"github.com/JakeFAU/board-crawler/internal/board"
	"github.com/JakeFAU/board-crawler/internal/postdate"
)

// Reason names the check that rejected a post.
type Reason string

// Rejection reasons, in evaluation order.
const (
	ReasonNone     Reason = ""
	ReasonAgeWord  Reason = "age_word"
	ReasonSexWord  Reason = "sex_word"
	ReasonNameWord Reason = "name_word"
	ReasonTooOld   Reason = "too_old"
)

// PostFilter applies the exclusion word lists and the age window.
type PostFilter struct {
	age       matcher
	sex       matcher
	name      matcher
	maxAge    time.Duration
	reference time.Time
	parse     func(string) (time.Time, bool)
}

// NewPostFilter builds a filter from the search word lists. A maxAge of zero
// or less disables the age window.
func NewPostFilter(search board.SearchConfig, maxAge time.Duration, reference time.Time) *PostFilter {
	return &PostFilter{
		age:       newMatcher(search.IgnoreAge),
		sex:       newMatcher(search.IgnoreSex),
		name:      newMatcher(search.IgnoreName),
		maxAge:    maxAge,
		reference: reference,
		parse:     postdate.Parse,
	}
}

// Reject returns the first check the post fails, or ReasonNone.
func (f *PostFilter) Reject(p board.Post) Reason {
	switch {
	case f.age.matches(p.Age):
		return ReasonAgeWord
	case f.sex.matches(p.Sex):
		return ReasonSexWord
	case f.name.matches(p.Name):
		return ReasonNameWord
	case f.tooOld(p.Date):
		return ReasonTooOld
	default:
		return ReasonNone
	}
}

// Keep reports whether the post passes every check.
func (f *PostFilter) Keep(p board.Post) bool {
	return f.Reject(p) == ReasonNone
}

// Apply returns the retained posts in order, plus the rejection count per
// reason.
func (f *PostFilter) Apply(posts []board.Post) ([]board.Post, map[Reason]int) {
	kept := make([]board.Post, 0, len(posts))
	rejected := make(map[Reason]int)
	for _, p := range posts {
		if r := f.Reject(p); r != ReasonNone {
			rejected[r]++
			continue
		}
		kept = append(kept, p)
	}
	return kept, rejected
}

// tooOld never rejects a post whose date cannot be parsed. A post exactly
// maxAge old is kept.
func (f *PostFilter) tooOld(date string) bool {
	if f.maxAge <= 0 {
		return false
	}
	posted, ok := f.parse(date)
	if !ok {
		return false
	}
	return f.reference.Sub(posted) > f.maxAge
}
