package board

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Bootstrap is the configuration payload fetched once from the operator
// endpoint before a run.
type Bootstrap struct {
	URLs   BootstrapURLs   `json:"URLS"`
	Search BootstrapSearch `json:"search"`
	// Now optionally overrides wall-clock time as the filtering reference.
	Now json.RawMessage `json:"now,omitempty"`
}

// BootstrapURLs locates the board.
type BootstrapURLs struct {
	K struct {
		Base  string `json:"BASE"`
		Tokyo string `json:"TOKYO"`
	} `json:"K"`
}

// BootstrapSearch carries the seed word lists.
type BootstrapSearch struct {
	Area       WordList `json:"area"`
	IgnoreAge  WordList `json:"i:a"`
	IgnoreSex  WordList `json:"i:s"`
	IgnoreName WordList `json:"i:n"`
}

// Validate reports whether the payload names a board to crawl.
func (b Bootstrap) Validate() error {
	if b.URLs.K.Base == "" {
		return errors.New("bootstrap payload: URLS.K.BASE is empty")
	}
	if b.URLs.K.Tokyo == "" {
		return errors.New("bootstrap payload: URLS.K.TOKYO is empty")
	}
	return nil
}

// Site returns the board location described by the payload.
func (b Bootstrap) Site() Site {
	return NewSite(b.URLs.K.Base, b.URLs.K.Tokyo)
}

// SearchConfig returns the word lists seeded by the payload.
func (b Bootstrap) SearchConfig() SearchConfig {
	return SearchConfig{
		SearchWords: nonNil(b.Search.Area),
		IgnoreAge:   nonNil(b.Search.IgnoreAge),
		IgnoreSex:   nonNil(b.Search.IgnoreSex),
		IgnoreName:  nonNil(b.Search.IgnoreName),
	}
}

// NowCandidate returns the decoded "now" override, or nil when absent. The
// value may be a string or a numeric epoch.
func (b Bootstrap) NowCandidate() any {
	if len(b.Now) == 0 {
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(b.Now))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func nonNil(w WordList) []string {
	if w == nil {
		return []string{}
	}
	return []string(w)
}
