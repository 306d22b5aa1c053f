// Package postdate normalises the timestamps found in board markup into
// absolute instants.
package postdate

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// SiteOffset is the fixed regional offset of board timestamps (+09:00).
const SiteOffset = 9 * 60 * 60

var (
	siteZone = time.FixedZone("JST", SiteOffset)

	explicitZone = regexp.MustCompile(`(?i)(Z|[+-]\d{2}:?\d{2}|\bUTC|\bGMT)$`)
	localLiteral = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}(?::\d{2})?)$`)

	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04Z07:00",
		"2006-01-02 15:04:05 -0700",
		"2006-01-02 15:04 -0700",
		time.RFC1123Z,
		time.RFC1123,
	}
)

// Parser converts board timestamps into instants.
type Parser struct {
	region   *time.Location
	fallback *time.Location
}

// NewParser returns a Parser that reads zone-less timestamps in region and
// falls back to the platform zone when that fails.
func NewParser(region *time.Location) *Parser {
	if region == nil {
		region = siteZone
	}
	return &Parser{region: region, fallback: time.Local}
}

var defaultParser = NewParser(siteZone)

// Parse converts text using the default site region. The boolean is false
// when the text holds no recognisable instant; callers must treat that as
// "age unknown".
func Parse(text string) (time.Time, bool) {
	return defaultParser.Parse(text)
}

// Parse converts text into an instant.
func (p *Parser) Parse(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	if explicitZone.MatchString(s) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	if m := localLiteral.FindStringSubmatch(s); m != nil {
		literal := m[1] + " " + m[2]
		layout := "2006-01-02 15:04"
		if len(m[2]) > len("15:04") {
			layout = "2006-01-02 15:04:05"
		}
		if t, err := time.ParseInLocation(layout, literal, p.region); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation(layout, literal, p.fallback); err == nil {
			return t, true
		}
	}
	if t, err := dateparse.ParseIn(s, p.fallback); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ResolveReferenceInstant returns the first candidate that resolves to an
// instant, or fallback when none does. Candidates may be a time.Time, a
// *time.Time, a numeric epoch in milliseconds, or a timestamp string.
func ResolveReferenceInstant(fallback time.Time, candidates ...any) time.Time {
	for _, c := range candidates {
		if t, ok := resolve(c); ok {
			return t
		}
	}
	return fallback
}

func resolve(c any) (time.Time, bool) {
	switch v := c.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case int:
		return time.UnixMilli(int64(v)), true
	case int64:
		return time.UnixMilli(v), true
	case float64:
		return time.UnixMilli(int64(v)), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.UnixMilli(n), true
		}
		if f, err := v.Float64(); err == nil {
			return time.UnixMilli(int64(f)), true
		}
		return time.Time{}, false
	case string:
		return Parse(v)
	default:
		return time.Time{}, false
	}
}
