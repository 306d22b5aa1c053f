// Package extract turns listing and thread markup into board records. Every
// function is pure: malformed markup yields fewer (or emptier) records, never
// an error.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/board-crawler/internal/board"
)

const threadTitleSelector = "span.thread-title"

// ExtractThreads returns every thread anchor on a listing page in document
// order. Duplicate ids are kept.
func ExtractThreads(markup string) []board.ThreadRef {
	out := []board.ThreadRef{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return out
	}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id, ok := threadID(href)
		if !ok {
			return
		}
		title := threadTitle(a)
		if title == "" {
			return
		}
		out = append(out, board.ThreadRef{ID: id, Title: title})
	})
	return out
}

// threadID accepts absolute http(s) links to the thread detail page.
func threadID(href string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", false
	}
	if u.Path != board.ThreadPath {
		return "", false
	}
	id := u.Query().Get("id")
	return id, id != ""
}

// threadTitle prefers a title span inside the anchor and falls back to one
// placed directly after it.
func threadTitle(a *goquery.Selection) string {
	if span := a.Find(threadTitleSelector).First(); span.Length() > 0 {
		return strings.TrimSpace(span.Text())
	}
	if next := a.Next(); next.Is(threadTitleSelector) {
		return strings.TrimSpace(next.Text())
	}
	return ""
}
