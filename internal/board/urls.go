package board

import (
	"fmt"
	"net/url"
	"strings"
)

// ThreadPath is the detail page path every thread link points at.
const ThreadPath = "/public/thread/index"

// Site locates the board: an https origin and the listing path to paginate.
type Site struct {
	Origin   string
	ListPath string
}

// NewSite builds a Site from the bootstrap host and listing path.
func NewSite(host, listPath string) Site {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return Site{Origin: host, ListPath: strings.TrimSpace(listPath)}
}

// AppendPageParam adds p=<page> to a path, joining with & when it already
// carries a query.
func AppendPageParam(pathWithQuery string, page int) string {
	joint := "?"
	if strings.Contains(pathWithQuery, "?") {
		joint = "&"
	}
	return fmt.Sprintf("%s%sp=%d", pathWithQuery, joint, page)
}

// ListURLs returns one listing URL per page, in page order.
func (s Site) ListURLs(pages []int) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, s.Origin+AppendPageParam(s.ListPath, p))
	}
	return out
}

// ThreadURL returns the detail page URL for a thread id.
func (s Site) ThreadURL(id string) string {
	return s.Origin + ThreadPath + "?id=" + url.QueryEscape(id)
}
