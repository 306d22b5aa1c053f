// Package notify formats run summaries for chat notifiers.
package notify

import (
	"fmt"
	"strings"
	"time"
)

// Summary is what a finished run reports.
type Summary struct {
	RunID     string
	Mode      string
	Pages     []int
	Threads   int
	Posts     int
	Failures  int
	Locations []string
	Took      time.Duration
}

// Message renders the summary as a short chat message.
func (s Summary) Message() string {
	pages := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		pages[i] = fmt.Sprint(p)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "board-crawler %s finished: %d threads, %d posts", s.Mode, s.Threads, s.Posts)
	if len(pages) > 0 {
		fmt.Fprintf(&sb, " (pages %s)", strings.Join(pages, ","))
	}
	if s.Failures > 0 {
		fmt.Fprintf(&sb, ", %d fetch failures", s.Failures)
	}
	if s.Took > 0 {
		fmt.Fprintf(&sb, " in %s", s.Took.Round(time.Second))
	}
	if s.RunID != "" {
		fmt.Fprintf(&sb, "\nrun: %s", s.RunID)
	}
	for _, loc := range s.Locations {
		sb.WriteString("\n")
		sb.WriteString(loc)
	}
	return sb.String()
}
