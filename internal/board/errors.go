package board

import "fmt"

// FetchError describes a failed retrieval. StatusCode is zero when the request
// never produced a response.
type FetchError struct {
	Label      string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d @ %s", e.StatusCode, e.Label)
	}
	return fmt.Sprintf("fetch %s @ %s: %v", e.URL, e.Label, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
