// Package board defines the records and collaborator interfaces shared by the
// board crawler subsystems.
package board

// ThreadRef is a thread entry discovered on a listing page.
type ThreadRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ThreadMeta is a ThreadRef plus the URL its detail page is fetched from.
type ThreadMeta struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Post is one user submission inside a thread. Fields whose markup is missing
// are left as empty strings; Images is never nil.
type Post struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	MailLink string   `json:"mailLink"`
	Body     string   `json:"body"`
	Date     string   `json:"date"`
	Age      string   `json:"age"`
	Sex      string   `json:"sex"`
	Looks    string   `json:"looks"`
	Msg      string   `json:"msg"`
	Will     string   `json:"will"`
	Images   []string `json:"images"`
}

// SearchConfig holds the operator word lists. All matching is a
// case-insensitive substring comparison.
type SearchConfig struct {
	SearchWords []string `json:"searchWords"`
	IgnoreAge   []string `json:"ignoreAge"`
	IgnoreSex   []string `json:"ignoreSex"`
	IgnoreName  []string `json:"ignoreName"`
}

// ThreadResult is the filtered output for one fetched thread.
type ThreadResult struct {
	ThreadURL   string `json:"threadUrl"`
	ThreadTitle string `json:"threadTitle"`
	Posts       []Post `json:"posts"`
}

// PostCount sums the posts across results.
func PostCount(results []ThreadResult) int {
	total := 0
	for _, r := range results {
		total += len(r.Posts)
	}
	return total
}
