package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/board-crawler/internal/board"
)

const listingHTML = `<html><body><ul>
<li><a href="https://board.example.com/public/thread/index?id=101" class="t">
  <span class="thread-title">Tokyo Meetup A</span></a></li>
<li><a href="https://board.example.com/public/thread/index?id=102"><span class="thread-title">Osaka Meetup B</span></a></li>
<li><a href="/public/thread/index?id=103"><span class="thread-title">relative link</span></a></li>
<li><a href="https://board.example.com/public/thread/index?id=101"><span class="thread-title">Tokyo again</span></a></li>
<li><a href="https://board.example.com/public/thread/index?id=104"></a><span class="thread-title">Sibling title</span></li>
<li><a href="https://board.example.com/other?id=105"><span class="thread-title">not a thread</span></a></li>
<li><a href="https://board.example.com/public/thread/index?id=106"><span class="other">no title</span></a></li>
</ul></body></html>`

const threadHTML = `<html><body>
<font size="4">12</font> [<a href="/mail/?type=comment&amp;id=555">Hanako</a>]<font color="red">new!</font><br>
Hello&nbsp;there<br><br><br><br><a href="https://x.example.com/y">link text</a><img src="https://img.example.com/a.jpg"><br>
bye<br>
2024-01-01 11:00<br>
年齢：25<br>
性別：女<br>
ﾙｯｸｽ：普通<br>
補足：よろしく<br>
<font color="PINK"> 今から </font>
<hr>
<font size="4">13</font> [Taro]<br>
plain body<br>
2024-01-01 10:59<br>
年齢：30<br>
<hr>
<font size="4">nothing here
</body></html>`

func TestExtractThreads(t *testing.T) {
	t.Parallel()

	got := ExtractThreads(listingHTML)
	want := []board.ThreadRef{
		{ID: "101", Title: "Tokyo Meetup A"},
		{ID: "102", Title: "Osaka Meetup B"},
		{ID: "101", Title: "Tokyo again"},
		{ID: "104", Title: "Sibling title"},
	}
	assert.Equal(t, want, got)
}

func TestExtractThreadsNoMatch(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractThreads(""))
	assert.Empty(t, ExtractThreads("<a href=\"https://x/public/thread/index?id=1\"<<span"))
	assert.NotNil(t, ExtractThreads("<p>nothing</p>"))
}

func TestExtractPosts(t *testing.T) {
	t.Parallel()

	posts := ExtractPosts(threadHTML)
	require.Len(t, posts, 3)

	first := posts[0]
	assert.Equal(t, "12", first.ID)
	assert.Equal(t, "Hanako", first.Name)
	assert.Equal(t, "/mail/?type=comment&id=555", first.MailLink)
	assert.Equal(t, "Hello there\n\nlink text\n\nbye", first.Body)
	assert.Equal(t, []string{"https://img.example.com/a.jpg"}, first.Images)
	assert.Equal(t, "2024-01-01 11:00", first.Date)
	assert.Equal(t, "25", first.Age)
	assert.Equal(t, "女", first.Sex)
	assert.Equal(t, "普通", first.Looks)
	assert.Equal(t, "よろしく", first.Msg)
	assert.Equal(t, "今から", first.Will)

	second := posts[1]
	assert.Equal(t, "13", second.ID)
	assert.Equal(t, "Taro", second.Name)
	assert.Empty(t, second.MailLink)
	assert.Equal(t, "plain body", second.Body)
	assert.Equal(t, "2024-01-01 10:59", second.Date)
	assert.Equal(t, "30", second.Age)
	assert.Empty(t, second.Sex)
	assert.Empty(t, second.Will)
	assert.Equal(t, []string{}, second.Images)

	assert.Equal(t, board.Post{Images: []string{}}, posts[2])
}

func TestExtractPostsDefaults(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractPosts("<p>no blocks at all</p>"))

	posts := ExtractPosts(`<font size="4"></font><hr>`)
	require.Len(t, posts, 1)
	assert.Equal(t, board.Post{Images: []string{}}, posts[0])
}

func TestExtractPostsBodyNeedsDate(t *testing.T) {
	t.Parallel()

	posts := ExtractPosts(`<font size="4">7</font> [<a href="/mail/?id=1">Ken</a>]<br>no date here<img src="a.png"><hr>`)
	require.Len(t, posts, 1)
	assert.Equal(t, "7", posts[0].ID)
	assert.Equal(t, "Ken", posts[0].Name)
	assert.Equal(t, "/mail/?id=1", posts[0].MailLink)
	assert.Empty(t, posts[0].Body)
	assert.Equal(t, []string{}, posts[0].Images)
	assert.Empty(t, posts[0].Date)
}

func TestExtractPostsHalfWidthColon(t *testing.T) {
	t.Parallel()

	posts := ExtractPosts(`<font size="4">1</font><br>年齢 : 20代<br>性別：<br>`)
	require.Len(t, posts, 1)
	assert.Equal(t, "20代", posts[0].Age)
	assert.Empty(t, posts[0].Sex)
}

func TestExtractionIsIdempotent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExtractPosts(threadHTML), ExtractPosts(threadHTML))
	assert.Equal(t, ExtractThreads(listingHTML), ExtractThreads(listingHTML))
}
