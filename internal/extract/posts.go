package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/JakeFAU/board-crawler/internal/board"
)

var (
	leadingIDPattern = regexp.MustCompile(`^\s*(\d+)\b`)
	datePattern      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}`)
	plainAuthor      = regexp.MustCompile(`\[([^\[\]]+)\]`)
	blankRun         = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
)

// labeledFields maps the literal label text preceding a value to its field.
var labeledFields = []struct {
	pattern *regexp.Regexp
	set     func(*board.Post, string)
}{
	{labelPattern("年齢"), func(p *board.Post, v string) { p.Age = v }},
	{labelPattern("性別"), func(p *board.Post, v string) { p.Sex = v }},
	{labelPattern("ﾙｯｸｽ"), func(p *board.Post, v string) { p.Looks = v }},
	{labelPattern("補足"), func(p *board.Post, v string) { p.Msg = v }},
}

const (
	willColor = "pink"
	nbsp      = "\u00a0"
)

func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(label) + `[ \t\x{3000}]*[：:][ \t\x{3000}]*([^\r\n]+)`)
}

// ExtractPosts splits thread markup into post blocks and derives one Post per
// block. A block opens at <font size="4"> and closes at the next <hr> or the
// end of input.
func ExtractPosts(markup string) []board.Post {
	blocks := splitBlocks(markup)
	posts := make([]board.Post, 0, len(blocks))
	for _, b := range blocks {
		posts = append(posts, parseBlock(b))
	}
	return posts
}

func splitBlocks(markup string) [][]html.Token {
	var (
		blocks  [][]html.Token
		current []html.Token
		inBlock bool
	)
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.CommentToken || tt == html.DoctypeToken {
			continue
		}
		tok := z.Token()
		switch {
		case !inBlock:
			if isBlockStart(tok) {
				inBlock = true
				current = []html.Token{}
			}
		case isRule(tok):
			blocks = append(blocks, current)
			inBlock = false
			current = nil
		default:
			current = append(current, tok)
		}
	}
	if inBlock {
		blocks = append(blocks, current)
	}
	return blocks
}

func isBlockStart(tok html.Token) bool {
	return tok.Type == html.StartTagToken && tok.Data == "font" && strings.TrimSpace(attr(tok, "size")) == "4"
}

func isRule(tok html.Token) bool {
	return (tok.Type == html.StartTagToken || tok.Type == html.SelfClosingTagToken) && tok.Data == "hr"
}

func parseBlock(tokens []html.Token) board.Post {
	post := board.Post{Images: []string{}}
	text := flatten(tokens)

	if m := leadingIDPattern.FindStringSubmatch(text); m != nil {
		post.ID = m[1]
	}
	post.Date = datePattern.FindString(text)
	for _, f := range labeledFields {
		if m := f.pattern.FindStringSubmatch(text); m != nil {
			f.set(&post, strings.TrimSpace(m[1]))
		}
	}
	post.Will = findWill(tokens)

	author, ok := findAuthor(tokens)
	if ok {
		post.Name = author.name
		post.MailLink = author.link
		post.Body, post.Images = readBody(tokens, author.next)
	}
	return post
}

// flatten renders the block as plain text, one line per tag boundary.
func flatten(tokens []html.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Type == html.TextToken {
			sb.WriteString(cleanText(tok.Data))
			continue
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cleanText(s string) string {
	return strings.ReplaceAll(s, nbsp, " ")
}

// cursor addresses a position inside the token slice: a token index and, for
// text tokens, a byte offset into its data.
type cursor struct {
	index  int
	offset int
}

type authorMatch struct {
	name string
	link string
	next cursor
}

// findAuthor locates the first bracketed author construct, either
// "[<a href=..>name</a>]" or a plain "[name]".
func findAuthor(tokens []html.Token) (authorMatch, bool) {
	for i, tok := range tokens {
		if tok.Type != html.TextToken {
			continue
		}
		if loc := plainAuthor.FindStringSubmatchIndex(tok.Data); loc != nil {
			return authorMatch{
				name: strings.TrimSpace(cleanText(tok.Data[loc[2]:loc[3]])),
				next: cursor{index: i, offset: loc[1]},
			}, true
		}
		if !strings.HasSuffix(strings.TrimRight(tok.Data, " \t\r\n"), "[") {
			continue
		}
		if m, ok := linkAuthorAt(tokens, i+1); ok {
			return m, true
		}
	}
	return authorMatch{}, false
}

func linkAuthorAt(tokens []html.Token, i int) (authorMatch, bool) {
	if i >= len(tokens) || tokens[i].Type != html.StartTagToken || tokens[i].Data != "a" {
		return authorMatch{}, false
	}
	link := strings.TrimSpace(attr(tokens[i], "href"))
	var name strings.Builder
	for j := i + 1; j < len(tokens); j++ {
		tok := tokens[j]
		switch {
		case tok.Type == html.TextToken:
			name.WriteString(tok.Data)
		case tok.Type == html.EndTagToken && tok.Data == "a":
			if j+1 >= len(tokens) || tokens[j+1].Type != html.TextToken {
				return authorMatch{}, false
			}
			closing := tokens[j+1].Data
			trimmed := strings.TrimLeft(closing, " \t\r\n")
			if !strings.HasPrefix(trimmed, "]") {
				return authorMatch{}, false
			}
			return authorMatch{
				name: strings.TrimSpace(cleanText(name.String())),
				link: link,
				next: cursor{index: j + 1, offset: len(closing) - len(trimmed) + 1},
			}, true
		default:
			return authorMatch{}, false
		}
	}
	return authorMatch{}, false
}

// readBody collects the text between the author bracket and the first date
// token. Images are pulled out into their own list. Without a date token the
// body is empty.
func readBody(tokens []html.Token, from cursor) (string, []string) {
	var (
		sb      strings.Builder
		images  = []string{}
		started bool
	)
	for i := from.index; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.Type {
		case html.TextToken:
			data := cleanText(tok.Data)
			if i == from.index {
				data = cleanText(tok.Data[from.offset:])
			}
			if loc := datePattern.FindStringIndex(data); loc != nil {
				sb.WriteString(data[:loc[0]])
				return normaliseBody(sb.String()), images
			}
			if strings.TrimSpace(data) != "" {
				started = true
			}
			sb.WriteString(data)
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "br":
				sb.WriteByte('\n')
			case "img":
				if src := strings.TrimSpace(attr(tok, "src")); src != "" {
					images = append(images, src)
				}
				started = true
			case "font":
				if !started && isBadge(tokens, i) {
					i += 2
				}
			}
		}
	}
	return "", []string{}
}

// isBadge reports whether tokens[i:i+3] is a <font>new!</font> marker.
func isBadge(tokens []html.Token, i int) bool {
	if i+2 >= len(tokens) {
		return false
	}
	text, end := tokens[i+1], tokens[i+2]
	if text.Type != html.TextToken || end.Type != html.EndTagToken || end.Data != "font" {
		return false
	}
	word := strings.ToLower(strings.TrimSpace(text.Data))
	return word == "new!" || word == "new"
}

func normaliseBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func findWill(tokens []html.Token) string {
	for i, tok := range tokens {
		if tok.Type != html.StartTagToken || tok.Data != "font" {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(attr(tok, "color")), willColor) {
			continue
		}
		var sb strings.Builder
		for _, inner := range tokens[i+1:] {
			if inner.Type == html.TextToken {
				sb.WriteString(cleanText(inner.Data))
				continue
			}
			break
		}
		if will := strings.TrimSpace(sb.String()); will != "" {
			return will
		}
	}
	return ""
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
