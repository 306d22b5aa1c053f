package board

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
)

// WordList accepts either a JSON array or a comma-separated string. Blank
// entries are dropped.
type WordList []string

// UnmarshalJSON implements json.Unmarshaler.
func (w *WordList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*w = ToWordList(raw)
	return nil
}

// ToWordList normalises a loosely typed value into a list of words.
func ToWordList(x any) []string {
	switch v := x.(type) {
	case nil:
		return []string{}
	case string:
		return splitWords(v)
	case []string:
		return keepWords(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil || item == false {
				continue
			}
			s, err := cast.ToStringE(item)
			if err != nil {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func splitWords(s string) []string {
	return keepWords(strings.Split(s, ","))
}

func keepWords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
