package types

import "strings"

type (
	// Span is a byte range inside a snippet's text that matched a term.
	Span struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}

	// Snippet is a window of a matching line.
	Snippet struct {
		Line  int    `json:"line"`
		Text  string `json:"text"`
		Spans []Span `json:"spans,omitempty"`
	}

	// SearchResult contains a single ranked document.
	SearchResult struct {
		Path     string    `json:"path"` // relative to the search scope
		AbsPath  string    `json:"absPath"`
		Title    string    `json:"title"`
		Score    int       `json:"score"`
		Snippets []Snippet `json:"snippets"`
		Link     string    `json:"link,omitempty"`
	}
)

// Highlight returns the snippet text with every span wrapped in open and
// close. Spans must be sorted and non-overlapping.
func (s Snippet) Highlight(open, close string) string {
	if len(s.Spans) == 0 {
		return s.Text
	}
	var b strings.Builder
	last := 0
	for _, sp := range s.Spans {
		if sp.Start < last || sp.End > len(s.Text) || sp.Start >= sp.End {
			continue
		}
		b.WriteString(s.Text[last:sp.Start])
		b.WriteString(open)
		b.WriteString(s.Text[sp.Start:sp.End])
		b.WriteString(close)
		last = sp.End
	}
	b.WriteString(s.Text[last:])
	return b.String()
}
