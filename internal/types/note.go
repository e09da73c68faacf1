// Package types defines the data structures shared by the browse, search
// and link components.
package types

type (
	// ParsedNote represents a parsed markdown note with frontmatter.
	ParsedNote struct {
		Frontmatter map[string]any `json:"frontmatter"`
		Content     string         `json:"content"`
	}

	// NoteView is a single note prepared for display.
	NoteView struct {
		Path        string         `json:"path"`
		RelPath     string         `json:"relPath"`
		Title       string         `json:"title"`
		Frontmatter map[string]any `json:"frontmatter,omitempty"`
		Content     string         `json:"content"`
		HTML        string         `json:"html"`
		Link        string         `json:"link,omitempty"` // obsidian deep link
	}
)
