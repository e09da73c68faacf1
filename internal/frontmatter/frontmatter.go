// Package frontmatter handles YAML frontmatter parsing.
package frontmatter

import (
	"strings"

	"github.com/taigrr/obsidian-search/internal/types"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Handler handles frontmatter parsing.
type Handler struct{}

// New creates a new FrontmatterHandler.
func New() *Handler {
	return &Handler{}
}

// Parse parses a note's content and extracts frontmatter. Notes without a
// valid frontmatter block come back with an empty map and unchanged content.
func (h *Handler) Parse(content string) types.ParsedNote {
	result := types.ParsedNote{
		Frontmatter: make(map[string]any),
		Content:     content,
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	// Check if content starts with frontmatter delimiter
	if !strings.HasPrefix(normalized, delimiter+"\n") {
		return result
	}
	rest := normalized[len(delimiter)+1:]

	var yamlContent, body string
	switch {
	case strings.HasPrefix(rest, delimiter+"\n"):
		body = rest[len(delimiter)+1:]
	case rest == delimiter:
	default:
		endIndex := strings.Index(rest, "\n"+delimiter+"\n")
		if endIndex != -1 {
			yamlContent = rest[:endIndex]
			body = rest[endIndex+len(delimiter)+2:]
		} else if strings.HasSuffix(rest, "\n"+delimiter) {
			yamlContent = strings.TrimSuffix(rest, "\n"+delimiter)
		} else {
			return result
		}
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		// If parsing fails, treat as content without frontmatter
		return result
	}

	if frontmatter != nil {
		result.Frontmatter = frontmatter
	}
	result.Content = body

	return result
}

// Title returns the frontmatter title when it is a non-empty string.
func (h *Handler) Title(frontmatter map[string]any) (string, bool) {
	title, ok := frontmatter["title"].(string)
	title = strings.TrimSpace(title)
	return title, ok && title != ""
}
