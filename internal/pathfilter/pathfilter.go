// Package pathfilter decides which vault entries are hidden, ignored, or
// treated as notes.
package pathfilter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/taigrr/obsidian-search/internal/types"
)

// DefaultHiddenPrefix marks entries excluded from listings and scans.
const DefaultHiddenPrefix = "."

// PathFilter filters hidden and ignored entries and recognizes note files.
type PathFilter struct {
	hiddenPrefix   string
	ignored        []*regexp.Regexp
	noteExtensions []string
}

// New creates a new PathFilter with the given configuration. A nil config
// yields the defaults; configured patterns and extensions are added to them.
func New(config *types.PathFilterConfig) *PathFilter {
	patterns := []string{
		".obsidian/**",
		".git/**",
		"node_modules/**",
		"**/node_modules/**",
		".DS_Store",
		"**/.DS_Store",
		"Thumbs.db",
	}
	extensions := []string{".md", ".markdown"}
	hidden := DefaultHiddenPrefix

	if config != nil {
		patterns = append(patterns, config.IgnoredPatterns...)
		extensions = append(extensions, config.NoteExtensions...)
		if config.HiddenPrefix != nil {
			hidden = *config.HiddenPrefix
		}
	}

	pf := &PathFilter{hiddenPrefix: hidden}
	for _, pattern := range patterns {
		if re := compileGlob(pattern); re != nil {
			pf.ignored = append(pf.ignored, re)
		}
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		pf.noteExtensions = append(pf.noteExtensions, ext)
	}

	return pf
}

// compileGlob converts a glob pattern to an anchored regex.
func compileGlob(pattern string) *regexp.Regexp {
	// Normalize pattern path separators (Windows compatibility)
	normalizedPattern := strings.ReplaceAll(pattern, "\\", "/")

	// Escape all regex special chars first
	regexPattern := regexp.QuoteMeta(normalizedPattern)

	// Convert glob patterns (unescape the escaped versions)
	regexPattern = strings.ReplaceAll(regexPattern, `\*\*`, ".*")  // ** matches any
	regexPattern = strings.ReplaceAll(regexPattern, `\*`, "[^/]*") // * matches non-slash
	regexPattern = strings.ReplaceAll(regexPattern, `\?`, "[^/]")  // ? matches single char

	re, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil
	}
	return re
}

// IsHidden reports whether a single entry name carries the hidden marker.
func (pf *PathFilter) IsHidden(name string) bool {
	return pf.hiddenPrefix != "" && strings.HasPrefix(name, pf.hiddenPrefix)
}

// IsIgnored reports whether rel, a path relative to the vault root, matches
// an ignore pattern. Directories are matched with a trailing slash so that
// "dir/**" also excludes dir itself.
func (pf *PathFilter) IsIgnored(rel string, isDir bool) bool {
	normalizedPath := strings.ReplaceAll(rel, "\\", "/")
	if isDir && !strings.HasSuffix(normalizedPath, "/") {
		normalizedPath += "/"
	}

	for _, re := range pf.ignored {
		if re.MatchString(normalizedPath) {
			return true
		}
	}
	return false
}

// IsNote reports whether name has one of the note extensions.
func (pf *PathFilter) IsNote(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == strings.ToLower(name) {
		return false
	}
	for _, allowed := range pf.noteExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// NoteExtensions returns the recognized note extensions, lowercased.
func (pf *PathFilter) NoteExtensions() []string {
	return append([]string(nil), pf.noteExtensions...)
}
