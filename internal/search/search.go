// Package search provides search functionality for the Obsidian vault.
package search

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/taigrr/obsidian-search/internal/filesystem"
	"github.com/taigrr/obsidian-search/internal/scanner"
	"github.com/taigrr/obsidian-search/internal/types"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

const (
	DefaultMaxSnippets   = 3
	DefaultTitleBoost    = 10
	DefaultSnippetRadius = 80
)

// Discoverer yields the candidate documents under a scope.
type Discoverer interface {
	Discover(ctx context.Context, root string) iter.Seq[string]
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSnippets caps the snippets returned per document.
func WithMaxSnippets(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSnippets = n
		}
	}
}

// WithTitleBoost sets the weight of a match in the file name.
func WithTitleBoost(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.titleBoost = n
		}
	}
}

// WithSnippetRadius sets how many runes of context surround a match.
func WithSnippetRadius(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.snippetRadius = n
		}
	}
}

// WithWorkers sets the number of files read in parallel.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger that records skipped files.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine ranks the documents of a scope against a query. Every search is a
// fresh scan; nothing is cached between calls.
type Engine struct {
	discoverer    Discoverer
	maxSnippets   int
	titleBoost    int
	snippetRadius int
	workers       int
	logger        zerolog.Logger
}

// New creates a new search Engine.
func New(d Discoverer, opts ...Option) *Engine {
	if d == nil {
		d = scanner.New(nil)
	}
	e := &Engine{
		discoverer:    d,
		maxSnippets:   DefaultMaxSnippets,
		titleBoost:    DefaultTitleBoost,
		snippetRadius: DefaultSnippetRadius,
		workers:       runtime.NumCPU(),
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tokenize splits a query into lowercase, de-duplicated terms.
func Tokenize(query string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	return terms
}

// Search scores every note under scope. Results are ordered by descending
// score, then by path. scope must already be a validated directory.
func (e *Engine) Search(ctx context.Context, query, scope string) ([]types.SearchResult, error) {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return []types.SearchResult{}, nil
	}

	patterns := make([]*regexp.Regexp, len(terms))
	for i, term := range terms {
		patterns[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	}

	fileCh := make(chan string, e.workers)
	resultsCh := make(chan types.SearchResult, e.workers)

	go func() {
		defer close(fileCh)
		for path := range e.discoverer.Discover(ctx, scope) {
			select {
			case fileCh <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range e.workers {
		wg.Go(func() {
			for path := range fileCh {
				if ctx.Err() != nil {
					continue
				}
				result, ok := e.scoreFile(path, scope, patterns)
				if ok {
					resultsCh <- result
				}
			}
		})
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	results := []types.SearchResult{}
	for r := range resultsCh {
		results = append(results, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func (e *Engine) scoreFile(path, scope string, patterns []*regexp.Regexp) (types.SearchResult, bool) {
	content, err := readText(path)
	if err != nil {
		e.logger.Debug().Err(err).Str("path", path).Msg("skipping file")
		return types.SearchResult{}, false
	}

	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	score := 0
	for _, re := range patterns {
		score += len(re.FindAllStringIndex(content, -1))
		score += e.titleBoost * len(re.FindAllStringIndex(title, -1))
	}
	if score == 0 {
		return types.SearchResult{}, false
	}

	return types.SearchResult{
		Path:     scanner.RelPath(scope, path),
		AbsPath:  path,
		Title:    title,
		Score:    score,
		Snippets: e.snippets(content, patterns),
	}, true
}

func readText(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", vaulterr.ErrUnreadableEntry, err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, filesystem.MaxNoteSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", vaulterr.ErrUnreadableEntry, err)
	}
	if len(content) > filesystem.MaxNoteSize {
		return "", fmt.Errorf("%w: larger than %d bytes", vaulterr.ErrUnreadableEntry, filesystem.MaxNoteSize)
	}
	if !filesystem.IsText(content) {
		return "", fmt.Errorf("%w: not UTF-8 text", vaulterr.ErrUnreadableEntry)
	}
	return string(content), nil
}

// snippets returns context windows for the first matching lines in
// document order. Lines with the same text are used once.
func (e *Engine) snippets(content string, patterns []*regexp.Regexp) []types.Snippet {
	var out []types.Snippet
	seen := make(map[string]bool)

	for i, line := range strings.Split(content, "\n") {
		if len(out) >= e.maxSnippets {
			break
		}
		line = strings.TrimRight(line, "\r")
		matches := lineMatches(line, patterns)
		if len(matches) == 0 {
			continue
		}
		key := strings.TrimSpace(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e.window(i+1, line, matches))
	}

	return out
}

// lineMatches returns the merged, sorted match ranges of all patterns.
func lineMatches(line string, patterns []*regexp.Regexp) []types.Span {
	var spans []types.Span
	for _, re := range patterns {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			spans = append(spans, types.Span{Start: loc[0], End: loc[1]})
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})

	merged := []types.Span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.Start < last.End {
			last.End = max(last.End, sp.End)
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// window cuts the line around its first match and rebases the spans that
// fit inside the cut.
func (e *Engine) window(lineNum int, line string, matches []types.Span) types.Snippet {
	start, end := matches[0].Start, matches[0].End
	for n := 0; n < e.snippetRadius && start > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(line[:start])
		start -= size
	}
	for n := 0; n < e.snippetRadius && end < len(line); n++ {
		_, size := utf8.DecodeRuneInString(line[end:])
		end += size
	}

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(line) {
		suffix = "..."
	}

	snippet := types.Snippet{
		Line: lineNum,
		Text: prefix + line[start:end] + suffix,
	}
	offset := len(prefix) - start
	for _, m := range matches {
		if m.Start >= start && m.End <= end {
			snippet.Spans = append(snippet.Spans, types.Span{Start: m.Start + offset, End: m.End + offset})
		}
	}
	return snippet
}
