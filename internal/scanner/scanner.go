// Package scanner walks a directory tree and yields the notes beneath it.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/taigrr/obsidian-search/internal/pathfilter"
	"github.com/taigrr/obsidian-search/internal/resolver"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// SkipFunc receives entries the scan could not read. err always wraps
// vaulterr.ErrUnreadableEntry.
type SkipFunc func(path string, err error)

// Option configures a Scanner.
type Option func(*Scanner)

// WithBoundary keeps symlink targets inside root.
func WithBoundary(root string) Option {
	return func(s *Scanner) {
		s.boundary = root
	}
}

// WithIgnoreBase matches ignore patterns against paths relative to base,
// normally the vault root, instead of the scanned directory. Paths outside
// base fall back to the scanned directory.
func WithIgnoreBase(base string) Option {
	return func(s *Scanner) {
		s.ignoreBase = base
	}
}

// WithSkipHandler sets the callback for skipped entries.
func WithSkipHandler(fn SkipFunc) Option {
	return func(s *Scanner) {
		s.onSkip = fn
	}
}

// Scanner discovers note files. It holds no per-walk state and may be
// shared between goroutines.
type Scanner struct {
	pathFilter *pathfilter.PathFilter
	boundary   string
	ignoreBase string
	onSkip     SkipFunc
}

// readDir is replaced in tests to simulate partial reads.
var readDir = os.ReadDir

// New creates a Scanner.
func New(pf *pathfilter.PathFilter, opts ...Option) *Scanner {
	if pf == nil {
		pf = pathfilter.New(nil)
	}
	s := &Scanner{pathFilter: pf}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discover returns the notes under root in lexical order, depth first.
// Each range over the sequence walks the tree again.
func (s *Scanner) Discover(ctx context.Context, root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		canonical, err := filepath.EvalSymlinks(root)
		if err != nil {
			s.skip(root, err)
			return
		}
		w := &walk{
			Scanner:   s,
			ctx:       ctx,
			root:      root,
			yield:     yield,
			ancestors: map[string]bool{},
		}
		w.dir(root, canonical)
	}
}

type walk struct {
	*Scanner
	ctx       context.Context
	root      string
	yield     func(string) bool
	ancestors map[string]bool
}

// dir walks path, whose canonical location is real. It returns false once
// the walk must stop.
func (w *walk) dir(path, real string) bool {
	w.ancestors[real] = true
	defer delete(w.ancestors, real)

	// ReadDir returns what it read before failing; use it.
	entries, readErr := readDir(path)

	for _, entry := range entries {
		if w.ctx.Err() != nil {
			return false
		}

		name := entry.Name()
		if w.pathFilter.IsHidden(name) {
			continue
		}
		full := filepath.Join(path, name)
		rel := w.ignoreRel(full)

		mode := entry.Type()
		childReal := filepath.Join(real, name)
		isDir := entry.IsDir()

		if mode&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(full)
			if err != nil {
				w.skip(full, err)
				continue
			}
			if w.boundary != "" && !resolver.Within(w.boundary, target) {
				w.skip(full, fmt.Errorf("symlink target %s leaves %s", target, w.boundary))
				continue
			}
			info, err := os.Stat(target)
			if err != nil {
				w.skip(full, err)
				continue
			}
			childReal = target
			isDir = info.IsDir()
			mode = info.Mode().Type()
		}

		if w.pathFilter.IsIgnored(rel, isDir) {
			continue
		}

		if isDir {
			if w.ancestors[childReal] {
				continue
			}
			if !w.dir(full, childReal) {
				return false
			}
			continue
		}

		if !mode.IsRegular() || !w.pathFilter.IsNote(name) {
			continue
		}
		if !w.yield(full) {
			return false
		}
	}

	if readErr != nil {
		w.skip(path, readErr)
	}
	return true
}

func (w *walk) ignoreRel(full string) string {
	base := w.root
	if w.ignoreBase != "" && resolver.Within(w.ignoreBase, full) {
		base = w.ignoreBase
	}
	rel, _ := filepath.Rel(base, full)
	return rel
}

func (s *Scanner) skip(path string, err error) {
	if s.onSkip == nil {
		return
	}
	if !errors.Is(err, vaulterr.ErrUnreadableEntry) {
		err = fmt.Errorf("%w: %s: %w", vaulterr.ErrUnreadableEntry, path, err)
	}
	s.onSkip(path, err)
}

// RelPath returns path relative to base with forward slashes.
func RelPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
