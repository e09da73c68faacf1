// Package filesystem lists vault directories and reads single notes.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/taigrr/obsidian-search/internal/frontmatter"
	"github.com/taigrr/obsidian-search/internal/pathfilter"
	"github.com/taigrr/obsidian-search/internal/resolver"
	"github.com/taigrr/obsidian-search/internal/types"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// MaxNoteSize caps how much of a single note ReadNote will load.
const MaxNoteSize = 8 << 20

// Service provides read-only file system operations for the vault.
type Service struct {
	pathFilter         *pathfilter.PathFilter
	frontmatterHandler *frontmatter.Handler
	ignoreBase         string
	logger             zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithIgnoreBase matches ignore patterns against paths relative to base,
// normally the vault root. Entries outside base are matched by name.
func WithIgnoreBase(base string) Option {
	return func(s *Service) {
		s.ignoreBase = base
	}
}

// readDir is replaced in tests to simulate partial reads.
var readDir = os.ReadDir

// New creates a new FileSystemService.
func New(pf *pathfilter.PathFilter, fh *frontmatter.Handler, logger zerolog.Logger, opts ...Option) *Service {
	if pf == nil {
		pf = pathfilter.New(nil)
	}
	if fh == nil {
		fh = frontmatter.New()
	}
	s := &Service{
		pathFilter:         pf,
		frontmatterHandler: fh,
		logger:             logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the entries of dir: directories first, then files, each
// group ordered case-insensitively by name. Hidden and ignored entries are
// left out. Symlinks are reported with the kind of their target and are
// never descended into.
func (s *Service) List(dir string) ([]types.DirectoryEntry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, statError(dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", vaulterr.ErrNotADirectory, dir)
	}

	entries, err := readDir(dir)
	if err != nil {
		if len(entries) == 0 {
			if errors.Is(err, fs.ErrPermission) {
				return nil, fmt.Errorf("%w: permission denied: %s", vaulterr.ErrUnreadableEntry, dir)
			}
			return nil, fmt.Errorf("%w: %s: %v", vaulterr.ErrUnreadableEntry, dir, err)
		}
		s.logger.Warn().Err(err).Str("path", dir).Int("read", len(entries)).Msg("partial directory listing")
	}

	listing := make([]types.DirectoryEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if s.pathFilter.IsHidden(name) {
			continue
		}

		fullPath := filepath.Join(dir, name)
		item := types.DirectoryEntry{
			Name: name,
			Path: fullPath,
			Kind: types.KindFile,
		}

		switch {
		case entry.Type()&fs.ModeSymlink != 0:
			item.Symlink = true
			// Dangling links stay in the listing as files.
			if target, err := os.Stat(fullPath); err == nil && target.IsDir() {
				item.Kind = types.KindDirectory
			}
		case entry.IsDir():
			item.Kind = types.KindDirectory
		case entry.Type().IsRegular():
		default:
			// Sockets, devices and pipes are not browsable.
			s.logger.Debug().Str("path", fullPath).Str("mode", entry.Type().String()).Msg("skipping special file")
			continue
		}

		if s.pathFilter.IsIgnored(s.ignoreRel(name, fullPath), item.IsDir()) {
			continue
		}

		listing = append(listing, item)
	}

	SortEntries(listing)
	return listing, nil
}

func (s *Service) ignoreRel(name, fullPath string) string {
	if s.ignoreBase == "" || !resolver.Within(s.ignoreBase, fullPath) {
		return name
	}
	rel, err := filepath.Rel(s.ignoreBase, fullPath)
	if err != nil {
		return name
	}
	return rel
}

// SortEntries orders entries directories first, then by case-insensitive
// name, falling back to byte order so the result is total.
func SortEntries(entries []types.DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})
}

// ReadNote reads a single note. Directories, oversized files and content
// that is not valid UTF-8 text are rejected.
func (s *Service) ReadNote(path string) (types.ParsedNote, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.ParsedNote{}, statError(path, err)
	}
	if info.IsDir() {
		return types.ParsedNote{}, fmt.Errorf("cannot read directory as note: %s: %w", path, vaulterr.ErrUnreadableEntry)
	}
	if !s.pathFilter.IsNote(info.Name()) {
		return types.ParsedNote{}, fmt.Errorf("%w: not a note: %s", vaulterr.ErrUnreadableEntry, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return types.ParsedNote{}, statError(path, err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxNoteSize+1))
	if err != nil {
		return types.ParsedNote{}, fmt.Errorf("%w: failed to read file: %s: %v", vaulterr.ErrUnreadableEntry, path, err)
	}
	if len(content) > MaxNoteSize {
		return types.ParsedNote{}, fmt.Errorf("%w: note exceeds %d bytes: %s", vaulterr.ErrUnreadableEntry, MaxNoteSize, path)
	}
	if !IsText(content) {
		return types.ParsedNote{}, fmt.Errorf("%w: not valid UTF-8 text: %s", vaulterr.ErrUnreadableEntry, path)
	}

	return s.frontmatterHandler.Parse(string(content)), nil
}

// IsText reports whether content looks like a UTF-8 text file.
func IsText(content []byte) bool {
	return utf8.Valid(content) && !strings.ContainsRune(string(content), 0)
}

// Breadcrumbs returns the trail from base down to path. The first crumb is
// base itself; path must be base or one of its descendants, otherwise only
// the base crumb is returned.
func Breadcrumbs(base, path string) []types.Crumb {
	crumbs := []types.Crumb{{Label: base, Path: base}}

	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return crumbs
	}

	current := base
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		crumbs = append(crumbs, types.Crumb{Label: part, Path: current})
	}
	return crumbs
}

// SystemRoot returns the filesystem root that contains path ("/" on Unix,
// the volume root on Windows).
func SystemRoot(path string) string {
	return filepath.VolumeName(path) + string(filepath.Separator)
}

func statError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", vaulterr.ErrNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: permission denied: %s", vaulterr.ErrUnreadableEntry, path)
	default:
		return fmt.Errorf("%w: %s: %v", vaulterr.ErrUnreadableEntry, path, err)
	}
}
