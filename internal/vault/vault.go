// Package vault ties path confinement, listing, search and deep links
// together into the operations served over HTTP and MCP.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taigrr/obsidian-search/internal/config"
	"github.com/taigrr/obsidian-search/internal/filesystem"
	"github.com/taigrr/obsidian-search/internal/frontmatter"
	"github.com/taigrr/obsidian-search/internal/markdown"
	"github.com/taigrr/obsidian-search/internal/pathfilter"
	"github.com/taigrr/obsidian-search/internal/resolver"
	"github.com/taigrr/obsidian-search/internal/scanner"
	"github.com/taigrr/obsidian-search/internal/search"
	"github.com/taigrr/obsidian-search/internal/types"
	"github.com/taigrr/obsidian-search/internal/uri"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// Service is the read-only core. All fields are fixed after New, so a
// Service may serve concurrent requests.
type Service struct {
	cfg         *config.Config
	resolver    *resolver.Resolver
	walker      *filesystem.Service
	engine      *search.Engine
	links       *uri.Builder
	renderer    *markdown.Renderer
	frontmatter *frontmatter.Handler
	logger      zerolog.Logger
}

// New wires the core components from cfg.
func New(cfg *config.Config, logger zerolog.Logger) (*Service, error) {
	res, err := resolver.New(cfg.BrowseRoot, cfg.AllowAnyPath)
	if err != nil {
		return nil, fmt.Errorf("browse root: %w", err)
	}

	hidden := cfg.HiddenPrefix
	pf := pathfilter.New(&types.PathFilterConfig{
		HiddenPrefix:    &hidden,
		IgnoredPatterns: cfg.IgnoredPatterns,
		NoteExtensions:  cfg.NoteExtensions,
	})
	fh := frontmatter.New()

	scanOpts := []scanner.Option{
		scanner.WithIgnoreBase(res.Root()),
		scanner.WithSkipHandler(func(path string, err error) {
			logger.Debug().Err(err).Str("path", path).Str("kind", vaulterr.Kind(err)).Msg("skipping entry")
		}),
	}
	if !res.AllowAny() {
		scanOpts = append(scanOpts, scanner.WithBoundary(res.Root()))
	}

	engine := search.New(
		scanner.New(pf, scanOpts...),
		search.WithMaxSnippets(cfg.Search.MaxSnippets),
		search.WithTitleBoost(cfg.Search.TitleBoost),
		search.WithSnippetRadius(cfg.Search.SnippetRadius),
		search.WithWorkers(cfg.Search.Workers),
		search.WithLogger(logger),
	)

	links := uri.New(uri.Config{
		Root:            res.Root(),
		VaultName:       cfg.VaultName,
		ContainerPrefix: cfg.ContainerPrefix,
		HostPrefix:      cfg.HostPrefix,
	})

	var mdOpts []markdown.Option
	if cfg.Markdown.HardWraps {
		mdOpts = append(mdOpts, markdown.WithHardWraps())
	}
	if cfg.Markdown.UnsafeHTML {
		mdOpts = append(mdOpts, markdown.WithUnsafeHTML())
	}

	return &Service{
		cfg:         cfg,
		resolver:    res,
		walker:      filesystem.New(pf, fh, logger, filesystem.WithIgnoreBase(res.Root())),
		engine:      engine,
		links:       links,
		renderer:    markdown.New(mdOpts...),
		frontmatter: fh,
		logger:      logger,
	}, nil
}

// Root returns the canonical browse root.
func (s *Service) Root() string {
	return s.resolver.Root()
}

// AllowAny reports whether paths outside the root may be browsed.
func (s *Service) AllowAny() bool {
	return s.resolver.AllowAny()
}

// LinkMode reports which deep-link scheme is configured.
func (s *Service) LinkMode() uri.Mode {
	return s.links.Mode()
}

// ListDirectory lists the directory at requested.
func (s *Service) ListDirectory(requested string) (types.Listing, error) {
	dir, err := s.resolver.Resolve(requested)
	if err != nil {
		return types.Listing{}, err
	}

	entries, err := s.walker.List(dir)
	if err != nil {
		return types.Listing{}, err
	}

	top := s.resolver.Root()
	if s.resolver.AllowAny() {
		top = filesystem.SystemRoot(dir)
	}

	listing := types.Listing{
		Path:        dir,
		Breadcrumb:  filesystem.Breadcrumbs(top, dir),
		Directories: []types.DirectoryEntry{},
		Files:       []types.DirectoryEntry{},
	}
	if dir != top {
		listing.Parent = filepath.Dir(dir)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			listing.Directories = append(listing.Directories, entry)
		} else {
			listing.Files = append(listing.Files, entry)
		}
	}

	return listing, nil
}

// SearchVault searches the notes under scope, the browse root when empty.
// Results carry deep links when a link mode is configured.
func (s *Service) SearchVault(ctx context.Context, query, scope string) ([]types.SearchResult, error) {
	dir, err := s.resolver.Resolve(scope)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vaulterr.ErrNotFound, scope)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", vaulterr.ErrNotADirectory, scope)
	}

	if s.cfg.Search.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Search.Timeout)
		defer cancel()
	}

	results, err := s.engine.Search(ctx, query, dir)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Str("scope", dir).Msg("search aborted")
		return nil, err
	}

	for i := range results {
		link, err := s.links.Build(results[i].AbsPath)
		if err != nil {
			if !errors.Is(err, vaulterr.ErrLinkUnavailable) {
				s.logger.Warn().Err(err).Str("path", results[i].AbsPath).Msg("failed to build link")
			}
			continue
		}
		results[i].Link = link
	}

	s.logger.Debug().
		Str("query", query).
		Str("scope", dir).
		Int("results", len(results)).
		Msg("search complete")

	return results, nil
}

// ResolveDeepLink returns the obsidian:// link for a note.
func (s *Service) ResolveDeepLink(notePath string) (string, error) {
	if strings.TrimSpace(notePath) == "" {
		return "", fmt.Errorf("%w: note path is required", vaulterr.ErrLinkUnavailable)
	}
	path, err := s.resolver.Resolve(notePath)
	if err != nil {
		return "", err
	}
	return s.links.Build(path)
}

// ReadNote loads a note for display, rendering its body to HTML.
func (s *Service) ReadNote(requested string) (types.NoteView, error) {
	path, err := s.resolver.Resolve(requested)
	if err != nil {
		return types.NoteView{}, err
	}

	note, err := s.walker.ReadNote(path)
	if err != nil {
		return types.NoteView{}, err
	}

	html, err := s.renderer.Render(note.Content)
	if err != nil {
		return types.NoteView{}, err
	}

	name := filepath.Base(path)
	title, ok := s.frontmatter.Title(note.Frontmatter)
	if !ok {
		title = strings.TrimSuffix(name, filepath.Ext(name))
	}

	view := types.NoteView{
		Path:        path,
		Title:       title,
		Frontmatter: note.Frontmatter,
		Content:     note.Content,
		HTML:        html,
	}
	if rel, ok := s.resolver.Relative(path); ok {
		view.RelPath = rel
	}
	if link, err := s.links.Build(path); err == nil {
		view.Link = link
	}

	return view, nil
}
