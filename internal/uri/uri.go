// Package uri provides Obsidian URI generation.
package uri

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/taigrr/obsidian-search/internal/resolver"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// DefaultContainerPrefix is where the vault is mounted when running in a
// container.
const DefaultContainerPrefix = "/vault"

// Mode is the deep-link scheme a Builder produces.
type Mode int

const (
	ModeNone Mode = iota
	ModeVault
	ModePrefix
)

func (m Mode) String() string {
	switch m {
	case ModeVault:
		return "vault"
	case ModePrefix:
		return "prefix"
	default:
		return "none"
	}
}

// Config selects the link scheme. VaultName wins over the prefix pair.
type Config struct {
	Root            string
	VaultName       string
	ContainerPrefix string
	HostPrefix      string
}

// Builder turns note paths into obsidian:// links.
type Builder struct {
	root            string
	vaultName       string
	containerPrefix string
	hostPrefix      string
	mode            Mode
}

// New creates a Builder from cfg.
func New(cfg Config) *Builder {
	b := &Builder{
		root:            cfg.Root,
		vaultName:       strings.TrimSpace(cfg.VaultName),
		containerPrefix: strings.TrimSpace(cfg.ContainerPrefix),
		hostPrefix:      strings.TrimSpace(cfg.HostPrefix),
	}
	if b.containerPrefix == "" {
		b.containerPrefix = DefaultContainerPrefix
	}

	switch {
	case b.vaultName != "":
		b.mode = ModeVault
	case b.hostPrefix != "":
		b.mode = ModePrefix
	}
	return b
}

// Mode reports which scheme Build uses.
func (b *Builder) Mode() Mode {
	return b.mode
}

// Build returns the deep link for notePath. In vault mode relative paths
// are taken relative to the root; in prefix mode notePath should be
// absolute.
func (b *Builder) Build(notePath string) (string, error) {
	switch b.mode {
	case ModeVault:
		rel, err := b.relative(notePath)
		if err != nil {
			return "", err
		}
		return "obsidian://open?vault=" + EncodePath(b.vaultName) + "&file=" + EncodePath(rel), nil
	case ModePrefix:
		return "obsidian://open?path=" + EncodePath(b.MapToHost(notePath)), nil
	default:
		return "", fmt.Errorf("%w: no vault name or host prefix configured", vaulterr.ErrLinkUnavailable)
	}
}

func (b *Builder) relative(notePath string) (string, error) {
	rel := notePath
	if filepath.IsAbs(notePath) {
		if b.root == "" || !resolver.Within(b.root, notePath) {
			return "", fmt.Errorf("%w: %s is outside the vault", vaulterr.ErrLinkUnavailable, notePath)
		}
		var err error
		if rel, err = filepath.Rel(b.root, notePath); err != nil {
			return "", fmt.Errorf("%w: %v", vaulterr.ErrLinkUnavailable, err)
		}
	}

	rel = path.Clean(filepath.ToSlash(rel))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %s is not a note inside the vault", vaulterr.ErrLinkUnavailable, notePath)
	}
	return rel, nil
}

// MapToHost swaps the container prefix of p for the host prefix. Paths
// outside the container prefix are returned cleaned but otherwise unchanged.
func (b *Builder) MapToHost(p string) string {
	cp := filepath.Clean(b.containerPrefix)
	hp := filepath.Clean(b.hostPrefix)
	ap := filepath.Clean(p)

	if ap == cp {
		return hp
	}
	if cp == string(filepath.Separator) {
		return hp + ap
	}
	if strings.HasPrefix(ap, cp+string(filepath.Separator)) {
		return hp + ap[len(cp):]
	}
	return ap
}

// EncodePath percent-encodes every segment of p and keeps the "/"
// separators. Backslashes are treated as separators.
func EncodePath(p string) string {
	parts := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(url.QueryEscape(part), "+", "%20")
	}
	return strings.Join(parts, "/")
}
