// Package resolver maps user-supplied paths onto the filesystem and confines
// them to the browse root.
package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

// Resolver validates requested paths against a fixed root.
type Resolver struct {
	root     string
	allowAny bool
}

// New creates a Resolver. root must be an existing directory; it is stored
// in canonical form so containment checks compare like with like.
func New(root string, allowAny bool) (*Resolver, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve browse root: %w", err)
	}
	canonical, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", vaulterr.ErrNotFound, root)
		}
		return nil, fmt.Errorf("resolve browse root: %w", err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("stat browse root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", vaulterr.ErrNotADirectory, root)
	}

	return &Resolver{root: canonical, allowAny: allowAny}, nil
}

// Root returns the canonical browse root.
func (r *Resolver) Root() string {
	return r.root
}

// AllowAny reports whether paths outside the root are accepted.
func (r *Resolver) AllowAny() bool {
	return r.allowAny
}

// Resolve resolves a requested path to its canonical absolute form.
// Empty requests mean the root; relative requests are joined onto it.
func (r *Resolver) Resolve(requested string) (string, error) {
	requested = strings.TrimSpace(requested)

	candidate := r.root
	if requested != "" {
		expanded, err := expandHome(requested)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(expanded) {
			candidate = filepath.Clean(expanded)
		} else {
			candidate = filepath.Join(r.root, expanded)
		}
	}

	canonical, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		// Report escapes before existence so nothing is disclosed about
		// paths outside the root.
		if !r.allowAny && !Within(r.root, candidate) {
			return "", fmt.Errorf("%w: %s", vaulterr.ErrPathTraversal, requested)
		}
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return "", fmt.Errorf("%w: %s", vaulterr.ErrNotFound, requested)
		}
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: %s", vaulterr.ErrUnreadableEntry, requested)
		}
		return "", fmt.Errorf("resolve %s: %w", requested, err)
	}

	if !r.allowAny && !Within(r.root, canonical) {
		return "", fmt.Errorf("%w: %s", vaulterr.ErrPathTraversal, requested)
	}

	return canonical, nil
}

// Relative returns abs relative to the root with forward slashes, and
// whether abs lies inside the root at all.
func (r *Resolver) Relative(abs string) (string, bool) {
	if !Within(r.root, abs) {
		return "", false
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Within reports whether path equals base or is a descendant of it. Both
// are compared component-wise after cleaning, so "/vault2" is not inside
// "/vault".
func Within(base, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, p[1:]), nil
}
