package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/taigrr/obsidian-search/internal/pathfilter"
	"github.com/taigrr/obsidian-search/internal/types"
	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

func setupTestVault(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("EvalSymlinks() error = %v", err)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func relAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, RelPath(base, p))
	}
	return out
}

func TestScanner_Discover(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "b.md"), "b")
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "Upper.MD"), "upper")
	writeFile(t, filepath.Join(root, "long.markdown"), "long")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a note")
	writeFile(t, filepath.Join(root, "sub", "c.md"), "c")
	writeFile(t, filepath.Join(root, "sub", "deeper", "d.md"), "d")
	writeFile(t, filepath.Join(root, ".hidden", "e.md"), "e")
	writeFile(t, filepath.Join(root, ".dotnote.md"), "dot")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "f.md"), "f")

	s := New(pathfilter.New(nil))
	got := relAll(root, slices.Collect(s.Discover(context.Background(), root)))
	want := []string{"Upper.MD", "a.md", "b.md", "long.markdown", "sub/c.md", "sub/deeper/d.md"}

	if !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestScanner_Restartable(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "x", "b.md"), "b")

	seq := New(nil).Discover(context.Background(), root)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if len(first) != 2 || !slices.Equal(first, second) {
		t.Errorf("Discover() first = %v, second = %v", first, second)
	}
}

func TestScanner_EarlyBreak(t *testing.T) {
	root := setupTestVault(t)
	for i := range 5 {
		writeFile(t, filepath.Join(root, fmt.Sprintf("n%d.md", i)), "x")
	}

	count := 0
	for range New(nil).Discover(context.Background(), root) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestScanner_SymlinkCycle(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "a", "note.md"), "x")
	if err := os.Symlink(root, filepath.Join(root, "a", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "self")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}

	got := relAll(root, slices.Collect(New(nil).Discover(context.Background(), root)))
	if want := []string{"a/note.md"}; !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestScanner_SymlinkedDirectory(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "real", "note.md"), "x")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got := relAll(root, slices.Collect(New(nil).Discover(context.Background(), root)))
	if want := []string{"alias/note.md", "real/note.md"}; !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestScanner_Boundary(t *testing.T) {
	base := setupTestVault(t)
	root := filepath.Join(base, "vault")
	outside := filepath.Join(base, "outside")
	writeFile(t, filepath.Join(root, "inside.md"), "in")
	writeFile(t, filepath.Join(outside, "secret.md"), "secret")
	if err := os.Symlink(outside, filepath.Join(root, "escape")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.md"), filepath.Join(root, "secret.md")); err != nil {
		t.Fatalf("Symlink() error = %v", err)
	}

	t.Run("restricted", func(t *testing.T) {
		var skipped []string
		s := New(nil, WithBoundary(root), WithSkipHandler(func(path string, err error) {
			if !errors.Is(err, vaulterr.ErrUnreadableEntry) {
				t.Errorf("skip error = %v, want ErrUnreadableEntry", err)
			}
			skipped = append(skipped, filepath.Base(path))
		}))
		got := relAll(root, slices.Collect(s.Discover(context.Background(), root)))
		if want := []string{"inside.md"}; !slices.Equal(got, want) {
			t.Errorf("Discover() = %v, want %v", got, want)
		}
		if len(skipped) != 2 {
			t.Errorf("skipped = %v, want escape and secret.md", skipped)
		}
	})

	t.Run("unbounded", func(t *testing.T) {
		got := relAll(root, slices.Collect(New(nil).Discover(context.Background(), root)))
		if want := []string{"escape/secret.md", "inside.md", "secret.md"}; !slices.Equal(got, want) {
			t.Errorf("Discover() = %v, want %v", got, want)
		}
	})
}

func TestScanner_DanglingSymlink(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "ok.md"), "x")
	if err := os.Symlink(filepath.Join(root, "gone.md"), filepath.Join(root, "broken.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	var skipped []string
	s := New(nil, WithSkipHandler(func(path string, err error) {
		skipped = append(skipped, filepath.Base(path))
	}))
	got := relAll(root, slices.Collect(s.Discover(context.Background(), root)))
	if want := []string{"ok.md"}; !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
	if !slices.Equal(skipped, []string{"broken.md"}) {
		t.Errorf("skipped = %v, want [broken.md]", skipped)
	}
}

func TestScanner_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := setupTestVault(t)
	for i := range 10 {
		writeFile(t, filepath.Join(root, fmt.Sprintf("dir%02d", i), "note.md"), "x")
	}
	locked := filepath.Join(root, "dir04")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("Chmod() error = %v", err)
	}
	defer os.Chmod(locked, 0o755)

	var mu sync.Mutex
	var skipped []string
	s := New(nil, WithSkipHandler(func(path string, err error) {
		mu.Lock()
		defer mu.Unlock()
		skipped = append(skipped, path)
	}))

	got := slices.Collect(s.Discover(context.Background(), root))
	if len(got) != 9 {
		t.Errorf("Discover() found %d notes, want 9", len(got))
	}
	if len(skipped) != 1 || skipped[0] != locked {
		t.Errorf("skipped = %v, want [%s]", skipped, locked)
	}
}

func TestScanner_Cancelled(t *testing.T) {
	root := setupTestVault(t)
	for i := range 20 {
		writeFile(t, filepath.Join(root, fmt.Sprintf("n%02d.md", i)), "x")
	}

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if got := slices.Collect(New(nil).Discover(ctx, root)); len(got) != 0 {
			t.Errorf("Discover() = %v, want nothing", got)
		}
	})

	t.Run("mid walk", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		count := 0
		for range New(nil).Discover(ctx, root) {
			count++
			if count == 3 {
				cancel()
			}
		}
		if count != 3 {
			t.Errorf("count = %d, want 3", count)
		}
	})
}

func TestScanner_MissingRoot(t *testing.T) {
	root := setupTestVault(t)
	var skipped int
	s := New(nil, WithSkipHandler(func(string, error) { skipped++ }))
	if got := slices.Collect(s.Discover(context.Background(), filepath.Join(root, "missing"))); len(got) != 0 {
		t.Errorf("Discover() = %v, want nothing", got)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestScanner_IgnoreBase(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "inbox.md"), "x")
	writeFile(t, filepath.Join(root, "Projects", "plan.md"), "x")
	writeFile(t, filepath.Join(root, "Daily", "today.md"), "x")
	writeFile(t, filepath.Join(root, "Daily", "drafts", "wip.md"), "x")

	pf := pathfilter.New(&types.PathFilterConfig{
		IgnoredPatterns: []string{"Projects/**", "Daily/drafts/**"},
	})

	tests := []struct {
		name  string
		opts  []Option
		scope string
		want  []string
	}{
		{"root scope", []Option{WithIgnoreBase(root)}, "", []string{"Daily/today.md", "inbox.md"}},
		{"ignored directory as scope", []Option{WithIgnoreBase(root)}, "Projects", []string{}},
		{"nested pattern under scope", []Option{WithIgnoreBase(root)}, "Daily", []string{"Daily/today.md"}},
		{"without base patterns follow the scope", nil, "Projects", []string{"Projects/plan.md"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(pf, tt.opts...)
			got := relAll(root, slices.Collect(s.Discover(context.Background(), filepath.Join(root, tt.scope))))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Discover(%q) = %v, want %v", tt.scope, got, tt.want)
			}
		})
	}
}

func TestScanner_PartialReadDir(t *testing.T) {
	root := setupTestVault(t)
	writeFile(t, filepath.Join(root, "a.md"), "a")
	writeFile(t, filepath.Join(root, "b.md"), "b")
	writeFile(t, filepath.Join(root, "c.md"), "c")

	readErr := errors.New("entry vanished")
	readDir = func(name string) ([]os.DirEntry, error) {
		entries, err := os.ReadDir(name)
		if err != nil || name != root {
			return entries, err
		}
		return entries[:2], readErr
	}
	t.Cleanup(func() { readDir = os.ReadDir })

	var skipped []string
	s := New(pathfilter.New(nil), WithSkipHandler(func(path string, err error) {
		if !errors.Is(err, vaulterr.ErrUnreadableEntry) || !errors.Is(err, readErr) {
			t.Errorf("skip error = %v, want ErrUnreadableEntry wrapping the read error", err)
		}
		skipped = append(skipped, path)
	}))

	got := relAll(root, slices.Collect(s.Discover(context.Background(), root)))
	if want := []string{"a.md", "b.md"}; !slices.Equal(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
	if !slices.Equal(skipped, []string{root}) {
		t.Errorf("skipped = %v, want [%s]", skipped, root)
	}
}
