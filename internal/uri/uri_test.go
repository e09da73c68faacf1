package uri

import (
	"errors"
	"testing"

	"github.com/taigrr/obsidian-search/internal/vaulterr"
)

func TestBuilder_VaultMode(t *testing.T) {
	b := New(Config{Root: "/Users/test/vault", VaultName: "My Vault"})
	if b.Mode() != ModeVault {
		t.Fatalf("Mode() = %v, want vault", b.Mode())
	}

	tests := []struct {
		name     string
		notePath string
		want     string
	}{
		{
			name:     "relative path",
			notePath: "folder/note.md",
			want:     "obsidian://open?vault=My%20Vault&file=folder/note.md",
		},
		{
			name:     "absolute path inside root",
			notePath: "/Users/test/vault/folder/note.md",
			want:     "obsidian://open?vault=My%20Vault&file=folder/note.md",
		},
		{
			name:     "spaces and parentheses",
			notePath: "my notes/test (copy).md",
			want:     "obsidian://open?vault=My%20Vault&file=my%20notes/test%20%28copy%29.md",
		},
		{
			name:     "query characters",
			notePath: "a&b=c/d+e?#.md",
			want:     "obsidian://open?vault=My%20Vault&file=a%26b%3Dc/d%2Be%3F%23.md",
		},
		{
			name:     "unicode",
			notePath: "café/日本.md",
			want:     "obsidian://open?vault=My%20Vault&file=caf%C3%A9/%E6%97%A5%E6%9C%AC.md",
		},
		{
			name:     "unreserved characters stay literal",
			notePath: "a-b_c.d~e.md",
			want:     "obsidian://open?vault=My%20Vault&file=a-b_c.d~e.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(tt.notePath)
			if err != nil {
				t.Fatalf("Build(%q) error = %v", tt.notePath, err)
			}
			if got != tt.want {
				t.Errorf("Build(%q) = %q, want %q", tt.notePath, got, tt.want)
			}
		})
	}
}

func TestBuilder_VaultModeOutsideRoot(t *testing.T) {
	b := New(Config{Root: "/Users/test/vault", VaultName: "Vault"})

	for _, notePath := range []string{"/Users/test/other/note.md", "/Users/test/vault2/note.md", "../escape.md", ""} {
		t.Run(notePath, func(t *testing.T) {
			if _, err := b.Build(notePath); !errors.Is(err, vaulterr.ErrLinkUnavailable) {
				t.Errorf("Build(%q) error = %v, want ErrLinkUnavailable", notePath, err)
			}
		})
	}
}

func TestBuilder_PrefixMode(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		notePath string
		want     string
	}{
		{
			name:     "default container prefix",
			cfg:      Config{HostPrefix: "/Users/me/Vault"},
			notePath: "/vault/Notes/Foo.md",
			want:     "obsidian://open?path=/Users/me/Vault/Notes/Foo.md",
		},
		{
			name:     "prefix itself",
			cfg:      Config{ContainerPrefix: "/vault", HostPrefix: "/Users/me/Vault"},
			notePath: "/vault",
			want:     "obsidian://open?path=/Users/me/Vault",
		},
		{
			name:     "sibling of prefix is not mapped",
			cfg:      Config{ContainerPrefix: "/vault", HostPrefix: "/Users/me/Vault"},
			notePath: "/vault2/note.md",
			want:     "obsidian://open?path=/vault2/note.md",
		},
		{
			name:     "unmatched path kept",
			cfg:      Config{ContainerPrefix: "/data", HostPrefix: "/Users/me/Vault"},
			notePath: "/srv/notes/a.md",
			want:     "obsidian://open?path=/srv/notes/a.md",
		},
		{
			name:     "trailing slashes are normalized",
			cfg:      Config{ContainerPrefix: "/vault/", HostPrefix: "/Users/me/My Vault/"},
			notePath: "/vault/Daily/2024-01-01.md",
			want:     "obsidian://open?path=/Users/me/My%20Vault/Daily/2024-01-01.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.cfg)
			if b.Mode() != ModePrefix {
				t.Fatalf("Mode() = %v, want prefix", b.Mode())
			}
			got, err := b.Build(tt.notePath)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Build(%q) = %q, want %q", tt.notePath, got, tt.want)
			}
		})
	}
}

func TestBuilder_NoMode(t *testing.T) {
	for _, cfg := range []Config{
		{},
		{Root: "/vault"},
		{ContainerPrefix: "/vault"},
	} {
		b := New(cfg)
		if b.Mode() != ModeNone {
			t.Errorf("Mode() = %v, want none for %+v", b.Mode(), cfg)
		}
		if _, err := b.Build("/vault/note.md"); !errors.Is(err, vaulterr.ErrLinkUnavailable) {
			t.Errorf("Build() error = %v, want ErrLinkUnavailable", err)
		}
	}
}

func TestBuilder_VaultNameWins(t *testing.T) {
	b := New(Config{Root: "/vault", VaultName: "Notes", HostPrefix: "/Users/me/Vault"})
	got, err := b.Build("/vault/a.md")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := "obsidian://open?vault=Notes&file=a.md"; got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestEncodePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/a b/c", "/a%20b/c"},
		{"100%", "100%25"},
		{`dir\file.md`, "dir/file.md"},
	}
	for _, tt := range tests {
		if got := EncodePath(tt.in); got != tt.want {
			t.Errorf("EncodePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
