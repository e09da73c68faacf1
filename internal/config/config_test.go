package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	v := viper.New()
	SetDefaults(v)
	if err := Bind(v, fs); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	for _, env := range envKeys {
		t.Setenv(env, "")
	}
	// set-but-empty is meaningful for the hidden prefix
	os.Unsetenv("HIDDEN_PREFIX")
	root := t.TempDir()
	v := newViper(t, "--browse-root", root)

	cfg, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BrowseRoot != root {
		t.Errorf("BrowseRoot = %q, want %q", cfg.BrowseRoot, root)
	}
	if cfg.Addr() != "127.0.0.1:5055" {
		t.Errorf("Addr() = %q, want 127.0.0.1:5055", cfg.Addr())
	}
	if cfg.AllowAnyPath {
		t.Error("AllowAnyPath should default to false")
	}
	if cfg.ContainerPrefix != "/vault" {
		t.Errorf("ContainerPrefix = %q, want /vault", cfg.ContainerPrefix)
	}
	if cfg.HiddenPrefix != "." {
		t.Errorf("HiddenPrefix = %q, want .", cfg.HiddenPrefix)
	}
	if cfg.Search.MaxSnippets != 3 || cfg.Search.TitleBoost != 10 || cfg.Search.SnippetRadius != 80 {
		t.Errorf("Search = %+v, want 3/10/80", cfg.Search)
	}
	if cfg.Search.Timeout != 30*time.Second {
		t.Errorf("Search.Timeout = %s, want 30s", cfg.Search.Timeout)
	}
	if cfg.Search.Workers <= 0 {
		t.Errorf("Search.Workers = %d, want positive", cfg.Search.Workers)
	}
	if cfg.Markdown.HardWraps || cfg.Markdown.UnsafeHTML {
		t.Errorf("Markdown = %+v, want both off", cfg.Markdown)
	}
}

func TestLoad_Precedence(t *testing.T) {
	root := t.TempDir()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configFile, []byte(strings.Join([]string{
		"browse_root: " + root,
		"port: 7000",
		"host: 0.0.0.0",
		"vault_name: FromFile",
		"search:",
		"  max_snippets: 5",
		"  timeout: 45s",
		"ignored_patterns:",
		"  - archive/**",
	}, "\n")), 0o644)

	t.Setenv("PORT", "8000")
	t.Setenv("OBSIDIAN_VAULT_NAME", "FromEnv")
	t.Setenv("ALLOW_ANY_PATH", "1")
	t.Setenv("SEARCH_TITLE_BOOST", "4")

	v := newViper(t, "--port", "9000")
	cfg, err := Load(v, configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"flag beats env and file", cfg.Port, 9000},
		{"env beats file", cfg.VaultName, "FromEnv"},
		{"file beats default", cfg.Host, "0.0.0.0"},
		{"env bool accepts 1", cfg.AllowAnyPath, true},
		{"nested file value", cfg.Search.MaxSnippets, 5},
		{"nested env value", cfg.Search.TitleBoost, 4},
		{"duration from file", cfg.Search.Timeout, 45 * time.Second},
		{"browse root from file", cfg.BrowseRoot, root},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if !slices.Equal(cfg.IgnoredPatterns, []string{"archive/**"}) {
		t.Errorf("IgnoredPatterns = %v, want [archive/**]", cfg.IgnoredPatterns)
	}
}

func TestLoad_EnvLists(t *testing.T) {
	t.Setenv("BROWSE_ROOT", t.TempDir())
	t.Setenv("NOTE_EXTENSIONS", ".txt, .org")

	cfg, err := Load(newViper(t), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(cfg.NoteExtensions, []string{".txt", ".org"}) {
		t.Errorf("NoteExtensions = %v, want [.txt .org]", cfg.NoteExtensions)
	}
}

func TestLoad_HomeDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BROWSE_ROOT", "")

	cfg, err := Load(newViper(t), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BrowseRoot != home {
		t.Errorf("BrowseRoot = %q, want %q", cfg.BrowseRoot, home)
	}

	cfg, err = Load(newViper(t, "--browse-root", "~"), "")
	if err != nil {
		t.Fatalf("Load(~) error = %v", err)
	}
	if cfg.BrowseRoot != home {
		t.Errorf("BrowseRoot = %q, want %q", cfg.BrowseRoot, home)
	}
}

func TestLoad_Invalid(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.md")
	os.WriteFile(file, []byte("x"), 0o644)

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{"missing root", []string{"--browse-root", filepath.Join(root, "missing")}, nil, "browse root"},
		{"file root", []string{"--browse-root", file}, nil, "not a directory"},
		{"port zero", []string{"--browse-root", root, "--port", "0"}, nil, "port"},
		{"port too large", []string{"--browse-root", root, "--port", "70000"}, nil, "port"},
		{"bad log format", []string{"--browse-root", root, "--log-format", "xml"}, nil, "log format"},
		{"zero snippets", []string{"--browse-root", root}, map[string]string{"SEARCH_MAX_SNIPPETS": "0"}, "max_snippets"},
		{"zero workers", []string{"--browse-root", root}, map[string]string{"SEARCH_WORKERS": "0"}, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, val := range tt.env {
				t.Setenv(k, val)
			}
			_, err := Load(newViper(t, tt.args...), "")
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	v := newViper(t, "--browse-root", t.TempDir())
	if _, err := Load(v, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() with missing config file should fail")
	}
}

func ptr(s string) *string { return &s }

func TestLoad_HiddenPrefix(t *testing.T) {
	root := t.TempDir()
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configFile, []byte("hidden_prefix: _\n"), 0o644)

	tests := []struct {
		name       string
		env        *string
		configFile string
		want       string
	}{
		{"default", nil, "", "."},
		{"empty env disables hiding", ptr(""), "", ""},
		{"env value", ptr("~"), "", "~"},
		{"file value", nil, configFile, "_"},
		{"empty env beats file", ptr(""), configFile, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HIDDEN_PREFIX", "")
			if tt.env == nil {
				os.Unsetenv("HIDDEN_PREFIX")
			} else {
				t.Setenv("HIDDEN_PREFIX", *tt.env)
			}

			cfg, err := Load(newViper(t, "--browse-root", root), tt.configFile)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.HiddenPrefix != tt.want {
				t.Errorf("HiddenPrefix = %q, want %q", cfg.HiddenPrefix, tt.want)
			}
		})
	}
}

func TestLoad_Markdown(t *testing.T) {
	t.Setenv("MARKDOWN_HARD_WRAPS", "true")
	t.Setenv("MARKDOWN_UNSAFE_HTML", "1")

	cfg, err := Load(newViper(t, "--browse-root", t.TempDir()), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Markdown.HardWraps || !cfg.Markdown.UnsafeHTML {
		t.Errorf("Markdown = %+v, want both on", cfg.Markdown)
	}
}
