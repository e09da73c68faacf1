// Package config builds the server configuration from flags, environment,
// an optional YAML file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type SearchConfig struct {
	MaxSnippets   int           `mapstructure:"max_snippets"   yaml:"max_snippets"`
	TitleBoost    int           `mapstructure:"title_boost"    yaml:"title_boost"`
	SnippetRadius int           `mapstructure:"snippet_radius" yaml:"snippet_radius"`
	Workers       int           `mapstructure:"workers"        yaml:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
}

type MarkdownConfig struct {
	HardWraps  bool `mapstructure:"hard_wraps"  yaml:"hard_wraps"`
	UnsafeHTML bool `mapstructure:"unsafe_html" yaml:"unsafe_html"`
}

type Config struct {
	BrowseRoot      string         `mapstructure:"browse_root"      yaml:"browse_root"`
	AllowAnyPath    bool           `mapstructure:"allow_any_path"   yaml:"allow_any_path"`
	VaultName       string         `mapstructure:"vault_name"       yaml:"vault_name"`
	ContainerPrefix string         `mapstructure:"container_prefix" yaml:"container_prefix"`
	HostPrefix      string         `mapstructure:"host_prefix"      yaml:"host_prefix"`
	Host            string         `mapstructure:"host"             yaml:"host"`
	Port            int            `mapstructure:"port"             yaml:"port"`
	LogLevel        string         `mapstructure:"log_level"        yaml:"log_level"`
	LogFormat       string         `mapstructure:"log_format"       yaml:"log_format"`
	HiddenPrefix    string         `mapstructure:"hidden_prefix"    yaml:"hidden_prefix"`
	IgnoredPatterns []string       `mapstructure:"ignored_patterns" yaml:"ignored_patterns"`
	NoteExtensions  []string       `mapstructure:"note_extensions"  yaml:"note_extensions"`
	Search          SearchConfig   `mapstructure:"search"           yaml:"search"`
	Markdown        MarkdownConfig `mapstructure:"markdown"         yaml:"markdown"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"browse_root":           "BROWSE_ROOT",
	"allow_any_path":        "ALLOW_ANY_PATH",
	"vault_name":            "OBSIDIAN_VAULT_NAME",
	"container_prefix":      "OBSIDIAN_CONTAINER_PREFIX",
	"host_prefix":           "OBSIDIAN_HOST_PREFIX",
	"host":                  "HOST",
	"port":                  "PORT",
	"log_level":             "LOG_LEVEL",
	"log_format":            "LOG_FORMAT",
	"hidden_prefix":         "HIDDEN_PREFIX",
	"ignored_patterns":      "IGNORED_PATTERNS",
	"note_extensions":       "NOTE_EXTENSIONS",
	"search.max_snippets":   "SEARCH_MAX_SNIPPETS",
	"search.title_boost":    "SEARCH_TITLE_BOOST",
	"search.snippet_radius": "SEARCH_SNIPPET_RADIUS",
	"search.workers":        "SEARCH_WORKERS",
	"search.timeout":        "SEARCH_TIMEOUT",
	"markdown.hard_wraps":   "MARKDOWN_HARD_WRAPS",
	"markdown.unsafe_html":  "MARKDOWN_UNSAFE_HTML",
}

// emptyEnvKeys are keys for which a set but empty variable is meaningful.
// An empty HIDDEN_PREFIX turns hiding off.
var emptyEnvKeys = []string{"hidden_prefix"}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"browse-root":      "browse_root",
	"allow-any-path":   "allow_any_path",
	"vault-name":       "vault_name",
	"container-prefix": "container_prefix",
	"host-prefix":      "host_prefix",
	"host":             "host",
	"port":             "port",
	"log-level":        "log_level",
	"log-format":       "log_format",
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("browse_root", "")
	v.SetDefault("allow_any_path", false)
	v.SetDefault("vault_name", "")
	v.SetDefault("container_prefix", "/vault")
	v.SetDefault("host_prefix", "")
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 5055)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("hidden_prefix", ".")
	v.SetDefault("ignored_patterns", []string{})
	v.SetDefault("note_extensions", []string{})
	v.SetDefault("search.max_snippets", 3)
	v.SetDefault("search.title_boost", 10)
	v.SetDefault("search.snippet_radius", 80)
	v.SetDefault("search.workers", runtime.NumCPU())
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("markdown.hard_wraps", false)
	v.SetDefault("markdown.unsafe_html", false)
}

// RegisterFlags adds the server flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("browse-root", "", "Directory to browse and search (default: home directory)")
	fs.Bool("allow-any-path", false, "Allow browsing any absolute path on the host")
	fs.String("vault-name", "", "Obsidian vault name for vault/file deep links")
	fs.String("container-prefix", "/vault", "Path prefix of the vault inside the container")
	fs.String("host-prefix", "", "Path prefix of the vault on the host running Obsidian")
	fs.String("host", "127.0.0.1", "Address to listen on")
	fs.Int("port", 5055, "Port to listen on")
	fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.String("log-format", "console", "Log format (console or json)")
}

// Bind wires the environment and any flags registered with RegisterFlags
// into v. Flags missing from fs are ignored.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	// viper skips empty variables, so these are applied by hand. None of
	// them has a flag, so env still outranks only the file and defaults.
	for _, key := range emptyEnvKeys {
		if val, ok := os.LookupEnv(envKeys[key]); ok && val == "" {
			v.Set(key, "")
		}
	}
	if fs == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file and returns the validated Config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.BrowseRoot = strings.TrimSpace(c.BrowseRoot)
	if c.BrowseRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("browse root not set and home directory unknown: %w", err)
		}
		c.BrowseRoot = home
	}
	if c.BrowseRoot == "~" || strings.HasPrefix(c.BrowseRoot, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("expand %s: %w", c.BrowseRoot, err)
		}
		c.BrowseRoot = filepath.Join(home, c.BrowseRoot[1:])
	}
	abs, err := filepath.Abs(c.BrowseRoot)
	if err != nil {
		return fmt.Errorf("resolve browse root: %w", err)
	}
	c.BrowseRoot = abs

	c.IgnoredPatterns = splitList(c.IgnoredPatterns)
	c.NoteExtensions = splitList(c.NoteExtensions)
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	info, err := os.Stat(c.BrowseRoot)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("browse root %s: %w", c.BrowseRoot, err))
	case !info.IsDir():
		errs = append(errs, fmt.Errorf("browse root %s is not a directory", c.BrowseRoot))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range 1-65535", c.Port))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log format %q must be console or json", c.LogFormat))
	}
	if c.Search.MaxSnippets <= 0 {
		errs = append(errs, fmt.Errorf("search.max_snippets must be positive, got %d", c.Search.MaxSnippets))
	}
	if c.Search.TitleBoost < 0 {
		errs = append(errs, fmt.Errorf("search.title_boost must not be negative, got %d", c.Search.TitleBoost))
	}
	if c.Search.SnippetRadius <= 0 {
		errs = append(errs, fmt.Errorf("search.snippet_radius must be positive, got %d", c.Search.SnippetRadius))
	}
	if c.Search.Workers <= 0 {
		errs = append(errs, fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers))
	}
	if c.Search.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("search.timeout must be positive, got %s", c.Search.Timeout))
	}

	return errors.Join(errs...)
}
