package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/dantiw/csreview/internal/review"
	"github.com/dantiw/csreview/internal/termcolor"
)

// Config represents the csreview configuration.
type Config struct {
	Format     string        `json:"format" yaml:"format" toml:"format"`
	GroupBy    string        `json:"groupBy,omitempty" yaml:"groupBy,omitempty" toml:"groupBy,omitempty"`
	FailOn     string        `json:"failOn" yaml:"failOn" toml:"failOn"`
	MaxIssues  int           `json:"maxIssues" yaml:"maxIssues" toml:"maxIssues"`
	Jobs       int           `json:"jobs" yaml:"jobs" toml:"jobs"`
	Extensions []string      `json:"extensions" yaml:"extensions" toml:"extensions"`
	Include    []string      `json:"include,omitempty" yaml:"include,omitempty" toml:"include,omitempty"`
	Exclude    []string      `json:"exclude" yaml:"exclude" toml:"exclude"`
	RulesFile  string        `json:"rulesFile,omitempty" yaml:"rulesFile,omitempty" toml:"rulesFile,omitempty"`
	Color      string        `json:"color" yaml:"color" toml:"color"`
	Width      int           `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty"`
	Cache      CacheConfig   `json:"cache" yaml:"cache" toml:"cache"`
	Privacy    PrivacyConfig `json:"privacy" yaml:"privacy" toml:"privacy"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds" toml:"ttlSeconds"`
}

// PrivacyConfig controls redaction of captured source fragments.
type PrivacyConfig struct {
	RedactSecrets bool `json:"redactSecrets" yaml:"redactSecrets" toml:"redactSecrets"`
}

// Keys lists every key accepted by SetField, in display order.
var Keys = []string{
	"format", "groupBy", "failOn", "maxIssues", "jobs", "extensions", "include",
	"exclude", "rulesFile", "color", "width", "cache.enabled", "cache.dir",
	"cache.ttlSeconds", "privacy.redactSecrets",
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:     "text",
		FailOn:     "none",
		Extensions: []string{".cs"},
		Exclude:    []string{"**/*.Designer.cs", "**/*.g.cs", "**/Migrations/**"},
		Color:      "auto",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for csreview.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "csreview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "csreview"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "csreview"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "csreview"), nil
	default:
		return filepath.Join(home, ".config", "csreview"), nil
	}
}

// ConfigPath returns the path `config init` and `config set` write to.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Sources describes where an effective config came from.
type Sources struct {
	File   string
	Origin string
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// root is where the project config search starts; explicit is the --config
// value. The overrides map comes from CLI flags (only flags the user set).
func Load(root, explicit string, overrides map[string]string) (Config, Sources, error) {
	return load(root, explicit, overrides, os.Getenv)
}

func load(root, explicit string, overrides map[string]string, getenv func(string) string) (Config, Sources, error) {
	cfg := Default()
	var src Sources

	if explicit == "" {
		explicit = getenv(EnvPrefix + "CONFIG")
	}
	path, origin, err := Find(root, explicit, getenv("XDG_CONFIG_HOME"))
	if err != nil {
		return Config{}, src, fmt.Errorf("locating config file: %w", err)
	}
	if path != "" {
		layer, err := LoadFile(path)
		if err != nil {
			return Config{}, src, err
		}
		layer.Apply(&cfg)
		src = Sources{File: path, Origin: origin}
	}
	if err := mergeEnv(&cfg, getenv); err != nil {
		return Config{}, src, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, src, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, src, err
	}
	return cfg, src, nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for _, key := range Keys {
		v, ok := overrides[key]
		if !ok {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("flag %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks values that the commands would otherwise reject late.
func Validate(cfg Config) error {
	switch strings.ToLower(cfg.Format) {
	case "text", "json", "markdown", "md", "sarif":
	default:
		return fmt.Errorf("format: unsupported output format %q", cfg.Format)
	}
	if _, err := review.ParseGroupBy(cfg.GroupBy); err != nil {
		return fmt.Errorf("groupBy: %w", err)
	}
	if cfg.FailOn != "none" {
		if _, err := review.ParseSeverity(cfg.FailOn); err != nil {
			return fmt.Errorf("failOn: %w", err)
		}
	}
	if _, err := termcolor.ParseMode(cfg.Color); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if cfg.MaxIssues < 0 {
		return fmt.Errorf("maxIssues must not be negative")
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}
	if cfg.Width < 0 {
		return fmt.Errorf("width must not be negative")
	}
	if cfg.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttlSeconds must not be negative")
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "format":
		cfg.Format = value
	case "groupBy":
		cfg.GroupBy = value
	case "failOn":
		cfg.FailOn = strings.ToLower(value)
	case "maxIssues":
		return setInt(&cfg.MaxIssues, key, value)
	case "jobs":
		return setInt(&cfg.Jobs, key, value)
	case "extensions":
		exts := splitList(value)
		for i, e := range exts {
			if !strings.HasPrefix(e, ".") {
				exts[i] = "." + e
			}
		}
		cfg.Extensions = exts
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "rulesFile":
		cfg.RulesFile = value
	case "color":
		cfg.Color = strings.ToLower(value)
	case "width":
		return setInt(&cfg.Width, key, value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

// splitList accepts comma-separated values; empty items are dropped.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
