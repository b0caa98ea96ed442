package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Layer is a config file's content. Nil fields were absent from the file and
// leave the lower layer untouched.
type Layer struct {
	Format     *string       `json:"format" yaml:"format" toml:"format"`
	GroupBy    *string       `json:"groupBy" yaml:"groupBy" toml:"groupBy"`
	FailOn     *string       `json:"failOn" yaml:"failOn" toml:"failOn"`
	MaxIssues  *int          `json:"maxIssues" yaml:"maxIssues" toml:"maxIssues"`
	Jobs       *int          `json:"jobs" yaml:"jobs" toml:"jobs"`
	Extensions []string      `json:"extensions" yaml:"extensions" toml:"extensions"`
	Include    []string      `json:"include" yaml:"include" toml:"include"`
	Exclude    []string      `json:"exclude" yaml:"exclude" toml:"exclude"`
	RulesFile  *string       `json:"rulesFile" yaml:"rulesFile" toml:"rulesFile"`
	Color      *string       `json:"color" yaml:"color" toml:"color"`
	Width      *int          `json:"width" yaml:"width" toml:"width"`
	Cache      *cacheLayer   `json:"cache" yaml:"cache" toml:"cache"`
	Privacy    *privacyLayer `json:"privacy" yaml:"privacy" toml:"privacy"`
}

type cacheLayer struct {
	Enabled    *bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Dir        *string `json:"dir" yaml:"dir" toml:"dir"`
	TTLSeconds *int    `json:"ttlSeconds" yaml:"ttlSeconds" toml:"ttlSeconds"`
}

type privacyLayer struct {
	RedactSecrets *bool `json:"redactSecrets" yaml:"redactSecrets" toml:"redactSecrets"`
}

// LoadFile reads and decodes a config file. The format follows the extension.
// A relative rulesFile is resolved against the file's directory.
func LoadFile(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, fmt.Errorf("reading config file: %w", err)
	}
	layer, err := decode(data, filepath.Ext(path))
	if err != nil {
		return Layer{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if layer.RulesFile != nil && *layer.RulesFile != "" && !filepath.IsAbs(*layer.RulesFile) {
		abs := filepath.Join(filepath.Dir(path), *layer.RulesFile)
		layer.RulesFile = &abs
	}
	return layer, nil
}

func decode(data []byte, ext string) (Layer, error) {
	var layer Layer
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&layer); err != nil && !errors.Is(err, io.EOF) {
			return Layer{}, err
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&layer); err != nil {
			return Layer{}, err
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&layer); err != nil {
			return Layer{}, err
		}
	default:
		return Layer{}, fmt.Errorf("unsupported config extension: %q", ext)
	}
	return layer, nil
}

// Apply overlays the fields present in the file onto cfg.
func (l Layer) Apply(cfg *Config) {
	setIf(&cfg.Format, l.Format)
	setIf(&cfg.GroupBy, l.GroupBy)
	setIf(&cfg.FailOn, l.FailOn)
	setIf(&cfg.MaxIssues, l.MaxIssues)
	setIf(&cfg.Jobs, l.Jobs)
	if l.Extensions != nil {
		cfg.Extensions = l.Extensions
	}
	if l.Include != nil {
		cfg.Include = l.Include
	}
	if l.Exclude != nil {
		cfg.Exclude = l.Exclude
	}
	setIf(&cfg.RulesFile, l.RulesFile)
	setIf(&cfg.Color, l.Color)
	setIf(&cfg.Width, l.Width)
	if l.Cache != nil {
		setIf(&cfg.Cache.Enabled, l.Cache.Enabled)
		setIf(&cfg.Cache.Dir, l.Cache.Dir)
		setIf(&cfg.Cache.TTLSeconds, l.Cache.TTLSeconds)
	}
	if l.Privacy != nil {
		setIf(&cfg.Privacy.RedactSecrets, l.Privacy.RedactSecrets)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Marshal encodes cfg in the format named by ext.
func Marshal(cfg Config, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	case ".toml":
		return toml.Marshal(cfg)
	case ".json", "":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported config extension: %q", ext)
	}
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Marshal(cfg, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
