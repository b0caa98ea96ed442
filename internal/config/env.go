package config

import (
	"errors"
	"fmt"
	"strings"
)

// EnvPrefix starts every environment variable csreview reads.
const EnvPrefix = "CSREVIEW_"

// envKeys maps environment variables (without the prefix) to config keys.
var envKeys = []struct {
	env string
	key string
}{
	{"FORMAT", "format"},
	{"GROUP_BY", "groupBy"},
	{"FAIL_ON", "failOn"},
	{"MAX_ISSUES", "maxIssues"},
	{"JOBS", "jobs"},
	{"EXTENSIONS", "extensions"},
	{"INCLUDE", "include"},
	{"EXCLUDE", "exclude"},
	{"RULES", "rulesFile"},
	{"COLOR", "color"},
	{"WIDTH", "width"},
	{"CACHE", "cache.enabled"},
	{"CACHE_DIR", "cache.dir"},
	{"CACHE_TTL", "cache.ttlSeconds"},
	{"REDACT_SECRETS", "privacy.redactSecrets"},
}

// mergeEnv applies CSREVIEW_* variables. Every malformed value is reported.
func mergeEnv(cfg *Config, getenv func(string) string) error {
	var errs []error
	for _, e := range envKeys {
		raw := strings.TrimSpace(getenv(EnvPrefix + e.env))
		if raw == "" {
			continue
		}
		if err := SetField(cfg, e.key, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, e.env, err))
		}
	}
	return errors.Join(errs...)
}
