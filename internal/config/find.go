package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	projectFilenames = []string{
		".csreview.yaml",
		".csreview.yml",
		".csreview.toml",
		".csreview.json",
	}
	userFilenames = []string{
		"config.yaml",
		"config.yml",
		"config.toml",
		"config.json",
	}
)

// Find locates the config file to load. An explicit path wins and must
// exist; otherwise the project files are searched from root upward, then the
// user config directory. origin is "explicit", "project" or "user". No file
// found is not an error.
func Find(root, explicit, xdgHome string) (path, origin string, err error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		candidate, err := filepath.Abs(explicit)
		if err != nil {
			return "", "", err
		}
		info, err := os.Stat(candidate)
		if err != nil {
			return "", "", err
		}
		if info.IsDir() {
			return "", "", fmt.Errorf("config path %q is a directory", candidate)
		}
		return candidate, "explicit", nil
	}

	start := strings.TrimSpace(root)
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range projectFilenames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate, "project", nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	var userDir string
	if xdg := strings.TrimSpace(xdgHome); xdg != "" {
		userDir = filepath.Join(xdg, "csreview")
	} else if d, err := ConfigDir(); err == nil {
		userDir = d
	}
	if userDir != "" {
		for _, name := range userFilenames {
			candidate := filepath.Join(userDir, name)
			if fileExists(candidate) {
				return candidate, "user", nil
			}
		}
	}
	return "", "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
