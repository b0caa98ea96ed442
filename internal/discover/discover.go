package discover

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dantiw/csreview/internal/scanerr"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{"bin", "obj", ".git", ".vs", ".idea", "node_modules", "packages", "TestResults"}

// Options controls which files List returns.
type Options struct {
	Extensions []string
	Include    []string
	Exclude    []string
	SkipDirs   []string
	// Only restricts results to these absolute paths when non-nil.
	Only []string
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return []string{".cs"}
	}
	return o.Extensions
}

func (o Options) skipDirs() []string {
	if o.SkipDirs == nil {
		return DefaultSkipDirs
	}
	return o.SkipDirs
}

// List returns the absolute paths of the source files under root, sorted.
// A missing root is a NotFound failure; a root with no matching files
// yields an empty list and no error.
func List(root string, opts Options) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, scanerr.New(scanerr.IOFailure, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, scanerr.New(scanerr.NotFound, root, err)
		}
		return nil, scanerr.New(scanerr.IOFailure, root, err)
	}
	var only map[string]bool
	if opts.Only != nil {
		only = make(map[string]bool, len(opts.Only))
		for _, p := range opts.Only {
			only[filepath.Clean(p)] = true
		}
	}
	if !info.IsDir() {
		if only != nil && !only[abs] {
			return []string{}, nil
		}
		return []string{abs}, nil
	}

	skip := make(map[string]bool)
	for _, d := range opts.skipDirs() {
		skip[strings.ToLower(d)] = true
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subdirectories are skipped, not fatal
			if d != nil && d.IsDir() && path != abs {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != abs && skip[strings.ToLower(d.Name())] {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExtension(path, opts.extensions()) {
			return nil
		}
		if only != nil && !only[path] {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if len(opts.Include) > 0 && !MatchesAny(rel, opts.Include) {
			return nil
		}
		if len(opts.Exclude) > 0 && MatchesAny(rel, opts.Exclude) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, scanerr.New(scanerr.IOFailure, root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Read returns the text of a file.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", scanerr.New(scanerr.NotFound, path, err)
		}
		return "", scanerr.New(scanerr.IOFailure, path, err)
	}
	return string(data), nil
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// MatchesAny returns true if the slash-separated path matches any of the
// glob patterns. "**" matches any number of path segments, including none,
// wherever it appears in a pattern. Malformed patterns match nothing.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(filepath.ToSlash(pattern), path); err == nil && matched {
			return true
		}
	}
	return false
}
