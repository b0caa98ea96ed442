package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dantiw/csreview/internal/discover"
	"github.com/dantiw/csreview/internal/project"
	"github.com/dantiw/csreview/internal/scanerr"
)

const (
	// ToolName is reported in every Report.
	ToolName = "csreview"
	// maxDefaultJobs caps the worker count derived from the CPU count.
	maxDefaultJobs = 8
)

// MatchCache stores serialized per-file matches. *cache.Cache satisfies it.
type MatchCache interface {
	Get(key string) (string, bool)
	Put(key, value string) error
}

// Options configures a review run.
type Options struct {
	// Root is a directory, a source file or a project descriptor.
	Root     string
	Concerns []Concern
	GroupBy  GroupBy
	Version  string

	Discover discover.Options
	// Jobs bounds concurrent file scans. Zero means NumCPU capped at 8.
	Jobs int
	// MaxIssues truncates the issue list. Zero means no limit.
	MaxIssues int
	// RequireDescriptor makes a missing project descriptor fatal.
	RequireDescriptor bool

	Cache  MatchCache
	Redact func(string) string
	// Read supplies file text; defaults to discover.Read.
	Read   func(path string) (string, error)
	Logger *slog.Logger
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	n := runtime.NumCPU()
	if n > maxDefaultJobs {
		n = maxDefaultJobs
	}
	return n
}

func (o Options) read() func(string) (string, error) {
	if o.Read != nil {
		return o.Read
	}
	return discover.Read
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// FileResult is the outcome of scanning one file.
type FileResult struct {
	Path    string
	Matches []RawMatch
	Cached  bool
	Err     error
}

// fileJob is one file to scan: where to read it and how to name it.
type fileJob struct {
	path    string
	display string
}

// Run discovers files under opts.Root, scans them with the registry's rules
// for the requested concerns and returns the aggregated report. Per-file
// failures are recorded in the report; a missing root, a missing required
// descriptor or a malformed descriptor named directly as the root are
// returned as errors.
func Run(ctx context.Context, reg *Registry, opts Options) (*Report, error) {
	log := opts.logger()
	concerns := opts.Concerns
	if len(concerns) == 0 {
		concerns = Concerns
	}
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = GroupByFile
	}

	root := filepath.Clean(opts.Root)
	base, rootIsDescriptor, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Tool:     ToolName,
		Version:  opts.Version,
		Root:     filepath.ToSlash(root),
		Concerns: concerns,
		GroupBy:  groupBy,
	}
	agg := NewAggregator(reg, opts.Redact)
	agg.Limit(opts.MaxIssues)

	if rules := reg.SourceRules(concerns...); len(rules) > 0 && !rootIsDescriptor {
		files, err := discover.List(root, opts.Discover)
		if err != nil {
			return nil, fmt.Errorf("listing source files: %w", err)
		}
		jobs := make([]fileJob, len(files))
		for i, f := range files {
			jobs[i] = fileJob{path: f, display: displayPath(base, f)}
		}
		results, err := scanFiles(ctx, reg, rules, jobs, opts, log)
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			if res.Err != nil {
				log.Warn("skipping file", "path", res.Path, "error", res.Err)
				report.Failures = append(report.Failures, failure(res.Path, res.Err))
				continue
			}
			report.FilesScanned++
			agg.AddAll(res.Matches)
		}
	}

	if hasConcern(concerns, ConcernDependency) {
		if err := checkDescriptors(root, base, rootIsDescriptor, reg, opts, agg, report, log); err != nil {
			return nil, err
		}
	}

	if n := agg.Unknown(); n > 0 {
		log.Warn("dropped matches for unknown rules", "count", n)
	}
	report.Issues = agg.Finalize()
	report.Summary = ComputeSummary(report.Issues)
	return report, nil
}

// ScanFiles scans files concurrently and returns one result per file in the
// order given. Display names in matches are the paths as passed.
func ScanFiles(ctx context.Context, reg *Registry, files []string, opts Options) ([]FileResult, error) {
	jobs := make([]fileJob, len(files))
	for i, f := range files {
		jobs[i] = fileJob{path: f, display: filepath.ToSlash(f)}
	}
	return scanFiles(ctx, reg, reg.SourceRules(opts.Concerns...), jobs, opts, opts.logger())
}

func scanFiles(ctx context.Context, reg *Registry, rules []PatternRule, jobs []fileJob, opts Options, log *slog.Logger) ([]FileResult, error) {
	results := make([]FileResult, len(jobs))
	read := opts.read()
	ids := ruleIDs(rules)

	var wg sync.WaitGroup
	sem := make(chan struct{}, opts.jobs())
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, job fileJob) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			if ctx.Err() != nil {
				results[i] = FileResult{Path: job.display, Err: ctx.Err()}
				return
			}
			results[i] = scanOne(reg, rules, ids, job, read, opts.Cache)
			log.Debug("scanned file", "path", job.display,
				"matches", len(results[i].Matches), "cached", results[i].Cached)
		}(i, job)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanOne(reg *Registry, rules []PatternRule, ids string, job fileJob, read func(string) (string, error), mc MatchCache) FileResult {
	content, err := read(job.path)
	if err != nil {
		return FileResult{Path: job.display, Err: err}
	}

	var key string
	if mc != nil {
		key = strings.Join([]string{reg.Fingerprint(), ids, job.display, content}, "\x00")
		if cached, ok := mc.Get(key); ok {
			var matches []RawMatch
			if err := json.Unmarshal([]byte(cached), &matches); err == nil {
				return FileResult{Path: job.display, Matches: matches, Cached: true}
			}
		}
	}

	matches, err := Scan(content, job.display, rules)
	if err != nil {
		return FileResult{Path: job.display, Err: err}
	}
	if mc != nil {
		if data, err := json.Marshal(matches); err == nil {
			// a failed cache write only costs a rescan next time
			_ = mc.Put(key, string(data))
		}
	}
	return FileResult{Path: job.display, Matches: matches}
}

func checkDescriptors(root, base string, rootIsDescriptor bool, reg *Registry, opts Options, agg *Aggregator, report *Report, log *slog.Logger) error {
	rules := reg.PackageRules()
	if len(rules) == 0 {
		return nil
	}
	paths, err := project.Find(root)
	if err != nil {
		if scanerr.IsNotFound(err) && !opts.RequireDescriptor {
			log.Debug("no project descriptor", "root", root)
			return nil
		}
		return fmt.Errorf("finding project descriptor: %w", err)
	}

	var loaded int
	var firstErr error
	for _, p := range paths {
		desc, err := project.Load(p)
		if err != nil {
			if rootIsDescriptor {
				return fmt.Errorf("loading project descriptor: %w", err)
			}
			log.Warn("skipping descriptor", "path", p, "error", err)
			report.Failures = append(report.Failures, failure(displayPath(base, p), err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded++
		report.FilesScanned++
		desc.Path = displayPath(base, p)
		matches := CheckDependencies(desc, rules)
		log.Debug("checked descriptor", "path", desc.Path, "packages", len(desc.Packages), "matches", len(matches))
		agg.AddAll(matches)
	}
	if loaded == 0 && opts.RequireDescriptor && firstErr != nil {
		return fmt.Errorf("loading project descriptor: %w", firstErr)
	}
	return nil
}

// resolveRoot returns the directory paths are reported relative to and
// whether root names a descriptor file.
func resolveRoot(root string) (string, bool, error) {
	isDir, err := statDir(root)
	if err != nil {
		return "", false, err
	}
	if isDir {
		return root, false, nil
	}
	return filepath.Dir(root), strings.EqualFold(filepath.Ext(root), project.Extension), nil
}

func displayPath(base, path string) string {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func failure(path string, err error) Failure {
	kind := scanerr.KindOf(err)
	if kind == 0 {
		kind = scanerr.IOFailure
	}
	return Failure{Path: path, Kind: kind.String(), Error: rootCause(err)}
}

// rootCause strips the path prefix scanerr adds, since Failure already
// carries the path.
func rootCause(err error) string {
	var se *scanerr.Error
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

func statDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, scanerr.New(scanerr.NotFound, path, err)
		}
		return false, scanerr.New(scanerr.IOFailure, path, err)
	}
	return info.IsDir(), nil
}

func ruleIDs(rules []PatternRule) string {
	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	return strings.Join(ids, ",")
}

func hasConcern(concerns []Concern, c Concern) bool {
	for _, x := range concerns {
		if x == c {
			return true
		}
	}
	return false
}
