package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dantiw/csreview/internal/cache"
	"github.com/dantiw/csreview/internal/config"
	"github.com/dantiw/csreview/internal/discover"
	"github.com/dantiw/csreview/internal/gitctx"
	"github.com/dantiw/csreview/internal/output"
	"github.com/dantiw/csreview/internal/redact"
	"github.com/dantiw/csreview/internal/review"
	"github.com/dantiw/csreview/internal/termcolor"
	"github.com/spf13/cobra"
)

// Shared analysis flags
var (
	flagFormat    string
	flagGroupBy   string
	flagOut       string
	flagFailOn    string
	flagMaxIssues int
	flagJobs      int
	flagExclude   string
	flagRules     string
	flagConfig    string
	flagNoCache   bool
	flagColor     string
	flagVerbose   bool
	flagNoRedact  bool
	flagChanged   string
)

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagGroupBy, "group-by", "", "Group issues by file or type")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high)")
	cmd.Flags().IntVar(&flagMaxIssues, "max-issues", 0, "Maximum number of issues to report")
	cmd.Flags().IntVar(&flagJobs, "jobs", 0, "Concurrent file scans (default: CPU count, at most 8)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules pack file (json, yaml or toml)")
	cmd.Flags().StringVar(&flagConfig, "config", "", "Config file path")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the per-file match cache")
	cmd.Flags().StringVar(&flagColor, "color", "", "Colorize text output (auto, always, never)")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log per-file diagnostics to stderr")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction in messages (use with caution)")
	cmd.Flags().StringVar(&flagChanged, "changed", "", "Only scan files changed in git: staged, unstaged or a revision range")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagGroupBy != "" {
		m["groupBy"] = flagGroupBy
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxIssues > 0 {
		m["maxIssues"] = strconv.Itoa(flagMaxIssues)
	}
	if flagJobs > 0 {
		m["jobs"] = strconv.Itoa(flagJobs)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagColor != "" {
		m["color"] = flagColor
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	return m
}

func buildDiscoverOpts(cfg config.Config) discover.Options {
	opts := discover.Options{
		Extensions: cfg.Extensions,
		Include:    cfg.Include,
		Exclude:    cfg.Exclude,
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// analysis describes one review command: the concerns it runs and how it
// groups its report unless configured otherwise.
type analysis struct {
	use      string
	short    string
	long     string
	concerns []review.Concern
	groupBy  review.GroupBy
	// focusable commands narrow their concerns to the rules pack's focus list.
	focusable bool
	// requireDescriptor makes a missing .csproj fatal.
	requireDescriptor bool
}

var (
	memoryAnalysis = analysis{
		use:      "memory [path]",
		short:    "Find resource-lifetime problems (undisposed resources, leaked handlers)",
		concerns: []review.Concern{review.ConcernResourceLifetime},
		groupBy:  review.GroupByFile,
	}
	architectureAnalysis = analysis{
		use:      "architecture [path]",
		short:    "Find architecture smells (service locators, direct construction, god classes)",
		concerns: []review.Concern{review.ConcernArchitecture},
		groupBy:  review.GroupByType,
	}
	performanceAnalysis = analysis{
		use:      "performance [path]",
		short:    "Find performance and async problems (sync over async, queries in loops)",
		concerns: []review.Concern{review.ConcernPerformance},
		groupBy:  review.GroupByFile,
	}
	dependenciesAnalysis = analysis{
		use:               "dependencies [path]",
		short:             "Check .csproj package references against the target framework",
		concerns:          []review.Concern{review.ConcernDependency},
		groupBy:           review.GroupByType,
		requireDescriptor: true,
	}
	reviewAnalysis = analysis{
		use:   "review [path]",
		short: "Run every check, including dependencies when a .csproj exists",
		long: "Run all source concerns over the C# files under path, plus the dependency\n" +
			"checks when a project descriptor is present. A rules pack focus list\n" +
			"narrows the concerns.",
		concerns:  review.Concerns,
		groupBy:   review.GroupByFile,
		focusable: true,
	}
)

var (
	memoryCmd       = newAnalysisCmd(memoryAnalysis)
	architectureCmd = newAnalysisCmd(architectureAnalysis)
	performanceCmd  = newAnalysisCmd(performanceAnalysis)
	dependenciesCmd = newAnalysisCmd(dependenciesAnalysis)
	reviewCmd       = newAnalysisCmd(reviewAnalysis)
)

func newAnalysisCmd(a analysis) *cobra.Command {
	return &cobra.Command{
		Use:   a.use,
		Short: a.short,
		Long:  a.long,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			exitCode = runAnalysis(ctx, a, root, os.Stderr)
			return nil
		},
	}
}

// session is everything an analysis needs besides the root to scan.
type session struct {
	cfg      config.Config
	registry *review.Registry
	concerns []review.Concern
	cache    *cache.Cache
	log      *slog.Logger
}

// prepare loads configuration and the rules pack for an analysis rooted at
// root. Errors are usage errors.
func prepare(a analysis, root string, stderr io.Writer) (*session, error) {
	log := newLogger(stderr, flagVerbose)

	cfg, src, err := config.Load(root, flagConfig, buildOverrides())
	if err != nil {
		return nil, err
	}
	if src.File != "" {
		log.Debug("loaded config", "path", src.File, "origin", src.Origin)
	}
	if flagNoRedact {
		fmt.Fprintln(stderr, "WARNING: secret redaction is disabled")
	}

	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	reg, err := rules.Apply(review.Builtin())
	if err != nil {
		return nil, fmt.Errorf("applying rules %s: %w", cfg.RulesFile, err)
	}

	concerns := a.concerns
	if a.focusable {
		focus, err := rules.FocusConcerns()
		if err != nil {
			return nil, fmt.Errorf("rules focus: %w", err)
		}
		if len(focus) > 0 {
			concerns = focus
		}
	}

	s := &session{cfg: cfg, registry: reg, concerns: concerns, log: log}
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		log.Warn("cache unavailable, continuing without it", "error", err)
	} else if c.Enabled() {
		s.cache = c
	}
	return s, nil
}

func (s *session) options(a analysis, root string) review.Options {
	groupBy := a.groupBy
	if s.cfg.GroupBy != "" {
		groupBy, _ = review.ParseGroupBy(s.cfg.GroupBy)
	}
	opts := review.Options{
		Root:              root,
		Concerns:          s.concerns,
		GroupBy:           groupBy,
		Version:           version,
		Discover:          buildDiscoverOpts(s.cfg),
		Jobs:              s.cfg.Jobs,
		MaxIssues:         s.cfg.MaxIssues,
		RequireDescriptor: a.requireDescriptor,
		Redact:            redact.Func(s.cfg.Privacy.RedactSecrets),
		Logger:            s.log,
	}
	if s.cache != nil {
		opts.Cache = s.cache
	}
	return opts
}

// outputOptions resolves color and width for the report destination.
func (s *session) outputOptions() output.Options {
	opts := output.Options{Width: s.cfg.Width, Registry: s.registry}
	if flagOut != "" {
		return opts
	}
	mode, _ := termcolor.ParseMode(s.cfg.Color)
	opts.Color = termcolor.Enabled(mode, os.Stdout, os.Getenv)
	if opts.Width == 0 && opts.Color {
		opts.Width = termcolor.Width(os.Stdout)
	}
	return opts
}

// runAnalysis runs one review and writes the report. It returns the exit code.
func runAnalysis(ctx context.Context, a analysis, root string, stderr io.Writer) int {
	s, err := prepare(a, root, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsageError
	}

	opts := s.options(a, root)
	if flagChanged != "" {
		files, err := gitctx.ChangedFiles(changeDir(root), flagChanged)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitRuntimeError
		}
		s.log.Debug("restricting scan to changed files", "change", flagChanged, "files", len(files))
		opts.Discover.Only = files
	}

	report, err := review.Run(ctx, s.registry, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Interrupted.")
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitRuntimeError
	}

	if err := output.WriteReport(report, s.cfg.Format, flagOut, s.outputOptions()); err != nil {
		fmt.Fprintf(stderr, "Error writing output: %v\n", err)
		return ExitRuntimeError
	}

	return gateExitCode(report, s.cfg.FailOn)
}

// changeDir is the directory git runs in for --changed.
func changeDir(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}

// gateExitCode returns ExitFindings when any issue meets the threshold.
func gateExitCode(report *review.Report, failOn string) int {
	if failOn == "none" || failOn == "" {
		return ExitSuccess
	}
	for _, is := range report.Issues {
		if review.MeetsThreshold(is.Severity, failOn) {
			return ExitFindings
		}
	}
	return ExitSuccess
}

func init() {
	for _, cmd := range []*cobra.Command{
		memoryCmd,
		architectureCmd,
		performanceCmd,
		dependenciesCmd,
		reviewCmd,
	} {
		addAnalysisFlags(cmd)
	}
}
