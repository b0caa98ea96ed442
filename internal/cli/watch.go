package cli

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dantiw/csreview/internal/discover"
	"github.com/dantiw/csreview/internal/project"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-run the full review whenever a source or project file changes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		info, err := os.Stat(root)
		if err != nil {
			fail(ExitRuntimeError, err)
			return nil
		}
		if !info.IsDir() {
			fail(ExitUsageError, fmt.Errorf("watch needs a directory, got %s", root))
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		w, err := fsnotify.NewWatcher()
		if err != nil {
			fail(ExitRuntimeError, fmt.Errorf("watch init failed: %w", err))
			return nil
		}
		defer w.Close()
		if err := addWatchRecursive(w, root); err != nil {
			fail(ExitRuntimeError, fmt.Errorf("watch failed: %w", err))
			return nil
		}

		log := newLogger(os.Stderr, flagVerbose)
		trigger := func() {
			fmt.Fprintf(os.Stderr, "\n--- csreview %s ---\n", root)
			exitCode = runAnalysis(ctx, reviewAnalysis, root, os.Stderr)
		}
		trigger()
		watchLoop(ctx, w, watchDebounce, relevantChange, trigger, log)
		return nil
	},
}

// addWatchRecursive watches root and every directory below it that
// discovery would descend into.
func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skippedDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func skippedDir(name string) bool {
	for _, d := range discover.DefaultSkipDirs {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// relevantChange reports whether a change to path can alter a report:
// C# sources, project descriptors and csreview config files.
func relevantChange(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if skippedDir(part) {
			return false
		}
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".csreview.") {
		return true
	}
	ext := filepath.Ext(base)
	return strings.EqualFold(ext, ".cs") || strings.EqualFold(ext, project.Extension)
}

// watchLoop calls trigger once per burst of relevant events, after the
// burst has been quiet for debounce. trigger runs on the loop goroutine, so
// runs never overlap. New directories are watched as they appear.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, relevant func(string) bool, trigger func(), log *slog.Logger) {
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skippedDir(info.Name()) {
					if err := addWatchRecursive(w, ev.Name); err != nil {
						log.Warn("cannot watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			if !relevant(ev.Name) {
				continue
			}
			log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(debounce)
		case <-timer.C:
			trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn("watch error", "error", err)
		}
	}
}

func init() {
	addAnalysisFlags(watchCmd)
}

