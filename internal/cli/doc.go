// Package cli wires together the Cobra command tree for the csreview binary.
//
// It defines the root command and all subcommands (memory, architecture,
// performance, dependencies, review, project, rules, config, cache, hook,
// watch, version), binds flags, reads configuration, invokes the review
// engine, and returns deterministic exit codes for CI gating.
package cli
