// Package review contains the core types and engine for heuristic C# code
// review.
//
// Rules are declared once in a Registry (builtin.go) and pair a Predicate
// with a concern, a severity and a message template. Scan evaluates source
// rules against one file's text, consulting a brace-counting Tracker for
// iteration depth; CheckDependencies evaluates package rules against a
// parsed project descriptor. Both produce RawMatch values, which an
// Aggregator turns into deduplicated Issues in first-seen order.
//
// Run ties the pieces together: it discovers files, scans them in parallel
// with bounded concurrency, merges results in discovery order so output is
// deterministic, and records unreadable files as failures instead of
// aborting.
//
// Rules packs (rules.go) disable rules, override severities by rule or
// concern, and narrow full reviews to a set of focus concerns.
package review
