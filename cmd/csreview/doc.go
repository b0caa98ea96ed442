// Csreview is a heuristic code-review CLI for C# projects.
//
// It scans .cs sources and .csproj descriptors for resource-lifetime,
// architecture, performance and dependency-compatibility problems, emitting
// issues with deterministic exit codes suitable for CI gating and git hooks.
//
// Usage:
//
//	csreview review .                 # every check, dependencies included
//	csreview memory src/              # resource-lifetime rules only
//	csreview architecture src/        # architecture rules, grouped by type
//	csreview performance Program.cs   # performance and async rules
//	csreview dependencies App.csproj  # package compatibility checks
//	csreview project .                # print the parsed .csproj
//	csreview watch .                  # re-review on every change
package main
