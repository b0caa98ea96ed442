// Package scanerr classifies the failures a review invocation can hit.
//
// Three kinds exist: [NotFound] when a path does not exist, [IOFailure] when a
// file or descriptor cannot be read, and [MalformedDescriptor] when a project
// descriptor is present but cannot be decoded. A path that yields zero source
// files is not an error; callers see it as a report with no scanned files.
//
// Errors carry the offending path and wrap the underlying cause so that
// [errors.Is] and [errors.As] work through the usual %w chains.
package scanerr
