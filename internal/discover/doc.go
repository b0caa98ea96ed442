// Package discover lists the source files a review covers and reads them.
//
// [List] walks a directory recursively, keeps files with the configured
// extensions (".cs" by default), skips build output and tool directories
// (bin, obj, .git, .vs, node_modules, packages, TestResults) and applies
// include/exclude globs to the path relative to the root. A path that is
// already a file is passed through unchanged. [Read] returns a file's text
// and classifies failures with package scanerr.
package discover
