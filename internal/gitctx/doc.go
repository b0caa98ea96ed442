// Package gitctx lists the files a git change touches.
//
// It backs the --changed flag: staged, unstaged or a revision range. Paths
// come back absolute so they can be intersected with discovery results.
// Deleted files are never reported.
package gitctx
