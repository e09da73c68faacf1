// Package vaulterr defines the error values shared by the browse, search and
// link components. Callers wrap them with fmt.Errorf("%w: ...") and test them
// with errors.Is.
package vaulterr

import (
	"context"
	"errors"
)

var (
	// ErrPathTraversal is returned when a resolved path escapes the browse root.
	ErrPathTraversal = errors.New("path outside of allowed root")

	// ErrNotFound is returned when a requested path does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrNotADirectory is returned when a directory was expected.
	ErrNotADirectory = errors.New("not a directory")

	// ErrLinkUnavailable is returned when no deep-link mode is configured or
	// the note cannot be expressed in the configured mode.
	ErrLinkUnavailable = errors.New("obsidian link unavailable")

	// ErrUnreadableEntry marks a single file or directory that could not be
	// read. During scans it is reported and skipped.
	ErrUnreadableEntry = errors.New("unreadable entry")
)

// Kind returns a short machine-readable name for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPathTraversal):
		return "path_traversal"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotADirectory):
		return "not_a_directory"
	case errors.Is(err, ErrLinkUnavailable):
		return "link_unavailable"
	case errors.Is(err, ErrUnreadableEntry):
		return "unreadable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
