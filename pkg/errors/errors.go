// Package errors defines the sentinel errors shared by the snapshot
// storage backends.
package errors

import "errors"

var (
	// ErrNotFound indicates no snapshot exists under the requested tag.
	ErrNotFound = errors.New("snapshot not found")

	// ErrEmptyKey indicates an empty snapshot tag.
	ErrEmptyKey = errors.New("empty snapshot tag")
)
