// Package apperr defines sentinel errors shared across the pipeline.
package apperr

import "errors"

var (
	// ErrNotTar means the input is not a (possibly compressed) tar file.
	ErrNotTar = errors.New("input does not appear to be a (compressed) tar file")
	// ErrGhostDBNotFound means no ghost.db entry exists within the search area.
	ErrGhostDBNotFound = errors.New("input does not contain a ghost.db within search area")
	// ErrMultipleGhostDB means the search area is ambiguous.
	ErrMultipleGhostDB = errors.New("input contains more than one ghost.db within search area")
)
