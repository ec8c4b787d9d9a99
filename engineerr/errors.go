// Package engineerr holds the sentinel errors shared by the analysis packages.
// Callers match them with errors.Is; packages wrap them with context.
package engineerr

import "errors"

var (
	// ErrInvalidInput marks parameters rejected before any computation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lifecycle update against a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupported marks a parameter combination an approximation cannot serve.
	ErrUnsupported = errors.New("unsupported parameters")
	// ErrInsufficientKeywords marks a cluster plan that cannot reach its minimum size.
	ErrInsufficientKeywords = errors.New("insufficient keywords")
)
