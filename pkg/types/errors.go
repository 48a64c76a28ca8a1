// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Sentinel causes for validation failures.
var (
	ErrFileNotFound = errors.New("file not found")
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	ErrNotPDF       = errors.New("missing PDF header")
	ErrEmptyFile    = errors.New("file is empty")
)

// ValidationError reports a bad, missing, or oversized input. It is raised
// before any parsing takes place.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid PDF: %v", e.Err)
	}
	return fmt.Sprintf("invalid PDF %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LoaderError reports a failure of the external PDF structure parser.
type LoaderError struct {
	Path string
	Err  error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoaderError) Unwrap() error { return e.Err }

// AnnotationError reports a failed model call for one image. It is recovered
// per image and never aborts a run.
type AnnotationError struct {
	Index   int
	Attempt int
	Err     error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotating image %d (attempt %d): %v", e.Index, e.Attempt, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// AssemblyError reports a malformed element sequence or configuration.
type AssemblyError struct {
	Order  int
	Reason string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembling element %d: %s", e.Order, e.Reason)
}
