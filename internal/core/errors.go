package core

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentUnreadable means the path is missing, not a PDF, or has no pages.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrPageOCRFailure is recorded per page and never fails a batch.
	ErrPageOCRFailure = errors.New("page ocr failure")
	// ErrNoTextExtracted means every page came back empty.
	ErrNoTextExtracted = errors.New("no text extracted")
	// ErrEmbeddingFailure marks a single text that could not be embedded.
	ErrEmbeddingFailure = errors.New("embedding failure")
	// ErrCacheCorruption is only ever logged; lookups report a miss instead.
	ErrCacheCorruption = errors.New("cache corruption")
	// ErrSessionNotFound is returned for unknown loaded-document ids.
	ErrSessionNotFound = errors.New("session not found")
)

// PipelineError is a typed failure with a readable message.
// errors.Is matches both Kind and the wrapped cause.
type PipelineError struct {
	Kind    error
	Op      string
	Subject string
	Err     error
}

func (e *PipelineError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Subject != "" {
		msg += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a PipelineError of the given kind.
func NewError(kind error, op, subject string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Unreadable is shorthand for an ErrDocumentUnreadable failure on path.
func Unreadable(path string, err error) error {
	return NewError(ErrDocumentUnreadable, "rasterize", path, err)
}
