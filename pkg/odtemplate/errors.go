package odtemplate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when the source archive has no content entry.
	ErrNoContent = errors.New("content entry not found in archive")
	// ErrBarrierUnsatisfied is returned when the pipeline finished without every
	// source entry reaching the output.
	ErrBarrierUnsatisfied = errors.New("not all entries were written")
	// ErrClosed is the run error of a template closed before processing started.
	ErrClosed = errors.New("template closed")
)

// SourceReadError represents a source archive that cannot be read
type SourceReadError struct {
	Path  string
	Cause error
}

func (e *SourceReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("source read error for '%s': %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("source read error: %v", e.Cause)
}

func (e *SourceReadError) Unwrap() error {
	return e.Cause
}

// ParseError represents a malformed content entry
type ParseError struct {
	Entry string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in '%s': %v", e.Entry, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// HandlerError represents a content handler that rejected the document.
// Index is the position of the handler in registration order.
type HandlerError struct {
	Index int
	Cause error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d failed: %v", e.Index, e.Cause)
}

func (e *HandlerError) Unwrap() error {
	return e.Cause
}

// StyleNameError represents a cell style whose name does not end in a row
// number, so no per-row name can be derived from it.
type StyleNameError struct {
	Table string
	Style string
}

func (e *StyleNameError) Error() string {
	return fmt.Sprintf("style name '%s' in table '%s' does not match <prefix><digits>", e.Style, e.Table)
}

// AppendError represents a failure writing an entry to the output archive
type AppendError struct {
	Entry string
	Cause error
}

func (e *AppendError) Error() string {
	return fmt.Sprintf("append error for '%s': %v", e.Entry, e.Cause)
}

func (e *AppendError) Unwrap() error {
	return e.Cause
}

// FinalizeError represents a failure sealing the output archive
type FinalizeError struct {
	Cause error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize error: %v", e.Cause)
}

func (e *FinalizeError) Unwrap() error {
	return e.Cause
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsSourceReadError checks if an error is a source read error
func IsSourceReadError(err error) bool {
	var target *SourceReadError
	return errors.As(err, &target)
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsHandlerError checks if an error is a handler error
func IsHandlerError(err error) bool {
	var target *HandlerError
	return errors.As(err, &target)
}

// IsStyleNameError checks if an error is a style name convention error
func IsStyleNameError(err error) bool {
	var target *StyleNameError
	return errors.As(err, &target)
}

// IsAppendError checks if an error is an append error
func IsAppendError(err error) bool {
	var target *AppendError
	return errors.As(err, &target)
}

// IsFinalizeError checks if an error is a finalize error
func IsFinalizeError(err error) bool {
	var target *FinalizeError
	return errors.As(err, &target)
}
