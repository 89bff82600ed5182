// Package errors provides structured error handling for the Canopy framework.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindUsage indicates a violation of the framework's calling contract.
	KindUsage
	// KindHost indicates a host adapter operation failure.
	KindHost
	// KindLayout indicates a layout computation error.
	KindLayout
	// KindRender indicates a component render error.
	KindRender
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindHost:
		return "host"
	case KindLayout:
		return "layout"
	case KindRender:
		return "render"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// CanopyError represents a structured error in the Canopy framework.
type CanopyError struct {
	// Op is the operation that failed (e.g., "host.Create").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// Tag is the host element tag involved, if applicable.
	Tag string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *CanopyError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s [%s] tag=%s: %v", e.Op, e.Kind, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *CanopyError) Unwrap() error {
	return e.Err
}

// NewHostError wraps a host adapter failure in a CanopyError.
func NewHostError(op, tag string, err error) *CanopyError {
	return &CanopyError{
		Op:        op,
		Kind:      KindHost,
		Err:       err,
		Tag:       tag,
		Timestamp: time.Now(),
	}
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Flush").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// RenderError represents a failure while rendering a component.
type RenderError struct {
	// Component is the name of the component function that failed.
	Component string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error (nil for panics).
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic rendering %s: %v", e.Component, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error rendering %s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("unknown error rendering %s", e.Component)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Warning represents a non-fatal diagnostic, such as a missing or duplicate
// key on a reconciled child list. Warnings never interrupt a frame.
type Warning struct {
	// Op is the operation that produced the warning.
	Op string
	// Message describes the condition.
	Message string
	// Timestamp is when the warning was raised.
	Timestamp time.Time
}

func (w *Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Op, w.Message)
}

// ErrorHandler receives errors reported by the Canopy framework.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *CanopyError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when a component render fails.
	HandleRenderError(err *RenderError)
	// HandleWarning is called for non-fatal diagnostics.
	HandleWarning(w *Warning)
}
