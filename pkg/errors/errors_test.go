package errors

import (
	"fmt"
	"testing"
	"time"
)

func TestCanopyErrorString(t *testing.T) {
	err := &CanopyError{
		Op:   "test.operation",
		Kind: KindHost,
		Err:  fmt.Errorf("create failed"),
	}
	got := err.Error()
	if got == "" {
		t.Error("expected non-empty error string")
	}
}

func TestCanopyErrorWithTag(t *testing.T) {
	err := &CanopyError{
		Op:   "host.Create",
		Kind: KindHost,
		Tag:  "image",
		Err:  fmt.Errorf("texture missing"),
	}
	got := err.Error()
	if got == "" {
		t.Error("expected non-empty error string")
	}
	// Should contain tag info
	want := "tag=image"
	if !contains(got, want) {
		t.Errorf("error string %q should contain %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindUsage, "usage"},
		{KindHost, "host"},
		{KindLayout, "layout"},
		{KindRender, "render"},
		{KindPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNewHostErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewHostError("host.Patch", "text", cause)
	if err.Kind != KindHost {
		t.Errorf("Kind = %v, want KindHost", err.Kind)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if err.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestPanicErrorString(t *testing.T) {
	err := &PanicError{
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic: test panic"
	if got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestPanicErrorStringWithOp(t *testing.T) {
	err := &PanicError{
		Op:        "core.Flush",
		Value:     "test panic",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic in core.Flush: test panic"
	if got != want {
		t.Errorf("PanicError.Error() = %q, want %q", got, want)
	}
}

func TestReport(t *testing.T) {
	var capturedErr *CanopyError
	handler := &testHandler{
		onError: func(err *CanopyError) {
			capturedErr = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Report(&CanopyError{
		Op:   "test.op",
		Kind: KindLayout,
		Err:  fmt.Errorf("negative available space"),
	})

	if capturedErr == nil {
		t.Error("expected error to be captured")
	}
	if capturedErr.Op != "test.op" {
		t.Errorf("Op = %q, want %q", capturedErr.Op, "test.op")
	}
	if capturedErr.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestReportPanic(t *testing.T) {
	var capturedPanic *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			capturedPanic = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	ReportPanic(&PanicError{
		Value:     "test panic value",
		Timestamp: time.Now(),
	})

	if capturedPanic == nil {
		t.Error("expected panic to be captured")
	}
	if capturedPanic.Value != "test panic value" {
		t.Errorf("Value = %v, want %q", capturedPanic.Value, "test panic value")
	}
}

func TestRecover(t *testing.T) {
	var capturedPanic *PanicError
	handler := &testHandler{
		onPanic: func(err *PanicError) {
			capturedPanic = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	func() {
		defer Recover("test.recover")
		panic("intentional test panic")
	}()

	if capturedPanic == nil {
		t.Error("expected panic to be recovered and captured")
	}
	if capturedPanic.Value != "intentional test panic" {
		t.Errorf("Value = %v, want %q", capturedPanic.Value, "intentional test panic")
	}
	if capturedPanic.Op != "test.recover" {
		t.Errorf("Op = %q, want %q", capturedPanic.Op, "test.recover")
	}
}

func TestCaptureStack(t *testing.T) {
	stack := CaptureStack()
	if stack == "" {
		t.Error("expected non-empty stack trace")
	}
	// Stack should contain some runtime info (either test function or testing infrastructure)
	if !contains(stack, "testing") && !contains(stack, "runtime") {
		t.Errorf("stack trace should contain testing or runtime frames, got: %s", stack)
	}
}

func TestSetHandlerNil(t *testing.T) {
	SetHandler(nil)
	if DefaultHandler == nil {
		t.Error("SetHandler(nil) should set default LogHandler, not nil")
	}
	if _, ok := DefaultHandler.(*LogHandler); !ok {
		t.Errorf("SetHandler(nil) should set LogHandler, got %T", DefaultHandler)
	}
}

func TestRenderErrorString(t *testing.T) {
	// Test with panic value
	err := &RenderError{
		Component: "Counter",
		Recovered: "nil pointer dereference",
		Timestamp: time.Now(),
	}
	got := err.Error()
	want := "panic rendering Counter: nil pointer dereference"
	if got != want {
		t.Errorf("RenderError.Error() = %q, want %q", got, want)
	}

	// Test with error
	err2 := &RenderError{
		Component: "Counter",
		Err:       fmt.Errorf("bad props"),
		Timestamp: time.Now(),
	}
	got2 := err2.Error()
	if !contains(got2, "error rendering Counter") {
		t.Errorf("RenderError.Error() = %q, should contain 'error rendering'", got2)
	}

	// Test unknown error
	err3 := &RenderError{
		Component: "Counter",
	}
	got3 := err3.Error()
	want3 := "unknown error rendering Counter"
	if got3 != want3 {
		t.Errorf("RenderError.Error() = %q, want %q", got3, want3)
	}
}

func TestReportRenderError(t *testing.T) {
	var capturedErr *RenderError
	handler := &testHandler{
		onRenderError: func(err *RenderError) {
			capturedErr = err
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	ReportRenderError(&RenderError{
		Component: "App",
		Recovered: "test panic",
	})

	if capturedErr == nil {
		t.Error("expected render error to be captured")
	}
	if capturedErr.Component != "App" {
		t.Errorf("Component = %q, want %q", capturedErr.Component, "App")
	}
	if capturedErr.Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestWarn(t *testing.T) {
	var captured *Warning
	handler := &testHandler{
		onWarning: func(w *Warning) {
			captured = w
		},
	}

	oldHandler := DefaultHandler
	SetHandler(handler)
	defer SetHandler(oldHandler)

	Warn("core.reconcile", "duplicate key %q among siblings", "row-1")

	if captured == nil {
		t.Fatal("expected warning to be captured")
	}
	if captured.Op != "core.reconcile" {
		t.Errorf("Op = %q, want %q", captured.Op, "core.reconcile")
	}
	want := `duplicate key "row-1" among siblings`
	if captured.Message != want {
		t.Errorf("Message = %q, want %q", captured.Message, want)
	}
}

type testHandler struct {
	onError       func(*CanopyError)
	onPanic       func(*PanicError)
	onRenderError func(*RenderError)
	onWarning     func(*Warning)
}

func (h *testHandler) HandleError(err *CanopyError) {
	if h.onError != nil {
		h.onError(err)
	}
}

func (h *testHandler) HandlePanic(err *PanicError) {
	if h.onPanic != nil {
		h.onPanic(err)
	}
}

func (h *testHandler) HandleRenderError(err *RenderError) {
	if h.onRenderError != nil {
		h.onRenderError(err)
	}
}

func (h *testHandler) HandleWarning(w *Warning) {
	if h.onWarning != nil {
		h.onWarning(w)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsAt(s, substr, 0))
}

func containsAt(s, substr string, start int) bool {
	for i := start; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
