package core

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-canopy/canopy/pkg/errors"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host"
)

// fakeNode is one object in the fake host's scene graph.
type fakeNode struct {
	id       int
	tag      string
	props    any
	parent   *fakeNode
	children []*fakeNode
	frame    geometry.Rect
	removed  bool
}

// fakeAdapter records every host mutation and maintains a scene graph so
// tests can assert on structure, order, and op sequences.
type fakeAdapter struct {
	root   *fakeNode
	nextID int
	ops    []string

	measure    func(tag string, props any, maxWidth float64) (geometry.Size, bool)
	failCreate func(tag string) error
	failPatch  func(tag string) error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{root: &fakeNode{tag: "container"}}
}

func (a *fakeAdapter) Create(tag string, props any, parent host.Handle) (host.Handle, error) {
	if a.failCreate != nil {
		if err := a.failCreate(tag); err != nil {
			return nil, err
		}
	}
	a.nextID++
	n := &fakeNode{id: a.nextID, tag: tag, props: props}
	a.ops = append(a.ops, "create "+tag)
	return n, nil
}

func (a *fakeAdapter) Append(parent, child host.Handle) error {
	p := parent.(*fakeNode)
	c := child.(*fakeNode)
	if c.parent != nil {
		c.parent.children = detachFake(c.parent.children, c)
	}
	c.parent = p
	p.children = append(p.children, c)
	a.ops = append(a.ops, "append "+c.tag)
	return nil
}

func (a *fakeAdapter) Remove(parent, child host.Handle) error {
	p := parent.(*fakeNode)
	c := child.(*fakeNode)
	p.children = detachFake(p.children, c)
	c.parent = nil
	c.removed = true
	a.ops = append(a.ops, "remove "+c.tag)
	return nil
}

func (a *fakeAdapter) Patch(handle host.Handle, oldProps, newProps any) error {
	n := handle.(*fakeNode)
	if a.failPatch != nil {
		if err := a.failPatch(n.tag); err != nil {
			return err
		}
	}
	n.props = newProps
	a.ops = append(a.ops, "patch "+n.tag)
	return nil
}

func (a *fakeAdapter) ApplyLayout(handle host.Handle, frame geometry.Rect) error {
	n := handle.(*fakeNode)
	n.frame = frame
	a.ops = append(a.ops, "layout "+n.tag)
	return nil
}

func (a *fakeAdapter) IntrinsicSize(tag string, props any, maxWidth float64) (geometry.Size, bool) {
	if a.measure == nil {
		return geometry.Size{}, false
	}
	return a.measure(tag, props, maxWidth)
}

func detachFake(kids []*fakeNode, c *fakeNode) []*fakeNode {
	for i, k := range kids {
		if k == c {
			return append(kids[:i], kids[i+1:]...)
		}
	}
	return kids
}

// reset clears the op log, keeping the scene graph.
func (a *fakeAdapter) reset() {
	a.ops = nil
}

// opsOf returns the recorded ops with the given verb, in order.
func (a *fakeAdapter) opsOf(verb string) []string {
	var out []string
	for _, op := range a.ops {
		if strings.HasPrefix(op, verb+" ") {
			out = append(out, op)
		}
	}
	return out
}

func (a *fakeAdapter) countOf(verb string) int {
	return len(a.opsOf(verb))
}

// findFake returns the first node in the scene graph matching pred, in
// depth-first order.
func (a *fakeAdapter) findFake(pred func(*fakeNode) bool) *fakeNode {
	var walk func(n *fakeNode) *fakeNode
	walk = func(n *fakeNode) *fakeNode {
		if pred(n) {
			return n
		}
		for _, c := range n.children {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(a.root)
}

// byContent returns the scene node of the text primitive with the given
// content, or nil.
func (a *fakeAdapter) byContent(content string) *fakeNode {
	return a.findFake(func(n *fakeNode) bool {
		p, ok := n.props.(TextProps)
		return ok && p.Content == content
	})
}

// contentsOf lists the text contents of h's children in host order.
func contentsOf(h host.Handle) []string {
	n := h.(*fakeNode)
	out := make([]string, 0, len(n.children))
	for _, c := range n.children {
		if p, ok := c.props.(TextProps); ok {
			out = append(out, p.Content)
		} else {
			out = append(out, c.tag)
		}
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mountTest mounts d on a fresh fake adapter and fails the test on error.
func mountTest(t *testing.T, d *Descriptor, opts ...Option) (*fakeAdapter, *Root) {
	t.Helper()
	a := newFakeAdapter()
	r, err := Mount(a, a.root, d, opts...)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return a, r
}

func flush(t *testing.T, r *Root) {
	t.Helper()
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

// captureHandler collects reported diagnostics for assertions.
type captureHandler struct {
	errs     []*errors.CanopyError
	panics   []*errors.PanicError
	renders  []*errors.RenderError
	warnings []*errors.Warning
}

func (h *captureHandler) HandleError(e *errors.CanopyError) { h.errs = append(h.errs, e) }

func (h *captureHandler) HandlePanic(e *errors.PanicError) { h.panics = append(h.panics, e) }

func (h *captureHandler) HandleRenderError(e *errors.RenderError) {
	h.renders = append(h.renders, e)
}

func (h *captureHandler) HandleWarning(w *errors.Warning) { h.warnings = append(h.warnings, w) }

func installCaptureHandler(t *testing.T) *captureHandler {
	t.Helper()
	h := &captureHandler{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return h
}

func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", want)
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, want) {
			t.Fatalf("panic %q does not contain %q", msg, want)
		}
	}()
	fn()
}
