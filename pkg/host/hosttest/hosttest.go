// Package hosttest provides an in-memory recording host for exercising
// mounted trees without an engine binding, in the spirit of
// net/http/httptest: mount against New().Container(), then assert on the
// recorded ops and the scene graph.
package hosttest

import (
	"fmt"
	"strings"

	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host"
	"github.com/go-canopy/canopy/pkg/text"
)

// Node is one object in the fake scene graph.
type Node struct {
	Tag   string
	Props any
	Frame geometry.Rect

	parent   *Node
	children []*Node
	removed  bool
}

// Parent returns the node's parent, nil for the container and for removed
// nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children in host order. Callers must not
// mutate the slice.
func (n *Node) Children() []*Node {
	return n.children
}

// Removed reports whether the node was destroyed through Remove.
func (n *Node) Removed() bool {
	return n.removed
}

// Op is one recorded adapter call.
type Op struct {
	Kind string // "create", "append", "remove", "patch", "layout"
	Tag  string
}

func (o Op) String() string {
	return o.Kind + " " + o.Tag
}

// Host records every adapter call and maintains the scene graph the calls
// describe. Text leaves measure through a real font face, so layout results
// are deterministic and exact.
//
// Like any adapter, a Host is driven from the mount's goroutine; it is not
// safe for concurrent use.
type Host struct {
	root     *Node
	ops      []Op
	measurer *text.Measurer

	// FailCreate and FailPatch inject adapter failures. When the function
	// is non-nil and returns a non-nil error for a tag, the corresponding
	// call fails with it.
	FailCreate func(tag string) error
	FailPatch  func(tag string) error
}

// New creates an empty host with the bundled default font face.
func New() *Host {
	return &Host{
		root:     &Node{Tag: "container"},
		measurer: text.NewMeasurer(),
	}
}

// Container returns the handle to pass to Mount.
func (h *Host) Container() host.Handle {
	return h.root
}

// Root returns the container node of the scene graph.
func (h *Host) Root() *Node {
	return h.root
}

// Measurer returns the text measurer used for intrinsic sizing, so callers
// can register additional font faces.
func (h *Host) Measurer() *text.Measurer {
	return h.measurer
}

func (h *Host) Create(tag string, props any, parent host.Handle) (host.Handle, error) {
	if h.FailCreate != nil {
		if err := h.FailCreate(tag); err != nil {
			return nil, err
		}
	}
	n := &Node{Tag: tag, Props: props}
	h.record("create", tag)
	return n, nil
}

func (h *Host) Append(parent, child host.Handle) error {
	p := parent.(*Node)
	c := child.(*Node)
	if c.parent != nil {
		c.parent.children = detach(c.parent.children, c)
	}
	c.parent = p
	p.children = append(p.children, c)
	h.record("append", c.Tag)
	return nil
}

func (h *Host) Remove(parent, child host.Handle) error {
	p := parent.(*Node)
	c := child.(*Node)
	p.children = detach(p.children, c)
	c.parent = nil
	c.removed = true
	h.record("remove", c.Tag)
	return nil
}

func (h *Host) Patch(handle host.Handle, oldProps, newProps any) error {
	n := handle.(*Node)
	if h.FailPatch != nil {
		if err := h.FailPatch(n.Tag); err != nil {
			return err
		}
	}
	n.Props = newProps
	h.record("patch", n.Tag)
	return nil
}

func (h *Host) ApplyLayout(handle host.Handle, frame geometry.Rect) error {
	n := handle.(*Node)
	n.Frame = frame
	h.record("layout", n.Tag)
	return nil
}

// IntrinsicSize measures text nodes through the host's font face and
// reports the natural size of images that declare one. Other tags have no
// intrinsic size.
func (h *Host) IntrinsicSize(tag string, props any, maxWidth float64) (geometry.Size, bool) {
	switch p := props.(type) {
	case core.TextProps:
		return h.measurer.LayoutText(p.Content, p.FontFamily, maxWidth).Size, true
	case core.ImageProps:
		if p.Width > 0 && p.Height > 0 {
			return geometry.Size{Width: p.Width, Height: p.Height}, true
		}
	}
	return geometry.Size{}, false
}

func detach(kids []*Node, c *Node) []*Node {
	for i, k := range kids {
		if k == c {
			return append(kids[:i], kids[i+1:]...)
		}
	}
	return kids
}

func (h *Host) record(kind, tag string) {
	h.ops = append(h.ops, Op{Kind: kind, Tag: tag})
}

// Ops returns the recorded adapter calls in order. Callers must not mutate
// the slice.
func (h *Host) Ops() []Op {
	return h.ops
}

// CountOf returns how many recorded ops have the given kind.
func (h *Host) CountOf(kind string) int {
	count := 0
	for _, op := range h.ops {
		if op.Kind == kind {
			count++
		}
	}
	return count
}

// ResetOps clears the op log. The scene graph is kept.
func (h *Host) ResetOps() {
	h.ops = nil
}

// Find returns the first node matching pred in depth-first order, or nil.
func (h *Host) Find(pred func(*Node) bool) *Node {
	var walk func(*Node) *Node
	walk = func(n *Node) *Node {
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
	return walk(h.root)
}

// FindText returns the first text node with exactly the given content, or
// nil.
func (h *Host) FindText(content string) *Node {
	return h.Find(func(n *Node) bool {
		p, ok := n.Props.(core.TextProps)
		return ok && p.Content == content
	})
}

// TreeString renders the scene graph as an indented outline: one node per
// line with its tag, text content if any, and committed frame.
func (h *Host) TreeString() string {
	var b strings.Builder
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Tag)
		if p, ok := n.Props.(core.TextProps); ok {
			fmt.Fprintf(&b, " %q", p.Content)
		}
		fmt.Fprintf(&b, " [%g %g %g %g]\n", n.Frame.Left, n.Frame.Top, n.Frame.Width(), n.Frame.Height())
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	walk(h.root, 0)
	return b.String()
}
