package core

import (
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host"
)

// TreeNode is a read-only view of one mounted element, for test harnesses
// and tooling. Views stay valid as long as the element is mounted; holding
// one across an Update or Flush may observe a node that has since left the
// tree.
type TreeNode struct {
	el element
}

// Tree returns a view of the mounted root element. After a failed mount the
// view can be invalid; check Valid before walking.
func (r *Root) Tree() TreeNode {
	if len(r.containerEl.children) == 0 {
		return TreeNode{}
	}
	return TreeNode{el: r.containerEl.children[0]}
}

// Valid reports whether the view refers to an element.
func (n TreeNode) Valid() bool {
	return n.el != nil
}

// Descriptor returns the descriptor the element last absorbed.
func (n TreeNode) Descriptor() *Descriptor {
	if n.el == nil {
		return nil
	}
	return n.el.base().desc
}

// Tag returns the primitive tag, or "" for components and providers.
func (n TreeNode) Tag() string {
	if p, ok := n.el.(*primitiveElement); ok {
		return p.desc.tag
	}
	return ""
}

// ComponentName returns the component's function name, or "" for primitives
// and providers.
func (n TreeNode) ComponentName() string {
	if c, ok := n.el.(*componentElement); ok {
		return c.componentName()
	}
	return ""
}

// Handle returns a primitive's host handle, nil for other nodes.
func (n TreeNode) Handle() host.Handle {
	if p, ok := n.el.(*primitiveElement); ok {
		return p.handle
	}
	return nil
}

// Frame returns a primitive's last committed layout frame. The second
// result is false for components and providers, which have no frame of
// their own.
func (n TreeNode) Frame() (geometry.Rect, bool) {
	if p, ok := n.el.(*primitiveElement); ok {
		return p.node.Frame(), true
	}
	return geometry.Rect{}, false
}

// Children returns the node's children in tree order.
func (n TreeNode) Children() []TreeNode {
	if n.el == nil {
		return nil
	}
	kids := n.el.base().children
	out := make([]TreeNode, len(kids))
	for i, c := range kids {
		out[i] = TreeNode{el: c}
	}
	return out
}

// Visit walks the subtree in pre-order. Returning false prunes the node's
// children; siblings continue.
func (n TreeNode) Visit(fn func(TreeNode) bool) {
	if n.el == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Visit(fn)
	}
}
