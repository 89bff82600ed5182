// Package host defines the boundary between the Canopy core and a concrete
// retained-mode scene graph. The reconciler and layout engine depend only on
// the Adapter interface; engine-specific bindings implement it.
package host

import (
	"github.com/go-canopy/canopy/pkg/geometry"
)

// Handle is an opaque reference to a host scene-graph object. The core never
// inspects a Handle; it only passes handles back to the adapter that created
// them. Handles must be comparable values (valid map keys): the core indexes
// by handle and compares handles to detect order divergence. Pointers,
// integers and strings all qualify.
type Handle = any

// Adapter is implemented by engine bindings. All methods are invoked from
// the goroutine driving the mount's scheduler.
//
// Create instantiates a host object for a primitive tag. The parent handle
// is provided as context (some engines need the parent at construction
// time); attachment itself happens through Append. A nil parent denotes the
// mount container.
//
// Append attaches child under parent at the end of its child list. If child
// is already attached to parent, Append moves it to the end instead. The
// core relies on this move-to-end behavior to restore sibling order after
// keyed reorders.
//
// Remove detaches child from parent and destroys it, including any
// host-side resources. The handle must not be used afterwards.
//
// Patch applies a prop change to an existing object. Both the previous and
// next prop values are provided so bindings can diff cheaply. Patch is only
// called when the core's shallow comparison found a difference.
//
// ApplyLayout commits a resolved layout frame to the object. Frames are in
// the parent's coordinate space.
//
// Create and Patch may fail; a failure aborts the mount or update of that
// subtree and propagates to the caller, leaving previously committed
// siblings intact. Append, Remove and ApplyLayout are expected to succeed on
// valid handles; returned errors are reported but do not unwind the frame.
type Adapter interface {
	Create(tag string, props any, parent Handle) (Handle, error)
	Append(parent, child Handle) error
	Remove(parent, child Handle) error
	Patch(handle Handle, oldProps, newProps any) error
	ApplyLayout(handle Handle, frame geometry.Rect) error
}

// IntrinsicSizer is an optional adapter capability for hosts whose leaf
// elements have content-determined natural sizes (text runs, images). When
// implemented, the layout engine consults it to measure auto-sized leaves.
// maxWidth is the available width in pixels, or positive infinity when
// unconstrained. The boolean result is false when the tag has no intrinsic
// size, in which case the leaf measures as zero.
type IntrinsicSizer interface {
	IntrinsicSize(tag string, props any, maxWidth float64) (geometry.Size, bool)
}
