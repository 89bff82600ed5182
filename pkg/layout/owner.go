package layout

import (
	"slices"

	"github.com/go-canopy/canopy/pkg/geometry"
)

// Owner tracks layout boundaries that need processing and flushes them at
// most once per scheduling tick.
//
// Scheduling works with layout boundaries: when a node is marked dirty,
// MarkDirty walks up to the nearest boundary, flagging each node along the
// way. The boundary is enqueued here. During Flush, layout propagates from
// each boundary down through all flagged nodes; clean subtrees with
// unchanged frames are skipped.
type Owner struct {
	dirty    []*Node
	dirtySet map[*Node]bool
	needs    bool
	viewport geometry.Size
}

// NewOwner creates an empty layout owner.
func NewOwner() *Owner {
	return &Owner{}
}

// SetViewport records the viewport size used to resolve vw/vh dimensions.
// The caller is responsible for re-marking affected roots.
func (o *Owner) SetViewport(size geometry.Size) {
	o.viewport = size
}

// Viewport returns the current viewport size.
func (o *Owner) Viewport() geometry.Size {
	return o.viewport
}

// AdoptRoot attaches a tree to this owner and schedules its initial layout.
func (o *Owner) AdoptRoot(n *Node) {
	n.attach(o)
	o.schedule(n)
}

// ReleaseRoot severs a tree from this owner. Entries already scheduled for
// released nodes are skipped at flush time.
func (o *Owner) ReleaseRoot(n *Node) {
	n.detach()
}

// schedule enqueues a boundary, deduplicating repeat marks.
func (o *Owner) schedule(n *Node) {
	if o.dirtySet == nil {
		o.dirtySet = make(map[*Node]bool)
	}
	if o.dirtySet[n] {
		return
	}
	o.dirtySet[n] = true
	o.dirty = append(o.dirty, n)
	o.needs = true
}

// NeedsLayout reports whether any boundaries await layout.
func (o *Owner) NeedsLayout() bool {
	return o.needs
}

// Flush processes scheduled boundaries in depth order (parents first), so
// that a parent's layout can satisfy an enqueued descendant before the
// descendant is visited; still-clean entries are skipped. Boundaries
// scheduled while laying out are processed in the same flush.
func (o *Owner) Flush() {
	for len(o.dirty) > 0 {
		slices.SortFunc(o.dirty, func(a, b *Node) int {
			return a.depth - b.depth
		})

		batch := o.dirty
		o.dirty = nil
		o.dirtySet = nil

		for _, n := range batch {
			if n.owner != o || !n.needsLayout {
				continue
			}
			n.relayout()
		}
	}
	o.needs = false
}
