package core

import (
	"github.com/go-canopy/canopy/pkg/errors"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host"
	"github.com/go-canopy/canopy/pkg/layout"
)

// Root is one mounted tree: the adapter it renders into, the element tree,
// the layout owner, and the scheduler driving re-renders.
//
// All Root methods and all setters must be called from one goroutine, the
// tree's goroutine. Background goroutines re-enter through Scheduler.Post.
type Root struct {
	adapter   host.Adapter
	scheduler *Scheduler
	owner     *layout.Owner

	containerEl *primitiveElement
	handles     map[host.Handle]*primitiveElement
	pendingSync map[*primitiveElement]struct{}

	viewport    geometry.Size
	hasViewport bool
	unmounted   bool
}

// Option configures a Mount call.
type Option func(*mountOptions)

type mountOptions struct {
	viewport    geometry.Size
	hasViewport bool
	scheduler   *Scheduler
}

// WithViewport fixes the space the mounted tree lays out in and the size
// vw/vh dimensions resolve against. Without it the tree sizes to content
// and vw/vh resolve against a zero viewport.
func WithViewport(size geometry.Size) Option {
	return func(o *mountOptions) {
		o.viewport = size
		o.hasViewport = true
	}
}

// WithScheduler mounts onto an existing scheduler instead of a fresh one.
func WithScheduler(s *Scheduler) Option {
	return func(o *mountOptions) {
		o.scheduler = s
	}
}

// Mount builds the element tree for root inside the given host container
// handle and commits the first frame: host nodes created and attached,
// layout resolved, effects run.
//
// On partial failure both return values are non-nil: subtrees that failed
// to mount are absent, committed siblings stay, and the error describes the
// first failure. Nothing is rolled back.
func Mount(adapter host.Adapter, container host.Handle, root *Descriptor, opts ...Option) (*Root, error) {
	if adapter == nil {
		panic("canopy: Mount requires an adapter")
	}
	if root == nil {
		panic("canopy: Mount requires a root descriptor")
	}
	var o mountOptions
	for _, opt := range opts {
		opt(&o)
	}
	sched := o.scheduler
	if sched == nil {
		sched = NewScheduler()
	}

	r := &Root{
		adapter:     adapter,
		scheduler:   sched,
		owner:       layout.NewOwner(),
		handles:     make(map[host.Handle]*primitiveElement),
		pendingSync: make(map[*primitiveElement]struct{}),
		viewport:    o.viewport,
		hasViewport: o.hasViewport,
	}
	r.containerEl = &primitiveElement{
		elementBase: elementBase{root: r, mounted: true},
		handle:      container,
		node: layout.NewNode(layout.Style{
			Width:     layout.Fill(),
			Height:    layout.Fill(),
			Direction: layout.DirectionStack,
		}),
	}
	r.handles[container] = r.containerEl
	r.owner.SetViewport(o.viewport)
	r.owner.AdoptRoot(r.containerEl.node)
	r.containerEl.node.SetAvailable(o.viewport, o.hasViewport, o.hasViewport)

	el, err := mountElement(r, r.containerEl, root)
	if el != nil {
		r.containerEl.children = []element{el}
	}
	r.markContainer(r.containerEl)
	if ferr := r.flushRenders(); err == nil {
		err = ferr
	}
	r.commit()
	return r, err
}

// Update reconciles a new root descriptor against the mounted tree and
// commits the result. The returned error reflects subtrees that failed to
// mount or patch; committed siblings stay.
func (r *Root) Update(root *Descriptor) error {
	if r.unmounted {
		panic("canopy: Update called on an unmounted root")
	}
	if root == nil {
		panic("canopy: Update requires a root descriptor; use Unmount to tear the tree down")
	}
	var old element
	if len(r.containerEl.children) > 0 {
		old = r.containerEl.children[0]
	}
	el, err := updateChild(r.containerEl, old, root)
	r.containerEl.children = r.containerEl.children[:0]
	if el != nil {
		r.containerEl.children = append(r.containerEl.children, el)
	}
	r.markContainer(r.containerEl)
	// Instances dirtied during reconciliation, such as context dependents
	// behind memoized parents, render in the same tick.
	if ferr := r.flushRenders(); err == nil {
		err = ferr
	}
	r.commit()
	return err
}

// Flush runs one tick: posted tasks, then every dirty instance exactly once
// in depth order, then container sync and layout, then effects. Work
// scheduled by effects waits for the next tick. Returns the first render or
// host error of the tick.
func (r *Root) Flush() error {
	if r.unmounted {
		return nil
	}
	for _, task := range r.scheduler.takeTasks() {
		runTask(task)
	}
	err := r.flushRenders()
	r.commit()
	return err
}

func runTask(fn func()) {
	defer errors.Recover("core.Task")
	fn()
}

// flushRenders drains the dirty set, parents first, until no instance is
// dirty. Instances already reached through their parent's reconciliation
// come out of the queue clean and are skipped.
func (r *Root) flushRenders() error {
	var firstErr error
	for {
		batch := r.scheduler.takeDirty()
		if len(batch) == 0 {
			return firstErr
		}
		for _, e := range batch {
			if !e.mounted || e.inst.disposed || !e.inst.dirty {
				continue
			}
			if err := e.rerender(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
}

// commit settles the tick after rendering: host order and layout children
// sync, layout flush (frames reach the adapter through ApplyLayout), then
// effects.
func (r *Root) commit() {
	r.syncContainers()
	r.owner.Flush()
	r.flushEffectsTree()
}

// markContainer queues a host container whose child set may have changed.
func (r *Root) markContainer(p *primitiveElement) {
	r.pendingSync[p] = struct{}{}
}

func (r *Root) syncContainers() {
	if len(r.pendingSync) == 0 {
		return
	}
	batch := r.pendingSync
	r.pendingSync = make(map[*primitiveElement]struct{})
	for p := range batch {
		if p.mounted {
			r.syncContainer(p)
		}
	}
}

// syncContainer reconciles the container's layout children and host child
// order with the element tree below it. Order is restored by re-appending
// handles from the first diverging position; Append attaches or moves to
// the end, so the tail rewrite lands every child in place.
func (r *Root) syncContainer(p *primitiveElement) {
	nodes, handles := collectHostChildren(p)
	p.node.SetChildren(nodes)

	i := 0
	for i < len(handles) && i < len(p.hostKids) && p.hostKids[i] == handles[i] {
		i++
	}
	if i == len(handles) && i == len(p.hostKids) {
		return
	}
	for ; i < len(handles); i++ {
		if err := r.adapter.Append(p.handle, handles[i]); err != nil {
			tag := ""
			if child, ok := r.handles[handles[i]]; ok && child.desc != nil {
				tag = child.desc.tag
			}
			errors.Report(errors.NewHostError("host.Append", tag, err))
		}
	}
	p.hostKids = append(p.hostKids[:0:0], handles...)
}

// flushEffectsTree runs pending effects in tree order: a component's
// effects before those of the components it rendered.
func (r *Root) flushEffectsTree() {
	var walk func(els []element)
	walk = func(els []element) {
		for _, el := range els {
			if c, ok := el.(*componentElement); ok {
				c.inst.flushEffects()
			}
			walk(el.base().children)
		}
	}
	walk(r.containerEl.children)
}

// Unmount tears the tree down: effect cleanups run synchronously, the
// topmost host nodes detach from the container, and the root goes inert.
// Idempotent.
func (r *Root) Unmount() {
	if r.unmounted {
		return
	}
	for _, child := range r.containerEl.children {
		child.unmount(true)
	}
	r.containerEl.children = nil
	r.syncContainers()
	r.owner.Flush()
	r.unmounted = true
}

// NeedsWork reports whether a Flush would do anything: queued tasks, dirty
// instances, pending container syncs, or scheduled layout.
func (r *Root) NeedsWork() bool {
	if r.unmounted {
		return false
	}
	return r.scheduler.hasWork() || len(r.pendingSync) > 0 || r.owner.NeedsLayout()
}

// Scheduler returns the scheduler driving this root.
func (r *Root) Scheduler() *Scheduler {
	return r.scheduler
}

// Viewport returns the size vw/vh dimensions resolve against.
func (r *Root) Viewport() geometry.Size {
	return r.viewport
}

// SetViewport changes the viewport and invalidates mounted layout so vw/vh
// dimensions and fill roots re-resolve. Takes effect at the next Flush.
func (r *Root) SetViewport(size geometry.Size) {
	if r.unmounted {
		return
	}
	if r.hasViewport && size == r.viewport {
		return
	}
	r.viewport = size
	r.hasViewport = true
	r.owner.SetViewport(size)
	r.containerEl.node.SetAvailable(size, true, true)
	r.containerEl.node.InvalidateTree()
	r.scheduler.wake()
}

// RequestLayout marks the primitive behind a live host handle as needing
// layout. Hosts call this when a node's intrinsic content changes size
// outside the prop system. Unknown handles are ignored.
func (r *Root) RequestLayout(handle host.Handle) {
	if r.unmounted {
		return
	}
	e, ok := r.handles[handle]
	if !ok {
		return
	}
	e.node.MarkDirty()
	r.scheduler.wake()
}
