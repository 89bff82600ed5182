package core

import (
	"strings"
	"time"

	"github.com/go-canopy/canopy/pkg/errors"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host"
	"github.com/go-canopy/canopy/pkg/layout"
)

// element is one mounted node of the live tree. Elements persist across
// renders; descriptors are re-created every render and reconciled against
// the element tree.
type element interface {
	base() *elementBase

	// unmount tears down the subtree. removeHost tells the topmost
	// primitives of the subtree to detach from their host container;
	// deeper primitives die with their parent and skip the host call.
	unmount(removeHost bool)
}

type elementBase struct {
	root     *Root
	parent   element
	depth    int
	desc     *Descriptor
	mounted  bool
	children []element

	warnedKeyless bool
}

func (b *elementBase) base() *elementBase { return b }

// componentElement runs a component function and owns its hook instance.
type componentElement struct {
	elementBase
	inst *instance
}

// primitiveElement owns a host handle and a layout node. Its host children
// are the topmost primitive descendants of its element children; hostKids
// mirrors the adapter-side order.
type primitiveElement struct {
	elementBase
	handle   host.Handle
	node     *layout.Node
	hostKids []host.Handle
}

// providerElement supplies a context value to its subtree and tracks the
// instances that read it.
type providerElement struct {
	elementBase
	key        *contextKey
	value      any
	dependents map[*instance]struct{}
}

// mountElement creates and mounts the element tree for a descriptor. On
// error the returned element may be non-nil with a partially mounted
// subtree; committed parts stay, nothing is rolled back.
func mountElement(r *Root, parent element, d *Descriptor) (element, error) {
	switch {
	case d.ctxKey != nil:
		return mountProvider(r, parent, d)
	case d.fn != nil:
		return mountComponent(r, parent, d)
	default:
		return mountPrimitive(r, parent, d)
	}
}

func newBase(r *Root, parent element, d *Descriptor) elementBase {
	return elementBase{
		root:    r,
		parent:  parent,
		depth:   parent.base().depth + 1,
		desc:    d,
		mounted: true,
	}
}

func mountPrimitive(r *Root, parent element, d *Descriptor) (element, error) {
	container := hostContainerOf(parent)
	handle, err := r.adapter.Create(d.tag, d.props, container.handle)
	if err != nil {
		herr := errors.NewHostError("host.Create", d.tag, err)
		errors.Report(herr)
		return nil, herr
	}

	e := &primitiveElement{
		elementBase: newBase(r, parent, d),
		handle:      handle,
	}
	e.node = layout.NewNode(styleOf(d))
	e.node.SetOnCommit(func(frame geometry.Rect) {
		if aerr := r.adapter.ApplyLayout(e.handle, frame); aerr != nil {
			errors.Report(errors.NewHostError("host.ApplyLayout", e.desc.tag, aerr))
		}
	})
	if sizer, ok := r.adapter.(host.IntrinsicSizer); ok {
		e.node.SetMeasureFunc(func(maxWidth float64) geometry.Size {
			size, ok := sizer.IntrinsicSize(e.desc.tag, e.desc.props, maxWidth)
			if !ok {
				return geometry.Size{}
			}
			return size
		})
	}
	r.handles[handle] = e

	err = mountChildren(r, e, d.children)

	if aerr := r.adapter.Append(container.handle, handle); aerr != nil {
		errors.Report(errors.NewHostError("host.Append", d.tag, aerr))
	} else {
		container.hostKids = appendHandle(container.hostKids, handle)
	}
	r.markContainer(container)

	if d.ref != nil {
		d.ref.Current = handle
	}
	return e, err
}

func mountComponent(r *Root, parent element, d *Descriptor) (element, error) {
	e := &componentElement{elementBase: newBase(r, parent, d)}
	e.inst = &instance{el: e}

	out, err := e.runRender()
	if err != nil {
		return e, err
	}
	return e, mountChildren(r, e, out)
}

func mountProvider(r *Root, parent element, d *Descriptor) (element, error) {
	e := &providerElement{
		elementBase: newBase(r, parent, d),
		key:         d.ctxKey,
		value:       d.props,
	}
	return e, mountChildren(r, e, d.children)
}

// mountChildren mounts each child descriptor under parent. A failed child is
// skipped; its siblings still mount and the first error is returned.
func mountChildren(r *Root, parent element, descs []*Descriptor) error {
	var firstErr error
	pb := parent.base()
	for _, cd := range descs {
		child, err := mountElement(r, parent, cd)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if child != nil {
			pb.children = append(pb.children, child)
		}
	}
	return firstErr
}

func (e *componentElement) unmount(removeHost bool) {
	if !e.mounted {
		return
	}
	e.mounted = false
	e.inst.dispose()
	for _, child := range e.children {
		child.unmount(removeHost)
	}
	e.children = nil
}

func (e *primitiveElement) unmount(removeHost bool) {
	if !e.mounted {
		return
	}
	e.mounted = false
	for _, child := range e.children {
		child.unmount(false)
	}
	e.children = nil

	delete(e.root.handles, e.handle)
	if e.desc.ref != nil {
		e.desc.ref.Current = nil
	}
	if removeHost {
		container := hostContainerOf(e.parent)
		if err := e.root.adapter.Remove(container.handle, e.handle); err != nil {
			errors.Report(errors.NewHostError("host.Remove", e.desc.tag, err))
		}
		container.hostKids = removeHandle(container.hostKids, e.handle)
		e.root.markContainer(container)
	}
}

func (e *providerElement) unmount(removeHost bool) {
	if !e.mounted {
		return
	}
	e.mounted = false
	for _, child := range e.children {
		child.unmount(removeHost)
	}
	e.children = nil
	e.dependents = nil
}

// addDependent subscribes an instance to the provider's value changes. The
// subscription lives until the instance disposes.
func (p *providerElement) addDependent(in *instance) {
	if in.disposed || !p.mounted {
		return
	}
	if p.dependents == nil {
		p.dependents = make(map[*instance]struct{})
	}
	p.dependents[in] = struct{}{}
	if in.providers == nil {
		in.providers = make(map[*providerElement]struct{})
	}
	in.providers[p] = struct{}{}
}

// runRender executes the component function with the instance current,
// converting panics and contract violations into a RenderError. The error
// is reported here; callers propagate it without re-reporting.
func (e *componentElement) runRender() (children []*Descriptor, err error) {
	in := e.inst
	prev := in.beginRender()
	defer func() {
		if r := recover(); r != nil {
			current = prev
			rerr := &errors.RenderError{
				Component:  e.componentName(),
				Recovered:  r,
				StackTrace: errors.CaptureStack(),
				Timestamp:  time.Now(),
			}
			errors.ReportRenderError(rerr)
			err = rerr
		}
	}()
	out := e.desc.fn(e.desc.props)
	children = normalizeResult(out)
	in.endRender(prev)
	return children, nil
}

// rerender runs the component again and reconciles its output. On render
// failure the previous subtree is kept.
func (e *componentElement) rerender() error {
	out, err := e.runRender()
	if err != nil {
		return err
	}
	return updateElementChildren(e, out)
}

func (e *componentElement) componentName() string {
	if e == nil || e.desc == nil {
		return "component"
	}
	name := e.desc.fnName
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// elementName names an element for diagnostics.
func elementName(e element) string {
	switch el := e.(type) {
	case *primitiveElement:
		if el.desc == nil {
			return "root container"
		}
		return el.desc.tag
	case *componentElement:
		return el.componentName()
	case *providerElement:
		if el.key.name != "" {
			return "context " + el.key.name
		}
		return "context provider"
	default:
		return "element"
	}
}

// hostContainerOf returns the nearest primitive at or above e. The walk
// always terminates: the root container element is a primitive.
func hostContainerOf(e element) *primitiveElement {
	for ; e != nil; e = e.base().parent {
		if p, ok := e.(*primitiveElement); ok {
			return p
		}
	}
	panic("canopy: element tree has no host container")
}

// collectHostChildren gathers the layout nodes and handles of the topmost
// primitive descendants of p, in tree order. Components and providers are
// transparent; primitives are collected without descending, since their own
// node and handle own everything below.
func collectHostChildren(p *primitiveElement) ([]*layout.Node, []host.Handle) {
	var nodes []*layout.Node
	var handles []host.Handle
	var walk func(els []element)
	walk = func(els []element) {
		for _, el := range els {
			if prim, ok := el.(*primitiveElement); ok {
				nodes = append(nodes, prim.node)
				handles = append(handles, prim.handle)
				continue
			}
			walk(el.base().children)
		}
	}
	walk(p.children)
	return nodes, handles
}

// appendHandle records an attach-or-move-to-end in the order mirror.
func appendHandle(kids []host.Handle, h host.Handle) []host.Handle {
	return append(removeHandle(kids, h), h)
}

func removeHandle(kids []host.Handle, h host.Handle) []host.Handle {
	for i, k := range kids {
		if k == h {
			return append(kids[:i], kids[i+1:]...)
		}
	}
	return kids
}
