package core

import (
	"github.com/go-canopy/canopy/pkg/errors"
	"github.com/go-canopy/canopy/pkg/host"
)

// canUpdateElement reports whether an element can absorb a new descriptor in
// place: same node kind, same identity (tag, component function, or context
// key) and same key.
func canUpdateElement(e element, d *Descriptor) bool {
	old := e.base().desc
	if old == nil {
		return false
	}
	if !identical(old.key, d.key) {
		return false
	}
	switch el := e.(type) {
	case *primitiveElement:
		return d.ctxKey == nil && d.fn == nil && old.tag == d.tag
	case *componentElement:
		return d.fn != nil && old.fnID == d.fnID
	case *providerElement:
		return el.key == d.ctxKey
	default:
		return false
	}
}

// updateChild reconciles one child slot: a nil descriptor unmounts, a nil
// element mounts, a matching identity updates in place, and anything else
// replaces the element.
func updateChild(parent element, old element, d *Descriptor) (element, error) {
	if d == nil {
		if old != nil {
			old.unmount(true)
		}
		return nil, nil
	}
	if old == nil {
		return mountElement(parent.base().root, parent, d)
	}
	if canUpdateElement(old, d) {
		return old, updateElement(old, d)
	}
	old.unmount(true)
	return mountElement(parent.base().root, parent, d)
}

func updateElement(e element, d *Descriptor) error {
	switch el := e.(type) {
	case *primitiveElement:
		return el.update(d)
	case *componentElement:
		return el.update(d)
	case *providerElement:
		return el.update(d)
	default:
		return nil
	}
}

// update patches the host node when props changed, refreshes style and ref,
// and reconciles children. A failed patch aborts the subtree: the element
// keeps its previous descriptor, children stay untouched, and the error
// propagates while siblings continue.
func (e *primitiveElement) update(d *Descriptor) error {
	old := e.desc
	if !identical(old.props, d.props) {
		if err := e.root.adapter.Patch(e.handle, old.props, d.props); err != nil {
			herr := errors.NewHostError("host.Patch", d.tag, err)
			errors.Report(herr)
			return herr
		}
		// Content can measure differently even when the style is unchanged.
		e.node.MarkDirty()
	}
	updateRef(old.ref, d.ref, e.handle)
	e.desc = d
	e.node.SetStyle(styleOf(d))
	return updateElementChildren(e, d.children)
}

func updateRef(old, next *Ref[host.Handle], h host.Handle) {
	if old == next {
		return
	}
	if old != nil {
		old.Current = nil
	}
	if next != nil {
		next.Current = h
	}
}

func (e *componentElement) update(d *Descriptor) error {
	if e.shouldSkip(d) {
		e.desc = d
		return nil
	}
	e.desc = d
	return e.rerender()
}

// shouldSkip is the memoized bail-out: memo enabled, instance clean, and
// props identical. Component children ride inside props, so the identity
// compare covers them; a freshly built child descriptor makes props unequal
// and forces the render.
func (e *componentElement) shouldSkip(d *Descriptor) bool {
	if d.noMemo || e.inst.dirty {
		return false
	}
	return identical(e.desc.props, d.props)
}

// update swaps the provided value and notifies readers on identity change.
// Dependents are scheduled directly, so the change reaches them even when
// every component in between skips on memo.
func (e *providerElement) update(d *Descriptor) error {
	changed := !identical(e.value, d.props)
	e.value = d.props
	e.desc = d
	if changed {
		for in := range e.dependents {
			in.markNeedsRender()
		}
	}
	return updateElementChildren(e, d.children)
}

// updateElementChildren reconciles parent's element children against a new
// descriptor list and, when the child sequence changed, queues the enclosing
// host container for an order and layout sync.
func updateElementChildren(parent element, descs []*Descriptor) error {
	pb := parent.base()
	children, err := updateChildren(parent, pb.children, descs)
	changed := !sameElements(pb.children, children)
	pb.children = children
	if changed {
		pb.root.markContainer(hostContainerOf(parent))
	}
	return err
}

// updateChildren matches an element list against a descriptor list: a top
// sync and a bottom sync absorb the unchanged fringes, the keyed middle is
// matched through a key map, and keyless middles are reused in order. Old
// children with no match unmount; new descriptors with no match mount. A
// failed child aborts only its own subtree; siblings continue and the first
// error is returned.
func updateChildren(parent element, olds []element, news []*Descriptor) ([]element, error) {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	keys := effectiveKeys(parent, news)

	oldHead, newHead := 0, 0
	oldTail, newTail := len(olds)-1, len(news)-1
	slots := make([]element, len(news))

	for oldHead <= oldTail && newHead <= newTail && canUpdateElement(olds[oldHead], news[newHead]) {
		keep(updateElement(olds[oldHead], news[newHead]))
		slots[newHead] = olds[oldHead]
		oldHead++
		newHead++
	}
	for oldHead <= oldTail && newHead <= newTail && canUpdateElement(olds[oldTail], news[newTail]) {
		keep(updateElement(olds[oldTail], news[newTail]))
		slots[newTail] = olds[oldTail]
		oldTail--
		newTail--
	}

	var oldKeyed map[any]element
	var oldFree []element
	for i := oldHead; i <= oldTail; i++ {
		old := olds[i]
		if k := old.base().desc.key; k != nil && usableKey(k) {
			if oldKeyed == nil {
				oldKeyed = make(map[any]element)
			}
			if _, taken := oldKeyed[k]; !taken {
				oldKeyed[k] = old
				continue
			}
		}
		oldFree = append(oldFree, old)
	}

	free := 0
	for i := newHead; i <= newTail; i++ {
		var old element
		if k := keys[i]; k != nil {
			if match, ok := oldKeyed[k]; ok {
				old = match
				delete(oldKeyed, k)
			}
		} else if free < len(oldFree) {
			old = oldFree[free]
			free++
		}
		el, err := updateChild(parent, old, news[i])
		keep(err)
		slots[i] = el
	}

	for _, old := range oldKeyed {
		old.unmount(true)
	}
	for ; free < len(oldFree); free++ {
		oldFree[free].unmount(true)
	}

	// Mount failures leave nil slots; drop them.
	result := slots[:0]
	for _, el := range slots {
		if el != nil {
			result = append(result, el)
		}
	}
	return result, firstErr
}

func sameElements(a, b []element) bool {
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

// effectiveKeys returns the key used to match each new child, nil for
// positional matching. Non-comparable keys and duplicates degrade to
// positional with a warning; keyless children born from a dynamic list warn
// once per parent.
func effectiveKeys(parent element, news []*Descriptor) []any {
	pb := parent.base()
	keys := make([]any, len(news))
	var seen map[any]struct{}
	for i, d := range news {
		if d.key == nil {
			if d.listBorn && !pb.warnedKeyless {
				pb.warnedKeyless = true
				errors.Warn("core.Reconcile", "list children of %s have no keys; reordering cannot preserve state", elementName(parent))
			}
			continue
		}
		if !usableKey(d.key) {
			errors.Warn("core.Reconcile", "key %v on a child of %s is not comparable; matching positionally", d.key, elementName(parent))
			continue
		}
		if seen == nil {
			seen = make(map[any]struct{})
		}
		if _, dup := seen[d.key]; dup {
			errors.Warn("core.Reconcile", "duplicate key %v among children of %s; matching positionally", d.key, elementName(parent))
			continue
		}
		seen[d.key] = struct{}{}
		keys[i] = d.key
	}
	return keys
}
