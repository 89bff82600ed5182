package core

import (
	"fmt"

	"github.com/go-canopy/canopy/pkg/errors"
)

// current is the instance whose component function is executing. Hooks read
// it to find their slots. Renders run on the goroutine that calls Mount or
// Flush; concurrent renders from multiple goroutines are not supported.
var current *instance

// slotKind discriminates the hook slot types for the order check.
type slotKind int

const (
	slotState slotKind = iota
	slotEffect
	slotMemo
	slotRef
)

func (k slotKind) String() string {
	switch k {
	case slotState:
		return "UseState"
	case slotEffect:
		return "UseEffect"
	case slotMemo:
		return "UseMemo"
	case slotRef:
		return "UseRef"
	default:
		return fmt.Sprintf("slotKind(%d)", int(k))
	}
}

// slot is one hook call's persistent storage. The fields in use depend on
// the kind.
type slot struct {
	kind slotKind

	// box holds the *cell[T] for state slots, the memoized value for memo
	// slots, and the *Ref[T] for ref slots.
	box    any
	setter any

	effect        func() func()
	cleanup       func()
	deps          []any
	initialized   bool
	pendingEffect bool
}

// instance is the persistent record behind one mounted component: its hook
// slots in call order, its render scheduling state, and a back-pointer to
// the element for scheduling. providers tracks context subscriptions for
// teardown.
type instance struct {
	el        *componentElement
	slots     []*slot
	cursor    int
	sealed    bool
	dirty     bool
	disposed  bool
	providers map[*providerElement]struct{}
}

// beginRender commits pending state values, resets the slot cursor, and
// makes the instance current. Callers must pair it with endRender.
func (in *instance) beginRender() *instance {
	for _, s := range in.slots {
		if s.kind == slotState {
			s.box.(committer).commit()
		}
	}
	in.cursor = 0
	in.dirty = false
	prev := current
	current = in
	return prev
}

// endRender restores the previous current instance and enforces that the
// render consumed every slot the first render allocated.
func (in *instance) endRender(prev *instance) {
	current = prev
	if !in.sealed {
		in.sealed = true
		return
	}
	if in.cursor != len(in.slots) {
		panic(fmt.Sprintf("canopy: render of %s used %d of %d hook slots; hooks must run unconditionally and in the same order on every render",
			in.el.componentName(), in.cursor, len(in.slots)))
	}
}

// nextSlot returns the slot at the cursor, allocating on the first render
// and enforcing kind stability afterwards.
func (in *instance) nextSlot(kind slotKind) *slot {
	if in.cursor < len(in.slots) {
		s := in.slots[in.cursor]
		if s.kind != kind {
			panic(fmt.Sprintf("canopy: hook order changed in %s: slot %d was %s, now %s; hooks must run unconditionally and in the same order on every render",
				in.el.componentName(), in.cursor, s.kind, kind))
		}
		in.cursor++
		return s
	}
	if in.sealed {
		panic(fmt.Sprintf("canopy: %s call in %s exceeds the %d slots of the first render; hooks must run unconditionally and in the same order on every render",
			kind, in.el.componentName(), len(in.slots)))
	}
	s := &slot{kind: kind}
	in.slots = append(in.slots, s)
	in.cursor++
	return s
}

// markNeedsRender marks the instance dirty and schedules its element.
// Becomes a no-op after disposal.
func (in *instance) markNeedsRender() {
	if in.disposed {
		return
	}
	in.dirty = true
	if in.el != nil && in.el.root != nil {
		in.el.root.scheduler.scheduleRender(in.el)
	}
}

// dispose runs effect cleanups in slot order, drops context subscriptions,
// and detaches the instance. Further setter calls are no-ops.
func (in *instance) dispose() {
	if in.disposed {
		return
	}
	in.disposed = true
	for _, s := range in.slots {
		if s.kind == slotEffect && s.cleanup != nil {
			cleanup := s.cleanup
			s.cleanup = nil
			runEffect("core.EffectCleanup", cleanup)
		}
	}
	for p := range in.providers {
		delete(p.dependents, in)
	}
	in.providers = nil
}

func currentFor(op string) *instance {
	if current == nil {
		panic("canopy: " + op + " called outside a component render")
	}
	return current
}

// committer commits a pending state value at render start.
type committer interface {
	commit()
}

// cell is the typed storage behind one UseState slot.
type cell[T any] struct {
	value   T
	pending T
	dirty   bool
}

func (c *cell[T]) commit() {
	if c.dirty {
		c.value = c.pending
		c.dirty = false
	}
}

// Setter updates one UseState slot. The same Setter pointer is returned on
// every render, so it can be captured by effects and callbacks.
//
// Setters are NOT thread-safe. They must only be called from the goroutine
// driving the tree. To update state from a background goroutine, post a task
// through the Scheduler.
type Setter[T any] struct {
	inst *instance
	cell *cell[T]
}

// Set replaces the pending value. When next is identity-equal to the value
// the next render would already see, the call is skipped entirely and no
// render is scheduled. Multiple Set calls within one tick coalesce: the last
// value wins and the component re-renders once.
//
// Safe to call after the component unmounted (becomes a no-op).
func (s *Setter[T]) Set(next T) {
	if s.inst.disposed {
		return
	}
	base := s.cell.value
	if s.cell.dirty {
		base = s.cell.pending
	}
	if identical(base, next) {
		return
	}
	s.cell.pending = next
	s.cell.dirty = true
	s.inst.markNeedsRender()
}

// Update applies fn to the pending value. Unlike Set, consecutive Update
// calls within one tick chain: each fn sees the previous fn's result. The
// component still re-renders only once.
//
// Safe to call after the component unmounted (becomes a no-op).
func (s *Setter[T]) Update(fn func(T) T) {
	if fn == nil {
		return
	}
	if s.inst.disposed {
		return
	}
	base := s.cell.value
	if s.cell.dirty {
		base = s.cell.pending
	}
	s.cell.pending = fn(base)
	s.cell.dirty = true
	s.inst.markNeedsRender()
}

// UseState allocates a persistent state slot holding initial on the first
// render and returns the committed value plus a stable setter. Only usable
// inside a component render.
func UseState[T any](initial T) (T, *Setter[T]) {
	in := currentFor("UseState")
	s := in.nextSlot(slotState)
	if s.box == nil {
		c := &cell[T]{value: initial}
		s.box = c
		s.setter = &Setter[T]{inst: in, cell: c}
	}
	c, ok := s.box.(*cell[T])
	if !ok {
		panic(fmt.Sprintf("canopy: UseState slot %d in %s changed value type across renders", in.cursor-1, in.el.componentName()))
	}
	return c.value, s.setter.(*Setter[T])
}

// UseEffect schedules effect to run after the commit that follows this
// render. With nil deps the effect reruns after every render; with empty
// non-nil deps it runs exactly once; otherwise it reruns when any dep
// changes identity. The cleanup returned by effect runs before the
// replacing effect and once at unmount.
func UseEffect(effect func() func(), deps []any) {
	in := currentFor("UseEffect")
	if effect == nil {
		panic("canopy: UseEffect called with a nil effect")
	}
	s := in.nextSlot(slotEffect)
	rerun := !s.initialized || !depsEqual(s.deps, deps)
	s.effect = effect
	s.deps = deps
	s.initialized = true
	if rerun {
		s.pendingEffect = true
	}
}

// UseMemo returns the memoized result of compute, recomputing only when a
// dep changes identity. Nil deps recompute every render.
func UseMemo[T any](compute func() T, deps []any) T {
	in := currentFor("UseMemo")
	if compute == nil {
		panic("canopy: UseMemo called with a nil compute function")
	}
	s := in.nextSlot(slotMemo)
	if !s.initialized || !depsEqual(s.deps, deps) {
		s.box = compute()
		s.deps = deps
		s.initialized = true
	}
	if s.box == nil {
		// compute returned a nil interface value; the zero T is that nil.
		var zero T
		return zero
	}
	v, ok := s.box.(T)
	if !ok {
		panic(fmt.Sprintf("canopy: UseMemo slot %d in %s changed value type across renders", in.cursor-1, in.el.componentName()))
	}
	return v
}

// Ref is a stable mutable box. Mutating Current never schedules a render.
type Ref[T any] struct {
	Current T
}

// NewRef creates a detached ref, typically to pass to WithRef.
func NewRef[T any]() *Ref[T] {
	return &Ref[T]{}
}

// UseRef allocates a persistent ref slot holding initial on the first
// render. The same pointer is returned on every render.
func UseRef[T any](initial T) *Ref[T] {
	in := currentFor("UseRef")
	s := in.nextSlot(slotRef)
	if s.box == nil {
		s.box = &Ref[T]{Current: initial}
	}
	r, ok := s.box.(*Ref[T])
	if !ok {
		panic(fmt.Sprintf("canopy: UseRef slot %d in %s changed value type across renders", in.cursor-1, in.el.componentName()))
	}
	return r
}

// flushEffects runs the instance's pending effects in slot order, cleaning
// up the previous run of each first.
func (in *instance) flushEffects() {
	if in.disposed {
		return
	}
	for _, s := range in.slots {
		if s.kind != slotEffect || !s.pendingEffect {
			continue
		}
		s.pendingEffect = false
		if s.cleanup != nil {
			cleanup := s.cleanup
			s.cleanup = nil
			runEffect("core.EffectCleanup", cleanup)
		}
		effect := s.effect
		var next func()
		runEffect("core.Effect", func() { next = effect() })
		s.cleanup = next
	}
}

// runEffect invokes an effect or cleanup, reporting a panic instead of
// letting it tear down the flush so the remaining effects still run.
func runEffect(op string, fn func()) {
	defer errors.Recover(op)
	fn()
}
