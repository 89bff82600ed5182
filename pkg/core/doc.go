// Package core provides the descriptor model, component state runtime, and
// reconciler behind a Canopy tree.
//
// It follows a declarative model: component functions describe what the
// tree should look like as cheap Descriptor values, and the reconciler
// updates the mounted host nodes to match, patching only what changed.
//
// # Descriptors
//
// El constructs a primitive node by tag, C wraps a component function:
//
//	func Counter(p CounterProps) any {
//	    count, setCount := core.UseState(0)
//	    core.UseEffect(func() func() {
//	        p.Announce(count)
//	        return nil
//	    }, []any{count})
//	    return core.El(core.TagBox, core.BoxProps{},
//	        core.El(core.TagText, core.TextProps{Content: strconv.Itoa(count)}),
//	    )
//	}
//
//	root := core.C(Counter, CounterProps{Announce: announce})
//
// Descriptors are rebuilt on every render; identity across renders comes
// from the tag or component function plus the optional WithKey key. Within
// a keyed sibling list, reordering descriptors moves the mounted elements,
// state included, instead of remounting them.
//
// # State
//
// Hooks allocate per-instance slots by call order, so they must run
// unconditionally and in the same order on every render. Setters batch:
// any number of updates within a tick coalesce into one re-render, and
// nothing renders inline.
//
// # Mounting
//
// Mount attaches a descriptor tree to a host.Adapter and commits the first
// frame. Flush runs one tick: posted tasks, dirty renders, layout, then
// effects. The embedder owns the loop; Scheduler.OnWake says when a flush
// is worth running.
package core
