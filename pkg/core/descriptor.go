package core

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/go-canopy/canopy/pkg/host"
	"github.com/go-canopy/canopy/pkg/layout"
)

// Descriptor is the immutable declarative description of one node: a
// primitive tag or a component function, its props, and its ordered
// children. Descriptors are cheap values produced fresh on every render;
// identity across renders is carried by tag or component function, plus the
// optional key.
type Descriptor struct {
	tag    string
	fn     func(props any) any
	fnID   uintptr
	fnName string

	ctxKey   *contextKey
	props    any
	children []*Descriptor

	key      any
	ref      *Ref[host.Handle]
	style    *layout.StylePatch
	noMemo   bool
	listBorn bool
}

// El constructs a primitive descriptor. The tag must be registered (builtin
// tags are registered at init) and props must be the tag's registered prop
// type; nil props take the tag's zero prop value. Children accept
// *Descriptor, nil, false, and nested slices thereof; nesting is flattened
// and nil/false entries dropped.
func El(tag string, props any, children ...any) *Descriptor {
	props = checkProps(tag, props)
	return &Descriptor{
		tag:      tag,
		props:    props,
		children: normalizeChildren(children),
	}
}

// C constructs a component descriptor. The component function receives the
// given props on every render and returns its output: a *Descriptor, a
// []*Descriptor fragment, nil, or nested slices thereof.
//
// Component identity is the function's code pointer: descriptors built from
// the same function (or closures of the same function literal) reconcile
// against the same instance, while a different function forces a remount.
func C[P any](fn func(P) any, props P) *Descriptor {
	if fn == nil {
		panic("canopy: C called with a nil component function")
	}
	ptr := reflect.ValueOf(fn).Pointer()
	return &Descriptor{
		fn:     func(p any) any { return fn(p.(P)) },
		fnID:   ptr,
		fnName: funcName(ptr),
		props:  props,
	}
}

func funcName(ptr uintptr) string {
	if f := runtime.FuncForPC(ptr); f != nil {
		return f.Name()
	}
	return "component"
}

// WithKey sets the descriptor's sibling identity key and returns the
// descriptor. Keys must be comparable values; a non-comparable key is
// treated as no key during reconciliation.
func (d *Descriptor) WithKey(key any) *Descriptor {
	d.key = key
	return d
}

// WithRef attaches an external ref. On mount the ref is populated with the
// live host handle of the primitive; on unmount it is cleared. Refs bind to
// primitive descriptors only and are ignored on components.
func (d *Descriptor) WithRef(ref *Ref[host.Handle]) *Descriptor {
	d.ref = ref
	return d
}

// WithStyle overlays a partial style on top of the style carried by the
// descriptor's props.
func (d *Descriptor) WithStyle(patch layout.StylePatch) *Descriptor {
	d.style = &patch
	return d
}

// WithoutMemo disables the memoized skip for a component descriptor: the
// component re-renders whenever its parent does, regardless of prop
// equality.
func (d *Descriptor) WithoutMemo() *Descriptor {
	d.noMemo = true
	return d
}

// Tag returns the primitive tag, or "" for components and providers.
func (d *Descriptor) Tag() string {
	return d.tag
}

// Key returns the descriptor's key, or nil.
func (d *Descriptor) Key() any {
	return d.key
}

// Props returns the descriptor's props value.
func (d *Descriptor) Props() any {
	return d.props
}

// Children returns the normalized child list. Callers must not mutate it.
func (d *Descriptor) Children() []*Descriptor {
	return d.children
}

// ComponentName returns the component function's name for diagnostics, or
// "" for primitives.
func (d *Descriptor) ComponentName() string {
	return d.fnName
}

// IsComponent reports whether d renders through fn, matching by function
// identity, the same rule reconciliation uses.
func (d *Descriptor) IsComponent(fn any) bool {
	if d == nil || d.fn == nil || fn == nil {
		return false
	}
	v := reflect.ValueOf(fn)
	return v.Kind() == reflect.Func && v.Pointer() == d.fnID
}

// normalizeChildren flattens arbitrarily nested child arguments into a flat
// descriptor list. nil and false entries are dropped. Descriptors pulled out
// of a nested slice are marked list-born so reconciliation can warn when a
// dynamic list omits keys.
func normalizeChildren(args []any) []*Descriptor {
	if len(args) == 0 {
		return nil
	}
	out := make([]*Descriptor, 0, len(args))
	for _, arg := range args {
		out = appendNormalized(out, arg, false)
	}
	return out
}

func appendNormalized(out []*Descriptor, arg any, fromList bool) []*Descriptor {
	switch v := arg.(type) {
	case nil:
		return out
	case bool:
		if v {
			panic("canopy: true is not a valid child; only false is dropped")
		}
		return out
	case *Descriptor:
		if v == nil {
			return out
		}
		if fromList {
			v.listBorn = true
		}
		return append(out, v)
	case []*Descriptor:
		for _, d := range v {
			out = appendNormalized(out, d, true)
		}
		return out
	case []any:
		for _, item := range v {
			out = appendNormalized(out, item, true)
		}
		return out
	default:
		panic(fmt.Sprintf("canopy: invalid child of type %T; children must be *Descriptor, nil, false, or slices thereof", arg))
	}
}

// normalizeResult flattens a component's return value into the child list
// that reconciles against the component's previous output. A fragment is any
// slice return; its members are siblings in the parent host container.
func normalizeResult(v any) []*Descriptor {
	if v == nil {
		return nil
	}
	if d, ok := v.(*Descriptor); ok {
		if d == nil {
			return nil
		}
		return []*Descriptor{d}
	}
	return appendNormalized(nil, v, false)
}
