package core

// contextKey is the identity of one Context across the tree. Compared by
// pointer.
type contextKey struct {
	name string
}

// Context carries a value down the tree without threading it through props.
// Components read the nearest enclosing provider's value with UseContext and
// re-render when it changes, even when an intermediate component memoizes.
type Context[T any] struct {
	key *contextKey
	def T
}

// NewContext creates a context with a default value, returned by UseContext
// when no provider encloses the reading component. The optional name appears
// in diagnostics.
func NewContext[T any](defaultValue T, name ...string) *Context[T] {
	key := &contextKey{}
	if len(name) > 0 {
		key.name = name[0]
	}
	return &Context[T]{key: key, def: defaultValue}
}

// Provide returns a provider descriptor supplying value to the given
// subtree. Providers create no host node; their children mount into the
// nearest enclosing host container.
func (c *Context[T]) Provide(value T, children ...any) *Descriptor {
	return &Descriptor{
		ctxKey:   c.key,
		props:    value,
		children: normalizeChildren(children),
	}
}

// UseContext returns the value of the nearest enclosing provider, or the
// context's default when none exists, and subscribes the reading component
// to provider value changes. Unlike the slot hooks, UseContext allocates no
// slot and may be called from anywhere inside a render.
func UseContext[T any](c *Context[T]) T {
	in := currentFor("UseContext")
	for el := element(in.el); el != nil; el = el.base().parent {
		p, ok := el.(*providerElement)
		if !ok || p.key != c.key {
			continue
		}
		p.addDependent(in)
		return p.value.(T)
	}
	return c.def
}
