package testing

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/geometry"
)

// Finder locates nodes in a mounted tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root core.TreeNode) []core.TreeNode
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []core.TreeNode
	finder Finder
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() core.TreeNode {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.describe()))
	}
	return r.nodes[0]
}

// FirstOrZero returns the first match, or an invalid TreeNode if none.
func (r FinderResult) FirstOrZero() core.TreeNode {
	if len(r.nodes) == 0 {
		return core.TreeNode{}
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) core.TreeNode {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.describe()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []core.TreeNode {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Descriptor returns the descriptor of the first matched node. Panics if no
// matches.
func (r FinderResult) Descriptor() *core.Descriptor {
	return r.First().Descriptor()
}

// Frame returns the committed frame of the first matched node. Panics if no
// matches or if the first match is a component, which has no frame of its
// own.
func (r FinderResult) Frame() geometry.Rect {
	frame, ok := r.First().Frame()
	if !ok {
		panic(fmt.Sprintf("Finder matched a node with no frame: %s", r.describe()))
	}
	return frame
}

// --- Concrete finders ---

// tagFinder matches primitive nodes by tag.
type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	return collectMatches(root, func(n core.TreeNode) bool {
		return n.Tag() == f.tag
	})
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%q)", f.tag)
}

// ByTag returns a finder that matches primitive nodes with the given tag.
func ByTag(tag string) Finder {
	return &tagFinder{tag: tag}
}

// componentFinder matches component nodes by their function identity.
type componentFinder struct {
	fn   any
	name string
}

func (f *componentFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	return collectMatches(root, func(n core.TreeNode) bool {
		d := n.Descriptor()
		return d != nil && d.IsComponent(f.fn)
	})
}

func (f *componentFinder) Description() string {
	return fmt.Sprintf("ByComponent(%s)", f.name)
}

// ByComponent returns a finder that matches component nodes rendered by the
// given component function.
func ByComponent(fn any) Finder {
	return &componentFinder{fn: fn, name: componentLabel(fn)}
}

// componentLabel names a component function for finder descriptions, the
// same way render diagnostics do.
func componentLabel(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Sprintf("%T", fn)
	}
	name := "component"
	if rf := runtime.FuncForPC(v.Pointer()); rf != nil {
		name = rf.Name()
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// keyFinder matches nodes whose descriptor key equals the given key.
type keyFinder struct {
	key any
}

func (f *keyFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	return collectMatches(root, func(n core.TreeNode) bool {
		d := n.Descriptor()
		if d == nil {
			return false
		}
		k := d.Key()
		if k == nil && f.key == nil {
			return true
		}
		if k == nil || f.key == nil {
			return false
		}
		// Guard against non-comparable types (slices, maps, funcs).
		if !reflect.TypeOf(k).Comparable() || !reflect.TypeOf(f.key).Comparable() {
			return reflect.DeepEqual(k, f.key)
		}
		return k == f.key
	})
}

func (f *keyFinder) Description() string {
	return fmt.Sprintf("ByKey(%v)", f.key)
}

// ByKey returns a finder that matches nodes whose descriptor key equals key.
func ByKey(key any) Finder {
	return &keyFinder{key: key}
}

// textFinder matches text primitives by exact content.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	return collectMatches(root, func(n core.TreeNode) bool {
		p, ok := textPropsOf(n)
		return ok && p.Content == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches text primitives with exact content.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// textContainingFinder matches text primitives containing substring.
type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	return collectMatches(root, func(n core.TreeNode) bool {
		p, ok := textPropsOf(n)
		return ok && strings.Contains(p.Content, f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches text primitives containing
// the given substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

func textPropsOf(n core.TreeNode) (core.TextProps, bool) {
	d := n.Descriptor()
	if d == nil {
		return core.TextProps{}, false
	}
	p, ok := d.Props().(core.TextProps)
	return p, ok
}

// predicateFinder matches nodes satisfying a predicate.
type predicateFinder struct {
	fn   func(core.TreeNode) bool
	desc string
}

func (f *predicateFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches nodes satisfying fn.
func ByPredicate(fn func(core.TreeNode) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds nodes matching 'matching' that are descendants
// of nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	ancestors := f.of.Evaluate(root)
	if len(ancestors) == 0 {
		return nil
	}
	var results []core.TreeNode
	seen := make(map[core.TreeNode]bool)
	for _, ancestor := range ancestors {
		// Search within each ancestor's subtree (skip the ancestor itself)
		for _, child := range ancestor.Children() {
			for _, match := range f.matching.Evaluate(child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches nodes satisfying 'matching'
// that are descendants of nodes matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds nodes matching 'matching' that are ancestors
// of nodes matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root core.TreeNode) []core.TreeNode {
	descendants := f.of.Evaluate(root)
	if len(descendants) == 0 {
		return nil
	}
	candidates := f.matching.Evaluate(root)
	if len(candidates) == 0 {
		return nil
	}
	var results []core.TreeNode
	seen := make(map[core.TreeNode]bool)
	for _, desc := range descendants {
		for _, candidate := range candidates {
			if !seen[candidate] && candidate != desc && isAncestorOf(candidate, desc) {
				seen[candidate] = true
				results = append(results, candidate)
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches nodes satisfying 'matching'
// that are ancestors of nodes matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// isAncestorOf returns true if ancestor contains descendant in its subtree.
func isAncestorOf(ancestor, descendant core.TreeNode) bool {
	found := false
	ancestor.Visit(func(n core.TreeNode) bool {
		if n == descendant {
			found = true
			return false
		}
		return true
	})
	return found
}

// collectMatches performs a depth-first pre-order traversal, collecting
// nodes that satisfy the predicate.
func collectMatches(root core.TreeNode, predicate func(core.TreeNode) bool) []core.TreeNode {
	var results []core.TreeNode
	root.Visit(func(n core.TreeNode) bool {
		if predicate(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}
