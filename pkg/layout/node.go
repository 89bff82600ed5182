package layout

import (
	"math"

	"github.com/go-canopy/canopy/pkg/geometry"
)

// MeasureFunc reports the natural content size of a leaf given an available
// width. maxWidth is positive infinity when unconstrained. The returned size
// excludes the node's padding.
type MeasureFunc func(maxWidth float64) geometry.Size

// Node is one box in the layout tree. Nodes are created by the runtime for
// every mounted primitive and survive re-renders; style changes mark the
// node dirty rather than rebuilding it.
type Node struct {
	style    Style
	parent   *Node
	children []*Node
	depth    int
	owner    *Owner

	measureFunc MeasureFunc
	onCommit    func(geometry.Rect)

	needsLayout bool
	committed   bool

	// measure cache, keyed by the width hint it was computed for
	contentSize   geometry.Size
	measuredFor   float64
	measuredValid bool

	// arrange inputs, cached so boundaries can relayout in isolation
	lastDefW bool
	lastDefH bool

	// root-only: externally provided available space
	availSize geometry.Size
	availDefW bool
	availDefH bool

	frame geometry.Rect
}

// NewNode creates a detached node with the given style.
func NewNode(style Style) *Node {
	return &Node{style: style, needsLayout: true}
}

// Style returns the node's current style.
func (n *Node) Style() Style {
	return n.style
}

// SetStyle replaces the node's style. A style change can alter the node's
// size, which the parent's arrangement depends on, so the dirty walk starts
// at the parent rather than stopping here even when both dimensions are
// pinned.
func (n *Node) SetStyle(style Style) {
	if n.style == style {
		return
	}
	n.style = style
	n.needsLayout = true
	n.measuredValid = false
	if n.parent != nil {
		n.parent.MarkDirty()
		return
	}
	if n.owner != nil {
		n.owner.schedule(n)
	}
}

// SetMeasureFunc attaches an intrinsic content measurer for leaf nodes.
func (n *Node) SetMeasureFunc(f MeasureFunc) {
	n.measureFunc = f
	n.MarkDirty()
}

// SetOnCommit registers the callback invoked whenever the node's resolved
// frame changes during a flush. Frames are in the parent's coordinate space.
func (n *Node) SetOnCommit(f func(geometry.Rect)) {
	n.onCommit = f
}

// Frame returns the last committed frame. Between flushes this may lag the
// latest style changes by one tick.
func (n *Node) Frame() geometry.Rect {
	return n.frame
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the current child list. Callers must not mutate it.
func (n *Node) Children() []*Node {
	return n.children
}

// Depth returns the tree depth (root = 0).
func (n *Node) Depth() int {
	return n.depth
}

// SetChildren replaces the node's child list. Unchanged lists are a no-op;
// otherwise removed children are detached, added children adopted, and the
// node marked dirty.
func (n *Node) SetChildren(children []*Node) {
	if sameNodes(n.children, children) {
		return
	}
	for _, child := range n.children {
		if child.parent == n && !containsNode(children, child) {
			child.parent = nil
			child.detach()
		}
	}
	n.children = append(n.children[:0:0], children...)
	for _, child := range children {
		if child.parent != n {
			child.parent = n
			child.needsLayout = true
			child.measuredValid = false
		}
		child.setDepth(n.depth + 1)
		child.attach(n.owner)
	}
	n.MarkDirty()
}

func sameNodes(a, b []*Node) bool {
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

func containsNode(nodes []*Node, target *Node) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}
	return false
}

func (n *Node) setDepth(depth int) {
	if n.depth == depth {
		return
	}
	n.depth = depth
	for _, child := range n.children {
		child.setDepth(depth + 1)
	}
}

// attach propagates the owner down the subtree.
func (n *Node) attach(owner *Owner) {
	if n.owner == owner {
		return
	}
	n.owner = owner
	for _, child := range n.children {
		child.attach(owner)
	}
}

// detach severs the subtree from its owner. Scheduled entries for detached
// nodes are skipped at flush time.
func (n *Node) detach() {
	if n.owner == nil {
		return
	}
	n.owner = nil
	for _, child := range n.children {
		child.detach()
	}
}

// SetAvailable provides the externally fixed space for a root node, with
// per-axis definiteness. A non-definite axis makes fill and percent sizing
// on that axis fall back to content size.
func (n *Node) SetAvailable(size geometry.Size, defW, defH bool) {
	if n.availSize == size && n.availDefW == defW && n.availDefH == defH {
		return
	}
	n.availSize = size
	n.availDefW = defW
	n.availDefH = defH
	n.MarkDirty()
}

// pinned reports whether a dimension resolves without consulting the parent.
func pinned(d Dimension) bool {
	return d.Unit == UnitPx || d.Unit == UnitVW || d.Unit == UnitVH
}

// isBoundary reports whether layout changes below this node can be
// contained here. Roots and nodes with both dimensions pinned qualify.
func (n *Node) isBoundary() bool {
	if n.parent == nil {
		return true
	}
	return pinned(n.style.Width) && pinned(n.style.Height)
}

// MarkDirty flags the node as needing layout and walks up to the nearest
// layout boundary, marking each node on the path so the arrange pass can
// reach the change, then schedules the boundary with the owner.
func (n *Node) MarkDirty() {
	n.measuredValid = false
	if n.needsLayout {
		return
	}
	n.needsLayout = true

	if n.owner == nil {
		return
	}
	if n.isBoundary() {
		n.owner.schedule(n)
		return
	}
	if n.parent != nil {
		n.parent.MarkDirty()
		return
	}
	n.owner.schedule(n)
}

// NeedsLayout reports whether the node is awaiting layout.
func (n *Node) NeedsLayout() bool {
	return n.needsLayout
}

// InvalidateTree marks the whole subtree as needing measure and layout and
// schedules it, bypassing boundary containment. Used when an input outside
// the style system changes, such as the viewport size that vw/vh dimensions
// resolve against.
func (n *Node) InvalidateTree() {
	n.invalidate()
	if n.owner != nil {
		n.owner.schedule(n)
	}
}

func (n *Node) invalidate() {
	n.needsLayout = true
	n.measuredValid = false
	for _, child := range n.children {
		child.invalidate()
	}
}

func (n *Node) viewport() geometry.Size {
	if n.owner == nil {
		return geometry.Size{}
	}
	return n.owner.Viewport()
}

// relayout lays out a scheduled boundary in isolation. Roots resolve
// against their available space; pinned boundaries keep their origin and
// resolve their fixed size directly.
func (n *Node) relayout() {
	if n.parent == nil {
		n.layoutAsRoot()
		return
	}
	vp := n.viewport()
	w, _ := selfDim(n.style.Width, vp)
	h, _ := selfDim(n.style.Height, vp)
	n.arrange(geometry.RectFromLTWH(n.frame.Left, n.frame.Top, w, h), true, true)
}

func (n *Node) layoutAsRoot() {
	vp := n.viewport()
	w, defW := resolveDim(n.style.Width, n.availSize.Width, n.availDefW, vp)
	h, defH := resolveDim(n.style.Height, n.availSize.Height, n.availDefH, vp)
	if !defW || !defH {
		hint := math.Inf(1)
		if defW {
			hint = w
		} else if n.availDefW {
			hint = n.availSize.Width
		}
		content := n.measure(hint)
		if !defW {
			w = content.Width
		}
		if !defH {
			h = content.Height
		}
	}
	n.arrange(geometry.RectFromLTWH(n.frame.Left, n.frame.Top, w, h), defW, defH)
}

// selfDim resolves dimensions that need no parent context.
func selfDim(d Dimension, vp geometry.Size) (float64, bool) {
	switch d.Unit {
	case UnitPx:
		return d.Value, true
	case UnitVW:
		return vp.Width * d.Value / 100, true
	case UnitVH:
		return vp.Height * d.Value / 100, true
	}
	return 0, false
}

// resolveDim resolves a dimension against a parent extent. The boolean
// reports definiteness; auto and indefinite-parent cases return false and
// fall back to content sizing at the call site.
func resolveDim(d Dimension, parentExtent float64, parentDefinite bool, vp geometry.Size) (float64, bool) {
	switch d.Unit {
	case UnitPx:
		return d.Value, true
	case UnitVW:
		return vp.Width * d.Value / 100, true
	case UnitVH:
		return vp.Height * d.Value / 100, true
	case UnitPercent:
		if parentDefinite {
			return parentExtent * d.Value / 100, true
		}
		return 0, false
	case UnitFill:
		if parentDefinite {
			return parentExtent, true
		}
		return 0, false
	}
	return 0, false
}

// measure computes the node's natural size, including padding, given an
// available width hint. Results are cached per hint until the node is
// marked dirty.
func (n *Node) measure(maxWidth float64) geometry.Size {
	if n.measuredValid && n.measuredFor == maxWidth {
		return n.contentSize
	}
	vp := n.viewport()
	padH := n.style.Padding.Horizontal()
	padV := n.style.Padding.Vertical()

	inner := maxWidth
	if w, ok := selfDim(n.style.Width, vp); ok {
		inner = w
	}
	childHint := inner
	if !math.IsInf(childHint, 1) {
		childHint = math.Max(childHint-padH, 0)
	}

	var size geometry.Size
	switch {
	case len(n.children) > 0:
		size = n.measureChildren(childHint)
		size.Width += padH
		size.Height += padV
	case n.measureFunc != nil:
		size = n.measureFunc(childHint)
		size.Width += padH
		size.Height += padV
	default:
		size = geometry.Size{Width: padH, Height: padV}
	}

	if w, ok := selfDim(n.style.Width, vp); ok {
		size.Width = w
	}
	if h, ok := selfDim(n.style.Height, vp); ok {
		size.Height = h
	}

	n.contentSize = size
	n.measuredFor = maxWidth
	n.measuredValid = true
	return size
}

// measureChildren combines child natural sizes according to the direction:
// rows sum widths and take the max height, columns the transpose, stacks
// take the max on both axes. Gaps count toward the main axis.
func (n *Node) measureChildren(childHint float64) geometry.Size {
	var main, cross float64
	gaps := n.style.Gap * float64(len(n.children)-1)
	for _, child := range n.children {
		cs := child.measure(childHint)
		switch n.style.Direction {
		case DirectionRow:
			main += cs.Width
			cross = math.Max(cross, cs.Height)
		case DirectionColumn:
			main += cs.Height
			cross = math.Max(cross, cs.Width)
		case DirectionStack:
			main = math.Max(main, cs.Width)
			cross = math.Max(cross, cs.Height)
		}
	}
	switch n.style.Direction {
	case DirectionRow:
		return geometry.Size{Width: main + gaps, Height: cross}
	case DirectionColumn:
		return geometry.Size{Width: cross, Height: main + gaps}
	default:
		return geometry.Size{Width: main, Height: cross}
	}
}

// arrange assigns the node its frame and lays out children inside the
// padded content box. defW and defH report whether each axis of the frame
// derives from definite sizing; content-derived axes stay indefinite so
// that fill and percent descendants fall back rather than chase sizes the
// tree cannot pin down.
func (n *Node) arrange(rect geometry.Rect, defW, defH bool) {
	if !n.needsLayout && n.committed && rect == n.frame && defW == n.lastDefW && defH == n.lastDefH {
		return
	}
	changed := !n.committed || rect != n.frame
	n.frame = rect
	n.lastDefW = defW
	n.lastDefH = defH
	n.needsLayout = false
	n.committed = true

	if len(n.children) > 0 {
		content := n.style.Padding.Deflate(geometry.RectFromLTWH(0, 0, rect.Width(), rect.Height()))
		if n.style.Direction == DirectionStack {
			n.arrangeStack(content, defW, defH)
		} else {
			n.arrangeFlex(content, defW, defH)
		}
	}

	if changed && n.onCommit != nil {
		n.onCommit(rect)
	}
}

// arrangeFlex distributes the main axis among children: fixed bases first,
// then surplus to grow weights, then overflow against shrink weights, and
// finally justification of whatever space remains unclaimed.
func (n *Node) arrangeFlex(content geometry.Rect, defW, defH bool) {
	vp := n.viewport()
	row := n.style.Direction == DirectionRow
	cw := content.Width()
	ch := content.Height()

	mainExtent, crossExtent := cw, ch
	defMain, defCross := defW, defH
	if !row {
		mainExtent, crossExtent = ch, cw
		defMain, defCross = defH, defW
	}

	k := len(n.children)
	gaps := n.style.Gap * float64(k-1)

	base := make([]float64, k)
	grow := make([]float64, k)
	totalBase := 0.0
	totalGrow := 0.0
	for i, child := range n.children {
		mainDim := child.style.Width
		if !row {
			mainDim = child.style.Height
		}
		switch {
		case mainDim.Unit == UnitFill && defMain:
			grow[i] = 1
			if child.style.Grow > 0 {
				grow[i] = child.style.Grow
			}
		default:
			if v, ok := resolveDim(mainDim, mainExtent, defMain, vp); ok {
				base[i] = v
			} else {
				cs := child.measure(cw)
				if row {
					base[i] = cs.Width
				} else {
					base[i] = cs.Height
				}
			}
			if defMain && child.style.Grow > 0 {
				grow[i] = child.style.Grow
			}
		}
		totalBase += base[i]
		totalGrow += grow[i]
	}

	free := 0.0
	if defMain {
		remaining := mainExtent - totalBase - gaps
		if remaining > 0 && totalGrow > 0 {
			for i := range base {
				base[i] += remaining * grow[i] / totalGrow
			}
		} else if remaining < 0 {
			base = shrinkBases(n.children, base, -remaining)
			remaining = 0
		}
		if remaining > 0 && totalGrow == 0 {
			free = remaining
		}
	}

	spacing, offset := computeSpacing(free, k, n.style.Justify)

	cursor := offset
	for i, child := range n.children {
		crossDim := child.style.Height
		if !row {
			crossDim = child.style.Width
		}
		crossSize, crossDef := resolveDim(crossDim, crossExtent, defCross, vp)
		if !crossDef {
			stretch := n.style.Align == AlignStretch && crossDim.Unit == UnitAuto && defCross
			if stretch {
				crossSize = crossExtent
				crossDef = true
			} else if row {
				// Re-measure at the assigned width so wrapped content
				// reports its final height.
				crossSize = child.measure(base[i]).Height
			} else {
				crossSize = child.measure(cw).Width
			}
		}

		crossOff := crossOffset(n.style.Align, crossExtent-crossSize)

		var childRect geometry.Rect
		if row {
			childRect = geometry.RectFromLTWH(content.Left+cursor, content.Top+crossOff, base[i], crossSize)
		} else {
			childRect = geometry.RectFromLTWH(content.Left+crossOff, content.Top+cursor, crossSize, base[i])
		}

		mainDef := childMainDefinite(child, row, defMain, grow[i] > 0)
		childDefW, childDefH := mainDef, crossDef
		if !row {
			childDefW, childDefH = crossDef, mainDef
		}
		child.arrange(childRect, childDefW, childDefH)

		cursor += base[i] + n.style.Gap + spacing
	}
}

// childMainDefinite reports whether a child's main-axis size derives from
// definite information.
func childMainDefinite(child *Node, row bool, defMain, grew bool) bool {
	d := child.style.Width
	if !row {
		d = child.style.Height
	}
	switch d.Unit {
	case UnitPx, UnitVW, UnitVH:
		return true
	case UnitPercent, UnitFill:
		return defMain
	default:
		return grew && defMain
	}
}

// shrinkBases absorbs overflow proportionally to shrink weight scaled by
// base size, clamping at zero. One round only; space freed by clamping is
// not redistributed.
func shrinkBases(children []*Node, base []float64, deficit float64) []float64 {
	totalScaled := 0.0
	for i, child := range children {
		totalScaled += child.style.Shrink * base[i]
	}
	if totalScaled <= 0 {
		return base
	}
	for i, child := range children {
		cut := deficit * child.style.Shrink * base[i] / totalScaled
		base[i] = math.Max(0, base[i]-cut)
	}
	return base
}

// computeSpacing converts free main-axis space into inter-child spacing and
// a leading offset according to the justification mode.
func computeSpacing(free float64, n int, j Justify) (spacing, offset float64) {
	switch j {
	case JustifyEnd:
		offset = free
	case JustifyCenter:
		offset = free * 0.5
	case JustifySpaceBetween:
		if n > 1 {
			spacing = free / float64(n-1)
		}
	case JustifySpaceAround:
		if n > 0 {
			spacing = free / float64(n)
			offset = spacing * 0.5
		}
	case JustifySpaceEvenly:
		if n > 0 {
			spacing = free / float64(n+1)
			offset = spacing
		}
	}
	return
}

// crossOffset positions a child within the cross-axis free space.
func crossOffset(a Align, free float64) float64 {
	if free <= 0 {
		return 0
	}
	switch a {
	case AlignEnd:
		return free
	case AlignCenter:
		return free * 0.5
	default:
		return 0
	}
}

// arrangeStack overlays each child on the content box, sizing every child
// independently and positioning it by the container's justify (horizontal)
// and align (vertical) rules.
func (n *Node) arrangeStack(content geometry.Rect, defW, defH bool) {
	vp := n.viewport()
	cw := content.Width()
	ch := content.Height()

	for _, child := range n.children {
		w, wDef := resolveDim(child.style.Width, cw, defW, vp)
		if !wDef {
			w = child.measure(cw).Width
		}
		h, hDef := resolveDim(child.style.Height, ch, defH, vp)
		if !hDef {
			h = child.measure(w).Height
		}

		x := stackOffset(cw-w, stackJustifyFactor(n.style.Justify))
		y := stackOffset(ch-h, stackAlignFactor(n.style.Align))

		child.arrange(geometry.RectFromLTWH(content.Left+x, content.Top+y, w, h), wDef, hDef)
	}
}

func stackOffset(free, factor float64) float64 {
	if free <= 0 {
		return 0
	}
	return free * factor
}

func stackJustifyFactor(j Justify) float64 {
	switch j {
	case JustifyCenter:
		return 0.5
	case JustifyEnd:
		return 1
	default:
		return 0
	}
}

func stackAlignFactor(a Align) float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignEnd:
		return 1
	default:
		return 0
	}
}
