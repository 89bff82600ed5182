package layout

import (
	"testing"

	"github.com/go-canopy/canopy/pkg/geometry"
)

// mountTree attaches root to a fresh owner, provides available space, and
// runs the initial flush.
func mountTree(t *testing.T, root *Node, avail geometry.Size) *Owner {
	t.Helper()
	owner := NewOwner()
	owner.SetViewport(avail)
	owner.AdoptRoot(root)
	root.SetAvailable(avail, true, true)
	owner.Flush()
	return owner
}

func TestRowFillAndFixed(t *testing.T) {
	a := NewNode(Style{Width: Fill()})
	b := NewNode(Style{Width: Px(50)})
	root := NewNode(Style{Width: Px(300), Height: Px(40), Direction: DirectionRow, Gap: 10})
	root.SetChildren([]*Node{a, b})

	mountTree(t, root, geometry.Size{Width: 300, Height: 40})

	if got := a.Frame().Width(); got != 240 {
		t.Errorf("fill child width = %v, want 240", got)
	}
	if got := b.Frame().Width(); got != 50 {
		t.Errorf("fixed child width = %v, want 50", got)
	}
	if a.Frame().Left != 0 {
		t.Errorf("fill child left = %v, want 0", a.Frame().Left)
	}
	if b.Frame().Left != 250 {
		t.Errorf("fixed child left = %v, want 250", b.Frame().Left)
	}
}

func TestRowGrowWeights(t *testing.T) {
	a := NewNode(Style{Width: Fill(), Grow: 2})
	b := NewNode(Style{Width: Fill()})
	root := NewNode(Style{Width: Px(300), Height: Px(20), Direction: DirectionRow})
	root.SetChildren([]*Node{a, b})

	mountTree(t, root, geometry.Size{Width: 300, Height: 20})

	if got := a.Frame().Width(); got != 200 {
		t.Errorf("weight-2 child width = %v, want 200", got)
	}
	if got := b.Frame().Width(); got != 100 {
		t.Errorf("weight-1 child width = %v, want 100", got)
	}
}

func TestColumnPercentHeight(t *testing.T) {
	child := NewNode(Style{Height: Percent(50), Width: Px(10)})
	root := NewNode(Style{Width: Px(100), Height: Px(200), Direction: DirectionColumn})
	root.SetChildren([]*Node{child})

	mountTree(t, root, geometry.Size{Width: 100, Height: 200})

	if got := child.Frame().Height(); got != 100 {
		t.Errorf("percent child height = %v, want 100", got)
	}
}

func TestPaddingOffsetsChildren(t *testing.T) {
	child := NewNode(Style{Width: Fill(), Height: Fill()})
	root := NewNode(Style{
		Width:   Px(100),
		Height:  Px(100),
		Padding: geometry.EdgeInsetsAll(10),
	})
	root.SetChildren([]*Node{child})

	mountTree(t, root, geometry.Size{Width: 100, Height: 100})

	want := geometry.RectFromLTWH(10, 10, 80, 80)
	if child.Frame() != want {
		t.Errorf("child frame = %+v, want %+v", child.Frame(), want)
	}
}

func TestFillFallsBackToContentInAutoParent(t *testing.T) {
	leaf := NewNode(Style{Width: Fill()})
	leaf.SetMeasureFunc(func(maxWidth float64) geometry.Size {
		return geometry.Size{Width: 35, Height: 13}
	})
	root := NewNode(Style{Direction: DirectionRow})
	root.SetChildren([]*Node{leaf})

	owner := NewOwner()
	owner.AdoptRoot(root)
	// No available space provided: both root axes are indefinite.
	owner.Flush()

	if got := leaf.Frame().Width(); got != 35 {
		t.Errorf("fill-in-auto width = %v, want content width 35", got)
	}
	if got := root.Frame().Width(); got != 35 {
		t.Errorf("auto root width = %v, want 35", got)
	}
}

func TestJustifySpaceBetween(t *testing.T) {
	a := NewNode(Style{Width: Px(50), Height: Px(10)})
	b := NewNode(Style{Width: Px(50), Height: Px(10)})
	c := NewNode(Style{Width: Px(50), Height: Px(10)})
	root := NewNode(Style{
		Width:     Px(300),
		Height:    Px(10),
		Direction: DirectionRow,
		Justify:   JustifySpaceBetween,
	})
	root.SetChildren([]*Node{a, b, c})

	mountTree(t, root, geometry.Size{Width: 300, Height: 10})

	wantLefts := []float64{0, 125, 250}
	for i, n := range []*Node{a, b, c} {
		if n.Frame().Left != wantLefts[i] {
			t.Errorf("child %d left = %v, want %v", i, n.Frame().Left, wantLefts[i])
		}
	}
}

func TestJustifyCenter(t *testing.T) {
	child := NewNode(Style{Width: Px(100), Height: Px(10)})
	root := NewNode(Style{
		Width:     Px(300),
		Height:    Px(10),
		Direction: DirectionRow,
		Justify:   JustifyCenter,
	})
	root.SetChildren([]*Node{child})

	mountTree(t, root, geometry.Size{Width: 300, Height: 10})

	if child.Frame().Left != 100 {
		t.Errorf("centered child left = %v, want 100", child.Frame().Left)
	}
}

func TestAlignCenterAndEnd(t *testing.T) {
	a := NewNode(Style{Width: Px(10), Height: Px(40)})
	root := NewNode(Style{Width: Px(100), Height: Px(100), Direction: DirectionRow, Align: AlignCenter})
	root.SetChildren([]*Node{a})
	mountTree(t, root, geometry.Size{Width: 100, Height: 100})
	if a.Frame().Top != 30 {
		t.Errorf("centered child top = %v, want 30", a.Frame().Top)
	}

	b := NewNode(Style{Width: Px(10), Height: Px(40)})
	root2 := NewNode(Style{Width: Px(100), Height: Px(100), Direction: DirectionRow, Align: AlignEnd})
	root2.SetChildren([]*Node{b})
	mountTree(t, root2, geometry.Size{Width: 100, Height: 100})
	if b.Frame().Top != 60 {
		t.Errorf("end-aligned child top = %v, want 60", b.Frame().Top)
	}
}

func TestAlignStretch(t *testing.T) {
	child := NewNode(Style{Width: Px(10)})
	root := NewNode(Style{Width: Px(100), Height: Px(80), Direction: DirectionRow, Align: AlignStretch})
	root.SetChildren([]*Node{child})

	mountTree(t, root, geometry.Size{Width: 100, Height: 80})

	if got := child.Frame().Height(); got != 80 {
		t.Errorf("stretched child height = %v, want 80", got)
	}
}

func TestShrinkScaledByBase(t *testing.T) {
	a := NewNode(Style{Width: Px(90), Height: Px(10), Shrink: 1})
	b := NewNode(Style{Width: Px(30), Height: Px(10), Shrink: 1})
	root := NewNode(Style{Width: Px(100), Height: Px(10), Direction: DirectionRow})
	root.SetChildren([]*Node{a, b})

	mountTree(t, root, geometry.Size{Width: 100, Height: 10})

	if got := a.Frame().Width(); got != 75 {
		t.Errorf("shrunk child a width = %v, want 75", got)
	}
	if got := b.Frame().Width(); got != 25 {
		t.Errorf("shrunk child b width = %v, want 25", got)
	}
}

func TestZeroShrinkKeepsSize(t *testing.T) {
	a := NewNode(Style{Width: Px(90), Height: Px(10)})
	b := NewNode(Style{Width: Px(30), Height: Px(10)})
	root := NewNode(Style{Width: Px(100), Height: Px(10), Direction: DirectionRow})
	root.SetChildren([]*Node{a, b})

	mountTree(t, root, geometry.Size{Width: 100, Height: 10})

	if got := a.Frame().Width(); got != 90 {
		t.Errorf("rigid child a width = %v, want 90", got)
	}
	if b.Frame().Left != 90 {
		t.Errorf("overflowing child b left = %v, want 90", b.Frame().Left)
	}
}

func TestViewportUnits(t *testing.T) {
	a := NewNode(Style{Width: VW(50), Height: VH(10)})
	root := NewNode(Style{Width: Fill(), Height: Fill(), Direction: DirectionRow})
	root.SetChildren([]*Node{a})

	mountTree(t, root, geometry.Size{Width: 800, Height: 600})

	if got := a.Frame().Width(); got != 400 {
		t.Errorf("vw child width = %v, want 400", got)
	}
	if got := a.Frame().Height(); got != 60 {
		t.Errorf("vh child height = %v, want 60", got)
	}
}

func TestMeasureFuncReflowsAtAssignedWidth(t *testing.T) {
	// Mimics wrapping text: one line when wide enough, two lines when not.
	leaf := NewNode(Style{})
	leaf.SetMeasureFunc(func(maxWidth float64) geometry.Size {
		if maxWidth >= 35 {
			return geometry.Size{Width: 35, Height: 13}
		}
		return geometry.Size{Width: 14, Height: 26}
	})
	root := NewNode(Style{Width: Px(20), Direction: DirectionColumn})
	root.SetChildren([]*Node{leaf})

	mountTree(t, root, geometry.Size{Width: 20, Height: 100})

	if got := leaf.Frame().Height(); got != 26 {
		t.Errorf("wrapped leaf height = %v, want 26", got)
	}
	if got := leaf.Frame().Width(); got != 14 {
		t.Errorf("wrapped leaf width = %v, want 14", got)
	}
}

func TestStackPositioning(t *testing.T) {
	child := NewNode(Style{Width: Px(20), Height: Px(10)})
	root := NewNode(Style{
		Width:     Px(100),
		Height:    Px(100),
		Direction: DirectionStack,
		Justify:   JustifyCenter,
		Align:     AlignEnd,
	})
	root.SetChildren([]*Node{child})

	mountTree(t, root, geometry.Size{Width: 100, Height: 100})

	want := geometry.RectFromLTWH(40, 90, 20, 10)
	if child.Frame() != want {
		t.Errorf("stack child frame = %+v, want %+v", child.Frame(), want)
	}
}

func TestStackChildrenOverlay(t *testing.T) {
	a := NewNode(Style{Width: Fill(), Height: Fill()})
	b := NewNode(Style{Width: Px(30), Height: Px(30)})
	root := NewNode(Style{Width: Px(100), Height: Px(100), Direction: DirectionStack})
	root.SetChildren([]*Node{a, b})

	mountTree(t, root, geometry.Size{Width: 100, Height: 100})

	if got := a.Frame(); got != geometry.RectFromLTWH(0, 0, 100, 100) {
		t.Errorf("fill overlay frame = %+v, want full box", got)
	}
	if got := b.Frame(); got != geometry.RectFromLTWH(0, 0, 30, 30) {
		t.Errorf("fixed overlay frame = %+v, want {0 0 30 30}", got)
	}
}

func TestNestedColumnsAndRows(t *testing.T) {
	label := NewNode(Style{Width: Px(40), Height: Px(13)})
	field := NewNode(Style{Width: Fill(), Height: Px(13)})
	row := NewNode(Style{Width: Fill(), Height: Px(13), Direction: DirectionRow, Gap: 4})
	row.SetChildren([]*Node{label, field})

	footer := NewNode(Style{Width: Fill(), Height: Px(20)})
	root := NewNode(Style{Width: Px(200), Height: Px(100), Direction: DirectionColumn, Gap: 7})
	root.SetChildren([]*Node{row, footer})

	mountTree(t, root, geometry.Size{Width: 200, Height: 100})

	if got := row.Frame(); got != geometry.RectFromLTWH(0, 0, 200, 13) {
		t.Errorf("row frame = %+v, want {0 0 200 13}", got)
	}
	if got := field.Frame(); got != geometry.RectFromLTWH(44, 0, 156, 13) {
		t.Errorf("field frame = %+v, want {44 0 156 13}", got)
	}
	if footer.Frame().Top != 20 {
		t.Errorf("footer top = %v, want 20", footer.Frame().Top)
	}
}

func TestLayoutIsFixedPoint(t *testing.T) {
	a := NewNode(Style{Width: Fill()})
	b := NewNode(Style{Width: Px(50)})
	root := NewNode(Style{Width: Px(300), Height: Px(40), Direction: DirectionRow, Gap: 10})
	root.SetChildren([]*Node{a, b})

	commits := 0
	a.SetOnCommit(func(geometry.Rect) { commits++ })

	owner := mountTree(t, root, geometry.Size{Width: 300, Height: 40})
	first := a.Frame()
	if commits != 1 {
		t.Fatalf("commits after mount = %d, want 1", commits)
	}

	// Force a second full pass over the unchanged tree.
	root.MarkDirty()
	owner.Flush()

	if a.Frame() != first {
		t.Errorf("frame changed across converged passes: %+v vs %+v", a.Frame(), first)
	}
	if commits != 1 {
		t.Errorf("commits after converged re-flush = %d, want 1", commits)
	}
}

func TestBoundaryContainsRelayout(t *testing.T) {
	inner := NewNode(Style{Width: Px(40), Height: Px(10)})
	pinned := NewNode(Style{Width: Px(100), Height: Px(50), Direction: DirectionRow})
	pinned.SetChildren([]*Node{inner})
	sibling := NewNode(Style{Width: Px(10), Height: Px(10)})
	root := NewNode(Style{Width: Px(300), Height: Px(50), Direction: DirectionRow})
	root.SetChildren([]*Node{pinned, sibling})

	rootCommits := 0
	root.SetOnCommit(func(geometry.Rect) { rootCommits++ })

	owner := mountTree(t, root, geometry.Size{Width: 300, Height: 50})
	if rootCommits != 1 {
		t.Fatalf("root commits after mount = %d, want 1", rootCommits)
	}

	// A change inside the pinned subtree must not reach the root.
	inner.SetStyle(Style{Width: Px(60), Height: Px(10)})
	if !owner.NeedsLayout() {
		t.Fatal("expected dirty boundary after style change")
	}
	owner.Flush()

	if got := inner.Frame().Width(); got != 60 {
		t.Errorf("inner width after relayout = %v, want 60", got)
	}
	if rootCommits != 1 {
		t.Errorf("root commits after boundary relayout = %d, want 1", rootCommits)
	}
	if sibling.Frame().Left != 100 {
		t.Errorf("sibling left = %v, want 100", sibling.Frame().Left)
	}
}

func TestMarkDirtyDeduplicates(t *testing.T) {
	child := NewNode(Style{Width: Px(10), Height: Px(10)})
	root := NewNode(Style{Width: Px(100), Height: Px(100), Direction: DirectionRow})
	root.SetChildren([]*Node{child})

	owner := mountTree(t, root, geometry.Size{Width: 100, Height: 100})

	child.MarkDirty()
	child.MarkDirty()
	child.MarkDirty()
	if len(owner.dirty) != 1 {
		t.Errorf("scheduled boundaries = %d, want 1", len(owner.dirty))
	}
	owner.Flush()
	if owner.NeedsLayout() {
		t.Error("owner still dirty after flush")
	}
}

func TestSetChildrenUnchangedIsNoOp(t *testing.T) {
	a := NewNode(Style{Width: Px(10), Height: Px(10)})
	root := NewNode(Style{Width: Px(100), Height: Px(100)})
	root.SetChildren([]*Node{a})

	owner := mountTree(t, root, geometry.Size{Width: 100, Height: 100})

	root.SetChildren([]*Node{a})
	if owner.NeedsLayout() {
		t.Error("identical child list marked the tree dirty")
	}
}

func TestSetChildrenDetachesRemoved(t *testing.T) {
	a := NewNode(Style{Width: Px(10), Height: Px(10)})
	b := NewNode(Style{Width: Px(10), Height: Px(10)})
	root := NewNode(Style{Width: Px(100), Height: Px(100), Direction: DirectionRow})
	root.SetChildren([]*Node{a, b})

	owner := mountTree(t, root, geometry.Size{Width: 100, Height: 100})

	root.SetChildren([]*Node{b})
	owner.Flush()

	if a.owner != nil {
		t.Error("removed child still attached to owner")
	}
	if a.Parent() != nil {
		t.Error("removed child still has a parent")
	}
	if b.Frame().Left != 0 {
		t.Errorf("remaining child left = %v, want 0", b.Frame().Left)
	}
}

func TestViewportChangeReflows(t *testing.T) {
	child := NewNode(Style{Width: VW(50), Height: Px(10)})
	root := NewNode(Style{Width: Fill(), Height: Fill(), Direction: DirectionRow})
	root.SetChildren([]*Node{child})

	owner := mountTree(t, root, geometry.Size{Width: 800, Height: 600})
	if got := child.Frame().Width(); got != 400 {
		t.Fatalf("initial vw width = %v, want 400", got)
	}

	owner.SetViewport(geometry.Size{Width: 400, Height: 600})
	root.SetAvailable(geometry.Size{Width: 400, Height: 600}, true, true)
	owner.Flush()

	if got := child.Frame().Width(); got != 200 {
		t.Errorf("vw width after viewport change = %v, want 200", got)
	}
}

func TestGapOnlyBetweenChildren(t *testing.T) {
	a := NewNode(Style{Width: Px(10), Height: Px(10)})
	b := NewNode(Style{Width: Px(10), Height: Px(10)})
	c := NewNode(Style{Width: Px(10), Height: Px(10)})
	root := NewNode(Style{Direction: DirectionRow, Gap: 5})
	root.SetChildren([]*Node{a, b, c})

	owner := NewOwner()
	owner.AdoptRoot(root)
	owner.Flush()

	// Auto root: content = 3*10 + 2*5.
	if got := root.Frame().Width(); got != 40 {
		t.Errorf("auto row width = %v, want 40", got)
	}
	if b.Frame().Left != 15 || c.Frame().Left != 30 {
		t.Errorf("gap positions = %v, %v, want 15, 30", b.Frame().Left, c.Frame().Left)
	}
}
