package testing

import (
	"errors"
	"testing"

	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host/hosttest"
)

const (
	// DefaultViewportWidth is the default logical width of the test viewport.
	DefaultViewportWidth = 800
	// DefaultViewportHeight is the default logical height of the test viewport.
	DefaultViewportHeight = 600
)

// ErrSettleTimeout is returned when PumpUntilSettled runs out of ticks.
var ErrSettleTimeout = errors.New("PumpUntilSettled gave up: tree did not settle")

// TreeTester provides isolated tree testing without an engine binding. It
// mounts descriptor trees into a recording host and drives the same flush
// cycle an embedder's frame loop would, one explicit tick at a time.
type TreeTester struct {
	host      *hosttest.Host
	scheduler *core.Scheduler
	root      *core.Root
	viewport  geometry.Size
}

// NewTreeTester creates a tester with the default test viewport.
// Call Cleanup() when done, or use NewTreeTesterWithT() instead.
func NewTreeTester() *TreeTester {
	return &TreeTester{
		host:      hosttest.New(),
		scheduler: core.NewScheduler(),
		viewport:  geometry.Size{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
	}
}

// NewTreeTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewTreeTesterWithT(t *testing.T) *TreeTester {
	tester := NewTreeTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup unmounts the tree if one is mounted. Must be called if not using
// NewTreeTesterWithT.
func (t *TreeTester) Cleanup() {
	if t.root != nil {
		t.root.Unmount()
		t.root = nil
	}
}

// SetViewport sets the logical viewport size. Before MountTree it changes
// the size the next mount uses; afterwards it reflows the mounted tree.
func (t *TreeTester) SetViewport(size geometry.Size) {
	t.viewport = size
	if t.root != nil {
		t.root.SetViewport(size)
	}
}

// MountTree mounts (or remounts) a descriptor tree and runs the initial
// flush. Remounting discards the previous tree and its component state; use
// UpdateTree to diff against a mounted tree instead.
func (t *TreeTester) MountTree(root *core.Descriptor) error {
	if t.root != nil {
		t.root.Unmount()
		t.root = nil
	}
	t.host.ResetOps()

	r, err := core.Mount(t.host, t.host.Container(), root,
		core.WithViewport(t.viewport),
		core.WithScheduler(t.scheduler))
	t.root = r
	return err
}

// UpdateTree diffs the mounted tree against a new root descriptor, keeping
// component state where identities match.
func (t *TreeTester) UpdateTree(root *core.Descriptor) error {
	if t.root == nil {
		panic("UpdateTree called before MountTree")
	}
	return t.root.Update(root)
}

// Pump runs one flush tick: queued tasks, dirty renders, commit, effects.
func (t *TreeTester) Pump() error {
	if t.root == nil {
		return nil
	}
	return t.root.Flush()
}

// PumpUntilSettled pumps until no work is pending, or maxTicks flushes have
// run. Returns ErrSettleTimeout if the tree keeps scheduling work, which
// usually means an effect sets state unconditionally.
func (t *TreeTester) PumpUntilSettled(maxTicks int) error {
	for i := 0; i < maxTicks; i++ {
		if err := t.Pump(); err != nil {
			return err
		}
		if !t.needsWork() {
			return nil
		}
	}
	return ErrSettleTimeout
}

// needsWork returns true if the tree has pending renders, tasks or layout.
func (t *TreeTester) needsWork() bool {
	return t.root != nil && t.root.NeedsWork()
}

// Dispatch queues a callback for the next pump, mirroring how background
// work re-enters the tree through the scheduler.
func (t *TreeTester) Dispatch(fn func()) {
	t.scheduler.Post(fn)
}

// Host returns the recording host backing the mount.
func (t *TreeTester) Host() *hosttest.Host {
	return t.host
}

// Root returns the mounted root, nil before MountTree.
func (t *TreeTester) Root() *core.Root {
	return t.root
}

// Find evaluates a finder against the mounted tree.
func (t *TreeTester) Find(finder Finder) FinderResult {
	if t.root == nil {
		return FinderResult{finder: finder}
	}
	tree := t.root.Tree()
	if !tree.Valid() {
		return FinderResult{finder: finder}
	}
	return FinderResult{
		nodes:  finder.Evaluate(tree),
		finder: finder,
	}
}
