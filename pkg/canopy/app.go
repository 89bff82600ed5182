// Package canopy bundles an adapter, a mounted tree and a scheduler into a
// single App, the entry point an embedder wires its frame loop to.
package canopy

import (
	"sync"

	"github.com/go-canopy/canopy/pkg/core"
	"github.com/go-canopy/canopy/pkg/errors"
	"github.com/go-canopy/canopy/pkg/geometry"
	"github.com/go-canopy/canopy/pkg/host"
)

// App drives one mounted tree. Configure the exported fields, call Start
// from the goroutine that will own the tree, then call Flush from the same
// goroutine whenever OnFrameRequested fires. Dispatch is safe from any
// goroutine; everything else belongs to the owning goroutine.
type App struct {
	// Adapter bridges the tree to the host scene graph.
	Adapter host.Adapter
	// Container is the host handle the tree mounts into.
	Container host.Handle
	// Root is the descriptor tree to mount.
	Root *core.Descriptor
	// Viewport fixes the layout space and the size vw/vh resolve against.
	// Zero means size-to-content.
	Viewport geometry.Size
	// Handler, when non-nil, is installed as the error handler on Start.
	Handler errors.ErrorHandler
	// OnFrameRequested is called when the tree schedules new work, so
	// embedders can run on-demand frame loops that sleep until something
	// changes. Set it before Start; do not call Flush synchronously from
	// inside it.
	OnFrameRequested func()

	mu      sync.Mutex
	sched   *core.Scheduler
	root    *core.Root
	started bool
}

// NewApp creates an App for the common case: one adapter, one container,
// one root descriptor.
func NewApp(adapter host.Adapter, container host.Handle, root *core.Descriptor) *App {
	return &App{Adapter: adapter, Container: container, Root: root}
}

// Start mounts the tree and commits the first frame. On partial failure the
// committed part of the tree stays up and the error describes the first
// failed subtree; the App is running either way. Start panics if the App is
// already running.
func (a *App) Start() error {
	sched := a.scheduler()

	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		panic("canopy: Start called on a running App")
	}
	a.started = true
	a.mu.Unlock()

	if a.Handler != nil {
		errors.SetHandler(a.Handler)
	}

	opts := []core.Option{core.WithScheduler(sched)}
	if a.Viewport != (geometry.Size{}) {
		opts = append(opts, core.WithViewport(a.Viewport))
	}
	root, err := core.Mount(a.Adapter, a.Container, a.Root, opts...)

	a.mu.Lock()
	a.root = root
	a.mu.Unlock()

	setActive(a)
	return err
}

// Stop unmounts the tree and detaches the App from package-level Dispatch.
// A stopped App can be started again; state does not survive the restart.
func (a *App) Stop() {
	a.mu.Lock()
	root := a.root
	a.root = nil
	a.sched = nil
	a.started = false
	a.mu.Unlock()

	clearActive(a)
	if root != nil {
		root.Unmount()
	}
}

// Flush runs one tick: queued callbacks, pending renders, host mutations,
// layout, effects. Call it from the owning goroutine in response to
// OnFrameRequested. Returns the first render or host error of the tick.
func (a *App) Flush() error {
	a.mu.Lock()
	root := a.root
	a.mu.Unlock()
	if root == nil {
		return nil
	}
	return root.Flush()
}

// NeedsWork reports whether a Flush would do anything. Frame loops use it
// to skip idle frames.
func (a *App) NeedsWork() bool {
	a.mu.Lock()
	root := a.root
	a.mu.Unlock()
	return root != nil && root.NeedsWork()
}

// Dispatch schedules fn to run on the owning goroutine at the start of the
// next Flush. Safe to call from any goroutine, before or after Start; this
// is how background work re-enters the tree.
func (a *App) Dispatch(fn func()) {
	a.scheduler().Post(fn)
}

// SetViewport changes the layout viewport. The reflow happens at the next
// Flush.
func (a *App) SetViewport(size geometry.Size) {
	a.mu.Lock()
	a.Viewport = size
	root := a.root
	a.mu.Unlock()
	if root != nil {
		root.SetViewport(size)
	}
}

// UpdateRoot swaps the root descriptor and reconciles the mounted tree
// against it, keeping component state where identities match.
func (a *App) UpdateRoot(root *core.Descriptor) error {
	a.mu.Lock()
	a.Root = root
	mounted := a.root
	a.mu.Unlock()
	if mounted == nil {
		return nil
	}
	return mounted.Update(root)
}

func (a *App) scheduler() *core.Scheduler {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sched == nil {
		a.sched = core.NewScheduler()
		a.sched.OnWake = a.notifyFrame
	}
	return a.sched
}

func (a *App) notifyFrame() {
	// Deliberately lock-free: wakes can fire while Start holds the lock.
	if fn := a.OnFrameRequested; fn != nil {
		fn()
	}
}

var (
	activeMu  sync.RWMutex
	activeApp *App
)

func setActive(a *App) {
	activeMu.Lock()
	activeApp = a
	activeMu.Unlock()
}

func clearActive(a *App) {
	activeMu.Lock()
	if activeApp == a {
		activeApp = nil
	}
	activeMu.Unlock()
}

// Dispatch schedules a callback onto the most recently started App. Returns
// true if the callback was scheduled, false if no App is running or the
// callback is nil.
func Dispatch(callback func()) bool {
	activeMu.RLock()
	app := activeApp
	activeMu.RUnlock()
	if app == nil || callback == nil {
		return false
	}
	app.Dispatch(callback)
	return true
}
