package core

import (
	"slices"
	"sync"
)

// Scheduler queues cross-goroutine tasks and dirty component instances for
// the next tick. One Scheduler usually drives one Root; embedders that want
// a shared frame loop can pass the same Scheduler to several mounts.
type Scheduler struct {
	mu       sync.Mutex
	tasks    []func()
	dirty    []*componentElement
	dirtySet map[*componentElement]bool

	// OnWake is called when new work is queued, signalling the embedder to
	// schedule a flush. This is what drives on-demand frame loops that sleep
	// until something changes. Do not flush synchronously from inside it.
	OnWake func()
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Post queues fn to run at the start of the next flush, on the goroutine
// that calls Flush. Safe to call from any goroutine; this is how background
// work re-enters the tree.
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, fn)
	s.mu.Unlock()
	s.wake()
}

// scheduleRender marks a component element for the next render flush.
func (s *Scheduler) scheduleRender(e *componentElement) {
	added := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.dirtySet[e] {
			return false
		}
		if s.dirtySet == nil {
			s.dirtySet = make(map[*componentElement]bool)
		}
		s.dirtySet[e] = true
		s.dirty = append(s.dirty, e)
		return true
	}()

	if added {
		s.wake()
	}
}

func (s *Scheduler) wake() {
	if s.OnWake != nil {
		s.OnWake()
	}
}

// takeTasks drains the task queue.
func (s *Scheduler) takeTasks() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := s.tasks
	s.tasks = nil
	return tasks
}

// takeDirty drains the dirty set in depth order, parents first, so a parent
// render can satisfy its descendants before their own entries are visited.
func (s *Scheduler) takeDirty() []*componentElement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	slices.SortFunc(s.dirty, func(a, b *componentElement) int {
		return a.depth - b.depth
	})
	dirty := s.dirty
	s.dirty = nil
	clear(s.dirtySet)
	return dirty
}

// hasWork reports whether tasks or dirty instances are queued.
func (s *Scheduler) hasWork() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks) > 0 || len(s.dirty) > 0
}
