// Package scheduler drives the simulation: a virtual clock advanced in fixed
// frame steps, periodic tasks (the main frame update, ability timers, the
// physics pass) and one-shot delayed tasks (projectile despawns).
//
// All tasks run on the goroutine that calls Advance (or Run). Other goroutines
// hand work to that goroutine through Post.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTickRate is the fixed simulation cadence in steps per second.
const DefaultTickRate = 60

// inboxSize bounds the number of Post callbacks queued between frames.
const inboxSize = 256

// Clock is the subset of Scheduler used by components that schedule work.
type Clock interface {
	Now() time.Duration
	Every(name string, period time.Duration, fn func()) *Handle
	After(name string, delay time.Duration, fn func()) *Handle
	FrameInterval() time.Duration
}

// Handle identifies a scheduled task.
type Handle struct {
	s *Scheduler
	e *entry
}

// Cancel prevents any further runs of the task. Safe to call multiple times
// and on a nil Handle.
//
// Postcondition: the task's callback is not invoked after Cancel returns.
func (h *Handle) Cancel() {
	if h == nil || h.e == nil {
		return
	}
	h.s.mu.Lock()
	h.e.cancelled = true
	h.s.mu.Unlock()
}

// Active reports whether the task may still run.
func (h *Handle) Active() bool {
	if h == nil || h.e == nil {
		return false
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return !h.e.cancelled && !h.e.done
}

// Name returns the task's diagnostic name.
func (h *Handle) Name() string {
	if h == nil || h.e == nil {
		return ""
	}
	return h.e.name
}

type entry struct {
	name      string
	due       time.Duration
	period    time.Duration // zero for one-shot tasks
	seq       uint64
	fn        func()
	cancelled bool
	done      bool
}

// taskQueue orders entries by due time, then by registration order.
type taskQueue []*entry

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *taskQueue) Push(x any)   { *q = append(*q, x.(*entry)) }
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Scheduler is a single-threaded cooperative task runner on a virtual clock.
//
// Invariant: tasks never run concurrently with each other; the virtual clock
// only moves forward.
type Scheduler struct {
	mu      sync.Mutex
	now     time.Duration
	frame   time.Duration
	queue   taskQueue
	seq     uint64
	stopped bool
	inbox   chan func()
	logger  *zap.Logger
}

// New creates a Scheduler stepping at tickRate frames per second.
//
// Precondition: tickRate > 0; logger must be non-nil.
// Postcondition: Returns a Scheduler with the clock at zero and no tasks.
func New(tickRate int, logger *zap.Logger) *Scheduler {
	if tickRate <= 0 {
		panic("scheduler.New: tickRate must be > 0")
	}
	return &Scheduler{
		frame:  time.Second / time.Duration(tickRate),
		inbox:  make(chan func(), inboxSize),
		logger: logger,
	}
}

// Now returns the current virtual time since the scheduler started.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// FrameInterval returns the duration of one fixed simulation step.
func (s *Scheduler) FrameInterval() time.Duration {
	return s.frame
}

// Every registers fn to run every period, first at Now()+period.
//
// Precondition: period > 0; fn must be non-nil.
// Postcondition: Returns a Handle; the task runs until cancelled or Stop.
func (s *Scheduler) Every(name string, period time.Duration, fn func()) *Handle {
	if period <= 0 {
		panic(fmt.Sprintf("scheduler.Every(%q): period must be > 0", name))
	}
	return s.schedule(name, period, period, fn)
}

// After registers fn to run once, delay from now.
//
// Precondition: delay >= 0; fn must be non-nil.
// Postcondition: Returns a Handle; the task runs once unless cancelled first.
func (s *Scheduler) After(name string, delay time.Duration, fn func()) *Handle {
	if delay < 0 {
		delay = 0
	}
	return s.schedule(name, delay, 0, fn)
}

func (s *Scheduler) schedule(name string, delay, period time.Duration, fn func()) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e := &entry{name: name, due: s.now + delay, period: period, seq: s.seq, fn: fn}
	if s.stopped {
		e.cancelled = true
		return &Handle{s: s, e: e}
	}
	heap.Push(&s.queue, e)
	return &Handle{s: s, e: e}
}

// Post queues fn to run on the scheduler goroutine before the next task.
// It is safe to call from any goroutine.
//
// Postcondition: Returns false when the inbox is full and fn was dropped.
func (s *Scheduler) Post(fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	default:
		s.logger.Warn("scheduler inbox full, dropping posted callback")
		return false
	}
}

// Advance moves the virtual clock forward by d, running every task that
// becomes due in due-time order. Periodic tasks that fall due several times
// within d run once per occurrence.
//
// Precondition: d >= 0; must not be called concurrently with itself or Run.
// Postcondition: Now() has increased by d.
func (s *Scheduler) Advance(d time.Duration) {
	s.drainInbox()

	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.queue.Len() == 0 || s.queue[0].due > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		e := heap.Pop(&s.queue).(*entry)
		if e.cancelled {
			s.mu.Unlock()
			continue
		}
		s.now = e.due
		if e.period > 0 {
			e.due += e.period
			heap.Push(&s.queue, e)
		} else {
			e.done = true
		}
		s.mu.Unlock()

		s.run(e)
	}
}

// Step advances the clock by exactly one frame.
func (s *Scheduler) Step() {
	s.Advance(s.frame)
}

func (s *Scheduler) run(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				zap.String("task", e.name),
				zap.Any("panic", r),
			)
		}
	}()
	e.fn()
}

func (s *Scheduler) drainInbox() {
	for {
		select {
		case fn := <-s.inbox:
			s.run(&entry{name: "post", fn: fn})
		default:
			return
		}
	}
}

// Run advances the clock one frame per wall-clock frame interval and runs
// posted callbacks as they arrive, until ctx is cancelled.
//
// Postcondition: returns ctx.Err() once ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.inbox:
			s.run(&entry{name: "post", fn: fn})
		case <-ticker.C:
			s.Advance(s.frame)
		}
	}
}

// Pending returns the number of tasks still queued, including cancelled tasks
// that have not yet been discarded.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Stop cancels every queued task. Tasks registered after Stop never run.
//
// Postcondition: no callback runs after Stop returns, except posted callbacks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, e := range s.queue {
		e.cancelled = true
	}
	s.queue = nil
}
