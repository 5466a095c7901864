// Package loop provides a cooperative, single-goroutine event loop.
//
// All callbacks (posted functions and timers) run on whichever goroutine is
// driving the loop through Run, ProcessPendingEvents or RunUntilIdle. Post
// and AfterFunc are safe to call from any goroutine, which is how input
// pumps hand work to the loop.
//
// Nothing in this package spawns goroutines to run callbacks; waiting
// happens by returning control to the loop, never by blocking inside a
// callback.
package loop

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// maxIdleIterations bounds RunUntilIdle so a self-rescheduling callback
// cannot hang a test forever.
const maxIdleIterations = 1_000_000

// Loop is a cooperative scheduler.
type Loop struct {
	mu     sync.Mutex
	posted []func()
	timers timerHeap
	seq    uint64

	clock  Clock
	logger *slog.Logger

	wake    chan struct{}
	running atomic.Bool

	executed atomic.Uint64
	panicked atomic.Uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used for timers.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an idle loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock:  SystemClock(),
		logger: slog.Default(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the loop clock's reading.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn to run on the loop as soon as possible.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc schedules fn to run on the loop once d has elapsed. Timers with
// equal deadlines fire in the order they were scheduled.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	heap.Push(&l.timers, &timer{due: l.clock.Now().Add(d), seq: l.seq, fn: fn})
	l.mu.Unlock()
	l.signal()
}

// Pending returns the number of queued functions and timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) + l.timers.Len()
}

// Executed returns how many callbacks have run.
func (l *Loop) Executed() uint64 {
	return l.executed.Load()
}

// Panicked returns how many callbacks panicked.
func (l *Loop) Panicked() uint64 {
	return l.panicked.Load()
}

// ProcessPendingEvents runs everything that is ready right now: functions
// posted before the call and timers already due. Work queued by those
// callbacks waits for the next call. It never blocks.
//
// Calls may nest (a callback may itself call ProcessPendingEvents).
func (l *Loop) ProcessPendingEvents() {
	l.runReady()
}

// runReady executes ready work and returns the number of callbacks run.
func (l *Loop) runReady() int {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	limit := l.seq
	l.mu.Unlock()

	n := 0
	for _, fn := range posted {
		l.invoke(fn)
		n++
	}

	for {
		fn := l.popDue(limit)
		if fn == nil {
			break
		}
		l.invoke(fn)
		n++
	}
	return n
}

// popDue removes and returns the earliest timer that is due and was
// scheduled no later than limit.
func (l *Loop) popDue(limit uint64) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timers.Len() == 0 {
		return nil
	}
	next := l.timers[0]
	if next.seq > limit || next.due.After(l.clock.Now()) {
		return nil
	}
	heap.Pop(&l.timers)
	return next.fn
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			l.logger.Error("loop callback panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	l.executed.Add(1)
	fn()
}

// nextDeadline returns the earliest timer deadline.
func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timers.Len() == 0 {
		return time.Time{}, false
	}
	return l.timers[0].due, true
}

func (l *Loop) hasPosted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) > 0
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drives the loop until ctx is cancelled. It returns ErrAlreadyRunning
// if another goroutine is already running it.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	idle := time.NewTimer(time.Hour)
	defer idle.Stop()

	for {
		l.runReady()

		if l.hasPosted() {
			continue
		}

		wait := time.Hour
		if due, ok := l.nextDeadline(); ok {
			wait = due.Sub(l.clock.Now())
			if wait <= 0 {
				continue
			}
		}
		idle.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-idle.C:
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
	}
}

// RunUntilIdle runs callbacks until nothing is queued. When the loop uses a
// ManualClock the clock jumps straight to each pending deadline; with any
// other clock the call sleeps until the deadline. It returns the number of
// callbacks executed.
func (l *Loop) RunUntilIdle() int {
	total := 0
	for i := 0; i < maxIdleIterations; i++ {
		total += l.runReady()
		if l.hasPosted() {
			continue
		}
		due, ok := l.nextDeadline()
		if !ok {
			return total
		}
		if mc, isManual := l.clock.(*ManualClock); isManual {
			mc.advanceTo(due)
			continue
		}
		if wait := due.Sub(l.clock.Now()); wait > 0 {
			time.Sleep(wait)
		}
	}
	l.logger.Warn("loop did not become idle", "iterations", maxIdleIterations)
	return total
}

type timer struct {
	due   time.Time
	seq   uint64
	fn    func()
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
