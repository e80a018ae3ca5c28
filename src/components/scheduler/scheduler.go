package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is one periodic job. Run must respect the context; it is invoked
// from a single goroutine, so it never overlaps itself on the schedule.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a Task on its interval. The first execution waits until the
// ready channel closes (the gateway connection being up). RunNow requests an
// immediate execution, serialized with the scheduled one: while a run is in
// flight the request is dropped rather than stacked. A Runner can be stopped
// and restarted independently of the rest of the process.
type Runner struct {
	task  Task
	ready <-chan struct{}

	trigger chan struct{}
	token   chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(task Task, ready <-chan struct{}) *Runner {
	return &Runner{
		task:    task,
		ready:   ready,
		trigger: make(chan struct{}, 1),
		token:   make(chan struct{}, 1),
	}
}

// Start launches the loop. Calling Start while running restarts the task.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)
		r.loop(runCtx)
	}()
}

// Stop cancels the loop and waits for any in-flight execution to reach its
// next await point. No timers survive a Stop.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Runner) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}

// RunNow queues an immediate execution. Returns false when the task is
// already executing or a trigger is pending; the caller's request is then a
// no-op rather than a second concurrent run.
func (r *Runner) RunNow() bool {
	if len(r.token) > 0 {
		return false
	}
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (r *Runner) loop(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-r.ready:
	}

	log.Printf("scheduler: %s started (every %s)", r.task.Name, r.task.Interval)

	ticker := time.NewTicker(r.task.Interval)
	defer ticker.Stop()

	// First run fires immediately once ready.
	r.execute(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: %s stopped", r.task.Name)
			return
		case <-ticker.C:
			r.execute(ctx)
		case <-r.trigger:
			r.execute(ctx)
		}
	}
}

// execute is the outermost layer of a task body: nothing may escape it, or
// the periodic loop would silently die until the process restarts.
func (r *Runner) execute(ctx context.Context) {
	select {
	case r.token <- struct{}{}:
	default:
		log.Printf("scheduler: %s already running, skipping", r.task.Name)
		return
	}
	defer func() { <-r.token }()

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("scheduler: %s panicked: %v", r.task.Name, rec)
		}
	}()

	if err := r.task.Run(ctx); err != nil {
		log.Printf("scheduler: %s: %v", r.task.Name, err)
	}
}
