// Package tasks names the units of work of the pipeline and runs them in
// series.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vinceanalytics/forge/internal/metrics"
)

type Func func(ctx context.Context) error

type task struct {
	name string
	// a task never runs concurrently with itself, watch groups may share
	// tasks like html.
	mu sync.Mutex
	f  Func
}

type Registry struct {
	tasks   map[string]*task
	closers []io.Closer
	log     *slog.Logger
}

func New() *Registry {
	return &Registry{
		tasks: make(map[string]*task),
		log:   slog.Default().With("component", "tasks"),
	}
}

// Add registers f under name, replacing any previous task with that name.
func (r *Registry) Add(name string, f Func) {
	r.tasks[name] = &task{name: name, f: f}
}

func (r *Registry) Has(name string) bool {
	_, ok := r.tasks[name]
	return ok
}

// Names returns registered task names in sorted order.
func (r *Registry) Names() []string {
	o := make([]string, 0, len(r.tasks))
	for k := range r.tasks {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// Check returns an error naming every task in names that is not registered.
func (r *Registry) Check(names ...string) error {
	var e []error
	for _, n := range names {
		if !r.Has(n) {
			e = append(e, fmt.Errorf("unknown task %q", n))
		}
	}
	return errors.Join(e...)
}

// Series returns a task running names one after the other.
func (r *Registry) Series(names ...string) Func {
	return func(ctx context.Context) error {
		return r.Run(ctx, names...)
	}
}

// Run executes names in order and stops at the first failing task.
func (r *Registry) Run(ctx context.Context, names ...string) error {
	if err := r.Check(names...); err != nil {
		return err
	}
	for _, n := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.run(ctx, r.tasks[n]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) run(ctx context.Context, t *task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	r.log.DebugContext(ctx, "starting", "task", t.name)
	start := time.Now()
	err := t.f(ctx)
	elapsed := time.Since(start)
	metrics.TaskDuration.WithLabelValues(t.name).Observe(elapsed.Seconds())
	if err != nil {
		metrics.TaskFailures.WithLabelValues(t.name).Inc()
		return fmt.Errorf("%s: %w", t.name, err)
	}
	r.log.InfoContext(ctx, "finished", "task", t.name, "elapsed", elapsed)
	return nil
}

// OnClose registers c to be closed with the registry.
func (r *Registry) OnClose(c io.Closer) {
	r.closers = append(r.closers, c)
}

func (r *Registry) Close() error {
	e := make([]error, len(r.closers))
	for i, c := range r.closers {
		e[i] = c.Close()
	}
	return errors.Join(e...)
}
