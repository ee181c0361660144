// Package reconcile removes generated assets whose sources no longer exist.
//
// A pass is split in two steps. Plan scans every configured output tree and
// resolves each output against its source tree, producing a DeletionSet per
// class. Apply removes every entry of the plan concurrently, together with
// its companion source map, and waits for all removals before returning.
package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vinceanalytics/forge/internal/artifacts"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/metrics"
	"github.com/vinceanalytics/forge/internal/source"
	"golang.org/x/sync/errgroup"
)

// Target is an orphaned output and the source it was expected to come from.
type Target struct {
	Output artifacts.Output
	Source source.File
}

// DeletionSet is the list of orphaned outputs of one class.
type DeletionSet []Target

// Paths returns every path to remove, companions included.
func (d DeletionSet) Paths() []string {
	o := make([]string, 0, len(d)*2)
	for _, t := range d {
		o = append(o, t.Output.Path)
		if t.Output.Companion != "" {
			o = append(o, t.Output.Companion)
		}
	}
	return o
}

type ClassPlan struct {
	Class   config.Class
	Scanned int
	Delete  DeletionSet
	// Err is set when the class could not be enumerated or resolved. Delete
	// is empty in that case.
	Err error
}

type Plan struct {
	Classes []ClassPlan
}

// Err joins the errors of all failed classes.
func (p *Plan) Err() error {
	var e []error
	for i := range p.Classes {
		if p.Classes[i].Err != nil {
			e = append(e, p.Classes[i].Err)
		}
	}
	return errors.Join(e...)
}

// Failure is a path that could not be removed.
type Failure struct {
	Path string
	Err  error
}

type ClassReport struct {
	Name     string
	Scanned  int
	Deleted  []string
	Failures []Failure
	Err      error
}

type Report struct {
	ID      string
	Classes []ClassReport
}

// Deleted returns all removed paths across classes.
func (r *Report) Deleted() (o []string) {
	for _, c := range r.Classes {
		o = append(o, c.Deleted...)
	}
	return
}

// Failures returns all removal failures across classes.
func (r *Report) Failures() (o []Failure) {
	for _, c := range r.Classes {
		o = append(o, c.Failures...)
	}
	return
}

type Reconciler struct {
	classes []config.Class
	log     *slog.Logger
	remove  func(string) error
}

type Option func(*Reconciler)

func WithLogger(log *slog.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithRemove replaces os.Remove.
func WithRemove(f func(string) error) Option {
	return func(r *Reconciler) { r.remove = f }
}

func New(classes []config.Class, opts ...Option) *Reconciler {
	r := &Reconciler{
		classes: classes,
		log:     slog.Default().With("component", "reconcile"),
		remove:  os.Remove,
	}
	for _, f := range opts {
		f(r)
	}
	return r
}

// Plan computes the deletion set of every class. It does not modify the file
// system. Classes are planned concurrently and fail independently.
func (r *Reconciler) Plan() *Plan {
	p := &Plan{Classes: make([]ClassPlan, len(r.classes))}
	var g errgroup.Group
	for i := range r.classes {
		i := i
		g.Go(func() error {
			p.Classes[i] = plan(r.classes[i])
			return nil
		})
	}
	g.Wait()
	return p
}

func plan(c config.Class) ClassPlan {
	p := ClassPlan{Class: c}
	ls, err := artifacts.Scan(c.Output, c.OutputExt,
		artifacts.WithMinSuffix(c.MinSuffix),
		artifacts.WithCompanion(c.Companion),
	)
	if err != nil {
		if errors.Is(err, artifacts.ErrRootNotFound) {
			p.Err = ErrNotFound.New(c.Output)
		} else {
			p.Err = ErrIO.New(c.Output, err)
		}
		return p
	}
	p.Scanned = len(ls)
	rule := source.Rule{Root: c.Source, Ext: c.SourceExt}
	for _, o := range ls {
		f, ok, err := rule.Resolve(o)
		if err != nil {
			p.Delete = nil
			p.Err = ErrIO.New(f.Path, err)
			return p
		}
		if !ok {
			p.Delete = append(p.Delete, Target{Output: o, Source: f})
		}
	}
	return p
}

type removal struct {
	class   int
	path    string
	removed bool
	err     error
}

// Apply removes every target of plan. All removals are started at once and
// Apply returns after each one has finished. Missing files are skipped
// silently, any other failure is recorded in the report.
func (r *Reconciler) Apply(plan *Plan) *Report {
	rep := &Report{
		ID:      ulid.Make().String(),
		Classes: make([]ClassReport, len(plan.Classes)),
	}
	var jobs []removal
	for i, c := range plan.Classes {
		rep.Classes[i] = ClassReport{
			Name:    c.Class.Name,
			Scanned: c.Scanned,
			Err:     c.Err,
		}
		if c.Err != nil {
			continue
		}
		for _, path := range c.Delete.Paths() {
			jobs = append(jobs, removal{class: i, path: path})
		}
	}
	var g errgroup.Group
	for i := range jobs {
		j := &jobs[i]
		g.Go(func() error {
			j.removed, j.err = r.delete(j.path)
			return nil
		})
	}
	g.Wait()
	for _, j := range jobs {
		c := &rep.Classes[j.class]
		switch {
		case j.err != nil:
			c.Failures = append(c.Failures, Failure{Path: j.path, Err: ErrIO.New(j.path, j.err)})
		case j.removed:
			c.Deleted = append(c.Deleted, j.path)
		}
	}
	return rep
}

func (r *Reconciler) delete(path string) (bool, error) {
	err := r.remove(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Pass runs Plan followed by Apply. The report is always returned and holds
// the results of every class that could be planned. The error joins the
// class level failures; removal failures are only found in the report.
func (r *Reconciler) Pass(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p := r.Plan()
	rep := r.Apply(p)
	metrics.Passes.Inc()
	metrics.PassDuration.Observe(time.Since(start).Seconds())

	log := r.log.With("pass", rep.ID)
	for i, c := range rep.Classes {
		if c.Err != nil {
			metrics.ClassFailures.WithLabelValues(c.Name).Inc()
			if IsNotFound(c.Err) {
				log.WarnContext(ctx, "skipped class", "class", c.Name, slog.String("err", c.Err.Error()))
			} else {
				log.ErrorContext(ctx, "skipped class", "class", c.Name, slog.String("err", c.Err.Error()))
			}
			continue
		}
		for _, t := range p.Classes[i].Delete {
			log.DebugContext(ctx, "orphaned output",
				"class", c.Name,
				"output", t.Output.Path,
				"source", t.Source.Path,
			)
		}
		for _, path := range c.Deleted {
			log.InfoContext(ctx, "delete", "class", c.Name, "path", path)
		}
		for _, f := range c.Failures {
			log.WarnContext(ctx, "failed deleting", "class", c.Name, "path", f.Path, slog.String("err", f.Err.Error()))
		}
		metrics.Deleted.WithLabelValues(c.Name).Add(float64(len(c.Deleted)))
		metrics.DeleteFailures.WithLabelValues(c.Name).Add(float64(len(c.Failures)))
	}
	log.DebugContext(ctx, "reconciled",
		"deleted", len(rep.Deleted()),
		"failures", len(rep.Failures()),
		"elapsed", time.Since(start),
	)
	return rep, p.Err()
}
