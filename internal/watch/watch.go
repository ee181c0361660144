// Package watch runs groups of tasks when files matching their globs change.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Group is a set of root relative globs and the work to do when any matching
// path is created, written, removed or renamed.
type Group struct {
	Name  string
	Globs []string
	Run   func(ctx context.Context) error
}

type group struct {
	Group
	// capacity one, events arriving while the group runs collapse into a
	// single follow up run.
	trigger chan struct{}
}

type Watcher struct {
	root     string
	debounce time.Duration
	groups   []*group
	w        *fsnotify.Watcher
	log      *slog.Logger
}

// New watches every directory below root. Hidden directories and
// node_modules are skipped.
func New(root string, debounce time.Duration, groups []Group) (*Watcher, error) {
	for _, g := range groups {
		for _, p := range g.Globs {
			if !doublestar.ValidatePattern(p) {
				return nil, errors.New("watch group " + g.Name + ": invalid glob " + p)
			}
		}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		debounce: debounce,
		w:        fw,
		log:      slog.Default().With("component", "watch"),
	}
	for _, g := range groups {
		w.groups = append(w.groups, &group{Group: g, trigger: make(chan struct{}, 1)})
	}
	if err := w.add(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func skip(name string) bool {
	return name == "node_modules" || (len(name) > 1 && strings.HasPrefix(name, "."))
}

func (w *Watcher) add(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && skip(d.Name()) {
			return filepath.SkipDir
		}
		return w.w.Add(path)
	})
}

// match returns the groups whose globs match the root relative slash path rel.
func (w *Watcher) match(rel string) (o []*group) {
	for _, g := range w.groups {
		for _, p := range g.Globs {
			if ok, _ := doublestar.Match(p, rel); ok {
				o = append(o, g)
				break
			}
		}
	}
	return
}

// overlap returns the groups with a glob whose static base contains the
// directory rel or lies below it.
func (w *Watcher) overlap(rel string) (o []*group) {
	for _, g := range w.groups {
		for _, p := range g.Globs {
			base, pattern := doublestar.SplitPattern(p)
			if !strings.ContainsAny(pattern, "*?[{") {
				base = p
			}
			if base == "." || base == rel ||
				strings.HasPrefix(rel, base+"/") ||
				strings.HasPrefix(base, rel+"/") {
				o = append(o, g)
				break
			}
		}
	}
	return
}

// Run dispatches file system events until ctx is done. A failing group is
// logged and keeps being watched.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, x := range w.groups {
		x := x
		g.Go(func() error {
			w.loop(ctx, x)
			return nil
		})
	}
	g.Go(func() error {
		return w.dispatch(ctx)
	})
	return g.Wait()
}

func (w *Watcher) loop(ctx context.Context, g *group) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.trigger:
			start := time.Now()
			if err := g.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.ErrorContext(ctx, "group failed", "group", g.Name, "err", err)
				continue
			}
			w.log.DebugContext(ctx, "group done", "group", g.Name, "elapsed", time.Since(start))
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context) error {
	pending := make(map[*group]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.log.ErrorContext(ctx, "watcher", "err", err)
		case e, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if e.Op == fsnotify.Chmod {
				continue
			}
			var dir bool
			if e.Has(fsnotify.Create) {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() && !skip(s.Name()) {
					dir = true
					if err := w.add(e.Name); err != nil {
						w.log.WarnContext(ctx, "failed watching directory", "path", e.Name, "err", err)
					}
				}
			}
			rel, err := filepath.Rel(w.root, e.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			ls := w.match(rel)
			if len(ls) == 0 && (dir || e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename)) {
				// a directory moved in or out carries files no event names.
				// Removed paths can no longer be checked, so they are treated
				// as directories too.
				ls = w.overlap(rel)
			}
			if len(ls) == 0 {
				continue
			}
			w.log.DebugContext(ctx, "change", "path", rel, "op", e.Op.String())
			for _, g := range ls {
				pending[g] = struct{}{}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			for g := range pending {
				select {
				case g.trigger <- struct{}{}:
				default:
				}
				delete(pending, g)
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.w.Close()
}
