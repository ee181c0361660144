package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/inject"
	"github.com/vinceanalytics/forge/internal/reconcile"
	"github.com/vinceanalytics/forge/internal/scripts"
	"github.com/vinceanalytics/forge/internal/styles"
)

const (
	CLEAN   = "clean"
	STYLES  = config.STYLES_CLASS
	SCRIPTS = config.SCRIPTS_CLASS
	HTML    = "html"
	DEFAULT = "default"
)

// Build is the series run by the build command and before the dev server
// starts.
var Build = []string{CLEAN, STYLES, SCRIPTS, HTML}

type options struct {
	compiler styles.Compiler
}

type Option func(*options)

// WithCompiler replaces the dart sass compiler used by the styles task.
func WithCompiler(c styles.Compiler) Option {
	return func(o *options) { o.compiler = c }
}

// Pipeline returns a registry holding the standard tasks for o:
//
//	clean          one reconcile pass over every extension class
//	clean:<class>  one reconcile pass over a single class
//	styles         compile and post process stylesheets
//	scripts        bundle and minify scripts
//	html           inject built assets into the html template
//	default        clean, styles, scripts and html in series
func Pipeline(o *config.Options, opts ...Option) (*Registry, error) {
	var x options
	for _, f := range opts {
		f(&x)
	}
	r := New()

	r.Add(CLEAN, clean(o.Classes()))
	for _, c := range o.Classes() {
		r.Add(CLEAN+":"+c.Name, clean([]config.Class{c}))
	}

	post, err := styles.NewPostProcessor(o.Styles.Plugins, o.Styles.CacheSize)
	if err != nil {
		return nil, err
	}
	compiler := x.compiler
	if compiler == nil {
		s := &sass{bin: o.Styles.DartSass, include: o.Styles.IncludePaths}
		r.OnClose(s)
		compiler = s
	}
	r.Add(STYLES, styles.NewBuilder(o.Styles.Class, compiler, post, o.SourceMaps).Build)

	bundler, err := scripts.NewBundler(o.Scripts, o.SourceMaps)
	if err != nil {
		return nil, err
	}
	r.Add(SCRIPTS, bundler.Build)

	r.Add(HTML, html(o))
	r.Add(DEFAULT, r.Series(Build...))
	return r, nil
}

// clean tolerates missing output roots, there is nothing to remove from a
// tree that was never built.
func clean(classes []config.Class) Func {
	rc := reconcile.New(classes)
	return func(ctx context.Context) error {
		rep, err := rc.Pass(ctx)
		if rep == nil {
			return err
		}
		var e []error
		for _, c := range rep.Classes {
			if c.Err != nil && !reconcile.IsNotFound(c.Err) {
				e = append(e, c.Err)
			}
		}
		return errors.Join(e...)
	}
}

func html(o *config.Options) Func {
	return func(ctx context.Context) error {
		changed, err := inject.File(o.Inject.Target, o.Inject.Assets, inject.Options{
			Root:       o.Root,
			Relative:   o.Inject.Relative,
			IgnorePath: o.Inject.IgnorePath,
		})
		if err != nil {
			return err
		}
		if changed {
			slog.Default().InfoContext(ctx, "injected assets", "component", "html", "target", o.Inject.Target)
		}
		return nil
	}
}

// sass starts the dart sass process on first use, so tasks that never
// compile stylesheets do not need the executable.
type sass struct {
	bin     string
	include []string

	once sync.Once
	d    *styles.DartSass
	err  error
}

func (s *sass) Compile(path string, sourceMap bool) (styles.Result, error) {
	s.once.Do(func() {
		s.d, s.err = styles.NewDartSass(s.bin, s.include)
	})
	if s.err != nil {
		return styles.Result{}, s.err
	}
	return s.d.Compile(path, sourceMap)
}

func (s *sass) Close() error {
	if s.d == nil {
		return nil
	}
	return s.d.Close()
}
