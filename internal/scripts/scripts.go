// Package scripts bundles and minifies javascript sources with esbuild.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/source"
)

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Bundler writes one minified bundle per entry of a class. Outputs keep the
// relative directory of their entry and get the class minification suffix,
// so src/js/header.js becomes dist/js/header.min.js.
type Bundler struct {
	class      config.Class
	target     api.Target
	bundle     bool
	sourceMaps bool
	log        *slog.Logger
}

func NewBundler(o config.Scripts, sourceMaps bool) (*Bundler, error) {
	t, ok := targets[strings.ToLower(o.Target)]
	if !ok {
		return nil, fmt.Errorf("unknown script target %q", o.Target)
	}
	return &Bundler{
		class:      o.Class,
		target:     t,
		bundle:     o.Bundle,
		sourceMaps: sourceMaps,
		log:        slog.Default().With("component", "scripts"),
	}, nil
}

func (b *Bundler) options(entries []string) api.BuildOptions {
	o := api.BuildOptions{
		EntryPoints:       entries,
		Outdir:            b.class.Output,
		Outbase:           b.class.Source,
		EntryNames:        "[dir]/[name]" + b.class.MinSuffix,
		OutExtension:      map[string]string{".js": b.class.OutputExt},
		Bundle:            b.bundle,
		Write:             true,
		Target:            b.target,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		LogLevel:          api.LogLevelSilent,
	}
	if b.sourceMaps {
		o.Sourcemap = api.SourceMapLinked
	}
	return o
}

// Build bundles every entry of the class.
func (b *Bundler) Build(ctx context.Context) error {
	entries, err := source.Entries(b.class.Source, b.class.SourceExt)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r := api.Build(b.options(entries))
	for _, w := range r.Warnings {
		b.log.WarnContext(ctx, w.Text, location(w)...)
	}
	if len(r.Errors) > 0 {
		e := make([]error, len(r.Errors))
		for i, m := range r.Errors {
			b.log.ErrorContext(ctx, m.Text, location(m)...)
			e[i] = messageError(m)
		}
		return errors.Join(e...)
	}
	for _, f := range r.OutputFiles {
		b.log.DebugContext(ctx, "write", "path", f.Path, "size", len(f.Contents))
	}
	return nil
}

func location(m api.Message) []any {
	if m.Location == nil {
		return nil
	}
	return []any{
		"file", m.Location.File,
		"line", m.Location.Line,
		"column", m.Location.Column,
	}
}

func messageError(m api.Message) error {
	if m.Location == nil {
		return errors.New(m.Text)
	}
	return fmt.Errorf("%s:%d:%d: %s",
		filepath.ToSlash(m.Location.File), m.Location.Line, m.Location.Column, m.Text)
}

// Minify returns a minified copy of a single script.
func Minify(src []byte) ([]byte, error) {
	r := api.Transform(string(src), api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(r.Errors) > 0 {
		e := make([]error, len(r.Errors))
		for i := range r.Errors {
			e[i] = messageError(r.Errors[i])
		}
		return nil, errors.Join(e...)
	}
	return r.Code, nil
}
