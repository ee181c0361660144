// Package styles compiles scss sources and post-processes the resulting css.
package styles

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bep/godartsass/v2"
)

type Result struct {
	CSS       []byte
	SourceMap []byte
}

// Compiler turns one stylesheet source file into css.
type Compiler interface {
	Compile(path string, sourceMap bool) (Result, error)
}

// CompileError is returned by a Compiler when a source file is invalid.
type CompileError struct {
	File    string
	Message string
}

func (e *CompileError) Error() string {
	return e.File + ": " + e.Message
}

// DartSass compiles scss with the dart sass embedded protocol.
type DartSass struct {
	t       *godartsass.Transpiler
	include []string
}

var _ Compiler = (*DartSass)(nil)

// NewDartSass starts the sass executable at bin. It stays alive until Close
// is called.
func NewDartSass(bin string, include []string) (*DartSass, error) {
	log := slog.Default().With("component", "sass")
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: bin,
		LogEventHandler: func(e godartsass.LogEvent) {
			log.Warn(e.Message)
		},
	})
	if err != nil {
		return nil, err
	}
	return &DartSass{t: t, include: include}, nil
}

func (d *DartSass) Compile(path string, sourceMap bool) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	r, err := d.t.Execute(godartsass.Args{
		Source:                  string(b),
		URL:                     "file://" + filepath.ToSlash(path),
		IncludePaths:            append([]string{filepath.Dir(path)}, d.include...),
		SourceSyntax:            godartsass.SourceSyntaxSCSS,
		OutputStyle:             godartsass.OutputStyleExpanded,
		EnableSourceMap:         sourceMap,
		SourceMapIncludeSources: sourceMap,
	})
	if err != nil {
		return Result{}, &CompileError{File: path, Message: err.Error()}
	}
	return Result{CSS: []byte(r.CSS), SourceMap: []byte(r.SourceMap)}, nil
}

func (d *DartSass) Close() error {
	return d.t.Close()
}
