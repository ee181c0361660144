// Package artifacts lists generated files found under an output directory.
package artifacts

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrRootNotFound is returned by Scan when the output root does not exist.
var ErrRootNotFound = errors.New("artifacts: output root does not exist")

// Output is a generated file.
type Output struct {
	// Path is the output root joined with Rel.
	Path string
	// Rel is the slash separated path relative to the output root.
	Rel string
	// Ext is the full output extension, including the minification suffix
	// when present (.css, .js, .min.js).
	Ext string
	// Base is Rel without Ext. It keeps the relative directory, so
	// components/button.css has base components/button.
	Base string
	// Companion is the path of the source map written next to Path. It is
	// empty when the class has no companion convention.
	Companion string
}

type options struct {
	minSuffix string
	companion string
}

type Option func(*options)

// WithMinSuffix strips suffix from the base name of outputs that carry it
// right before the extension.
func WithMinSuffix(suffix string) Option {
	return func(o *options) { o.minSuffix = suffix }
}

// WithCompanion derives a companion path by appending suffix to each output.
func WithCompanion(suffix string) Option {
	return func(o *options) { o.companion = suffix }
}

// Scan walks root recursively and returns every regular file whose name ends
// with ext. Matching is exact and case sensitive. A symlinked root is
// followed, symlinks below it are not.
func Scan(root, ext string, opts ...Option) ([]Output, error) {
	var o options
	for _, f := range opts {
		f(&o)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrRootNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrRootNotFound
	}
	// a symlinked root is walked through its target, paths stay under root.
	dir, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	var ls []Output
	err = filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ext) || len(name) == len(ext) {
			return nil
		}
		rel, err := filepath.Rel(dir, file)
		if err != nil {
			return err
		}
		ls = append(ls, newOutput(filepath.Join(root, rel), filepath.ToSlash(rel), ext, &o))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(ls, func(i, j int) bool {
		return ls[i].Rel < ls[j].Rel
	})
	return ls, nil
}

func newOutput(file, rel, ext string, o *options) Output {
	x := Output{
		Path: file,
		Rel:  rel,
		Ext:  ext,
		Base: strings.TrimSuffix(rel, ext),
	}
	if o.minSuffix != "" && strings.HasSuffix(x.Base, o.minSuffix) &&
		path.Base(x.Base) != o.minSuffix {
		x.Base = strings.TrimSuffix(x.Base, o.minSuffix)
		x.Ext = o.minSuffix + ext
	}
	if o.companion != "" {
		x.Companion = file + o.companion
	}
	return x
}
