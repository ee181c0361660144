// Package source maps generated outputs back to the files they were built from.
package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vinceanalytics/forge/internal/artifacts"
)

// File is the expected source of an output.
type File struct {
	Path string
	Ext  string
}

// Rule maps outputs of one extension class to their source tree.
type Rule struct {
	Root string
	Ext  string
}

// Path returns the source path expected for o. It is a pure function of the
// output base name and the rule.
func (r Rule) Path(o artifacts.Output) File {
	return File{
		Path: filepath.Join(r.Root, filepath.FromSlash(o.Base)+r.Ext),
		Ext:  r.Ext,
	}
}

// Resolve reports whether the source of o exists. A missing source is not an
// error. Other stat failures are returned unchanged.
func (r Rule) Resolve(o artifacts.Output) (File, bool, error) {
	f := r.Path(o)
	info, err := os.Stat(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, false, nil
		}
		return f, false, err
	}
	return f, !info.IsDir(), nil
}
