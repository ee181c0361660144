package source

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Entries returns the source files under root with extension ext that are
// compiled on their own. Partials, whose names start with an underscore, are
// skipped because they are only reachable through imports. A missing root
// yields no entries and a symlinked root is followed.
func Entries(root, ext string) ([]string, error) {
	dir, err := filepath.EvalSymlinks(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var o []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "_") || filepath.Ext(name) != ext {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		o = append(o, filepath.Join(root, rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(o)
	return o, nil
}

// Target returns the output path built from the source file path: the
// directory of path relative to root is kept under out, ext is replaced by
// outExt.
func Target(root, out, path, outExt string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.Join(out, rel+outExt), nil
}
