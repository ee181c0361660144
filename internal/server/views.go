package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Views renders html views from a directory. A view is the body of the page,
// the layout wraps it and places it with {{template "body" .}}.
//
// Files are parsed on every render, edits show up on the next request.
type Views struct {
	dir    string
	layout string
}

func NewViews(dir, layout string) *Views {
	return &Views{dir: dir, layout: layout}
}

var errViewNotFound = errors.New("view not found")

func (v *Views) path(name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid view name %q", name)
	}
	return filepath.Join(v.dir, filepath.FromSlash(name)+".html"), nil
}

func (v *Views) template(name string) (*template.Template, error) {
	path, err := v.path(name)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errViewNotFound, name)
		}
		return nil, err
	}
	var layout []byte
	if v.layout != "" {
		layout, err = os.ReadFile(filepath.Join(v.dir, filepath.FromSlash(v.layout)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if layout == nil {
		layout = []byte(`{{template "body" .}}`)
	}
	t, err := template.New("layout").Funcs(funcMap()).Parse(string(layout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.layout, err)
	}
	if _, err := t.New("body").Parse(string(body)); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// Render executes view name inside the layout.
func (v *Views) Render(w io.Writer, name string, data any) error {
	t, err := v.template(name)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err := t.ExecuteTemplate(&b, "layout", data); err != nil {
		return err
	}
	_, err = w.Write(b.Bytes())
	return err
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"map": mapStruct,
	}
}

func mapStruct(values ...any) (o map[string]any) {
	o = make(map[string]any)
	for len(values) > 1 {
		o[fmt.Sprint(values[0])] = values[1]
		values = values[2:]
	}
	return
}
