// Package inject writes asset references into html templates.
//
// References are placed between a start marker naming the asset type and an
// end marker:
//
//	<!-- inject:css -->
//	<link rel="stylesheet" href="../dist/css/main.css">
//	<!-- endinject -->
//
// Everything between the markers is replaced on each run, so injecting is
// idempotent.
package inject

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vinceanalytics/forge/internal/tools"
)

var (
	start = regexp.MustCompile(`(?m)^([ \t]*)<!--\s*inject:(\w+)\s*-->`)
	end   = regexp.MustCompile(`<!--\s*endinject\s*-->`)
)

type Options struct {
	// Root is the project root. Asset paths are absolute or relative to it.
	Root string
	// Dir is the directory of the template, used when Relative is true.
	Dir string
	// Relative writes references relative to Dir. Otherwise references are
	// root relative, starting with a slash.
	Relative bool
	// IgnorePath is stripped from the front of root relative references.
	IgnorePath string
}

// Ref returns the reference written for asset.
func Ref(asset string, o Options) (string, error) {
	if !filepath.IsAbs(asset) {
		asset = filepath.Join(o.Root, asset)
	}
	if o.Relative {
		rel, err := filepath.Rel(o.Dir, asset)
		if err != nil {
			return "", err
		}
		return filepath.ToSlash(rel), nil
	}
	base := o.Root
	if o.IgnorePath != "" {
		base = o.IgnorePath
	}
	rel, err := filepath.Rel(base, asset)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("asset %s is outside %s", asset, base)
	}
	return "/" + rel, nil
}

// Tag renders the html element referencing ref.
func Tag(kind, ref string) string {
	switch kind {
	case "css":
		return `<link rel="stylesheet" href="` + html.EscapeString(ref) + `">`
	case "js":
		return `<script src="` + html.EscapeString(ref) + `"></script>`
	default:
		return ""
	}
}

func kind(asset string) string {
	return strings.TrimPrefix(path.Ext(filepath.ToSlash(asset)), ".")
}

// Inject replaces the content of every marker block in tpl with the tags of
// the assets of the matching kind. Blocks of kinds without assets are
// emptied. Assets keep their given order.
func Inject(tpl []byte, assets []string, o Options) ([]byte, error) {
	tags := map[string][]string{}
	for _, a := range assets {
		k := kind(a)
		ref, err := Ref(a, o)
		if err != nil {
			return nil, err
		}
		if t := Tag(k, ref); t != "" {
			tags[k] = append(tags[k], t)
		}
	}
	var b bytes.Buffer
	rest := tpl
	for {
		m := start.FindSubmatchIndex(rest)
		if m == nil {
			b.Write(rest)
			return b.Bytes(), nil
		}
		indent := string(rest[m[2]:m[3]])
		k := string(rest[m[4]:m[5]])
		body := rest[m[1]:]
		e := end.FindIndex(body)
		if e == nil {
			return nil, fmt.Errorf("inject:%s marker is not closed", k)
		}
		b.Write(rest[:m[1]])
		b.WriteByte('\n')
		for _, t := range tags[k] {
			b.WriteString(indent)
			b.WriteString(t)
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.Write(body[e[0]:e[1]])
		rest = body[e[1]:]
	}
}

// Glob expands patterns relative to root into absolute paths. Matches are
// sorted within each pattern and patterns keep their order.
func Glob(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := map[string]struct{}{}
	var o []string
	for _, p := range patterns {
		ls, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		sort.Strings(ls)
		for _, x := range ls {
			if _, ok := seen[x]; ok {
				continue
			}
			seen[x] = struct{}{}
			o = append(o, filepath.Join(root, filepath.FromSlash(x)))
		}
	}
	return o, nil
}

// File injects the assets matched by patterns into the template at target,
// rewriting it in place. It reports whether the file changed.
func File(target string, patterns []string, o Options) (bool, error) {
	tpl, err := os.ReadFile(target)
	if err != nil {
		return false, err
	}
	assets, err := Glob(o.Root, patterns)
	if err != nil {
		return false, err
	}
	if o.Dir == "" {
		o.Dir = filepath.Dir(target)
	}
	out, err := Inject(tpl, assets, o)
	if err != nil {
		return false, fmt.Errorf("%s: %w", target, err)
	}
	return tools.WriteFile(target, out)
}
