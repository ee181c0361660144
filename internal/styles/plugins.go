package styles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/evanw/esbuild/pkg/api"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/tools"
)

// Plugin is one css transform step.
type Plugin struct {
	Name string
	// Pure is true when the output depends only on the input bytes. Only
	// chains made of pure plugins are cached.
	Pure    bool
	Process func([]byte) ([]byte, error)
}

// PostProcessor runs css through an ordered list of plugins.
type PostProcessor struct {
	plugins []Plugin
	seed    string
	cache   *lru.Cache[uint64, []byte]
}

// NewPostProcessor builds the plugin chain described by ls. The cache holds
// up to size processed stylesheets, a size of zero disables it.
func NewPostProcessor(ls []config.Plugin, size int) (*PostProcessor, error) {
	plugins := make([]Plugin, 0, len(ls))
	for _, p := range ls {
		x, err := build(p)
		if err != nil {
			return nil, err
		}
		plugins = append(plugins, x)
	}
	return newPostProcessor(plugins, size)
}

func newPostProcessor(plugins []Plugin, size int) (*PostProcessor, error) {
	p := &PostProcessor{plugins: plugins}
	names := make([]string, len(plugins))
	pure := true
	for i := range plugins {
		names[i] = plugins[i].Name
		pure = pure && plugins[i].Pure
	}
	p.seed = strings.Join(names, "|")
	if pure && size > 0 {
		c, err := lru.New[uint64, []byte](size)
		if err != nil {
			return nil, err
		}
		p.cache = c
	}
	return p, nil
}

func (p *PostProcessor) Process(b []byte) ([]byte, error) {
	var key uint64
	if p.cache != nil {
		h := xxhash.New()
		h.WriteString(p.seed)
		h.Write(b)
		key = h.Sum64()
		if v, ok := p.cache.Get(key); ok {
			return v, nil
		}
	}
	var err error
	for _, x := range p.plugins {
		b, err = x.Process(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", x.Name, err)
		}
	}
	if p.cache != nil {
		p.cache.Add(key, b)
	}
	return b, nil
}

func build(p config.Plugin) (Plugin, error) {
	switch p.Name {
	case "minify":
		return Minify(), nil
	case "prefix":
		return Prefix(p.Targets)
	case "tailwind":
		return Tailwind(p.Bin, p.Config), nil
	default:
		return Plugin{}, fmt.Errorf("unknown css plugin %q", p.Name)
	}
}

func Minify() Plugin {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	return Plugin{
		Name: "minify",
		Pure: true,
		Process: func(b []byte) ([]byte, error) {
			return m.Bytes("text/css", b)
		},
	}
}

var engines = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// Prefix adds the vendor prefixes required by targets, written as an engine
// name followed by its version (chrome58, safari11.1).
func Prefix(targets []string) (Plugin, error) {
	ls := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		i := strings.IndexAny(t, "0123456789")
		if i <= 0 {
			return Plugin{}, fmt.Errorf("invalid prefix target %q", t)
		}
		name, ok := engines[strings.ToLower(t[:i])]
		if !ok {
			return Plugin{}, fmt.Errorf("unknown prefix target engine %q", t[:i])
		}
		ls = append(ls, api.Engine{Name: name, Version: t[i:]})
	}
	return Plugin{
		Name: "prefix",
		Pure: true,
		Process: func(b []byte) ([]byte, error) {
			r := api.Transform(string(b), api.TransformOptions{
				Loader:  api.LoaderCSS,
				Engines: ls,
			})
			if len(r.Errors) > 0 {
				e := make([]error, len(r.Errors))
				for i := range r.Errors {
					e[i] = errors.New(r.Errors[i].Text)
				}
				return nil, errors.Join(e...)
			}
			return r.Code, nil
		},
	}, nil
}

// Tailwind runs the tailwindcss standalone executable. Its output depends on
// the templates listed in the tailwind config, so it is never cached.
func Tailwind(bin, cfg string) Plugin {
	if bin == "" {
		bin = "tailwindcss"
	}
	return Plugin{
		Name: "tailwind",
		Process: func(b []byte) ([]byte, error) {
			dir, err := os.MkdirTemp("", "forge-tailwind")
			if err != nil {
				return nil, err
			}
			defer os.RemoveAll(dir)
			in := filepath.Join(dir, "in.css")
			out := filepath.Join(dir, "out.css")
			if err := os.WriteFile(in, b, 0600); err != nil {
				return nil, err
			}
			args := []string{"-i", in, "-o", out}
			var wd string
			if cfg != "" {
				args = append(args, "-c", cfg)
				wd = filepath.Dir(cfg)
			}
			if _, err := tools.ExecCollect(wd, bin, args...); err != nil {
				return nil, err
			}
			return os.ReadFile(out)
		},
	}
}
