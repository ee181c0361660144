package styles

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinceanalytics/forge/internal/config"
)

// copyCompiler returns the source as css, failing on files containing "error".
type copyCompiler struct {
	calls int
}

func (c *copyCompiler) Compile(path string, sourceMap bool) (Result, error) {
	c.calls++
	b, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	if bytes.Contains(b, []byte("error")) {
		return Result{}, &CompileError{File: path, Message: "expected expression"}
	}
	r := Result{CSS: b}
	if sourceMap {
		r.SourceMap = []byte(`{"version":3}`)
	}
	return r, nil
}

func class(root string) config.Class {
	return config.Class{
		Name:      config.STYLES_CLASS,
		Source:    filepath.Join(root, "src", "scss"),
		Output:    filepath.Join(root, "dist", "css"),
		SourceExt: ".scss",
		OutputExt: ".css",
		Companion: ".map",
	}
}

func write(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	c := class(root)
	write(t, filepath.Join(c.Source, "main.scss"), "a{color:red}")
	write(t, filepath.Join(c.Source, "_vars.scss"), "$x: 1;")
	write(t, filepath.Join(c.Source, "components", "button.scss"), ".b{color:blue}")

	b := NewBuilder(c, &copyCompiler{}, nil, true)
	require.NoError(t, b.Build(context.Background()))

	main, err := os.ReadFile(filepath.Join(c.Output, "main.css"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(main), "a{color:red}"))
	require.Contains(t, string(main), "/*# sourceMappingURL=main.css.map */")

	_, err = os.Stat(filepath.Join(c.Output, "main.css.map"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(c.Output, "components", "button.css"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(c.Output, "_vars.css"))
	require.True(t, os.IsNotExist(err))
}

func TestBuildWithoutSourceMaps(t *testing.T) {
	root := t.TempDir()
	c := class(root)
	write(t, filepath.Join(c.Source, "main.scss"), "a{color:red}")

	require.NoError(t, NewBuilder(c, &copyCompiler{}, nil, false).Build(context.Background()))
	main, err := os.ReadFile(filepath.Join(c.Output, "main.css"))
	require.NoError(t, err)
	require.Equal(t, "a{color:red}", string(main))
	_, err = os.Stat(filepath.Join(c.Output, "main.css.map"))
	require.True(t, os.IsNotExist(err))
}

func TestBuildContinuesAfterCompileError(t *testing.T) {
	root := t.TempDir()
	c := class(root)
	write(t, filepath.Join(c.Source, "a.scss"), "error")
	write(t, filepath.Join(c.Source, "b.scss"), "b{}")

	err := NewBuilder(c, &copyCompiler{}, nil, false).Build(context.Background())
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, filepath.Join(c.Source, "a.scss"), ce.File)

	_, err = os.Stat(filepath.Join(c.Output, "b.css"))
	require.NoError(t, err)
}

func TestBuildMissingSourceRoot(t *testing.T) {
	c := class(t.TempDir())
	require.NoError(t, NewBuilder(c, &copyCompiler{}, nil, false).Build(context.Background()))
}

func TestPostProcessorCache(t *testing.T) {
	var calls int
	upper := Plugin{
		Name: "upper",
		Pure: true,
		Process: func(b []byte) ([]byte, error) {
			calls++
			return bytes.ToUpper(b), nil
		},
	}
	p, err := newPostProcessor([]Plugin{upper}, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		o, err := p.Process([]byte("a{}"))
		require.NoError(t, err)
		require.Equal(t, "A{}", string(o))
	}
	require.Equal(t, 1, calls)

	_, err = p.Process([]byte("b{}"))
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestPostProcessorImpureIsNotCached(t *testing.T) {
	var calls int
	p, err := newPostProcessor([]Plugin{{
		Name: "impure",
		Process: func(b []byte) ([]byte, error) {
			calls++
			return b, nil
		},
	}}, 8)
	require.NoError(t, err)
	p.Process([]byte("a{}"))
	p.Process([]byte("a{}"))
	require.Equal(t, 2, calls)
}

func TestPostProcessorOrder(t *testing.T) {
	suffix := func(s string) Plugin {
		return Plugin{Name: s, Pure: true, Process: func(b []byte) ([]byte, error) {
			return append(b, s...), nil
		}}
	}
	p, err := newPostProcessor([]Plugin{suffix("1"), suffix("2")}, 0)
	require.NoError(t, err)
	o, err := p.Process([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, "x12", string(o))
}

func TestPostProcessorError(t *testing.T) {
	p, err := newPostProcessor([]Plugin{{
		Name: "broken",
		Process: func(b []byte) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}}, 0)
	require.NoError(t, err)
	_, err = p.Process([]byte("x"))
	require.EqualError(t, err, "broken: boom")
}

func TestMinifyPlugin(t *testing.T) {
	p, err := NewPostProcessor([]config.Plugin{{Name: "minify"}}, 0)
	require.NoError(t, err)
	o, err := p.Process([]byte("a {\n  color: blue;\n}\n"))
	require.NoError(t, err)
	require.Equal(t, "a{color:blue}", string(o))
}

func TestPrefixPlugin(t *testing.T) {
	p, err := NewPostProcessor([]config.Plugin{{Name: "prefix", Targets: []string{"safari11"}}}, 0)
	require.NoError(t, err)
	o, err := p.Process([]byte("a { user-select: none }"))
	require.NoError(t, err)
	require.Contains(t, string(o), "-webkit-user-select")
}

func TestPluginConfigErrors(t *testing.T) {
	_, err := NewPostProcessor([]config.Plugin{{Name: "autoprefixer"}}, 0)
	require.Error(t, err)
	_, err = NewPostProcessor([]config.Plugin{{Name: "prefix", Targets: []string{"netscape4"}}}, 0)
	require.Error(t, err)
	_, err = NewPostProcessor([]config.Plugin{{Name: "prefix", Targets: []string{"chrome"}}}, 0)
	require.Error(t, err)
}
