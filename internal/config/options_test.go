package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()
	o, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, ":5001", o.Server.Listen)
	require.Equal(t, filepath.Join(root, "src", "scss"), o.Styles.Source)
	require.Equal(t, filepath.Join(root, "dist", "js"), o.Scripts.Output)
	require.Equal(t, ".min", o.Scripts.MinSuffix)
	require.Len(t, o.Classes(), 2)
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	data := `
debounce: 250ms
styles:
  name: styles
  source: assets/scss
  output: build/css
  source_ext: .scss
  output_ext: .css
  companion: .map
  plugins:
    - name: minify
server:
  listen: ":9000"
  pages:
    - path: /
      view: home
      title: Home
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FILE), []byte(data), 0600))
	o, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, o.Debounce)
	require.Equal(t, filepath.Join(root, "assets", "scss"), o.Styles.Source)
	require.Equal(t, filepath.Join(root, "build", "css"), o.Styles.Output)
	require.Equal(t, []Plugin{{Name: "minify"}}, o.Styles.Plugins)
	require.Equal(t, ":9000", o.Server.Listen)
	require.Equal(t, []Page{{Path: "/", View: "home", Title: "Home"}}, o.Server.Pages)

	// untouched sections keep their defaults
	require.Equal(t, filepath.Join(root, "src", "js"), o.Scripts.Source)
}

func TestLoadRejectsDuplicateClass(t *testing.T) {
	root := t.TempDir()
	data := `
scripts:
  name: styles
  source: src/js
  output: dist/js
  source_ext: .js
  output_ext: .js
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FILE), []byte(data), 0600))
	_, err := Load(root)
	require.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FILE), []byte("lisen: :80\n"), 0600))
	_, err := Load(root)
	require.Error(t, err)
}

func TestClass(t *testing.T) {
	o := Defaults()
	c, ok := o.Class(SCRIPTS_CLASS)
	require.True(t, ok)
	require.Equal(t, "src/js", c.Source)
	_, ok = o.Class("images")
	require.False(t, ok)
}

func TestLoadEnvFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FILE), []byte("server:\n  listen: \":9000\"\n"), 0600))
	data := `
PORT=8080
FORGE_SOURCE_MAPS=false
FORGE_DEBOUNCE=300ms
FORGE_DART_SASS=/opt/sass/sass
`
	require.NoError(t, os.WriteFile(filepath.Join(root, ENV_FILE), []byte(data), 0600))
	o, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, ":8080", o.Server.Listen)
	require.False(t, o.SourceMaps)
	require.Equal(t, 300*time.Millisecond, o.Debounce)
	require.Equal(t, "/opt/sass/sass", o.Styles.DartSass)
}

func TestLoadEnvFileInvalid(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ENV_FILE), []byte("FORGE_DEBOUNCE=soon\n"), 0600))
	_, err := Load(root)
	require.Error(t, err)
}

func TestDefaultPlugins(t *testing.T) {
	root := t.TempDir()
	o, err := Load(root)
	require.NoError(t, err)
	require.Len(t, o.Styles.Plugins, 1)
	require.Equal(t, "prefix", o.Styles.Plugins[0].Name)

	require.NoError(t, os.WriteFile(filepath.Join(root, TAILWIND_CONFIG), []byte("module.exports = {}\n"), 0600))
	o, err = Load(root)
	require.NoError(t, err)
	require.Len(t, o.Styles.Plugins, 2)
	require.Equal(t, "tailwind", o.Styles.Plugins[0].Name)
	require.Equal(t, filepath.Join(root, TAILWIND_CONFIG), o.Styles.Plugins[0].Config)
	require.Equal(t, "prefix", o.Styles.Plugins[1].Name)
}
