package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntries(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{
		"main.scss",
		"_variables.scss",
		"components/button.scss",
		"components/_mixins.scss",
		"readme.md",
	} {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0600))
	}
	ls, err := Entries(root, ".scss")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "components", "button.scss"),
		filepath.Join(root, "main.scss"),
	}, ls)
}

func TestEntriesMissingRoot(t *testing.T) {
	ls, err := Entries(filepath.Join(t.TempDir(), "missing"), ".js")
	require.NoError(t, err)
	require.Empty(t, ls)
}

func TestTarget(t *testing.T) {
	out, err := Target("/p/src/scss", "/p/dist/css", "/p/src/scss/components/button.scss", ".css")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/p/dist/css", "components", "button.css"), out)

	out, err = Target("/p/src/js", "/p/dist/js", "/p/src/js/header.js", ".min.js")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/p/dist/js", "header.min.js"), out)
}

func TestEntriesSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "shared", "js")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "header.js"), nil, 0600))
	root := filepath.Join(dir, "js")
	require.NoError(t, os.Symlink(target, root))

	ls, err := Entries(root, ".js")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "header.js")}, ls)
}
