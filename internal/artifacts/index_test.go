package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0600))
	}
}

func rels(ls []Output) (o []string) {
	for _, x := range ls {
		o = append(o, x.Rel)
	}
	return
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"main.css",
		"main.css.map",
		"components/button.css",
		"components/button.css.map",
		"deep/a/b/card.css",
		"notes.txt",
		"upper.CSS",
	)
	ls, err := Scan(root, ".css", WithCompanion(".map"))
	require.NoError(t, err)
	require.Equal(t, []string{
		"components/button.css",
		"deep/a/b/card.css",
		"main.css",
	}, rels(ls))

	b := ls[0]
	require.Equal(t, filepath.Join(root, "components", "button.css"), b.Path)
	require.Equal(t, "components/button", b.Base)
	require.Equal(t, ".css", b.Ext)
	require.Equal(t, b.Path+".map", b.Companion)
}

func TestScanMinSuffix(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"header.min.js",
		"header.min.js.map",
		"plain.js",
		"vendor/.min.js",
	)
	ls, err := Scan(root, ".js", WithMinSuffix(".min"), WithCompanion(".map"))
	require.NoError(t, err)
	require.Len(t, ls, 3)

	h := ls[0]
	require.Equal(t, "header.min.js", h.Rel)
	require.Equal(t, "header", h.Base)
	require.Equal(t, ".min.js", h.Ext)

	p := ls[1]
	require.Equal(t, "plain", p.Base)
	require.Equal(t, ".js", p.Ext)

	// a file named only by the suffix keeps it as its base
	v := ls[2]
	require.Equal(t, "vendor/.min", v.Base)
}

func TestScanNoCompanion(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.css")
	ls, err := Scan(root, ".css")
	require.NoError(t, err)
	require.Len(t, ls, 1)
	require.Empty(t, ls[0].Companion)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "missing"), ".css")
	require.ErrorIs(t, err, ErrRootNotFound)
}

func TestScanRootIsFile(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.css")
	_, err := Scan(filepath.Join(root, "file.css"), ".css")
	require.ErrorIs(t, err, ErrRootNotFound)
}

func TestScanEmpty(t *testing.T) {
	ls, err := Scan(t.TempDir(), ".css")
	require.NoError(t, err)
	require.Empty(t, ls)
}

func TestScanSymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "build", "css")
	touch(t, target, "main.css", "components/button.css")
	root := filepath.Join(dir, "dist", "css")
	require.NoError(t, os.MkdirAll(filepath.Dir(root), 0755))
	require.NoError(t, os.Symlink(target, root))

	ls, err := Scan(root, ".css", WithCompanion(".map"))
	require.NoError(t, err)
	require.Equal(t, []string{"components/button.css", "main.css"}, rels(ls))
	require.Equal(t, filepath.Join(root, "components", "button.css"), ls[0].Path)
	require.Equal(t, ls[0].Path+".map", ls[0].Companion)
}
