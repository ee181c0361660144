package inject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const page = `<html>
<head>
  <!-- inject:css -->
  <link rel="stylesheet" href="stale.css">
  <!-- endinject -->
</head>
<body>
    <!-- inject:js -->
    <!-- endinject -->
</body>
</html>
`

func TestInjectRelative(t *testing.T) {
	o := Options{Root: "/p", Dir: "/p/src", Relative: true}
	out, err := Inject([]byte(page), []string{
		"/p/dist/css/main.css",
		"dist/css/components/button.css",
		"/p/dist/js/header.min.js",
	}, o)
	require.NoError(t, err)
	require.Equal(t, `<html>
<head>
  <!-- inject:css -->
  <link rel="stylesheet" href="../dist/css/main.css">
  <link rel="stylesheet" href="../dist/css/components/button.css">
  <!-- endinject -->
</head>
<body>
    <!-- inject:js -->
    <script src="../dist/js/header.min.js"></script>
    <!-- endinject -->
</body>
</html>
`, string(out))

	again, err := Inject(out, []string{
		"/p/dist/css/main.css",
		"dist/css/components/button.css",
		"/p/dist/js/header.min.js",
	}, o)
	require.NoError(t, err)
	require.Equal(t, string(out), string(again))
}

func TestInjectRootRelative(t *testing.T) {
	o := Options{Root: "/p", IgnorePath: "/p/dist"}
	out, err := Inject([]byte(page), []string{"/p/dist/css/main.css"}, o)
	require.NoError(t, err)
	require.Contains(t, string(out), `<link rel="stylesheet" href="/css/main.css">`)
	require.NotContains(t, string(out), "stale.css")
}

func TestInjectEmptiesBlocks(t *testing.T) {
	out, err := Inject([]byte(page), nil, Options{Root: "/p", Dir: "/p/src", Relative: true})
	require.NoError(t, err)
	require.NotContains(t, string(out), "stale.css")
	require.Contains(t, string(out), "  <!-- inject:css -->\n  <!-- endinject -->")
}

func TestInjectUnclosed(t *testing.T) {
	_, err := Inject([]byte("<!-- inject:css -->\n"), nil, Options{})
	require.Error(t, err)
}

func TestRef(t *testing.T) {
	ref, err := Ref("/p/dist/css/main.css", Options{Root: "/p"})
	require.NoError(t, err)
	require.Equal(t, "/dist/css/main.css", ref)

	_, err = Ref("/other/main.css", Options{Root: "/p"})
	require.Error(t, err)
}

func TestTag(t *testing.T) {
	require.Equal(t, `<script src="/a.js?x=1&amp;y=2"></script>`, Tag("js", "/a.js?x=1&y=2"))
	require.Empty(t, Tag("png", "/a.png"))
}

func TestFile(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"dist/css/main.css", "dist/css/main.css.map", "dist/js/app.min.js", "dist/js/app.min.js.map"} {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0600))
	}
	target := filepath.Join(root, "src", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte(page), 0600))

	patterns := []string{"dist/css/**/*.css", "dist/js/**/*.min.js"}
	changed, err := File(target, patterns, Options{Root: root, Relative: true})
	require.NoError(t, err)
	require.True(t, changed)

	b, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(b), `<link rel="stylesheet" href="../dist/css/main.css">`)
	require.Contains(t, string(b), `<script src="../dist/js/app.min.js"></script>`)
	require.NotContains(t, string(b), ".map")

	changed, err = File(target, patterns, Options{Root: root, Relative: true})
	require.NoError(t, err)
	require.False(t, changed)
}
