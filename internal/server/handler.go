package server

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/livereload"
	"github.com/vinceanalytics/forge/internal/metrics"
	"github.com/vinceanalytics/forge/internal/plug"
)

var minifier = minify.New()

func init() {
	minifier.AddFunc("text/html", html.Minify)
	minifier.AddFunc("text/css", css.Minify)
	minifier.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
}

// Handle returns the dev server handler:
//
//	/livereload     websocket notified after each rebuild
//	/livereload.js  client script, injected into every html page
//	/metrics        prometheus metrics
//	<page.Path>     views rendered inside the layout
//	/dist/...       built assets
//	/...            files in the public directory
func Handle(o *config.Options, hub *livereload.Hub) http.Handler {
	views := NewViews(o.Server.Views, o.Server.Layout)
	var rewrites []plug.Rewrite
	if o.Server.Reload && hub != nil {
		rewrites = append(rewrites, reloadScript)
	}
	if o.Server.MinifyHTML {
		rewrites = append(rewrites, minifyHTML)
	}
	pipe := plug.Pipeline{
		plug.NoCache,
		plug.CORS(),
		plug.Ok(o.Server.Reload && hub != nil, func(h http.Handler) http.Handler {
			return plug.Pipeline{
				plug.Pipeline{}.PathGET(livereload.Path, hub.ServeHTTP),
				plug.Pipeline{}.PathGET(livereload.ScriptPath, livereload.ServeScript),
			}.Pass(h.ServeHTTP)
		}),
		plug.Pipeline{}.PathGET("/metrics", metrics.New().ServeHTTP),
		plug.HTML(rewrites...),
	}
	for _, p := range o.Server.Pages {
		pipe = pipe.And(plug.Pipeline{}.PathGET(p.Path, page(views, p)))
	}
	dist := http.StripPrefix("/dist/", http.FileServer(http.Dir(o.Server.Dist)))
	pipe = pipe.And(plug.Pipeline{}.Prefix("/dist/", dist.ServeHTTP))
	return pipe.Pass(http.FileServer(http.Dir(o.Server.Public)).ServeHTTP)
}

func page(views *Views, p config.Page) http.HandlerFunc {
	log := slog.Default().With("component", "server")
	data := map[string]any{"title": p.Title}
	return func(w http.ResponseWriter, r *http.Request) {
		var b bytes.Buffer
		if err := views.Render(&b, p.View, data); err != nil {
			log.Error("failed rendering view", "view", p.View, "err", err)
			if errors.Is(err, errViewNotFound) {
				http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(b.Bytes())
	}
}

var bodyEnd = []byte("</body>")

func reloadScript(b []byte) ([]byte, error) {
	tag := []byte(`<script src="` + livereload.ScriptPath + `"></script>`)
	i := bytes.LastIndex(b, bodyEnd)
	if i == -1 {
		return append(b[:len(b):len(b)], tag...), nil
	}
	o := make([]byte, 0, len(b)+len(tag))
	o = append(o, b[:i]...)
	o = append(o, tag...)
	return append(o, b[i:]...), nil
}

func minifyHTML(b []byte) ([]byte, error) {
	return minifier.Bytes("text/html", b)
}
