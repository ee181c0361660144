package plug

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/cors"
)

type Plug func(http.Handler) http.Handler

type Pipeline []Plug

func (p Pipeline) Pass(h http.HandlerFunc) http.Handler {
	x := http.Handler(h)
	for i := range p {
		x = p[len(p)-1-i](x)
	}
	return x
}

func (p Pipeline) And(n ...Plug) Pipeline {
	return append(p, n...)
}

func NOOP(w http.ResponseWriter, r *http.Request) {}

// NoCache stops browsers from caching anything served by the dev server, so a
// reload always picks up rebuilt assets.
func NoCache(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, k := range []string{"If-Modified-Since", "If-None-Match", "If-Range", "If-Match", "If-Unmodified-Since"} {
			r.Header.Del(k)
		}
		w.Header().Set("cache-control", "no-cache, no-store, must-revalidate")
		w.Header().Set("pragma", "no-cache")
		w.Header().Set("expires", "0")
		h.ServeHTTP(w, r)
	})
}

// CORS allows every origin, method and header.
func CORS() Plug {
	return cors.AllowAll().Handler
}

// Rewrite is applied to every successful html response body.
type Rewrite func([]byte) ([]byte, error)

// HTML buffers html responses and passes their body through each rewrite in
// order. Other responses are streamed untouched.
func HTML(rewrites ...Rewrite) Plug {
	return func(h http.Handler) http.Handler {
		if len(rewrites) == 0 {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b := &bufferWriter{ResponseWriter: w}
			h.ServeHTTP(b, r)
			b.flush(rewrites)
		})
	}
}

type bufferWriter struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
	html        bool
	buf         bytes.Buffer
}

func (b *bufferWriter) WriteHeader(code int) {
	if b.wroteHeader {
		return
	}
	b.wroteHeader = true
	b.code = code
	b.html = code == http.StatusOK &&
		strings.HasPrefix(b.Header().Get("content-type"), "text/html")
	if !b.html {
		b.ResponseWriter.WriteHeader(code)
	}
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	if !b.wroteHeader {
		if b.Header().Get("content-type") == "" {
			b.Header().Set("content-type", http.DetectContentType(p))
		}
		b.WriteHeader(http.StatusOK)
	}
	if b.html {
		return b.buf.Write(p)
	}
	return b.ResponseWriter.Write(p)
}

func (b *bufferWriter) flush(rewrites []Rewrite) {
	if !b.html {
		return
	}
	data := b.buf.Bytes()
	for _, f := range rewrites {
		o, err := f(data)
		if err != nil {
			// serve the last good body
			break
		}
		data = o
	}
	b.Header().Set("content-length", strconv.Itoa(len(data)))
	b.ResponseWriter.WriteHeader(b.code)
	b.ResponseWriter.Write(data)
}
