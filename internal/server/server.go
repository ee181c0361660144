// Package server is the development http server. It serves built assets and
// rendered views, and pushes reloads to browsers after every rebuild.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/livereload"
	"github.com/vinceanalytics/forge/internal/must"
	"golang.org/x/sync/errgroup"
)

type ResourceList []io.Closer

func (r ResourceList) Close() error {
	e := make([]error, 0, len(r))
	for i := len(r) - 1; i >= 0; i-- {
		e = append(e, r[i].Close())
	}
	return errors.Join(e...)
}

type shutdown interface {
	Shutdown(context.Context) error
}

func (r ResourceList) CloseWithGrace(ctx context.Context) error {
	e := make([]error, 0, len(r))
	for i := len(r) - 1; i >= 0; i-- {
		if shut, ok := r[i].(shutdown); ok {
			e = append(e, shut.Shutdown(ctx))
		} else {
			e = append(e, r[i].Close())
		}
	}
	return errors.Join(e...)
}

type listenerKey struct{}
type serverKey struct{}

// Configure binds the listen address and builds the http server. The
// returned resources must be passed to Run.
func Configure(ctx context.Context, o *config.Options, hub *livereload.Hub) (context.Context, ResourceList) {
	var resources ResourceList

	// bind early so a busy port fails before any background work starts.
	ls := must.Must(net.Listen("tcp", o.Server.Listen))(
		"failed binding network address", "address", o.Server.Listen,
	)
	resources = append(resources, ls)
	ctx = context.WithValue(ctx, listenerKey{}, ls)

	svr := &http.Server{
		Handler:           Handle(o, hub),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}
	ctx = context.WithValue(ctx, serverKey{}, svr)
	resources = append(resources, svr)
	return ctx, resources
}

// Listener returns the listener bound by Configure.
func Listener(ctx context.Context) net.Listener {
	return ctx.Value(listenerKey{}).(net.Listener)
}

// Run serves http until interrupted. Each job runs alongside the server and
// receives a context cancelled on shutdown. A job returning stops the server.
func Run(ctx context.Context, resources ResourceList, jobs ...func(context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	svr := ctx.Value(serverKey{}).(*http.Server)
	ls := Listener(ctx)

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		err := svr.Serve(ls)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			defer cancel()
			return job(ctx)
		})
	}
	g.Go(func() error {
		// Ensure we close the servers.
		<-ctx.Done()
		slog.Debug("shutting down gracefully")
		grace, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		err := resources.CloseWithGrace(grace)
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	})
	slog.Info("started serving http traffic", "address", "http://"+ls.Addr().String())
	return g.Wait()
}
