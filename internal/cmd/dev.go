package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/livereload"
	"github.com/vinceanalytics/forge/internal/server"
	"github.com/vinceanalytics/forge/internal/tasks"
	"github.com/vinceanalytics/forge/internal/watch"
)

func dev() *cli.Command {
	return &cli.Command{
		Name:      "dev",
		Usage:     "builds, then serves the project and rebuilds on change",
		ArgsUsage: "[root]",
		Flags:     config.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, o, err := setup(ctx, c)
			if err != nil {
				return err
			}
			r, err := tasks.Pipeline(o)
			if err != nil {
				return err
			}
			defer r.Close()

			// keep serving after a failed build, the watcher rebuilds on the
			// next change.
			if err := r.Run(ctx, tasks.DEFAULT); err != nil {
				slog.Error("initial build failed", "err", err)
			}

			hub := livereload.New()
			groups, err := watch.Groups(o.Watch, r, hub.Reload)
			if err != nil {
				return err
			}
			w, err := watch.New(o.Root, o.Debounce, groups)
			if err != nil {
				return err
			}
			ctx, resources := server.Configure(ctx, o, hub)
			resources = append(resources, w)
			return server.Run(ctx, resources, w.Run)
		},
	}
}
