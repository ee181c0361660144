package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/tasks"
)

func build() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "removes stale outputs then builds styles, scripts and html",
		ArgsUsage: "[root]",
		Flags:     config.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c, tasks.DEFAULT)
		},
	}
}

func clean() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "removes outputs whose sources no longer exist",
		ArgsUsage: "[root]",
		Flags:     config.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c, tasks.CLEAN)
		},
	}
}

func run(ctx context.Context, c *cli.Command, names ...string) error {
	ctx, o, err := setup(ctx, c)
	if err != nil {
		return err
	}
	r, err := tasks.Pipeline(o)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Run(ctx, names...)
}
