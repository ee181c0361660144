package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/vinceanalytics/forge/internal/config"
	"github.com/vinceanalytics/forge/internal/version"
)

func Cli() *cli.Command {
	return &cli.Command{
		Name:  "forge",
		Usage: "Builds, cleans and serves front-end assets",
		Description: `forge compiles scss and bundles javascript into dist, injects the built
assets into html templates and removes outputs whose sources are gone.
The dev command rebuilds on change and reloads connected browsers.`,
		Version:  version.VERSION,
		Commands: []*cli.Command{build(), clean(), dev(), version.VersionCmd()},
	}
}

// setup loads the project in the first argument, defaulting to the working
// directory, and installs the configured logger.
func setup(ctx context.Context, c *cli.Command) (context.Context, *config.Options, error) {
	root := c.Args().First()
	if root == "" {
		root = "."
	}
	o, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	config.Apply(c, o)
	slog.SetDefault(config.Logger(o.LogLevel))
	return config.With(ctx, o), o, nil
}
