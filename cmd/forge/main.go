package main

import (
	"context"
	"os"

	"github.com/vinceanalytics/forge/internal/cmd"
	"github.com/vinceanalytics/forge/internal/must"
)

func main() {
	must.One(cmd.Cli().Run(context.Background(), os.Args))("forge failed")
}
