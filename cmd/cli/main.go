package main

import (
	"context"
	"log"
	"os"

	"github.com/mpopescu/autochecks/internal/buildinfo"
	"github.com/mpopescu/autochecks/internal/client/cli"
	"github.com/mpopescu/autochecks/internal/client/config"
	"github.com/mpopescu/autochecks/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewText(os.Stderr)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
