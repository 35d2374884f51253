package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/transitfuse/transitfuse/pkg/journeystore"
	"github.com/transitfuse/transitfuse/pkg/processor"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRANSITFUSE_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRANSITFUSE_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "transitfuse",
		Description: "Single binary of truth for TransitFuse - runs all the services",

		Commands: []*cli.Command{
			processor.RegisterCLI(),
			journeystore.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
