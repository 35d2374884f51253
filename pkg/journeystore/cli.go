package journeystore

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/transitfuse/transitfuse/pkg/redis_client"
	"github.com/transitfuse/transitfuse/pkg/stats"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "journey-store",
		Usage: "Receives fused vehicle journeys and serves them over HTTP",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the journey store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "channel",
						Value: "journeys",
						Usage: "channel the processor publishes journeys on",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					stats.Serve()

					ctx := context.Background()

					store := NewStore()
					go store.StartSweeper(ctx)

					consumer := &Consumer{Store: store, Channel: c.String("channel")}
					go func() {
						if err := consumer.Run(ctx); err != nil {
							log.Fatal().Err(err).Msg("Journey consumer failed")
						}
					}()

					return SetupServer(c.String("listen"), store)
				},
			},
		},
	}
}
