// Package processor wires the snapshot manager, fusion engine and
// publisher into the long-running processor service.
package processor

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/transitfuse/transitfuse/pkg/elastic_client"
	"github.com/transitfuse/transitfuse/pkg/fusion"
	"github.com/transitfuse/transitfuse/pkg/redis_client"
	"github.com/transitfuse/transitfuse/pkg/resources"
	"github.com/transitfuse/transitfuse/pkg/sources"
	"github.com/transitfuse/transitfuse/pkg/stats"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "processor",
		Usage: "Fuses realtime feeds with schedule data and publishes vehicle journeys",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the fusion processor",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Usage:    "path to the sources configuration file",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					config, err := sources.LoadConfig(c.String("config"))
					if err != nil {
						return err
					}

					interval, err := config.Interval()
					if err != nil {
						return err
					}

					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					stats.Serve()

					sourceList := config.BuildSources()

					ctx := context.Background()

					manager := resources.NewManager(sourceList)
					manager.InitialLoad(ctx)
					manager.Start(ctx)

					engine := fusion.NewEngine(sourceList, &fusion.RedisPublisher{Channel: config.Channel}, interval)
					engine.Run(ctx)

					return nil
				},
			},
		},
	}
}
