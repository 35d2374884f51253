package journeystore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/transitfuse/transitfuse/pkg/redis_client"
	"github.com/transitfuse/transitfuse/pkg/vehiclejourney"
)

type Consumer struct {
	Store   *Store
	Channel string
}

// Run subscribes to the publish channel and feeds the store until the
// context is cancelled.
func (consumer *Consumer) Run(ctx context.Context) error {
	subscriber := redis_client.Client.Subscribe(ctx, consumer.Channel)
	defer subscriber.Close()

	log.Info().Str("channel", consumer.Channel).Msg("Subscribed to journey updates")

	messages := subscriber.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok {
				return nil
			}

			var record vehiclejourney.VehicleJourney
			if err := json.Unmarshal([]byte(message.Payload), &record); err != nil {
				log.Error().Err(err).Msg("Failed to decode journey record")
				continue
			}

			// A record that sat in transit past the TTL would be evicted
			// immediately, don't bother storing it.
			if time.Since(record.UpdatedAt) >= recordTTL {
				continue
			}

			consumer.Store.Set(&record)
		}
	}
}
