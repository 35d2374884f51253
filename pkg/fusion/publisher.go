package fusion

import (
	"context"
	"encoding/json"

	"github.com/transitfuse/transitfuse/pkg/redis_client"
	"github.com/transitfuse/transitfuse/pkg/vehiclejourney"
)

// Publisher pushes fused records downstream. The engine only knows this
// interface, the transport is wiring.
type Publisher interface {
	Publish(ctx context.Context, record *vehiclejourney.VehicleJourney) error
}

type RedisPublisher struct {
	Channel string
}

func (publisher *RedisPublisher) Publish(ctx context.Context, record *vehiclejourney.VehicleJourney) error {
	body, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return redis_client.Client.Publish(ctx, publisher.Channel, body).Err()
}
