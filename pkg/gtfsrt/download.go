package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"google.golang.org/protobuf/proto"

	"github.com/transitfuse/transitfuse/pkg/stats"
)

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// DownloadFeeds fetches every realtime feed concurrently and merges their
// entities. A feed that fails to download or decode is logged and skipped,
// the remaining feeds still contribute.
func DownloadFeeds(ctx context.Context, urls []string) Feed {
	downloads := pool.NewWithResults[*Feed]().WithMaxGoroutines(len(urls) + 1)

	for _, url := range urls {
		downloads.Go(func() *Feed {
			feed, err := downloadFeed(ctx, url)
			if err != nil {
				log.Error().Err(err).Str("url", url).Msg("Failed to download realtime feed")
				stats.FeedFailures.Inc()
				return nil
			}
			return feed
		})
	}

	var merged Feed
	for _, feed := range downloads.Wait() {
		if feed == nil {
			continue
		}
		merged.TripUpdates = append(merged.TripUpdates, feed.TripUpdates...)
		merged.VehiclePositions = append(merged.VehiclePositions, feed.VehiclePositions...)
	}
	return merged
}

func downloadFeed(ctx context.Context, url string) (*Feed, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNoContent {
		return &Feed{}, nil
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", response.StatusCode)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	feedMessage := gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(body, &feedMessage); err != nil {
		return nil, fmt.Errorf("failed parsing GTFS-RT protobuf: %w", err)
	}

	feed := &Feed{}
	for _, entity := range feedMessage.Entity {
		if tripUpdate := entity.GetTripUpdate(); tripUpdate != nil {
			feed.TripUpdates = append(feed.TripUpdates, convertTripUpdate(tripUpdate))
		}
		if vehiclePosition := entity.GetVehicle(); vehiclePosition != nil {
			feed.VehiclePositions = append(feed.VehiclePositions, convertVehiclePosition(vehiclePosition))
		}
	}
	return feed, nil
}

func convertTripUpdate(tripUpdate *gtfsproto.TripUpdate) TripUpdate {
	converted := TripUpdate{
		Trip:      convertTripDescriptor(tripUpdate.GetTrip()),
		Timestamp: time.Unix(int64(tripUpdate.GetTimestamp()), 0),
	}

	if vehicle := tripUpdate.GetVehicle(); vehicle != nil {
		converted.Vehicle = &VehicleDescriptor{
			ID:    vehicle.GetId(),
			Label: vehicle.GetLabel(),
		}
	}

	for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
		converted.StopTimeUpdates = append(converted.StopTimeUpdates, convertStopTimeUpdate(stopTimeUpdate))
	}

	return converted
}

func convertStopTimeUpdate(stopTimeUpdate *gtfsproto.TripUpdate_StopTimeUpdate) StopTimeUpdate {
	converted := StopTimeUpdate{
		StopID:               stopTimeUpdate.GetStopId(),
		ScheduleRelationship: StopTimeScheduleRelationship(stopTimeUpdate.GetScheduleRelationship().String()),
	}

	if stopTimeUpdate.StopSequence != nil {
		sequence := int(stopTimeUpdate.GetStopSequence())
		converted.StopSequence = &sequence
	}

	converted.Arrival = convertStopTimeEvent(stopTimeUpdate.GetArrival())
	converted.Departure = convertStopTimeEvent(stopTimeUpdate.GetDeparture())

	return converted
}

func convertStopTimeEvent(event *gtfsproto.TripUpdate_StopTimeEvent) *StopTimeEvent {
	if event == nil {
		return nil
	}

	converted := &StopTimeEvent{}
	if event.Time != nil {
		converted.Time = proto.Int64(event.GetTime())
	}
	if event.Delay != nil {
		converted.Delay = proto.Int32(event.GetDelay())
	}
	return converted
}

func convertVehiclePosition(vehiclePosition *gtfsproto.VehiclePosition) VehiclePosition {
	converted := VehiclePosition{
		Vehicle: VehicleDescriptor{
			ID:    vehiclePosition.GetVehicle().GetId(),
			Label: vehiclePosition.GetVehicle().GetLabel(),
		},
		Position: Position{
			Latitude:  float64(vehiclePosition.GetPosition().GetLatitude()),
			Longitude: float64(vehiclePosition.GetPosition().GetLongitude()),
		},
		CurrentStatus: VehicleStopStatus(vehiclePosition.GetCurrentStatus().String()),
		Timestamp:     time.Unix(int64(vehiclePosition.GetTimestamp()), 0),
	}

	if trip := vehiclePosition.GetTrip(); trip != nil {
		descriptor := convertTripDescriptor(trip)
		converted.Trip = &descriptor
	}

	if position := vehiclePosition.GetPosition(); position != nil && position.Bearing != nil {
		bearing := float64(position.GetBearing())
		converted.Position.Bearing = &bearing
	}

	if vehiclePosition.CurrentStopSequence != nil {
		sequence := int(vehiclePosition.GetCurrentStopSequence())
		converted.CurrentStopSequence = &sequence
	}
	if vehiclePosition.StopId != nil {
		stopID := vehiclePosition.GetStopId()
		converted.StopID = &stopID
	}

	return converted
}

func convertTripDescriptor(descriptor *gtfsproto.TripDescriptor) TripDescriptor {
	converted := TripDescriptor{
		TripID:               descriptor.GetTripId(),
		ScheduleRelationship: TripScheduleRelationship(descriptor.GetScheduleRelationship().String()),
	}
	if descriptor == nil {
		return converted
	}

	if descriptor.RouteId != nil {
		routeID := descriptor.GetRouteId()
		converted.RouteID = &routeID
	}
	if descriptor.DirectionId != nil {
		direction := int(descriptor.GetDirectionId())
		converted.DirectionID = &direction
	}
	if descriptor.StartDate != nil {
		startDate := descriptor.GetStartDate()
		converted.StartDate = &startDate
	}

	return converted
}
