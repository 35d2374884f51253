package fusion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
	"github.com/transitfuse/transitfuse/pkg/sources"
)

func newFusionSource(t *testing.T, schedule *gtfs.Schedule, feedURLs ...string) *sources.Source {
	t.Helper()

	source := &sources.Source{
		ID:               "test",
		RealtimeFeedURLs: feedURLs,
		Policy:           &sources.StandardPolicy{LookAheadDuration: 10 * time.Minute},
		Resolver:         &sources.StandardResolver{Network: "TEST"},
		Mapper:           &sources.StandardMapper{},
	}
	source.SetSchedule(schedule)
	return source
}

func serveFeed(t *testing.T, feed *gtfsproto.FeedMessage) *httptest.Server {
	t.Helper()

	body, err := proto.Marshal(feed)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func feedHeader() *gtfsproto.FeedHeader {
	return &gtfsproto.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")}
}

func TestComputeSourceMergesTripUpdate(t *testing.T) {
	timezone := fusionTimezone(t)
	trip := newFusionTrip(t)
	schedule := newFusionSchedule(trip)

	// One minute before the journey's delayed first departure.
	now := time.Date(2024, 10, 21, 10, 4, 0, 0, timezone)

	server := serveFeed(t, &gtfsproto.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfsproto.FeedEntity{
			{
				Id: proto.String("1"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						TripId:    proto.String("trip-1"),
						StartDate: proto.String("20241021"),
					},
					Timestamp: proto.Uint64(uint64(now.Add(-time.Minute).Unix())),
					StopTimeUpdate: []*gtfsproto.TripUpdate_StopTimeUpdate{
						{
							StopSequence: proto.Uint32(1),
							Arrival:      &gtfsproto.TripUpdate_StopTimeEvent{Delay: proto.Int32(300)},
						},
					},
				},
			},
		},
	})

	source := newFusionSource(t, schedule, server.URL)
	records := ComputeSource(context.Background(), source, now)

	require.Len(t, records, 1)
	record := records[0]

	// No vehicle was reported, the journey publishes under a fake one.
	assert.Equal(t, "TEST::FakeVehicle:trip-1:2024-10-21", record.ID)
	require.NotNil(t, record.Line)
	assert.Equal(t, "TEST:Line:route-1", record.Line.Ref)
	assert.Equal(t, "TEST:ServiceJourney:trip-1", record.JourneyRef)
	assert.Equal(t, "TEST:DatedServiceJourney:trip-1:2024-10-21", record.DatedJourneyRef)

	// The +300s delay on the first stop propagates to every call.
	require.Len(t, record.Calls, 3)
	for _, call := range record.Calls {
		require.NotNil(t, call.ExpectedTime)
		assert.Equal(t, call.AimedTime.Add(5*time.Minute), *call.ExpectedTime)
	}

	// No GPS fix, the position is interpolated.
	assert.Equal(t, gtfs.PositionTypeComputed, record.Position.Type)
}

func TestComputeSourceVehiclePosition(t *testing.T) {
	timezone := fusionTimezone(t)
	trip := newFusionTrip(t)
	schedule := newFusionSchedule(trip)

	date := time.Date(2024, 10, 21, 0, 0, 0, 0, timezone)
	journey := trip.Materialize(date, false)
	require.NotNil(t, journey)
	schedule.AddJourney(journey)

	now := time.Date(2024, 10, 21, 10, 5, 0, 0, timezone)

	server := serveFeed(t, &gtfsproto.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfsproto.FeedEntity{
			{
				Id: proto.String("1"),
				Vehicle: &gtfsproto.VehiclePosition{
					Trip: &gtfsproto.TripDescriptor{
						TripId:    proto.String("trip-1"),
						StartDate: proto.String("20241021"),
					},
					Vehicle: &gtfsproto.VehicleDescriptor{
						Id:    proto.String("veh-1"),
						Label: proto.String("Bus 42"),
					},
					Position: &gtfsproto.Position{
						Latitude:  proto.Float32(0.5),
						Longitude: proto.Float32(0.5),
					},
					CurrentStopSequence: proto.Uint32(2),
					CurrentStatus:       gtfsproto.VehiclePosition_IN_TRANSIT_TO.Enum(),
					Timestamp:           proto.Uint64(uint64(now.Add(-30 * time.Second).Unix())),
				},
			},
		},
	})

	source := newFusionSource(t, schedule, server.URL)
	records := ComputeSource(context.Background(), source, now)

	// The reported vehicle covers the journey, no fake-vehicle record is
	// emitted alongside it.
	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, "TEST::Vehicle:Bus 42", record.ID)
	assert.Equal(t, "Bus 42", record.VehicleRef)

	assert.Equal(t, gtfs.PositionTypeGPS, record.Position.Type)
	assert.InDelta(t, 0.5, record.Position.Latitude, 1e-6)
	assert.False(t, record.Position.AtStop)

	// Calls from the reported stop sequence onwards.
	require.Len(t, record.Calls, 2)
	assert.Equal(t, 2, record.Calls[0].StopOrder)
	assert.Equal(t, 3, record.Calls[1].StopOrder)
}

func TestComputeSourceScheduledFallback(t *testing.T) {
	timezone := fusionTimezone(t)
	trip := newFusionTrip(t)
	schedule := newFusionSchedule(trip)

	date := time.Date(2024, 10, 21, 0, 0, 0, 0, timezone)
	journey := trip.Materialize(date, false)
	require.NotNil(t, journey)
	schedule.AddJourney(journey)

	now := time.Date(2024, 10, 21, 10, 5, 0, 0, timezone)

	source := newFusionSource(t, schedule)
	records := ComputeSource(context.Background(), source, now)

	require.Len(t, records, 1)
	record := records[0]

	assert.Equal(t, "TEST::FakeVehicle:trip-1:2024-10-21", record.ID)
	assert.Empty(t, record.VehicleRef)
	assert.Equal(t, gtfs.PositionTypeComputed, record.Position.Type)
	// 10:05 is halfway along the first 1000m leg.
	assert.InDelta(t, 0.5, record.Position.Latitude, 1e-9)
	require.Len(t, record.Calls, 2)
	assert.Equal(t, 2, record.Calls[0].StopOrder)
}

func TestComputeSourceSkipsCanceledAndStale(t *testing.T) {
	timezone := fusionTimezone(t)
	trip := newFusionTrip(t)
	schedule := newFusionSchedule(trip)

	now := time.Date(2024, 10, 21, 10, 4, 0, 0, timezone)

	server := serveFeed(t, &gtfsproto.FeedMessage{
		Header: feedHeader(),
		Entity: []*gtfsproto.FeedEntity{
			{
				Id: proto.String("1"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						TripId:               proto.String("trip-1"),
						StartDate:            proto.String("20241021"),
						ScheduleRelationship: gtfsproto.TripDescriptor_CANCELED.Enum(),
					},
					Timestamp: proto.Uint64(uint64(now.Add(-time.Minute).Unix())),
				},
			},
			{
				Id: proto.String("2"),
				TripUpdate: &gtfsproto.TripUpdate{
					Trip: &gtfsproto.TripDescriptor{
						TripId:    proto.String("trip-1"),
						StartDate: proto.String("20241021"),
					},
					Timestamp: proto.Uint64(uint64(now.Add(-20 * time.Minute).Unix())),
					StopTimeUpdate: []*gtfsproto.TripUpdate_StopTimeUpdate{
						{
							StopSequence: proto.Uint32(1),
							Arrival:      &gtfsproto.TripUpdate_StopTimeEvent{Delay: proto.Int32(600)},
						},
					},
				},
			},
		},
	})

	source := newFusionSource(t, schedule, server.URL)
	ComputeSource(context.Background(), source, now)

	// Neither the canceled nor the stale update materialized anything.
	assert.Empty(t, schedule.Journeys())
}

func TestComputeSourceBlockDeduplication(t *testing.T) {
	timezone := fusionTimezone(t)
	trip := newFusionTrip(t)
	trip.BlockID = "block-1"

	second := newFusionTrip(t)
	second.ID = "trip-2"
	second.BlockID = "block-1"
	second.Route = trip.Route
	second.Service = trip.Service

	schedule := &gtfs.Schedule{
		Trips: map[string]*gtfs.Trip{trip.ID: trip, second.ID: second},
	}

	date := time.Date(2024, 10, 21, 0, 0, 0, 0, timezone)
	for _, blockTrip := range []*gtfs.Trip{trip, second} {
		journey := blockTrip.Materialize(date, false)
		require.NotNil(t, journey)
		schedule.AddJourney(journey)
	}

	now := time.Date(2024, 10, 21, 10, 5, 0, 0, timezone)

	source := newFusionSource(t, schedule)
	records := ComputeSource(context.Background(), source, now)

	// One vehicle serves the whole block, only one record comes out.
	require.Len(t, records, 1)
}
