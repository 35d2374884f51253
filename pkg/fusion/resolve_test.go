package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
	"github.com/transitfuse/transitfuse/pkg/gtfsrt"
)

func fusionTimezone(t *testing.T) *time.Location {
	t.Helper()
	timezone, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return timezone
}

// newFusionTrip builds a three-stop trip departing at 10:00 local, with
// travelled distances along a straight shape.
func newFusionTrip(t *testing.T) *gtfs.Trip {
	timezone := fusionTimezone(t)

	agency := &gtfs.Agency{ID: "agency", Name: "Test Agency", Timezone: timezone}
	route := &gtfs.Route{ID: "route-1", Agency: agency, Name: "1", Type: gtfs.TransportTypeBus}
	service := &gtfs.Service{
		ID:       "daily",
		Days:     [7]bool{true, true, true, true, true, true, true},
		StartsOn: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}

	distanceA, distanceB, distanceC := 0.0, 1000.0, 2000.0
	departureB := gtfs.TimeOfDay{Hour: 10, Minute: 12}

	return &gtfs.Trip{
		ID:      "trip-1",
		Route:   route,
		Service: service,
		StopTimes: []*gtfs.StopTime{
			{Sequence: 1, Stop: &gtfs.Stop{ID: "stop-a", Name: "Alpha"}, ArrivalTime: gtfs.TimeOfDay{Hour: 10}, DistanceTraveled: &distanceA},
			{Sequence: 2, Stop: &gtfs.Stop{ID: "stop-b", Name: "Bravo", Latitude: 1, Longitude: 1}, ArrivalTime: gtfs.TimeOfDay{Hour: 10, Minute: 10}, DepartureTime: &departureB, DistanceTraveled: &distanceB},
			{Sequence: 3, Stop: &gtfs.Stop{ID: "stop-c", Name: "Charlie", Latitude: 2, Longitude: 2}, ArrivalTime: gtfs.TimeOfDay{Hour: 10, Minute: 20}, DistanceTraveled: &distanceC},
		},
		Direction: 0,
		Headsign:  "Charlie",
		Shape: &gtfs.Shape{
			ID: "shape-1",
			Points: []*gtfs.ShapePoint{
				{Sequence: 1, DistanceTraveled: 0},
				{Sequence: 2, Latitude: 1, Longitude: 1, DistanceTraveled: 1000},
				{Sequence: 3, Latitude: 2, Longitude: 2, DistanceTraveled: 2000},
			},
		},
	}
}

func newFusionSchedule(trip *gtfs.Trip) *gtfs.Schedule {
	return &gtfs.Schedule{
		Trips: map[string]*gtfs.Trip{trip.ID: trip},
	}
}

func stringPointer(value string) *string {
	return &value
}

func intPointer(value int) *int {
	return &value
}

func TestResolveJourneyByStartDate(t *testing.T) {
	trip := newFusionTrip(t)
	schedule := newFusionSchedule(trip)

	descriptor := &gtfsrt.TripDescriptor{
		TripID:    "trip-1",
		StartDate: stringPointer("20241021"),
	}

	journey := resolveJourney(schedule, descriptor, time.Now())
	require.NotNil(t, journey)
	assert.Equal(t, "trip-1:2024-10-21", journey.ID)

	// A second resolution reuses the materialized journey.
	assert.Same(t, journey, resolveJourney(schedule, descriptor, time.Now()))
	assert.Len(t, schedule.Journeys(), 1)
}

func TestResolveJourneyValidatesDescriptorFields(t *testing.T) {
	trip := newFusionTrip(t)
	schedule := newFusionSchedule(trip)

	assert.Nil(t, resolveJourney(schedule, &gtfsrt.TripDescriptor{TripID: "ghost"}, time.Now()))
	assert.Nil(t, resolveJourney(schedule, &gtfsrt.TripDescriptor{
		TripID:  "trip-1",
		RouteID: stringPointer("other-route"),
	}, time.Now()))
	assert.Nil(t, resolveJourney(schedule, &gtfsrt.TripDescriptor{
		TripID:      "trip-1",
		DirectionID: intPointer(1),
	}, time.Now()))
}

func TestResolveJourneyGuessesStartDate(t *testing.T) {
	timezone := fusionTimezone(t)
	trip := newFusionTrip(t)
	// An overnight departure, for the previous-day attribution case.
	trip.StopTimes[0].ArrivalTime = gtfs.TimeOfDay{Hour: 23, Minute: 55}
	schedule := newFusionSchedule(trip)

	descriptor := &gtfsrt.TripDescriptor{TripID: "trip-1"}

	// Shortly after midnight, a report about a 23:55 trip belongs to
	// yesterday's service date.
	journey := resolveJourney(schedule, descriptor, time.Date(2024, 10, 20, 0, 4, 0, 0, timezone))
	require.NotNil(t, journey)
	assert.Equal(t, "2024-10-19", gtfs.DateKey(journey.Date))

	// Before midnight it is today's.
	journey = resolveJourney(schedule, descriptor, time.Date(2024, 10, 19, 23, 58, 0, 0, timezone))
	require.NotNil(t, journey)
	assert.Equal(t, "2024-10-19", gtfs.DateKey(journey.Date))
}

func TestMatchesDescriptor(t *testing.T) {
	trip := newFusionTrip(t)
	journey := trip.Materialize(time.Date(2024, 10, 21, 0, 0, 0, 0, time.UTC), false)
	require.NotNil(t, journey)

	assert.True(t, matchesDescriptor(journey, &gtfsrt.TripDescriptor{TripID: "trip-1"}))
	assert.True(t, matchesDescriptor(journey, &gtfsrt.TripDescriptor{
		TripID:    "trip-1",
		RouteID:   stringPointer("route-1"),
		StartDate: stringPointer("20241021"),
	}))
	assert.False(t, matchesDescriptor(journey, &gtfsrt.TripDescriptor{TripID: "other"}))
	assert.False(t, matchesDescriptor(journey, &gtfsrt.TripDescriptor{
		TripID:    "trip-1",
		StartDate: stringPointer("20241022"),
	}))
	assert.False(t, matchesDescriptor(journey, &gtfsrt.TripDescriptor{
		TripID:      "trip-1",
		DirectionID: intPointer(1),
	}))
}
