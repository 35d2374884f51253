package gtfs

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for name, content := range files {
		file, err := writer.Create(name)
		require.NoError(t, err)
		_, err = file.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return bytes.NewReader(buffer.Bytes())
}

func feedFiles() map[string]string {
	return map[string]string{
		"agency.txt": "agency_id,agency_name,agency_timezone\n" +
			"agency,Test Agency,Europe/Paris\n",
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon,location_type\n" +
			"stop-a,Alpha,48.85,2.35,0\n" +
			"stop-b,Bravo,48.86,2.36,\n" +
			"station-1,Big Station,48.87,2.37,1\n" +
			"stop-unused,Nowhere,48.88,2.38,0\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_type,route_color,route_text_color\n" +
			"route-1,agency,1,3,ff0000,ffffff\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id,block_id,shape_id\n" +
			"route-1,weekdays,trip-1,Bravo,0,block-1,shape-1\n" +
			"route-ghost,weekdays,trip-ghost,Nowhere,0,,\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence,shape_dist_traveled\n" +
			"trip-1,10:00:00,10:00:00,stop-a,1,0\n" +
			"trip-1,25:10:00,25:12:00,stop-b,2,1000\n" +
			"trip-ghost,09:00:00,09:00:00,stop-a,1,\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"weekdays,1,1,1,1,1,0,0,20240101,20241231\n",
		"calendar_dates.txt": "service_id,date,exception_type\n" +
			"weekdays,20241021,2\n" +
			"extras,20241026,1\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence,shape_dist_traveled\n" +
			"shape-1,48.85,2.35,1,0\n" +
			"shape-1,48.86,2.36,2,1000\n" +
			"shape-1,48.99,2.99,3,\n",
	}
}

func TestImportSchedule(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{})
	require.NoError(t, err)

	agency := schedule.Agencies["agency"]
	require.NotNil(t, agency)
	assert.Equal(t, "Europe/Paris", agency.Timezone.String())

	route := schedule.Routes["route-1"]
	require.NotNil(t, route)
	assert.Equal(t, TransportTypeBus, route.Type)
	assert.Equal(t, "FF0000", route.Colour)
	assert.Equal(t, "FFFFFF", route.TextColour)

	trip := schedule.Trips["trip-1"]
	require.NotNil(t, trip)
	require.Len(t, trip.StopTimes, 2)

	// Equal arrival and departure collapse into a single arrival.
	first := trip.StopTimes[0]
	assert.Equal(t, TimeOfDay{Hour: 10}, first.ArrivalTime)
	assert.Nil(t, first.DepartureTime)

	// Past-midnight times roll over into a day offset.
	second := trip.StopTimes[1]
	assert.Equal(t, TimeOfDay{Hour: 1, Minute: 10}, second.ArrivalTime)
	assert.Equal(t, 1, second.ArrivalDayOffset)
	require.NotNil(t, second.DepartureTime)
	assert.Equal(t, TimeOfDay{Hour: 1, Minute: 12}, *second.DepartureTime)
	assert.Equal(t, 1, second.DepartureDayOffset)
}

func TestImportDropsTripsOfUnknownRoutes(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{})
	require.NoError(t, err)

	assert.Nil(t, schedule.Trips["trip-ghost"])
}

func TestImportFiltersStops(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{})
	require.NoError(t, err)

	// Stations are filtered, stops no trip calls at are pruned.
	assert.Nil(t, schedule.Stops["station-1"])
	assert.Nil(t, schedule.Stops["stop-unused"])
	assert.NotNil(t, schedule.Stops["stop-a"])
	assert.NotNil(t, schedule.Stops["stop-b"])
}

func TestImportServices(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{})
	require.NoError(t, err)

	weekdays := schedule.Services["weekdays"]
	require.NotNil(t, weekdays)
	assert.True(t, weekdays.Days[0])
	assert.False(t, weekdays.Days[5])
	assert.True(t, weekdays.ExcludedDates["2024-10-21"])

	// Defined through calendar_dates.txt alone: open validity window,
	// runs on included dates only.
	extras := schedule.Services["extras"]
	require.NotNil(t, extras)
	assert.Equal(t, DefaultServiceStartDate, extras.StartsOn)
	assert.Equal(t, DefaultServiceEndDate, extras.EndsOn)
	assert.True(t, extras.IncludedDates["2024-10-26"])
}

func TestImportShapes(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{})
	require.NoError(t, err)

	trip := schedule.Trips["trip-1"]
	require.NotNil(t, trip)
	require.NotNil(t, trip.Shape)

	// The point without a travelled distance is dropped.
	require.Len(t, trip.Shape.Points, 2)
	assert.Equal(t, 0.0, trip.Shape.Points[0].DistanceTraveled)
	assert.Equal(t, 1000.0, trip.Shape.Points[1].DistanceTraveled)
}

func TestImportIgnoresShapesWhenAsked(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{
		ShapesStrategy: ShapesIgnore,
	})
	require.NoError(t, err)

	trip := schedule.Trips["trip-1"]
	require.NotNil(t, trip)
	assert.Nil(t, trip.Shape)
}

func TestImportExcludesRoutes(t *testing.T) {
	schedule, err := NewScheduleFromArchive(buildArchive(t, feedFiles()), ImportOptions{
		ExcludeRoute: func(record RouteRecord) bool { return record.ID == "route-1" },
	})
	require.NoError(t, err)

	assert.Empty(t, schedule.Routes)
	assert.Empty(t, schedule.Trips)
}

func TestImportUnknownAgencyFails(t *testing.T) {
	files := feedFiles()
	files["routes.txt"] = "route_id,agency_id,route_short_name,route_type\n" +
		"route-1,ghost-agency,1,3\n"

	_, err := NewScheduleFromArchive(buildArchive(t, files), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agency")
}

func TestImportUnknownServiceFails(t *testing.T) {
	files := feedFiles()
	files["trips.txt"] = "route_id,service_id,trip_id,direction_id\n" +
		"route-1,ghost-service,trip-1,0\n"

	_, err := NewScheduleFromArchive(buildArchive(t, files), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")
}

func TestImportUnknownStopFails(t *testing.T) {
	files := feedFiles()
	files["stop_times.txt"] = "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"trip-1,10:00:00,10:00:00,ghost-stop,1\n"

	_, err := NewScheduleFromArchive(buildArchive(t, files), ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stop")
}

func TestImportDropsStopTimesOfUnknownTrips(t *testing.T) {
	files := feedFiles()
	files["stop_times.txt"] = "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
		"ghost-trip,10:00:00,10:00:00,stop-a,1\n" +
		"trip-1,10:00:00,10:00:00,stop-a,1\n"

	schedule, err := NewScheduleFromArchive(buildArchive(t, files), ImportOptions{})
	require.NoError(t, err)

	trip := schedule.Trips["trip-1"]
	require.NotNil(t, trip)
	assert.Len(t, trip.StopTimes, 1)
}
