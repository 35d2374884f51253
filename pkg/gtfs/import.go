package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

type ShapesStrategy string

const (
	ShapesLoadIfPresent ShapesStrategy = "LOAD-IF-PRESENT"
	ShapesIgnore        ShapesStrategy = "IGNORE"
)

type ImportOptions struct {
	// ExcludeRoute drops a route (and everything hanging off it) from the
	// import when it returns true.
	ExcludeRoute func(RouteRecord) bool

	ShapesStrategy ShapesStrategy
}

type scheduleArchive struct {
	Agencies      []AgencyRecord
	Stops         []StopRecord
	Routes        []RouteRecord
	Trips         []TripRecord
	StopTimes     []StopTimeRecord
	Calendars     []CalendarRecord
	CalendarDates []CalendarDateRecord
	Shapes        []ShapeRecord
}

func (archive *scheduleArchive) parse(reader io.Reader) error {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	fileMap := map[string]interface{}{
		"agency.txt":         &archive.Agencies,
		"stops.txt":          &archive.Stops,
		"routes.txt":         &archive.Routes,
		"trips.txt":          &archive.Trips,
		"stop_times.txt":     &archive.StopTimes,
		"calendar.txt":       &archive.Calendars,
		"calendar_dates.txt": &archive.CalendarDates,
		"shapes.txt":         &archive.Shapes,
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	zipReader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return err
	}

	for _, zipFile := range zipReader.File {
		destination, exists := fileMap[zipFile.Name]
		if !exists {
			log.Debug().Str("file", zipFile.Name).Msg("Ignoring unknown gtfs file")
			continue
		}

		fileReader, err := zipFile.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", zipFile.Name, err)
		}

		err = gocsv.Unmarshal(fileReader, destination)
		fileReader.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", zipFile.Name, err)
		}
	}

	return nil
}

// NewScheduleFromArchive builds an in-memory schedule from a zipped GTFS
// feed. Trips referencing unknown routes and stop times referencing
// unknown trips are dropped silently; unknown agencies, services or stops
// abort the import.
func NewScheduleFromArchive(reader io.Reader, options ImportOptions) (*Schedule, error) {
	var archive scheduleArchive
	if err := archive.parse(reader); err != nil {
		return nil, err
	}

	schedule := &Schedule{
		Agencies:     map[string]*Agency{},
		Routes:       map[string]*Route{},
		Services:     map[string]*Service{},
		Stops:        map[string]*Stop{},
		Trips:        map[string]*Trip{},
		ImportedAt:   time.Now(),
		journeyIndex: map[string]*Journey{},
	}

	for _, record := range archive.Agencies {
		timezone, err := time.LoadLocation(record.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q for agency '%s': %w", record.Timezone, record.ID, err)
		}

		schedule.Agencies[record.ID] = &Agency{
			ID:       record.ID,
			Name:     record.Name,
			Timezone: timezone,
		}
	}

	if err := importServices(schedule, &archive); err != nil {
		return nil, err
	}

	for _, record := range archive.Stops {
		// Stations, entrances and generic nodes never appear in stop
		// times, only actual platforms/stops do.
		if record.LocationType != "" && record.LocationType != "0" {
			continue
		}

		schedule.Stops[record.ID] = &Stop{
			ID:        record.ID,
			Name:      record.Name,
			Latitude:  record.Latitude,
			Longitude: record.Longitude,
		}
	}

	shapes, err := importShapes(&archive, options)
	if err != nil {
		return nil, err
	}

	for _, record := range archive.Routes {
		if options.ExcludeRoute != nil && options.ExcludeRoute(record) {
			continue
		}

		agency := schedule.Agencies[record.AgencyID]
		if agency == nil {
			return nil, fmt.Errorf("unknown agency with id '%s' for route '%s'", record.AgencyID, record.ID)
		}

		schedule.Routes[record.ID] = &Route{
			ID:         record.ID,
			Agency:     agency,
			Name:       record.ShortName,
			Type:       TransportTypeFromRouteType(record.Type),
			Colour:     strings.ToUpper(record.Colour),
			TextColour: strings.ToUpper(record.TextColour),
		}
	}

	if err := importTrips(schedule, &archive, shapes); err != nil {
		return nil, err
	}

	return schedule, nil
}

func importServices(schedule *Schedule, archive *scheduleArchive) error {
	for _, record := range archive.Calendars {
		startsOn, err := ParseDate(record.Start, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid start date for service '%s': %w", record.ServiceID, err)
		}
		endsOn, err := ParseDate(record.End, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid end date for service '%s': %w", record.ServiceID, err)
		}

		schedule.Services[record.ServiceID] = &Service{
			ID: record.ServiceID,
			Days: [7]bool{
				record.Monday == 1,
				record.Tuesday == 1,
				record.Wednesday == 1,
				record.Thursday == 1,
				record.Friday == 1,
				record.Saturday == 1,
				record.Sunday == 1,
			},
			StartsOn:      startsOn,
			EndsOn:        endsOn,
			ExcludedDates: map[string]bool{},
			IncludedDates: map[string]bool{},
		}
	}

	for _, record := range archive.CalendarDates {
		service := schedule.Services[record.ServiceID]
		if service == nil {
			// A service defined solely through exception dates runs on
			// its included dates only, with an open validity window.
			service = &Service{
				ID:            record.ServiceID,
				StartsOn:      DefaultServiceStartDate,
				EndsOn:        DefaultServiceEndDate,
				ExcludedDates: map[string]bool{},
				IncludedDates: map[string]bool{},
			}
			schedule.Services[record.ServiceID] = service
		}

		date, err := ParseDate(record.Date, time.UTC)
		if err != nil {
			return fmt.Errorf("invalid exception date for service '%s': %w", record.ServiceID, err)
		}

		if record.ExceptionType == "1" {
			service.IncludedDates[DateKey(date)] = true
		} else {
			service.ExcludedDates[DateKey(date)] = true
		}
	}

	return nil
}

func importShapes(archive *scheduleArchive, options ImportOptions) (map[string]*Shape, error) {
	shapes := map[string]*Shape{}
	if options.ShapesStrategy == ShapesIgnore {
		return shapes, nil
	}

	for _, record := range archive.Shapes {
		// Points without a travelled distance are useless for
		// interpolation.
		if record.DistanceTraveled == "" {
			continue
		}

		distance, err := strconv.ParseFloat(record.DistanceTraveled, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shape_dist_traveled for shape '%s': %w", record.ID, err)
		}

		shape := shapes[record.ID]
		if shape == nil {
			shape = &Shape{ID: record.ID}
			shapes[record.ID] = shape
		}

		shape.Points = append(shape.Points, &ShapePoint{
			Sequence:         record.Sequence,
			Latitude:         record.Latitude,
			Longitude:        record.Longitude,
			DistanceTraveled: distance,
		})
	}

	for _, shape := range shapes {
		sort.Slice(shape.Points, func(a, b int) bool {
			return shape.Points[a].Sequence < shape.Points[b].Sequence
		})
	}

	return shapes, nil
}

func importTrips(schedule *Schedule, archive *scheduleArchive, shapes map[string]*Shape) error {
	usedStops := map[string]bool{}

	for _, record := range archive.Trips {
		route := schedule.Routes[record.RouteID]
		if route == nil {
			// Excluded or otherwise unknown route, drop the trip with it.
			continue
		}

		service := schedule.Services[record.ServiceID]
		if service == nil {
			return fmt.Errorf("unknown service with id '%s' for trip '%s'", record.ServiceID, record.ID)
		}

		schedule.Trips[record.ID] = &Trip{
			ID:        record.ID,
			Route:     route,
			Service:   service,
			Direction: record.DirectionID,
			Headsign:  record.Headsign,
			BlockID:   record.BlockID,
			Shape:     shapes[record.ShapeID],
		}
	}

	for _, record := range archive.StopTimes {
		trip := schedule.Trips[record.TripID]
		if trip == nil {
			continue
		}

		stop := schedule.Stops[record.StopID]
		if stop == nil {
			return fmt.Errorf("unknown stop with id '%s' for trip '%s'", record.StopID, record.TripID)
		}
		usedStops[stop.ID] = true

		arrivalTime, arrivalOffset, err := ParseTimeOfDay(record.ArrivalTime)
		if err != nil {
			return fmt.Errorf("invalid arrival time for trip '%s': %w", record.TripID, err)
		}

		stopTime := &StopTime{
			Sequence:         record.StopSequence,
			Stop:             stop,
			ArrivalTime:      arrivalTime,
			ArrivalDayOffset: arrivalOffset,
		}

		// Producers usually repeat the arrival as the departure, only a
		// genuinely different departure is worth keeping.
		if record.DepartureTime != record.ArrivalTime {
			departureTime, departureOffset, err := ParseTimeOfDay(record.DepartureTime)
			if err != nil {
				return fmt.Errorf("invalid departure time for trip '%s': %w", record.TripID, err)
			}
			stopTime.DepartureTime = &departureTime
			stopTime.DepartureDayOffset = departureOffset
		}

		if record.DistanceTraveled != "" {
			distance, err := strconv.ParseFloat(record.DistanceTraveled, 64)
			if err != nil {
				return fmt.Errorf("invalid shape_dist_traveled for trip '%s': %w", record.TripID, err)
			}
			stopTime.DistanceTraveled = &distance
		}

		trip.StopTimes = append(trip.StopTimes, stopTime)
	}

	for _, trip := range schedule.Trips {
		sort.Slice(trip.StopTimes, func(a, b int) bool {
			return trip.StopTimes[a].Sequence < trip.StopTimes[b].Sequence
		})
	}

	for id, stop := range schedule.Stops {
		if !usedStops[stop.ID] {
			delete(schedule.Stops, id)
		}
	}

	return nil
}
