package fusion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/maps"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
	"github.com/transitfuse/transitfuse/pkg/gtfsrt"
	"github.com/transitfuse/transitfuse/pkg/sources"
	"github.com/transitfuse/transitfuse/pkg/vehiclejourney"
)

// Realtime reports older than this are not trusted.
const realtimeStaleCutoff = 10 * time.Minute

// ComputeSource runs one fusion cycle for a single source: download the
// realtime feeds, merge trip updates into journeys, emit a record per
// reported vehicle, then fill in the still uncovered scheduled journeys.
func ComputeSource(ctx context.Context, source *sources.Source, now time.Time) []*vehiclejourney.VehicleJourney {
	schedule := source.Schedule()
	if schedule == nil {
		return nil
	}

	feed := gtfsrt.DownloadFeeds(ctx, source.RealtimeFeedURLs)
	for index := range feed.TripUpdates {
		feed.TripUpdates[index] = source.Mapper.MapTripUpdate(feed.TripUpdates[index])
	}
	for index := range feed.VehiclePositions {
		feed.VehiclePositions[index] = source.Mapper.MapVehiclePosition(feed.VehiclePositions[index])
	}

	activeJourneys := map[string]*vehiclejourney.VehicleJourney{}
	handledJourneys := map[string]bool{}
	handledBlocks := map[string]bool{}

	for _, tripUpdate := range feed.TripUpdates {
		if tripUpdate.Trip.ScheduleRelationship == gtfsrt.TripCanceled {
			continue
		}
		if now.Sub(tripUpdate.Timestamp) >= realtimeStaleCutoff {
			continue
		}

		journey := resolveJourney(schedule, &tripUpdate.Trip, tripUpdate.Timestamp)
		if journey == nil {
			continue
		}

		journey.ApplyStopTimeUpdates(tripUpdate.StopTimeUpdates)
	}

	for _, vehiclePosition := range feed.VehiclePositions {
		var journey *gtfs.Journey

		if vehiclePosition.Trip != nil {
			stale := now.Sub(vehiclePosition.Timestamp) >= realtimeStaleCutoff

			journey = resolveJourney(schedule, vehiclePosition.Trip, vehiclePosition.Timestamp)
			if journey == nil {
				if stale {
					continue
				}
			} else {
				// A stale position is still useful while its journey is
				// underway, the interpolator needs the vehicle record.
				lastCall := journey.Calls[len(journey.Calls)-1]
				if stale && now.After(lastCall.DepartureTime()) {
					continue
				}
				handledJourneys[journey.ID] = true
			}
		}

		record := buildVehicleRecord(source, journey, vehiclePosition, now)
		activeJourneys[record.ID] = record
	}

	for _, journey := range schedule.Journeys() {
		if handledJourneys[journey.ID] {
			continue
		}
		if journey.Trip.BlockID != "" && handledBlocks[journey.Trip.BlockID] {
			continue
		}
		if !source.Policy.AllowScheduled(journey.Trip) {
			continue
		}

		// A trip update without stop time updates can still tell us which
		// vehicle operates the journey.
		var vehicleDescriptor *gtfsrt.VehicleDescriptor
		for index := range feed.TripUpdates {
			if matchesDescriptor(journey, &feed.TripUpdates[index].Trip) {
				vehicleDescriptor = feed.TripUpdates[index].Vehicle
				break
			}
		}

		// Claim the block up front so later trips of the same vehicle
		// rotation stay suppressed even when this journey emits nothing.
		if journey.Trip.BlockID != "" {
			handledBlocks[journey.Trip.BlockID] = true
		}

		calls := journey.OngoingCalls(now, source.Policy.LookAhead(journey))
		if calls == nil {
			continue
		}

		record := buildScheduledRecord(source, journey, vehicleDescriptor, calls, now)
		activeJourneys[record.ID] = record
	}

	records := maps.Values(activeJourneys)
	sort.Slice(records, func(a, b int) bool { return records[a].ID < records[b].ID })
	return records
}

func buildVehicleRecord(source *sources.Source, journey *gtfs.Journey, vehiclePosition gtfsrt.VehiclePosition, now time.Time) *vehiclejourney.VehicleJourney {
	networkRef := source.Resolver.NetworkRef(journey, &vehiclePosition.Vehicle)
	operatorRef := source.Resolver.OperatorRef(journey, &vehiclePosition.Vehicle)
	vehicleRef := source.Resolver.VehicleRef(&vehiclePosition.Vehicle)

	record := &vehiclejourney.VehicleJourney{
		ID:          fmt.Sprintf("%s:%s:Vehicle:%s", networkRef, operatorRef, vehicleRef),
		NetworkRef:  networkRef,
		OperatorRef: operatorRef,
		VehicleRef:  vehicleRef,
		Position: gtfs.Position{
			Latitude:   vehiclePosition.Position.Latitude,
			Longitude:  vehiclePosition.Position.Longitude,
			AtStop:     vehiclePosition.CurrentStatus == gtfsrt.StopStatusStoppedAt,
			Type:       gtfs.PositionTypeGPS,
			RecordedAt: vehiclePosition.Timestamp,
		},
		UpdatedAt: now,
	}

	if journey == nil {
		return record
	}

	var calls []*gtfs.Call
	switch {
	case vehiclePosition.CurrentStopSequence != nil:
		for _, call := range journey.Calls {
			if call.Sequence >= *vehiclePosition.CurrentStopSequence {
				calls = append(calls, call)
			}
		}
	case vehiclePosition.StopID != nil:
		for index, call := range journey.Calls {
			if call.Stop.ID == *vehiclePosition.StopID {
				calls = journey.Calls[index:]
				break
			}
		}
		if calls == nil {
			calls = journey.OngoingCalls(now, 0)
		}
	default:
		calls = journey.OngoingCalls(now, 0)
	}

	decorateJourneyRecord(record, source, journey, calls, networkRef)
	return record
}

func buildScheduledRecord(source *sources.Source, journey *gtfs.Journey, vehicleDescriptor *gtfsrt.VehicleDescriptor, calls []*gtfs.Call, now time.Time) *vehiclejourney.VehicleJourney {
	networkRef := source.Resolver.NetworkRef(journey, vehicleDescriptor)
	operatorRef := source.Resolver.OperatorRef(journey, vehicleDescriptor)
	vehicleRef := source.Resolver.VehicleRef(vehicleDescriptor)
	tripRef := source.Mapper.TripRef(journey.Trip.ID)

	var key string
	if vehicleDescriptor != nil {
		key = fmt.Sprintf("%s:%s:Vehicle:%s", networkRef, operatorRef, vehicleRef)
	} else {
		key = fmt.Sprintf("%s:%s:FakeVehicle:%s:%s", networkRef, operatorRef, tripRef, gtfs.DateKey(journey.Date))
	}

	record := &vehiclejourney.VehicleJourney{
		ID:          key,
		NetworkRef:  networkRef,
		OperatorRef: operatorRef,
		VehicleRef:  vehicleRef,
		Position:    journey.GuessPosition(now),
		UpdatedAt:   now,
	}

	decorateJourneyRecord(record, source, journey, calls, networkRef)
	return record
}

// decorateJourneyRecord fills in the journey-derived half of a record:
// line, direction, calls and journey references.
func decorateJourneyRecord(record *vehiclejourney.VehicleJourney, source *sources.Source, journey *gtfs.Journey, calls []*gtfs.Call, networkRef string) {
	route := journey.Trip.Route
	tripRef := source.Mapper.TripRef(journey.Trip.ID)

	record.Line = &vehiclejourney.Line{
		Ref:        fmt.Sprintf("%s:Line:%s", networkRef, source.Mapper.LineRef(route.ID)),
		Number:     route.Name,
		Type:       route.Type,
		Colour:     route.Colour,
		TextColour: route.TextColour,
	}

	record.Direction = vehiclejourney.DirectionInbound
	if journey.Trip.Direction == 0 {
		record.Direction = vehiclejourney.DirectionOutbound
	}
	record.Destination = journey.Trip.Headsign

	record.Calls = make([]vehiclejourney.Call, 0, len(calls))
	for index, call := range calls {
		isLast := index == len(calls)-1

		aimedTime := call.AimedDepartureTime
		expectedTime := call.ExpectedDepartureTime
		if isLast {
			aimedTime = call.AimedArrivalTime
			expectedTime = call.ExpectedArrivalTime
		}

		record.Calls = append(record.Calls, vehiclejourney.Call{
			AimedTime:    aimedTime,
			ExpectedTime: expectedTime,
			StopRef:      fmt.Sprintf("%s:StopPoint:%s", networkRef, source.Mapper.StopRef(call.Stop.ID)),
			StopName:     call.Stop.Name,
			StopOrder:    call.Sequence,
			Status:       call.Status,
		})
	}

	record.JourneyRef = fmt.Sprintf("%s:ServiceJourney:%s", networkRef, tripRef)
	record.DatedJourneyRef = fmt.Sprintf("%s:DatedServiceJourney:%s:%s", networkRef, tripRef, gtfs.DateKey(journey.Date))
}
