package fusion

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
	"github.com/transitfuse/transitfuse/pkg/gtfsrt"
)

// resolveJourney finds the journey a realtime trip descriptor refers to,
// materializing it on the fly when the schedule has not produced it yet
// (trips running outside their calendar included). Returns nil when the
// descriptor does not match any known trip.
func resolveJourney(schedule *gtfs.Schedule, descriptor *gtfsrt.TripDescriptor, receivedAt time.Time) *gtfs.Journey {
	trip := schedule.Trips[descriptor.TripID]
	if trip == nil || len(trip.StopTimes) == 0 {
		return nil
	}
	if descriptor.RouteID != nil && trip.Route.ID != *descriptor.RouteID {
		return nil
	}
	if descriptor.DirectionID != nil && trip.Direction != *descriptor.DirectionID {
		return nil
	}

	timezone := trip.Route.Agency.Timezone

	var date time.Time
	if descriptor.StartDate != nil && *descriptor.StartDate != "" {
		parsed, err := gtfs.ParseDate(*descriptor.StartDate, timezone)
		if err != nil {
			log.Debug().Str("startDate", *descriptor.StartDate).Str("trip", trip.ID).Msg("Invalid start date in trip descriptor")
			return nil
		}
		date = parsed
	} else {
		firstStopTime := trip.StopTimes[0]
		date = GuessStartDate(firstStopTime.ArrivalTime, firstStopTime.ArrivalDayOffset, receivedAt.In(timezone))
	}

	if journey := schedule.Journey(trip.ID, date); journey != nil {
		return journey
	}

	journey := trip.Materialize(date, true)
	schedule.AddJourney(journey)
	return journey
}

// matchesDescriptor reports whether an already materialized journey is the
// one a trip descriptor talks about, honouring the descriptor's optional
// fields.
func matchesDescriptor(journey *gtfs.Journey, descriptor *gtfsrt.TripDescriptor) bool {
	if journey.Trip.ID != descriptor.TripID {
		return false
	}
	if descriptor.RouteID != nil && journey.Trip.Route.ID != *descriptor.RouteID {
		return false
	}
	if descriptor.DirectionID != nil && journey.Trip.Direction != *descriptor.DirectionID {
		return false
	}
	if descriptor.StartDate != nil && *descriptor.StartDate != "" {
		date, err := gtfs.ParseDate(*descriptor.StartDate, journey.Date.Location())
		if err != nil || gtfs.DateKey(date) != gtfs.DateKey(journey.Date) {
			return false
		}
	}
	return true
}
