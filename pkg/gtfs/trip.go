package gtfs

import (
	"fmt"
	"time"
)

type Trip struct {
	ID        string
	Route     *Route
	Service   *Service
	StopTimes []*StopTime
	Direction int
	Headsign  string
	BlockID   string
	Shape     *Shape
}

// Materialize binds the trip to a concrete service date, producing a
// journey with aimed call times in the agency's timezone. It returns nil
// when the service does not run on that date, unless force is set (used
// when a realtime feed references a trip outside its calendar).
func (trip *Trip) Materialize(date time.Time, force bool) *Journey {
	if !force && !trip.Service.RunsOn(date) {
		return nil
	}

	timezone := trip.Route.Agency.Timezone
	calls := make([]*Call, 0, len(trip.StopTimes))
	for _, stopTime := range trip.StopTimes {
		aimedArrival := stopTime.ArrivalTime.At(date.AddDate(0, 0, stopTime.ArrivalDayOffset), timezone)
		aimedDeparture := aimedArrival
		if stopTime.DepartureTime != nil {
			aimedDeparture = stopTime.DepartureTime.At(date.AddDate(0, 0, stopTime.DepartureDayOffset), timezone)
		}

		calls = append(calls, &Call{
			Stop:               stopTime.Stop,
			Sequence:           stopTime.Sequence,
			Status:             CallStatusScheduled,
			AimedArrivalTime:   aimedArrival,
			AimedDepartureTime: aimedDeparture,
		})
	}

	return &Journey{
		ID:    fmt.Sprintf("%s:%s", trip.ID, DateKey(date)),
		Trip:  trip,
		Date:  date,
		Calls: calls,
	}
}

func (trip *Trip) stopTimeDistance(sequence int) *float64 {
	for _, stopTime := range trip.StopTimes {
		if stopTime.Sequence == sequence {
			return stopTime.DistanceTraveled
		}
	}
	return nil
}
