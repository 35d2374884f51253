package gtfs

import (
	"time"

	"github.com/transitfuse/transitfuse/pkg/gtfsrt"
)

type CallStatus string

const (
	CallStatusScheduled CallStatus = "SCHEDULED"
	CallStatusSkipped   CallStatus = "SKIPPED"
)

type PositionType string

const (
	PositionTypeGPS      PositionType = "GPS"
	PositionTypeComputed PositionType = "COMPUTED"
)

type Position struct {
	Latitude   float64      `json:"latitude" groups:"basic"`
	Longitude  float64      `json:"longitude" groups:"basic"`
	AtStop     bool         `json:"atStop" groups:"basic"`
	Type       PositionType `json:"type" groups:"basic"`
	RecordedAt time.Time    `json:"recordedAt" groups:"basic"`
}

type Call struct {
	Stop     *Stop
	Sequence int
	Status   CallStatus

	AimedArrivalTime   time.Time
	AimedDepartureTime time.Time

	ExpectedArrivalTime   *time.Time
	ExpectedDepartureTime *time.Time
}

// ArrivalTime is the expected arrival when one is known, else the aimed one.
func (call *Call) ArrivalTime() time.Time {
	if call.ExpectedArrivalTime != nil {
		return *call.ExpectedArrivalTime
	}
	return call.AimedArrivalTime
}

func (call *Call) DepartureTime() time.Time {
	if call.ExpectedDepartureTime != nil {
		return *call.ExpectedDepartureTime
	}
	return call.AimedDepartureTime
}

// Journey is a Trip bound to a concrete service date, carrying the mutable
// per-call realtime state merged in from trip updates.
type Journey struct {
	ID    string
	Trip  *Trip
	Date  time.Time
	Calls []*Call
}

// ApplyStopTimeUpdates merges a trip update's stop time updates into the
// journey's calls. Delays carry forward: a call without its own update
// inherits the delay established at the previous updated call.
func (journey *Journey) ApplyStopTimeUpdates(updates []gtfsrt.StopTimeUpdate) {
	var arrivalDelay *time.Duration
	var departureDelay *time.Duration

	for _, call := range journey.Calls {
		update := matchStopTimeUpdate(updates, call)

		if update != nil && update.ScheduleRelationship == gtfsrt.StopTimeNoData {
			// The producer has nothing for this call onwards, drop back
			// to the schedule until the next updated call.
			arrivalDelay = nil
			departureDelay = nil
			call.ExpectedArrivalTime = nil
			call.ExpectedDepartureTime = nil
			call.Status = CallStatusScheduled
			continue
		}

		if update != nil && update.ScheduleRelationship == gtfsrt.StopTimeSkipped {
			// Skipped calls pin both expected times to the aimed arrival,
			// shifted by whatever delay is being carried.
			expectedArrival := call.AimedArrivalTime.Add(delayOrZero(arrivalDelay))
			expectedDeparture := call.AimedArrivalTime.Add(delayOrZero(departureDelay))
			call.ExpectedArrivalTime = &expectedArrival
			call.ExpectedDepartureTime = &expectedDeparture
			call.Status = CallStatusSkipped
			continue
		}

		if update != nil {
			// Some producers only fill one of the two events in.
			arrivalEvent := update.Arrival
			if arrivalEvent == nil {
				arrivalEvent = update.Departure
			}
			departureEvent := update.Departure
			if departureEvent == nil {
				departureEvent = update.Arrival
			}

			if arrivalEvent != nil {
				if arrivalEvent.Time != nil {
					delay := time.Unix(*arrivalEvent.Time, 0).Sub(call.AimedArrivalTime)
					arrivalDelay = &delay
				} else if arrivalEvent.Delay != nil {
					delay := time.Duration(*arrivalEvent.Delay) * time.Second
					arrivalDelay = &delay
				}
			}

			if departureEvent != nil {
				if departureEvent.Time != nil {
					delay := time.Unix(*departureEvent.Time, 0).Sub(call.AimedDepartureTime)
					departureDelay = &delay
				} else if departureEvent.Delay != nil {
					delay := time.Duration(*departureEvent.Delay) * time.Second
					departureDelay = &delay
				}
			}

			call.Status = CallStatusScheduled
		}

		expectedArrival := call.AimedArrivalTime.Add(delayOrZero(arrivalDelay))
		expectedDeparture := call.AimedDepartureTime.Add(delayOrZero(departureDelay))
		call.ExpectedArrivalTime = &expectedArrival
		call.ExpectedDepartureTime = &expectedDeparture
	}
}

func matchStopTimeUpdate(updates []gtfsrt.StopTimeUpdate, call *Call) *gtfsrt.StopTimeUpdate {
	for index := range updates {
		update := &updates[index]
		if (update.StopSequence != nil && *update.StopSequence == call.Sequence) || update.StopID == call.Stop.ID {
			return update
		}
	}
	return nil
}

func delayOrZero(delay *time.Duration) time.Duration {
	if delay == nil {
		return 0
	}
	return *delay
}

// GuessPosition estimates where the vehicle serving this journey is at the
// given instant, interpolating along the trip's shape when the schedule
// carries travelled distances, else snapping to the relevant stop.
func (journey *Journey) GuessPosition(at time.Time) Position {
	var nextCall *Call
	nextCallIndex := -1
	for index, call := range journey.Calls {
		if at.Before(call.ArrivalTime()) {
			nextCall = call
			nextCallIndex = index
			break
		}
	}
	if nextCall == nil {
		// The vehicle has reached the final stop.
		return positionAtCall(journey.Calls[len(journey.Calls)-1])
	}

	monitoredCall := nextCall
	if nextCallIndex > 0 {
		monitoredCall = journey.Calls[nextCallIndex-1]
	}

	monitoredDistance := journey.Trip.stopTimeDistance(monitoredCall.Sequence)
	nextDistance := journey.Trip.stopTimeDistance(nextCall.Sequence)
	if monitoredCall == nextCall || journey.Trip.Shape == nil || monitoredDistance == nil || nextDistance == nil {
		// Still at the departure stop, or no usable shape for this trip.
		return positionAtCall(monitoredCall)
	}

	lastDeparture := monitoredCall.DepartureTime()
	nextArrival := nextCall.ArrivalTime()
	percentTraveled := float64(at.Sub(lastDeparture)) / float64(nextArrival.Sub(lastDeparture))
	estimatedDistance := *monitoredDistance + (*nextDistance-*monitoredDistance)*percentTraveled

	points := journey.Trip.Shape.Points
	currentPoint := points[len(points)-1]
	currentIndex := len(points) - 1
	for index := len(points) - 1; index >= 0; index-- {
		if estimatedDistance >= points[index].DistanceTraveled {
			currentPoint = points[index]
			currentIndex = index
			break
		}
	}
	nextPoint := points[len(points)-1]
	if currentIndex+1 < len(points) {
		nextPoint = points[currentIndex+1]
	}

	ratio := 0.0
	if nextPoint.DistanceTraveled != currentPoint.DistanceTraveled {
		ratio = (estimatedDistance - currentPoint.DistanceTraveled) / (nextPoint.DistanceTraveled - currentPoint.DistanceTraveled)
	}

	return Position{
		Latitude:   currentPoint.Latitude + (nextPoint.Latitude-currentPoint.Latitude)*ratio,
		Longitude:  currentPoint.Longitude + (nextPoint.Longitude-currentPoint.Longitude)*ratio,
		AtStop:     false,
		Type:       PositionTypeComputed,
		RecordedAt: at,
	}
}

// OngoingCalls returns the calls that have not yet completed at the given
// instant, or nil when the journey has not begun (allowing for the look
// ahead margin) or has fully finished.
func (journey *Journey) OngoingCalls(at time.Time, lookAhead time.Duration) []*Call {
	if len(journey.Calls) == 0 {
		return nil
	}

	firstCall := journey.Calls[0]
	if at.Add(lookAhead).Before(firstCall.ArrivalTime()) {
		return nil
	}

	var ongoingCalls []*Call
	for index, call := range journey.Calls {
		reference := call.DepartureTime()
		if index == len(journey.Calls)-1 {
			reference = call.ArrivalTime()
		}
		if at.Before(reference) {
			ongoingCalls = append(ongoingCalls, call)
		}
	}
	return ongoingCalls
}

func positionAtCall(call *Call) Position {
	return Position{
		Latitude:   call.Stop.Latitude,
		Longitude:  call.Stop.Longitude,
		AtStop:     true,
		Type:       PositionTypeComputed,
		RecordedAt: call.ArrivalTime(),
	}
}
