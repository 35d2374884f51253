// Package gtfsrt downloads GTFS-Realtime feeds and exposes their entities
// as plain structs decoupled from the protobuf bindings.
package gtfsrt

import "time"

type TripScheduleRelationship string

const (
	TripScheduled TripScheduleRelationship = "SCHEDULED"
	TripCanceled  TripScheduleRelationship = "CANCELED"
)

type StopTimeScheduleRelationship string

const (
	StopTimeScheduled StopTimeScheduleRelationship = "SCHEDULED"
	StopTimeSkipped   StopTimeScheduleRelationship = "SKIPPED"
	StopTimeNoData    StopTimeScheduleRelationship = "NO_DATA"
)

type VehicleStopStatus string

const (
	StopStatusIncomingAt  VehicleStopStatus = "INCOMING_AT"
	StopStatusStoppedAt   VehicleStopStatus = "STOPPED_AT"
	StopStatusInTransitTo VehicleStopStatus = "IN_TRANSIT_TO"
)

type TripDescriptor struct {
	TripID               string
	RouteID              *string
	DirectionID          *int
	StartDate            *string
	ScheduleRelationship TripScheduleRelationship
}

type VehicleDescriptor struct {
	ID    string
	Label string
}

type StopTimeEvent struct {
	// Time is an absolute epoch prediction; Delay is relative to the
	// schedule. Producers fill in one or the other.
	Time  *int64
	Delay *int32
}

type StopTimeUpdate struct {
	StopSequence         *int
	StopID               string
	Arrival              *StopTimeEvent
	Departure            *StopTimeEvent
	ScheduleRelationship StopTimeScheduleRelationship
}

type TripUpdate struct {
	Trip            TripDescriptor
	Vehicle         *VehicleDescriptor
	StopTimeUpdates []StopTimeUpdate
	Timestamp       time.Time
}

type Position struct {
	Latitude  float64
	Longitude float64
	Bearing   *float64
}

type VehiclePosition struct {
	Trip                *TripDescriptor
	Vehicle             VehicleDescriptor
	Position            Position
	CurrentStopSequence *int
	StopID              *string
	CurrentStatus       VehicleStopStatus
	Timestamp           time.Time
}

// Feed is the merged content of every realtime feed of one source.
type Feed struct {
	TripUpdates      []TripUpdate
	VehiclePositions []VehiclePosition
}
