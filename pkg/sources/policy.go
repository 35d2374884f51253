package sources

import (
	"strings"
	"time"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
	"github.com/transitfuse/transitfuse/pkg/gtfsrt"
)

// EligibilityPolicy decides which journeys without realtime coverage are
// still worth publishing, and how far ahead of its first call a scheduled
// journey becomes visible.
type EligibilityPolicy interface {
	AllowScheduled(trip *gtfs.Trip) bool
	LookAhead(journey *gtfs.Journey) time.Duration
}

// ReferenceResolver produces the network, operator and vehicle references
// attached to published records. The journey and vehicle descriptor may
// each be absent.
type ReferenceResolver interface {
	NetworkRef(journey *gtfs.Journey, vehicle *gtfsrt.VehicleDescriptor) string
	OperatorRef(journey *gtfs.Journey, vehicle *gtfsrt.VehicleDescriptor) string
	VehicleRef(vehicle *gtfsrt.VehicleDescriptor) string
}

// IdentifierMapper rewrites producer identifiers into the reference space
// used downstream, and normalises raw realtime entities before fusion.
type IdentifierMapper interface {
	LineRef(routeID string) string
	StopRef(stopID string) string
	TripRef(tripID string) string
	MapTripUpdate(tripUpdate gtfsrt.TripUpdate) gtfsrt.TripUpdate
	MapVehiclePosition(vehiclePosition gtfsrt.VehiclePosition) gtfsrt.VehiclePosition
}

// StandardPolicy is the configuration-driven policy used by every source
// that does not need custom code.
type StandardPolicy struct {
	// ScheduledRoutes restricts scheduled fallback records to the listed
	// route ids; empty means every route. BlockedScheduledRoutes wins
	// over the allowlist.
	ScheduledRoutes        []string
	BlockedScheduledRoutes []string

	LookAheadDuration time.Duration
	// LookAheadOnlyWithRealtime restricts the look ahead margin to
	// journeys that carry at least one expected time.
	LookAheadOnlyWithRealtime bool
}

func (policy *StandardPolicy) AllowScheduled(trip *gtfs.Trip) bool {
	for _, routeID := range policy.BlockedScheduledRoutes {
		if trip.Route.ID == routeID {
			return false
		}
	}

	if len(policy.ScheduledRoutes) == 0 {
		return true
	}
	for _, routeID := range policy.ScheduledRoutes {
		if trip.Route.ID == routeID {
			return true
		}
	}
	return false
}

func (policy *StandardPolicy) LookAhead(journey *gtfs.Journey) time.Duration {
	if policy.LookAheadOnlyWithRealtime && !hasExpectedTime(journey) {
		return 0
	}
	return policy.LookAheadDuration
}

func hasExpectedTime(journey *gtfs.Journey) bool {
	for _, call := range journey.Calls {
		if call.ExpectedArrivalTime != nil || call.ExpectedDepartureTime != nil {
			return true
		}
	}
	return false
}

type StandardResolver struct {
	Network  string
	Operator string
}

func (resolver *StandardResolver) NetworkRef(journey *gtfs.Journey, vehicle *gtfsrt.VehicleDescriptor) string {
	return resolver.Network
}

func (resolver *StandardResolver) OperatorRef(journey *gtfs.Journey, vehicle *gtfsrt.VehicleDescriptor) string {
	return resolver.Operator
}

func (resolver *StandardResolver) VehicleRef(vehicle *gtfsrt.VehicleDescriptor) string {
	if vehicle == nil {
		return ""
	}
	if vehicle.Label != "" {
		return vehicle.Label
	}
	return vehicle.ID
}

type StandardMapper struct {
	TrimLinePrefix string
	TrimStopPrefix string
	TrimTripPrefix string

	// UseVehicleLabelAsID rewrites each vehicle's id to its label, for
	// producers whose ids are unstable across feed restarts.
	UseVehicleLabelAsID bool
}

func (mapper *StandardMapper) LineRef(routeID string) string {
	return strings.TrimPrefix(routeID, mapper.TrimLinePrefix)
}

func (mapper *StandardMapper) StopRef(stopID string) string {
	return strings.TrimPrefix(stopID, mapper.TrimStopPrefix)
}

func (mapper *StandardMapper) TripRef(tripID string) string {
	return strings.TrimPrefix(tripID, mapper.TrimTripPrefix)
}

func (mapper *StandardMapper) MapTripUpdate(tripUpdate gtfsrt.TripUpdate) gtfsrt.TripUpdate {
	return tripUpdate
}

func (mapper *StandardMapper) MapVehiclePosition(vehiclePosition gtfsrt.VehiclePosition) gtfsrt.VehiclePosition {
	if mapper.UseVehicleLabelAsID && vehiclePosition.Vehicle.Label != "" {
		vehiclePosition.Vehicle.ID = vehiclePosition.Vehicle.Label
	}
	return vehiclePosition
}
