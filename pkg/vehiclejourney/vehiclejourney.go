// Package vehiclejourney defines the fused record published for every
// active vehicle or scheduled journey.
package vehiclejourney

import (
	"time"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
)

type Direction string

const (
	DirectionOutbound Direction = "OUTBOUND"
	DirectionInbound  Direction = "INBOUND"
)

type Line struct {
	Ref        string             `json:"ref" groups:"basic"`
	Number     string             `json:"number" groups:"basic"`
	Type       gtfs.TransportType `json:"type" groups:"basic"`
	Colour     string             `json:"color,omitempty" groups:"basic"`
	TextColour string             `json:"textColor,omitempty" groups:"basic"`
}

type Call struct {
	AimedTime    time.Time       `json:"aimedTime" groups:"basic"`
	ExpectedTime *time.Time      `json:"expectedTime,omitempty" groups:"basic"`
	StopRef      string          `json:"stopRef" groups:"basic"`
	StopName     string          `json:"stopName" groups:"basic"`
	StopOrder    int             `json:"stopOrder" groups:"basic"`
	Status       gtfs.CallStatus `json:"callStatus" groups:"basic"`
}

type VehicleJourney struct {
	ID string `json:"id" groups:"basic"`

	Line        *Line     `json:"line,omitempty" groups:"basic"`
	Direction   Direction `json:"direction,omitempty" groups:"basic"`
	Destination string    `json:"destination,omitempty" groups:"basic"`
	Calls       []Call    `json:"calls" groups:"basic"`

	Position gtfs.Position `json:"position" groups:"basic"`

	NetworkRef      string `json:"networkRef" groups:"basic"`
	OperatorRef     string `json:"operatorRef,omitempty" groups:"basic"`
	VehicleRef      string `json:"vehicleRef,omitempty" groups:"basic"`
	JourneyRef      string `json:"journeyRef,omitempty" groups:"basic"`
	DatedJourneyRef string `json:"datedJourneyRef,omitempty" groups:"basic"`

	UpdatedAt time.Time `json:"updatedAt" groups:"basic"`
}
