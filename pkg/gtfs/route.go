package gtfs

type TransportType string

const (
	TransportTypeTramway TransportType = "TRAMWAY"
	TransportTypeSubway  TransportType = "SUBWAY"
	TransportTypeRail    TransportType = "RAIL"
	TransportTypeBus     TransportType = "BUS"
	TransportTypeFerry   TransportType = "FERRY"
	TransportTypeUnknown TransportType = "UNKNOWN"
)

// TransportTypeFromRouteType maps the numeric GTFS route_type onto the
// coarse transport type used in published records.
func TransportTypeFromRouteType(routeType string) TransportType {
	switch routeType {
	case "0":
		return TransportTypeTramway
	case "1":
		return TransportTypeSubway
	case "2":
		return TransportTypeRail
	case "3":
		return TransportTypeBus
	case "4":
		return TransportTypeFerry
	default:
		return TransportTypeUnknown
	}
}

type Route struct {
	ID         string
	Agency     *Agency
	Name       string
	Type       TransportType
	Colour     string
	TextColour string
}
