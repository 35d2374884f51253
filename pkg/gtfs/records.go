package gtfs

type AgencyRecord struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	Timezone string `csv:"agency_timezone"`
}

type StopRecord struct {
	ID           string  `csv:"stop_id"`
	Name         string  `csv:"stop_name"`
	Latitude     float64 `csv:"stop_lat"`
	Longitude    float64 `csv:"stop_lon"`
	LocationType string  `csv:"location_type"`
}

type RouteRecord struct {
	ID         string `csv:"route_id"`
	AgencyID   string `csv:"agency_id"`
	ShortName  string `csv:"route_short_name"`
	Type       string `csv:"route_type"`
	Colour     string `csv:"route_color"`
	TextColour string `csv:"route_text_color"`
}

type TripRecord struct {
	ID          string `csv:"trip_id"`
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	DirectionID int    `csv:"direction_id"`
	Headsign    string `csv:"trip_headsign"`
	BlockID     string `csv:"block_id"`
	ShapeID     string `csv:"shape_id"`
}

type StopTimeRecord struct {
	TripID           string `csv:"trip_id"`
	ArrivalTime      string `csv:"arrival_time"`
	DepartureTime    string `csv:"departure_time"`
	StopID           string `csv:"stop_id"`
	StopSequence     int    `csv:"stop_sequence"`
	DistanceTraveled string `csv:"shape_dist_traveled"`
}

type CalendarRecord struct {
	ServiceID string `csv:"service_id"`
	Monday    int    `csv:"monday"`
	Tuesday   int    `csv:"tuesday"`
	Wednesday int    `csv:"wednesday"`
	Thursday  int    `csv:"thursday"`
	Friday    int    `csv:"friday"`
	Saturday  int    `csv:"saturday"`
	Sunday    int    `csv:"sunday"`
	Start     string `csv:"start_date"`
	End       string `csv:"end_date"`
}

type CalendarDateRecord struct {
	ServiceID     string `csv:"service_id"`
	Date          string `csv:"date"`
	ExceptionType string `csv:"exception_type"`
}

type ShapeRecord struct {
	ID               string  `csv:"shape_id"`
	Latitude         float64 `csv:"shape_pt_lat"`
	Longitude        float64 `csv:"shape_pt_lon"`
	Sequence         int     `csv:"shape_pt_sequence"`
	DistanceTraveled string  `csv:"shape_dist_traveled"`
}
