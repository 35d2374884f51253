package gtfs

type StopTime struct {
	Sequence int
	Stop     *Stop

	ArrivalTime      TimeOfDay
	ArrivalDayOffset int

	// DepartureTime is only set when the feed declared a departure
	// distinct from the arrival.
	DepartureTime      *TimeOfDay
	DepartureDayOffset int

	DistanceTraveled *float64
}
