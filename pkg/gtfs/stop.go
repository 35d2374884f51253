package gtfs

type Stop struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
}
