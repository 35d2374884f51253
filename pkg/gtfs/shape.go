package gtfs

type Shape struct {
	ID     string
	Points []*ShapePoint
}

type ShapePoint struct {
	Sequence         int
	Latitude         float64
	Longitude        float64
	DistanceTraveled float64
}
