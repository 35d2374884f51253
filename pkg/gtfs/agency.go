package gtfs

import "time"

type Agency struct {
	ID       string
	Name     string
	Timezone *time.Location
}
