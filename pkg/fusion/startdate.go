package fusion

import (
	"time"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
)

// GuessStartDate infers the service date of a trip referenced by a
// realtime feed that carries no explicit start date. Before noon, a
// report about a trip that started after 20:00 (or past midnight in
// schedule terms) is attributed to the previous service date; anything
// else belongs to the current one. This is a heuristic: reports between
// noon and midnight about post-midnight trips stay on the current date.
func GuessStartDate(startTime gtfs.TimeOfDay, startDayOffset int, at time.Time) time.Time {
	date := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())

	if at.Hour() < 12 && (startDayOffset > 0 || startTime.Hour > 20) {
		return date.AddDate(0, 0, -1)
	}
	return date
}
