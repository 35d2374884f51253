package gtfs

import "time"

// Default validity window applied to services that only appear in
// calendar_dates.txt and therefore have no declared start or end date.
var (
	DefaultServiceStartDate = time.Date(2002, time.June, 11, 0, 0, 0, 0, time.UTC)
	DefaultServiceEndDate   = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)
)

type Service struct {
	ID string

	// Days is Monday-first, matching the calendar.txt column order.
	Days [7]bool

	StartsOn time.Time
	EndsOn   time.Time

	ExcludedDates map[string]bool
	IncludedDates map[string]bool
}

// RunsOn reports whether the service operates on the given date.
// Exception dates take precedence over the weekday pattern, and the
// validity window takes precedence over the weekday pattern but not
// over exceptions.
func (service *Service) RunsOn(date time.Time) bool {
	key := DateKey(date)

	if service.IncludedDates[key] {
		return true
	}
	if service.ExcludedDates[key] {
		return false
	}

	if date.Before(service.StartsOn) || date.After(service.EndsOn) {
		return false
	}

	return service.Days[(int(date.Weekday())+6)%7]
}
