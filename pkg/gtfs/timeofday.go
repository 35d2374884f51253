package gtfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without a date. Schedule times past
// midnight ("25:10:00") are normalised to the next day, with the number
// of rolled-over days returned separately as a day offset.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

func ParseTimeOfDay(value string) (TimeOfDay, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, 0, fmt.Errorf("invalid time of day %q", value)
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeOfDay{}, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, 0, fmt.Errorf("invalid minute in %q", value)
	}

	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil {
			return TimeOfDay{}, 0, fmt.Errorf("invalid second in %q", value)
		}
	}

	return TimeOfDay{Hour: hour % 24, Minute: minute, Second: second}, hour / 24, nil
}

func (timeOfDay TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", timeOfDay.Hour, timeOfDay.Minute, timeOfDay.Second)
}

// At combines the time of day with the year/month/day of date in the
// given timezone.
func (timeOfDay TimeOfDay) At(date time.Time, location *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), timeOfDay.Hour, timeOfDay.Minute, timeOfDay.Second, 0, location)
}
