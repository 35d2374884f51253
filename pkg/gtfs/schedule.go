package gtfs

import (
	"sort"
	"sync"
	"time"
)

// Schedule is one immutable import of a static GTFS feed plus the mutable
// set of journeys materialized from it. The maps are never written after
// import; the journey list is guarded by the mutex because fusion cycles
// force-materialize journeys while the hourly sweep removes elapsed ones.
type Schedule struct {
	Agencies map[string]*Agency
	Routes   map[string]*Route
	Services map[string]*Service
	Stops    map[string]*Stop
	Trips    map[string]*Trip

	ETag         string
	LastModified string
	ImportedAt   time.Time

	journeysMutex sync.Mutex
	journeys      []*Journey
	journeyIndex  map[string]*Journey
}

func DateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// ParseDate accepts both the GTFS-Realtime compact form (20060102) and the
// dashed form used in journey identifiers.
func ParseDate(value string, location *time.Location) (time.Time, error) {
	if date, err := time.ParseInLocation("20060102", value, location); err == nil {
		return date, nil
	}
	return time.ParseInLocation("2006-01-02", value, location)
}

// Journey returns the journey materialized for the trip on the given date,
// if any.
func (schedule *Schedule) Journey(tripID string, date time.Time) *Journey {
	schedule.journeysMutex.Lock()
	defer schedule.journeysMutex.Unlock()

	return schedule.journeyIndex[tripID+":"+DateKey(date)]
}

func (schedule *Schedule) AddJourney(journey *Journey) {
	schedule.journeysMutex.Lock()
	defer schedule.journeysMutex.Unlock()

	if schedule.journeyIndex == nil {
		schedule.journeyIndex = map[string]*Journey{}
	}
	schedule.journeys = append(schedule.journeys, journey)
	schedule.journeyIndex[journey.ID] = journey
}

// Journeys returns a snapshot of the current journey list, safe to iterate
// while other goroutines add or sweep journeys.
func (schedule *Schedule) Journeys() []*Journey {
	schedule.journeysMutex.Lock()
	defer schedule.journeysMutex.Unlock()

	journeys := make([]*Journey, len(schedule.journeys))
	copy(journeys, schedule.journeys)
	return journeys
}

// SortJourneys orders the journey list by first call aimed arrival.
func (schedule *Schedule) SortJourneys() {
	schedule.journeysMutex.Lock()
	defer schedule.journeysMutex.Unlock()

	sort.SliceStable(schedule.journeys, func(a, b int) bool {
		return schedule.journeys[a].Calls[0].AimedArrivalTime.Before(schedule.journeys[b].Calls[0].AimedArrivalTime)
	})
}

// SweepJourneys removes journeys whose last call has fully elapsed and
// returns how many were evicted.
func (schedule *Schedule) SweepJourneys(now time.Time) int {
	schedule.journeysMutex.Lock()
	defer schedule.journeysMutex.Unlock()

	kept := schedule.journeys[:0]
	for _, journey := range schedule.journeys {
		lastCall := journey.Calls[len(journey.Calls)-1]
		if now.After(lastCall.DepartureTime()) {
			delete(schedule.journeyIndex, journey.ID)
			continue
		}
		kept = append(kept, journey)
	}

	evicted := len(schedule.journeys) - len(kept)
	schedule.journeys = kept
	return evicted
}

func (schedule *Schedule) HasStalenessData() bool {
	return schedule.ETag != "" || schedule.LastModified != ""
}
