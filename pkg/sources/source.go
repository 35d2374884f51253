// Package sources describes the data sources the processor fuses:
// where their static and realtime feeds live, and the source-specific
// policy hooks applied during fusion.
package sources

import (
	"sync/atomic"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
)

type Source struct {
	ID string

	StaticFeedURL    string
	RealtimeFeedURLs []string

	ImportOptions gtfs.ImportOptions

	Policy   EligibilityPolicy
	Resolver ReferenceResolver
	Mapper   IdentifierMapper

	schedule atomic.Pointer[gtfs.Schedule]
}

// Schedule returns the currently installed schedule snapshot, or nil when
// the source has never loaded successfully.
func (source *Source) Schedule() *gtfs.Schedule {
	return source.schedule.Load()
}

func (source *Source) SetSchedule(schedule *gtfs.Schedule) {
	source.schedule.Store(schedule)
}
