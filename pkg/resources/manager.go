// Package resources keeps each source's schedule snapshot loaded and
// fresh: bounded-concurrency initial loads, periodic staleness checks and
// the hourly sweep of elapsed journeys.
package resources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
	"github.com/transitfuse/transitfuse/pkg/sources"
	"github.com/transitfuse/transitfuse/pkg/stats"
)

const (
	initialLoadConcurrency = 4
	stalenessCheckInterval = 5 * time.Minute
	journeySweepInterval   = 1 * time.Hour

	// A snapshot without conditional-request headers is considered stale
	// past this age. Also the fallback when the probe is unreachable.
	maxScheduleAge = 60 * time.Minute
)

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

type Manager struct {
	Sources []*sources.Source
}

func NewManager(sourceList []*sources.Source) *Manager {
	return &Manager{Sources: sourceList}
}

// InitialLoad fetches every source's schedule before the fusion engine
// starts. A failed source is left without a snapshot, the staleness
// checker retries it.
func (manager *Manager) InitialLoad(ctx context.Context) {
	loads := pool.New().WithMaxGoroutines(initialLoadConcurrency)

	for _, source := range manager.Sources {
		loads.Go(func() {
			if err := manager.Load(ctx, source, true); err != nil {
				log.Error().Err(err).Str("source", source.ID).Msg("Failed to load schedule")
			}
		})
	}

	loads.Wait()
}

// Start runs the staleness check and journey sweep loops until the
// context is cancelled.
func (manager *Manager) Start(ctx context.Context) {
	go manager.runLoop(ctx, stalenessCheckInterval, manager.checkAllStaleness)
	go manager.runLoop(ctx, journeySweepInterval, manager.sweepAllJourneys)
}

func (manager *Manager) runLoop(ctx context.Context, interval time.Duration, work func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			work(ctx)
		}
	}
}

// Load downloads and imports the source's static feed, precomputes the
// journeys already known to run, and installs the new snapshot.
func (manager *Manager) Load(ctx context.Context, source *sources.Source, bootstrapping bool) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, source.StaticFeedURL, nil)
	if err != nil {
		return err
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to download static feed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("static feed returned status %d", response.StatusCode)
	}

	schedule, err := gtfs.NewScheduleFromArchive(response.Body, source.ImportOptions)
	if err != nil {
		return fmt.Errorf("failed to import static feed: %w", err)
	}

	schedule.ETag = response.Header.Get("ETag")
	schedule.LastModified = response.Header.Get("Last-Modified")

	now := time.Now()
	precomputeJourneys(source, schedule, now, bootstrapping)

	source.SetSchedule(schedule)
	stats.ScheduleReloads.WithLabelValues(source.ID).Inc()

	log.Info().
		Str("source", source.ID).
		Int("trips", len(schedule.Trips)).
		Int("journeys", len(schedule.Journeys())).
		Msg("Schedule snapshot installed")

	return nil
}

// precomputeJourneys materializes today's journeys (and yesterday's when
// bootstrapping before 06:00, overnight trips may still be running) for
// every trip the source publishes on schedule alone.
func precomputeJourneys(source *sources.Source, schedule *gtfs.Schedule, now time.Time, bootstrapping bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	dates := []time.Time{today}
	if bootstrapping && now.Hour() < 6 {
		dates = append(dates, today.AddDate(0, 0, -1))
	}

	for _, trip := range schedule.Trips {
		if len(trip.StopTimes) == 0 {
			continue
		}
		if !source.Policy.AllowScheduled(trip) {
			continue
		}

		for _, date := range dates {
			journey := trip.Materialize(date, false)
			if journey == nil {
				continue
			}

			lastCall := journey.Calls[len(journey.Calls)-1]
			if now.Before(lastCall.AimedDepartureTime) {
				schedule.AddJourney(journey)
			}
		}
	}

	schedule.SortJourneys()
}

func (manager *Manager) checkAllStaleness(ctx context.Context) {
	for _, source := range manager.Sources {
		manager.CheckStaleness(ctx, source)
	}
}

// CheckStaleness reloads the source's schedule when the producer has
// published a newer static feed. A source without a snapshot is loaded
// unconditionally.
func (manager *Manager) CheckStaleness(ctx context.Context, source *sources.Source) {
	schedule := source.Schedule()
	if schedule == nil {
		log.Info().Str("source", source.ID).Msg("No schedule snapshot yet, loading")
		if err := manager.Load(ctx, source, true); err != nil {
			log.Error().Err(err).Str("source", source.ID).Msg("Failed to load schedule")
		}
		return
	}

	reload := false
	if !schedule.HasStalenessData() {
		reload = time.Since(schedule.ImportedAt) >= maxScheduleAge
	} else {
		staleness, err := Probe(ctx, source.StaticFeedURL)
		if err != nil {
			log.Warn().Err(err).Str("source", source.ID).Msg("Staleness probe failed, falling back to age check")
			reload = time.Since(schedule.ImportedAt) >= maxScheduleAge
		} else {
			reload = staleness.ETag != schedule.ETag || staleness.LastModified != schedule.LastModified
		}
	}

	if !reload {
		return
	}

	log.Info().Str("source", source.ID).Msg("Schedule snapshot is stale, reloading")
	if err := manager.Load(ctx, source, false); err != nil {
		log.Error().Err(err).Str("source", source.ID).Msg("Failed to reload schedule")
	}
}

func (manager *Manager) sweepAllJourneys(ctx context.Context) {
	now := time.Now()

	for _, source := range manager.Sources {
		schedule := source.Schedule()
		if schedule == nil {
			continue
		}

		evicted := schedule.SweepJourneys(now)
		stats.SweptJourneys.WithLabelValues(source.ID).Add(float64(evicted))
		log.Info().Str("source", source.ID).Int("evicted", evicted).Msg("Swept completed journeys")
	}
}
