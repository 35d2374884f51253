// Package fusion computes the live vehicle journey list by merging each
// source's realtime feeds into its schedule snapshot.
package fusion

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/transitfuse/transitfuse/pkg/sources"
	"github.com/transitfuse/transitfuse/pkg/stats"
	"github.com/transitfuse/transitfuse/pkg/vehiclejourney"
)

const fusionConcurrency = 6

type Engine struct {
	Sources   []*sources.Source
	Publisher Publisher
	Interval  time.Duration

	cycleGuard chan struct{}
}

func NewEngine(sourceList []*sources.Source, publisher Publisher, interval time.Duration) *Engine {
	return &Engine{
		Sources:    sourceList,
		Publisher:  publisher,
		Interval:   interval,
		cycleGuard: make(chan struct{}, 1),
	}
}

// Run computes cycles at the configured interval until the context is
// cancelled. A tick arriving while the previous cycle is still running is
// skipped rather than queued.
func (engine *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(engine.Interval)
	defer ticker.Stop()

	engine.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.RunCycle(ctx)
		}
	}
}

func (engine *Engine) RunCycle(ctx context.Context) {
	select {
	case engine.cycleGuard <- struct{}{}:
	default:
		log.Warn().Msg("Previous fusion cycle still running, skipping tick")
		stats.SkippedCycles.Inc()
		return
	}
	defer func() { <-engine.cycleGuard }()

	type sourceResult struct {
		source  *sources.Source
		records []*vehiclejourney.VehicleJourney
	}

	cyclePool := pool.NewWithResults[sourceResult]().WithMaxGoroutines(fusionConcurrency)
	for _, source := range engine.Sources {
		cyclePool.Go(func() sourceResult {
			startedAt := time.Now()
			records := ComputeSource(ctx, source, time.Now())
			duration := time.Since(startedAt)

			stats.CycleDuration.WithLabelValues(source.ID).Observe(duration.Seconds())
			indexCycleEvent(source.ID, len(records), duration)
			log.Info().
				Str("source", source.ID).
				Int("records", len(records)).
				Dur("duration", duration).
				Msg("Computed active journeys")

			return sourceResult{source: source, records: records}
		})
	}

	for _, result := range cyclePool.Wait() {
		published := 0
		for _, record := range result.records {
			if err := engine.Publisher.Publish(ctx, record); err != nil {
				log.Error().Err(err).Str("source", result.source.ID).Str("record", record.ID).Msg("Failed to publish record")
				continue
			}
			published++
		}
		stats.PublishedRecords.WithLabelValues(result.source.ID).Add(float64(published))
	}
}
