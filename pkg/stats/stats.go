// Package stats exposes the processor's Prometheus metrics.
package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/transitfuse/transitfuse/pkg/util"
)

var (
	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transitfuse_fusion_cycle_duration_seconds",
		Help:    "Duration of one fusion cycle for one source",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"source"})

	PublishedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transitfuse_fusion_published_records_total",
		Help: "Vehicle journey records published",
	}, []string{"source"})

	SkippedCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transitfuse_fusion_skipped_cycles_total",
		Help: "Fusion ticks skipped because the previous cycle was still running",
	})

	FeedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transitfuse_realtime_feed_failures_total",
		Help: "Realtime feed downloads that failed or did not decode",
	})

	ScheduleReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transitfuse_schedule_reloads_total",
		Help: "Schedule snapshot loads per source",
	}, []string{"source"})

	SweptJourneys = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transitfuse_schedule_swept_journeys_total",
		Help: "Elapsed journeys removed by the hourly sweep",
	}, []string{"source"})

	StoreSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transitfuse_journey_store_records",
		Help: "Records currently held by the journey store",
	})
)

// Serve exposes /metrics when TRANSITFUSE_METRICS_ADDRESS is set.
func Serve() {
	env := util.GetEnvironmentVariables()

	address := env["TRANSITFUSE_METRICS_ADDRESS"]
	if address == "" {
		log.Info().Msg("Skipping metrics server setup")
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Info().Str("address", address).Msg("Starting metrics server")
		if err := http.ListenAndServe(address, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}
