// Package journeystore holds the latest fused record per vehicle and
// serves them over HTTP. It only ever receives pushed updates, so a TTL
// sweep guards against a silently dead producer.
package journeystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/transitfuse/transitfuse/pkg/stats"
	"github.com/transitfuse/transitfuse/pkg/vehiclejourney"
)

const (
	recordTTL     = 10 * time.Minute
	sweepInterval = 60 * time.Second
)

type Store struct {
	mutex   sync.RWMutex
	records map[string]*vehiclejourney.VehicleJourney
}

func NewStore() *Store {
	return &Store{
		records: map[string]*vehiclejourney.VehicleJourney{},
	}
}

// Set replaces the stored record for the vehicle wholesale.
func (store *Store) Set(record *vehiclejourney.VehicleJourney) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.records[record.ID] = record
	stats.StoreSize.Set(float64(len(store.records)))
}

func (store *Store) Get(id string) *vehiclejourney.VehicleJourney {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	return store.records[id]
}

func (store *Store) Values() []*vehiclejourney.VehicleJourney {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	values := make([]*vehiclejourney.VehicleJourney, 0, len(store.records))
	for _, record := range store.records {
		values = append(values, record)
	}
	sort.Slice(values, func(a, b int) bool { return values[a].ID < values[b].ID })
	return values
}

// Sweep evicts records not refreshed within the TTL and returns how many
// were removed.
func (store *Store) Sweep(now time.Time) int {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	evicted := 0
	for id, record := range store.records {
		if now.Sub(record.UpdatedAt) >= recordTTL {
			delete(store.records, id)
			evicted++
		}
	}

	stats.StoreSize.Set(float64(len(store.records)))
	return evicted
}

func (store *Store) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := store.Sweep(time.Now()); evicted > 0 {
				log.Info().Int("evicted", evicted).Msg("Swept stale journey records")
			}
		}
	}
}
