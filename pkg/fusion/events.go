package fusion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/transitfuse/transitfuse/pkg/elastic_client"
)

type cycleElasticEvent struct {
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	Duration int64     `json:"duration_ms"`
	Creation time.Time `json:"creation"`
}

func indexCycleEvent(sourceID string, records int, duration time.Duration) {
	currentTime := time.Now()
	yearNumber, weekNumber := currentTime.ISOWeek()
	indexName := fmt.Sprintf("fusion-cycle-events-%d-%d", yearNumber, weekNumber)

	elasticEvent, _ := json.Marshal(cycleElasticEvent{
		Source:   sourceID,
		Records:  records,
		Duration: duration.Milliseconds(),
		Creation: currentTime,
	})

	elastic_client.IndexRequest(indexName, bytes.NewReader(elasticEvent))
}
