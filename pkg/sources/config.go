package sources

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/transitfuse/transitfuse/pkg/gtfs"
)

type Config struct {
	// ComputeInterval is a time.ParseDuration string, default 30s.
	ComputeInterval string `yaml:"computeInterval"`

	// Channel the fused records are published on, default journeys.
	Channel string `yaml:"channel"`

	Sources []SourceConfig `yaml:"sources"`
}

type SourceConfig struct {
	ID string `yaml:"id"`

	StaticFeed    string   `yaml:"staticFeed"`
	RealtimeFeeds []string `yaml:"realtimeFeeds"`

	NetworkRef  string `yaml:"networkRef"`
	OperatorRef string `yaml:"operatorRef"`

	ExcludedRoutes []string `yaml:"excludedRoutes"`
	IgnoreShapes   bool     `yaml:"ignoreShapes"`

	ScheduledRoutes           []string `yaml:"scheduledRoutes"`
	BlockedScheduledRoutes    []string `yaml:"blockedScheduledRoutes"`
	LookAheadMinutes          int      `yaml:"lookAheadMinutes"`
	LookAheadOnlyWithRealtime bool     `yaml:"lookAheadOnlyWithRealtime"`

	TrimLinePrefix      string `yaml:"trimLinePrefix"`
	TrimStopPrefix      string `yaml:"trimStopPrefix"`
	TrimTripPrefix      string `yaml:"trimTripPrefix"`
	UseVehicleLabelAsID bool   `yaml:"useVehicleLabelAsId"`
}

func LoadConfig(path string) (*Config, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(body, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.ComputeInterval == "" {
		config.ComputeInterval = "30s"
	}
	if config.Channel == "" {
		config.Channel = "journeys"
	}

	for index, sourceConfig := range config.Sources {
		if sourceConfig.ID == "" {
			return nil, fmt.Errorf("source %d has no id", index)
		}
		if sourceConfig.StaticFeed == "" {
			return nil, fmt.Errorf("source '%s' has no static feed", sourceConfig.ID)
		}
		if sourceConfig.NetworkRef == "" {
			return nil, fmt.Errorf("source '%s' has no network ref", sourceConfig.ID)
		}
	}

	return config, nil
}

func (config *Config) Interval() (time.Duration, error) {
	return time.ParseDuration(config.ComputeInterval)
}

// BuildSources turns the declarative source list into runtime sources
// wired with the standard policy implementations.
func (config *Config) BuildSources() []*Source {
	builtSources := make([]*Source, 0, len(config.Sources))

	for _, sourceConfig := range config.Sources {
		importOptions := gtfs.ImportOptions{
			ShapesStrategy: gtfs.ShapesLoadIfPresent,
		}
		if sourceConfig.IgnoreShapes {
			importOptions.ShapesStrategy = gtfs.ShapesIgnore
		}
		if len(sourceConfig.ExcludedRoutes) > 0 {
			excludedRoutes := sourceConfig.ExcludedRoutes
			importOptions.ExcludeRoute = func(record gtfs.RouteRecord) bool {
				for _, routeID := range excludedRoutes {
					if record.ID == routeID {
						return true
					}
				}
				return false
			}
		}

		builtSources = append(builtSources, &Source{
			ID:               sourceConfig.ID,
			StaticFeedURL:    sourceConfig.StaticFeed,
			RealtimeFeedURLs: sourceConfig.RealtimeFeeds,
			ImportOptions:    importOptions,
			Policy: &StandardPolicy{
				ScheduledRoutes:           sourceConfig.ScheduledRoutes,
				BlockedScheduledRoutes:    sourceConfig.BlockedScheduledRoutes,
				LookAheadDuration:         time.Duration(sourceConfig.LookAheadMinutes) * time.Minute,
				LookAheadOnlyWithRealtime: sourceConfig.LookAheadOnlyWithRealtime,
			},
			Resolver: &StandardResolver{
				Network:  sourceConfig.NetworkRef,
				Operator: sourceConfig.OperatorRef,
			},
			Mapper: &StandardMapper{
				TrimLinePrefix:      sourceConfig.TrimLinePrefix,
				TrimStopPrefix:      sourceConfig.TrimStopPrefix,
				TrimTripPrefix:      sourceConfig.TrimTripPrefix,
				UseVehicleLabelAsID: sourceConfig.UseVehicleLabelAsID,
			},
		})
	}

	return builtSources
}
