package meter

import "time"

// DefaultCollectInterval is the aggregation period used when none is configured.
const DefaultCollectInterval = 30 * time.Second

// Config defines the aggregation settings.
type Config struct {
	// CollectInterval is the length of one aggregation period.
	CollectInterval time.Duration `yaml:"collect_interval" envconfig:"TELEMETRY_METRIC_INTERVAL"`
}
