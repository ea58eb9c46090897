package metrics

// Config defines the configuration for the Prometheus metrics server.
type Config struct {
	// Address is the host:port the /metrics endpoint listens on, e.g. ":9090"
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the Go runtime, process and build
	// info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace is an optional prefix for every metric name, e.g. "telemetry"
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName is added as the constant "service" label on all metrics
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}
