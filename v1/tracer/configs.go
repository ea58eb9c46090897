package tracer

// Config defines the configuration for the span engine.
type Config struct {
	// ServiceName identifies the service in diagnostics
	ServiceName string `yaml:"service_name" envconfig:"OTEL_SERVICE_NAME"`

	// SampleRatio is the fraction of new traces that are recorded and exported.
	// Spans with a parent follow the parent's decision. Zero or any value of
	// one and above samples every trace.
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"TELEMETRY_SAMPLE_RATIO"`
}
