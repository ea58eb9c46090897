package resource

// Config holds the process identity attached to every exported signal.
type Config struct {
	// ServiceName is the logical service name, e.g. "cart-service". Required.
	ServiceName string `yaml:"service_name" envconfig:"OTEL_SERVICE_NAME"`

	// ServiceVersion is the deployed build version
	ServiceVersion string `yaml:"service_version" envconfig:"TELEMETRY_SERVICE_VERSION"`

	// Environment is the deployment environment, e.g. "dev" or "production"
	Environment string `yaml:"environment" envconfig:"TELEMETRY_ENVIRONMENT"`

	// InstanceID distinguishes replicas of the same service. A random id is
	// generated when empty.
	InstanceID string `yaml:"instance_id" envconfig:"TELEMETRY_INSTANCE_ID"`
}
