package resource

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// EnvironmentKey is the plain attribute the demo backends filter on, kept
// next to the semantic deployment.environment key.
const EnvironmentKey = attribute.Key("environment")

// Resource is the immutable description of the emitting process. It is built
// once at startup and shared read-only by all exporters.
type Resource struct {
	res *sdkresource.Resource
}

// New builds the resource descriptor.
//
// The resulting attributes are service.name, service.instance.id,
// environment and, when set, service.version and deployment.environment.
//
// Example:
//
//	res, err := resource.New(resource.Config{
//	    ServiceName: "cart-service",
//	    Environment: "dev",
//	})
func New(cfg Config) (*Resource, error) {
	if cfg.ServiceName == "" {
		return nil, ErrMissingServiceName
	}

	instanceID := cfg.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceInstanceID(instanceID),
		EnvironmentKey.String(cfg.Environment),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	return &Resource{res: sdkresource.NewWithAttributes(semconv.SchemaURL, attrs...)}, nil
}

// Attributes returns the attributes sorted by key.
func (r *Resource) Attributes() []attribute.KeyValue {
	if r == nil {
		return nil
	}
	return r.res.Attributes()
}

// SchemaURL returns the semantic conventions schema the keys follow.
func (r *Resource) SchemaURL() string {
	if r == nil {
		return ""
	}
	return r.res.SchemaURL()
}

// Value returns the value stored under key.
func (r *Resource) Value(key attribute.Key) (attribute.Value, bool) {
	if r == nil {
		return attribute.Value{}, false
	}
	return r.res.Set().Value(key)
}

// ServiceName returns the service.name attribute.
func (r *Resource) ServiceName() string {
	v, _ := r.Value(semconv.ServiceNameKey)
	return v.AsString()
}

// Environment returns the environment attribute.
func (r *Resource) Environment() string {
	v, _ := r.Value(EnvironmentKey)
	return v.AsString()
}

// Fields returns the attributes as a map for structured log sinks.
func (r *Resource) Fields() map[string]interface{} {
	attrs := r.Attributes()
	fields := make(map[string]interface{}, len(attrs))
	for _, kv := range attrs {
		fields[string(kv.Key)] = kv.Value.AsInterface()
	}
	return fields
}
