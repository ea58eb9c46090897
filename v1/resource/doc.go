// Package resource describes the process that emits telemetry.
//
// A Resource is built once from Config and attached to every span, metric
// and log batch the exporters send. It wraps the OpenTelemetry SDK resource
// and uses the semantic convention keys for service identity.
package resource
