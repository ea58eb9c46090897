package telemetry

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry/v1/logger"
	"github.com/Aleph-Alpha/telemetry/v1/meter"
	"github.com/Aleph-Alpha/telemetry/v1/observability"
	"github.com/Aleph-Alpha/telemetry/v1/tracer"
)

// FXModule is an fx.Module that provides the telemetry context and its parts.
//
// The module provides:
//  1. *Telemetry
//  2. *tracer.Tracer and *meter.Meter taken from it
//  3. The correlated *logger.LoggerClient, tagged `name:"telemetry"`
//  4. Lifecycle hooks that start collection and drain the pipelines on stop
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    telemetry.FXModule,
//	    fx.Provide(func() (telemetry.Config, error) {
//	        return telemetry.LoadConfig("telemetry.yaml")
//	    }),
//	)
//
// A configuration error makes application start fail.
var FXModule = fx.Module("telemetry",
	fx.Provide(
		NewWithDI,
		func(t *Telemetry) *tracer.Tracer { return t.Tracer },
		func(t *Telemetry) *meter.Meter { return t.Meter },
		fx.Annotate(
			func(t *Telemetry) *logger.LoggerClient { return t.Logger },
			fx.ResultTags(`name:"telemetry"`),
		),
	),
	fx.Invoke(RegisterTelemetryLifecycle),
)

// TelemetryParams groups the dependencies needed to create the telemetry context
type TelemetryParams struct {
	fx.In

	Config   Config
	Logger   *logger.LoggerClient   `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewWithDI creates the telemetry context using dependency injection.
// An injected Observer replaces the built-in self metrics.
func NewWithDI(params TelemetryParams) (*Telemetry, error) {
	var opts []Option
	if params.Observer != nil {
		opts = append(opts, WithObserver(params.Observer))
	}
	return New(params.Config, params.Logger, opts...)
}

// RegisterTelemetryLifecycle starts the telemetry context with the
// application and shuts it down, draining all pipelines, when the
// application stops.
func RegisterTelemetryLifecycle(lc fx.Lifecycle, t *Telemetry) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			t.Start(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return t.Shutdown(ctx)
		},
	})
}
