// Package telemetry wires the OpenTelemetry trace pipeline for the
// console. Export goes to stdout; the console is a local tool and a
// collector would be overkill.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// SetupTracing installs a stdout span exporter as the global tracer
// provider and returns a shutdown func that flushes pending spans. When
// disabled it installs nothing and the returned shutdown is a no-op.
func SetupTracing(enabled bool) (func(ctx context.Context) error, error) {
	if !enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
