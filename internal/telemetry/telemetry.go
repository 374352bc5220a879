// Package telemetry wires the OpenTelemetry tracer provider. Tracing is
// local-only: spans go to stdout when enabled and nowhere otherwise.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs the global tracer provider. The returned shutdown function
// flushes spans and must be called before exit.
func Setup(stdout bool) (func(context.Context) error, error) {
	if !stdout {
		// The default no-op provider keeps span creation cheap
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
