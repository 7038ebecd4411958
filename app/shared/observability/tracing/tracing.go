package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Init configures a process-wide tracer provider and returns the engine
// tracer plus a shutdown func. Exporters are attached by the deployment
// environment (OTLP agent sidecar); locally spans stay in-process.
func Init(serviceName string, sampleRate float64) (trace.Tracer, func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)
	otel.SetTracerProvider(tp)
	return tp.Tracer(serviceName), tp.Shutdown
}
