// Package observer provides OTEL-based observability for the agent service.
//
// It sets up trace and metric providers with OTLP HTTP exporters and exposes
// the instruments the server records on every chat request. Users export to
// any OTEL-compatible backend by setting standard OTEL env vars.
package observer

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/pratama/lumen/observer"

// Instruments holds the OTEL instruments the service records.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter

	// Counters
	ChatRequests   metric.Int64Counter
	ChatErrors     metric.Int64Counter
	ToolCalls      metric.Int64Counter
	Clarifications metric.Int64Counter

	// Histograms
	ChatDuration      metric.Float64Histogram
	RetrievalDuration metric.Float64Histogram

	// Gauges
	ActiveRequests metric.Int64UpDownCounter
}

// Init sets up OTEL trace and metric providers with OTLP HTTP exporters.
// Configuration comes from standard OTEL env vars
// (OTEL_EXPORTER_OTLP_ENDPOINT, etc.). Returns a shutdown function that
// must be called on application exit.
func Init(ctx context.Context) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("lumen")),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	inst, err := newInstruments()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tp.Shutdown(ctx),
			mp.Shutdown(ctx),
		)
	}

	return inst, shutdown, nil
}

func newInstruments() (*Instruments, error) {
	meter := otel.Meter(scopeName)

	chatRequests, err := meter.Int64Counter("chat.requests",
		metric.WithDescription("Chat request count"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	chatErrors, err := meter.Int64Counter("chat.errors",
		metric.WithDescription("Failed chat request count"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	toolCalls, err := meter.Int64Counter("agent.tool.calls",
		metric.WithDescription("Tool invocation count"),
		metric.WithUnit("{call}"))
	if err != nil {
		return nil, err
	}

	clarifications, err := meter.Int64Counter("agent.clarifications",
		metric.WithDescription("Requests ending in a clarifying question"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	chatDuration, err := meter.Float64Histogram("chat.duration",
		metric.WithDescription("End-to-end chat request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram("retrieval.duration",
		metric.WithDescription("Context retrieval duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter("chat.active",
		metric.WithDescription("In-flight chat requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:            otel.Tracer(scopeName),
		Meter:             meter,
		ChatRequests:      chatRequests,
		ChatErrors:        chatErrors,
		ToolCalls:         toolCalls,
		Clarifications:    clarifications,
		ChatDuration:      chatDuration,
		RetrievalDuration: retrievalDuration,
		ActiveRequests:    activeRequests,
	}, nil
}
