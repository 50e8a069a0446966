//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

// Package metric records the agent's OpenTelemetry metrics. Instruments are
// no-ops until InitMeterProvider installs a real provider.
package metric

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Meter and metric names.
const (
	MeterName = "trpc.nexus.agent"

	MetricQueryRequests    = "nexus_agent.query.requests"
	MetricQueryEvents      = "nexus_agent.query.events"
	MetricUpstreamRequests = "nexus_agent.upstream.requests"
	MetricUpstreamDuration = "nexus_agent.upstream.duration"
	MetricWidgetRequests   = "nexus_agent.widget.requests"
)

// Attribute keys.
const (
	KeyOutcome   = "nexus_agent.outcome"
	KeyPhase     = "nexus_agent.phase"
	KeyEvent     = "nexus_agent.event"
	KeyUpstream  = "nexus_agent.upstream"
	KeyOperation = "nexus_agent.operation"
	KeyWidget    = "nexus_agent.widget"
	KeyStatus    = "http.response.status_code"
)

// Outcome values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Supported export protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

var (
	meterProvider metric.MeterProvider = noop.NewMeterProvider()

	queryRequests    metric.Int64Counter     = noop.Int64Counter{}
	queryEvents      metric.Int64Counter     = noop.Int64Counter{}
	upstreamRequests metric.Int64Counter     = noop.Int64Counter{}
	upstreamDuration metric.Float64Histogram = noop.Float64Histogram{}
	widgetRequests   metric.Int64Counter     = noop.Int64Counter{}
)

// InitMeterProvider creates the instruments from mp.
func InitMeterProvider(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("meter provider is nil")
	}
	meter := mp.Meter(MeterName)
	var err error
	if queryRequests, err = meter.Int64Counter(
		MetricQueryRequests,
		metric.WithDescription("Number of query requests by handling phase"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricQueryRequests, err)
	}
	if queryEvents, err = meter.Int64Counter(
		MetricQueryEvents,
		metric.WithDescription("Number of server sent events written"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricQueryEvents, err)
	}
	if upstreamRequests, err = meter.Int64Counter(
		MetricUpstreamRequests,
		metric.WithDescription("Number of calls to the agent backend and the market data API"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricUpstreamRequests, err)
	}
	if upstreamDuration, err = meter.Float64Histogram(
		MetricUpstreamDuration,
		metric.WithDescription("Duration of upstream calls"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricUpstreamDuration, err)
	}
	if widgetRequests, err = meter.Int64Counter(
		MetricWidgetRequests,
		metric.WithDescription("Number of widget data requests"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricWidgetRequests, err)
	}
	meterProvider = mp
	return nil
}

// GetMeterProvider returns the installed meter provider.
func GetMeterProvider() metric.MeterProvider {
	return meterProvider
}

// IncQuery counts a query request handled in phase.
func IncQuery(ctx context.Context, phase string) {
	queryRequests.Add(ctx, 1, metric.WithAttributes(attribute.String(KeyPhase, phase)))
}

// IncEvent counts an event written to a client.
func IncEvent(ctx context.Context, name string) {
	queryEvents.Add(ctx, 1, metric.WithAttributes(attribute.String(KeyEvent, name)))
}

// RecordUpstream records one upstream call that started at start. status is
// the HTTP status code, zero when no response was received.
func RecordUpstream(ctx context.Context, upstream, operation string, start time.Time, status int, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	attrs := metric.WithAttributes(
		attribute.String(KeyUpstream, upstream),
		attribute.String(KeyOperation, operation),
		attribute.String(KeyOutcome, outcome),
		attribute.Int(KeyStatus, status),
	)
	upstreamRequests.Add(ctx, 1, attrs)
	upstreamDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

// IncWidget counts a widget data request.
func IncWidget(ctx context.Context, widgetID string, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	widgetRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyWidget, widgetID),
		attribute.String(KeyOutcome, outcome),
	))
}

// NewMeterProvider creates an OTLP exporting meter provider.
// The endpoint falls back to OTEL_EXPORTER_OTLP_METRICS_ENDPOINT, then
// OTEL_EXPORTER_OTLP_ENDPOINT, then the protocol's localhost default.
func NewMeterProvider(ctx context.Context, opts ...Option) (*sdkmetric.MeterProvider, error) {
	options := &options{
		serviceName:      "nexus-agent",
		serviceVersion:   "v0.1.0",
		serviceNamespace: "trpc-nexus-agent",
		protocol:         ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.metricsEndpoint == "" {
		options.metricsEndpoint = metricsEndpoint(options.protocol)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(options.serviceNamespace),
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch options.protocol {
	case ProtocolHTTP:
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(options.metricsEndpoint),
			otlpmetrichttp.WithInsecure())
	case ProtocolGRPC:
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(options.metricsEndpoint),
			otlpmetricgrpc.WithInsecure())
	default:
		return nil, fmt.Errorf("unsupported metrics protocol %q", options.protocol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

func metricsEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if protocol == ProtocolHTTP {
		return "localhost:4318"
	}
	return "localhost:4317"
}

// Option configures NewMeterProvider.
type Option func(*options)

type options struct {
	metricsEndpoint  string
	serviceName      string
	serviceVersion   string
	serviceNamespace string
	protocol         string
}

// WithEndpoint sets the exporter endpoint as host:port, without scheme or path.
// It takes precedence over the OTEL_EXPORTER_OTLP_* environment variables.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.metricsEndpoint = endpoint
	}
}

// WithProtocol selects "grpc" (default) or "http" export.
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithServiceVersion overrides the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(opts *options) {
		opts.serviceVersion = version
	}
}
