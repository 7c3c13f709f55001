// Package telemetry exposes the console's OpenTelemetry metrics in Prometheus format.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	Namespace   = "agent_console"
	ServiceName = "agent-console"
)

// ShutdownFunc flushes and stops the meter provider.
type ShutdownFunc func(context.Context) error

// Metrics holds the instruments recorded by the API and the import flow.
type Metrics struct {
	// Requests counts HTTP requests by method, route and status
	Requests metric.Int64Counter
	// ErrorCount counts HTTP responses with status >= 400
	ErrorCount metric.Int64Counter
	// RequestDuration is the HTTP handler latency in seconds
	RequestDuration metric.Float64Histogram
	// ImportSubmissions counts wizard submissions by outcome
	ImportSubmissions metric.Int64Counter
	// McpInstalls counts MCP server installs by outcome
	McpInstalls metric.Int64Counter

	registry *prometheus.Registry
}

// InitMetrics builds a meter provider backed by a private Prometheus registry.
func InitMetrics(version string) (ShutdownFunc, *Metrics, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	// Go runtime metrics (goroutines, memory, GC) come from the OTel runtime instrumentation.
	if err := otelruntime.Start(otelruntime.WithMeterProvider(provider)); err != nil {
		return nil, nil, fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}
	meter := provider.Meter(Namespace)

	m := &Metrics{registry: registry}
	if m.Requests, err = meter.Int64Counter(Namespace+"_http_requests",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, nil, err
	}
	if m.ErrorCount, err = meter.Int64Counter(Namespace+"_http_errors",
		metric.WithDescription("Total number of HTTP responses with an error status")); err != nil {
		return nil, nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram(Namespace+"_http_request_duration",
		metric.WithDescription("HTTP request duration in seconds")); err != nil {
		return nil, nil, err
	}
	if m.ImportSubmissions, err = meter.Int64Counter(Namespace+"_import_submissions",
		metric.WithDescription("Agent import submissions by outcome")); err != nil {
		return nil, nil, err
	}
	if m.McpInstalls, err = meter.Int64Counter(Namespace+"_mcp_installs",
		metric.WithDescription("MCP server installs by outcome")); err != nil {
		return nil, nil, err
	}

	return provider.Shutdown, m, nil
}

// PrometheusHandler serves the registry in the Prometheus text format.
func (m *Metrics) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSubmission counts one import submission. A nil receiver is a no-op.
func (m *Metrics) RecordSubmission(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.ImportSubmissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

// RecordMcpInstall counts one MCP install attempt. A nil receiver is a no-op.
func (m *Metrics) RecordMcpInstall(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.McpInstalls.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
