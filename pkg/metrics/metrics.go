// Package metrics exposes request and realtime-feed metrics through the
// OpenTelemetry Prometheus exporter.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/global"
	export "go.opentelemetry.io/otel/sdk/export/metric"
	"go.opentelemetry.io/otel/sdk/metric/aggregator/histogram"
	controller "go.opentelemetry.io/otel/sdk/metric/controller/basic"
	processor "go.opentelemetry.io/otel/sdk/metric/processor/basic"
	selector "go.opentelemetry.io/otel/sdk/metric/selector/simple"
)

type Metrics struct {
	exporter    *prometheus.Exporter
	requests    metric.Int64Counter
	latency     metric.Float64ValueRecorder
	connections metric.Int64UpDownCounter
}

func New(serviceName string) (*Metrics, error) {
	config := prometheus.Config{}
	c := controller.New(
		processor.New(
			selector.NewWithHistogramDistribution(
				histogram.WithExplicitBoundaries(config.DefaultHistogramBoundaries),
			),
			export.CumulativeExportKindSelector(),
			processor.WithMemory(true),
		),
	)
	exporter, err := prometheus.New(config, c)
	if err != nil {
		return nil, err
	}
	global.SetMeterProvider(exporter.MeterProvider())

	meter := metric.Must(exporter.MeterProvider().Meter(serviceName))
	return &Metrics{
		exporter: exporter,
		requests: meter.NewInt64Counter(
			"http.server.completed_count",
			metric.WithDescription("Count of completed requests, by route, HTTP method and response status"),
		),
		latency: meter.NewFloat64ValueRecorder(
			"http.server.duration_ms",
			metric.WithDescription("Request latency in milliseconds"),
		),
		connections: meter.NewInt64UpDownCounter(
			"realtime.connections",
			metric.WithDescription("Open change-feed websocket connections"),
		),
	}, nil
}

// Middleware records every request under its chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []attribute.KeyValue{
			attribute.String("route", route),
			attribute.String("method", r.Method),
			attribute.String("status", strconv.Itoa(status)),
		}
		m.requests.Add(r.Context(), 1, labels...)
		m.latency.Record(r.Context(), float64(time.Since(start).Microseconds())/1000, labels...)
	})
}

func (m *Metrics) AddConnections(ctx context.Context, delta int64) {
	m.connections.Add(ctx, delta)
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.exporter
}
