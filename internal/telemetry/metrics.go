package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/homebrief"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Session metrics
	SessionCorruptRecordsTotal metric.Int64Counter
	SessionViewsRecordedTotal  metric.Int64Counter

	// API client metrics
	APIRequestsTotal      metric.Int64Counter
	APIRequestErrorsTotal metric.Int64Counter
	APIRequestDuration    metric.Float64Histogram
	APIRetriesTotal       metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments are created from the global provider, which delegates to the SDK
// provider once InitTelemetry installs it.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SessionCorruptRecordsTotal, _ = meter.Int64Counter(
		"homebrief.session.corrupt_records.total",
		metric.WithDescription("Total number of persisted session records discarded as corrupt"),
		metric.WithUnit("{record}"),
	)

	m.SessionViewsRecordedTotal, _ = meter.Int64Counter(
		"homebrief.session.views_recorded.total",
		metric.WithDescription("Total number of property ids appended to a viewing history"),
		metric.WithUnit("{view}"),
	)

	m.APIRequestsTotal, _ = meter.Int64Counter(
		"homebrief.api.requests.total",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("{request}"),
	)

	m.APIRequestErrorsTotal, _ = meter.Int64Counter(
		"homebrief.api.requests.errors.total",
		metric.WithDescription("Total number of backend API requests that failed"),
		metric.WithUnit("{error}"),
	)

	m.APIRequestDuration, _ = meter.Float64Histogram(
		"homebrief.api.requests.duration",
		metric.WithDescription("Duration of backend API requests including retries"),
		metric.WithUnit("ms"),
	)

	m.APIRetriesTotal, _ = meter.Int64Counter(
		"homebrief.api.retries.total",
		metric.WithDescription("Total number of backend API request retries"),
		metric.WithUnit("{retry}"),
	)

	return m
}
