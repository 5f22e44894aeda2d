package api

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	app "github.com/ironhive/provisiond/internal/app/provisioning"
	"github.com/ironhive/provisiond/internal/infra/eventbus/kafka"
)

const namespace = "provisiond_api"

// APIMetrics defines metrics operations needed by the API server.
type APIMetrics interface {
	// EventBus metrics
	kafka.EventBusMetrics

	// Provisioning service metrics
	app.ProvisioningMetrics

	// API metrics
	IncRequestsTotal(ctx context.Context, method, path string, status int)
	ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration)
	IncRateLimited(ctx context.Context, path string)
}

type apiMetrics struct {
	// Kafka metrics
	messagesPublished metric.Int64Counter
	messagesConsumed  metric.Int64Counter
	publishErrors     metric.Int64Counter
	consumeErrors     metric.Int64Counter

	// Provisioning metrics
	progressReports   metric.Int64Counter
	reinstallRequests metric.Int64Counter
	configWrites      metric.Int64Counter
	cascadeUpdates    metric.Int64Counter

	// API metrics
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	rateLimited     metric.Int64Counter
}

func NewAPIMetrics(mp metric.MeterProvider) (*apiMetrics, error) {
	meter := mp.Meter(namespace, metric.WithInstrumentationVersion("v0.1.0"))

	m := new(apiMetrics)
	var err error

	// Kafka metrics
	if m.messagesPublished, err = meter.Int64Counter(
		"messages_published_total",
		metric.WithDescription("Total number of messages published"),
	); err != nil {
		return nil, err
	}

	if m.messagesConsumed, err = meter.Int64Counter(
		"messages_consumed_total",
		metric.WithDescription("Total number of messages consumed"),
	); err != nil {
		return nil, err
	}

	if m.publishErrors, err = meter.Int64Counter(
		"publish_errors_total",
		metric.WithDescription("Total number of publish errors"),
	); err != nil {
		return nil, err
	}

	if m.consumeErrors, err = meter.Int64Counter(
		"consume_errors_total",
		metric.WithDescription("Total number of consume errors"),
	); err != nil {
		return nil, err
	}

	// Provisioning metrics
	if m.progressReports, err = meter.Int64Counter(
		"progress_reports_total",
		metric.WithDescription("Total number of accepted progress reports"),
	); err != nil {
		return nil, err
	}

	if m.reinstallRequests, err = meter.Int64Counter(
		"reinstall_requests_total",
		metric.WithDescription("Total number of reinstall requests"),
	); err != nil {
		return nil, err
	}

	if m.configWrites, err = meter.Int64Counter(
		"config_writes_total",
		metric.WithDescription("Total number of config writes"),
	); err != nil {
		return nil, err
	}

	if m.cascadeUpdates, err = meter.Int64Counter(
		"cascade_updates_total",
		metric.WithDescription("Total number of entities rewritten by cascades"),
	); err != nil {
		return nil, err
	}

	// API metrics
	if m.requestsTotal, err = meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	); err != nil {
		return nil, err
	}

	if m.rateLimited, err = meter.Int64Counter(
		"rate_limited_total",
		metric.WithDescription("Total number of requests rejected by the rate limiter"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// EventBusMetrics implementation
func (m *apiMetrics) IncMessagePublished(ctx context.Context, topic string) {
	m.messagesPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func (m *apiMetrics) IncMessageConsumed(ctx context.Context, topic string) {
	m.messagesConsumed.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func (m *apiMetrics) IncPublishError(ctx context.Context, topic string) {
	m.publishErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func (m *apiMetrics) IncConsumeError(ctx context.Context, topic string) {
	m.consumeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

// ProvisioningMetrics implementation
func (m *apiMetrics) IncProgressReport(ctx context.Context, entityKind string) {
	m.progressReports.Add(ctx, 1, metric.WithAttributes(attribute.String("entity_kind", entityKind)))
}

func (m *apiMetrics) IncReinstallRequest(ctx context.Context, entityKind string) {
	m.reinstallRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("entity_kind", entityKind)))
}

func (m *apiMetrics) IncConfigWrite(ctx context.Context, entityKind string) {
	m.configWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("entity_kind", entityKind)))
}

func (m *apiMetrics) IncCascadeUpdate(ctx context.Context, count int) {
	m.cascadeUpdates.Add(ctx, int64(count))
}

// APIMetrics implementation
func (m *apiMetrics) IncRequestsTotal(ctx context.Context, method, path string, status int) {
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}

func (m *apiMetrics) ObserveRequestDuration(ctx context.Context, method, path string, duration time.Duration) {
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	))
}

func (m *apiMetrics) IncRateLimited(ctx context.Context, path string) {
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}
