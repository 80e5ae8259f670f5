package collections

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPrefix = "citewatch_collections_"

	outcomeTerminal = "terminal"
	outcomeTimeout  = "timeout"
	outcomeAborted  = "aborted"
	outcomeError    = "error"
	outcomeCanceled = "canceled"

	retryReasonUnavailable = "unavailable"
	retryReasonTransport   = "transport"
)

// Metrics instruments client traffic. A Metrics built from a nil meter records nothing.
type Metrics struct {
	meter           metric.Meter
	requestsTotal   metric.Int64Counter
	retriesTotal    metric.Int64Counter
	pollIterations  metric.Int64Counter
	pollOutcomes    metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}
	if meter == nil {
		return m, nil
	}
	counterDefs := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.requestsTotal, "requests_total", "Collection API requests by operation and status"},
		{&m.retriesTotal, "retries_total", "Retries scheduled by the onboarding trigger"},
		{&m.pollIterations, "poll_iterations_total", "Status requests issued by poll loops"},
		{&m.pollOutcomes, "poll_outcomes_total", "Finished poll loops by outcome"},
	}
	for _, def := range counterDefs {
		counter, err := meter.Int64Counter(
			metricPrefix+def.name,
			metric.WithDescription(def.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", def.name, err)
		}
		*def.target = counter
	}
	histogram, err := meter.Float64Histogram(
		metricPrefix+"request_duration_seconds",
		metric.WithDescription("Collection API request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	m.requestDuration = histogram
	return m, nil
}

func (m *Metrics) recordRequest(ctx context.Context, operation string, status int, took time.Duration) {
	if m == nil || m.requestsTotal == nil {
		return
	}
	statusLabel := "error"
	if status > 0 {
		statusLabel = fmt.Sprintf("%d", status)
	}
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", statusLabel),
	))
	m.requestDuration.Record(ctx, took.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *Metrics) recordRetry(ctx context.Context, reason string) {
	if m == nil || m.retriesTotal == nil {
		return
	}
	m.retriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *Metrics) recordPollIteration(ctx context.Context, status RunStatus) {
	if m == nil || m.pollIterations == nil {
		return
	}
	m.pollIterations.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

func (m *Metrics) recordPollOutcome(ctx context.Context, outcome string) {
	if m == nil || m.pollOutcomes == nil {
		return
	}
	m.pollOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
