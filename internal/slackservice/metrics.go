package slackservice

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	apiMetricsOnce      sync.Once
	apiRequestCounter   metric.Int64Counter
	apiErrorCounter     metric.Int64Counter
	apiLatencyHistogram metric.Float64Histogram
)

func initAPIMetrics() {
	apiMetricsOnce.Do(func() {
		meter := otel.Meter("slackconsole/slackservice")

		var err error
		apiRequestCounter, err = meter.Int64Counter(
			"slackconsole.slack.requests.total",
			metric.WithDescription("Total Slack Web API requests issued"),
		)
		if err != nil {
			log.Printf("observability: failed to create slack request counter: %v", err)
		}

		apiErrorCounter, err = meter.Int64Counter(
			"slackconsole.slack.errors.total",
			metric.WithDescription("Total Slack Web API errors"),
		)
		if err != nil {
			log.Printf("observability: failed to create slack error counter: %v", err)
		}

		apiLatencyHistogram, err = meter.Float64Histogram(
			"slackconsole.slack.response_time",
			metric.WithDescription("Slack Web API response time (ms)"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			log.Printf("observability: failed to create slack latency histogram: %v", err)
		}
	})
}

// recordAPICall records one Slack Web API round trip. Recording is
// best-effort and never affects the call outcome.
func recordAPICall(ctx context.Context, operation string, duration time.Duration, callErr error) {
	initAPIMetrics()

	status := "ok"
	if callErr != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", status),
	}

	if apiRequestCounter != nil {
		apiRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if apiLatencyHistogram != nil {
		apiLatencyHistogram.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if callErr != nil && apiErrorCounter != nil {
		apiErrorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
