package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Observability owns the meter provider and the instruments recorded by the
// message loop. A zero value is safe to use and records nothing to
// Prometheus, but still keeps the in-process counters.
type Observability struct {
	meterProvider *metric.MeterProvider
	registry      *promclient.Registry
	meter         otelmetric.Meter

	messageCounter  otelmetric.Int64Counter
	messageDuration otelmetric.Float64Histogram
	abortCounter    otelmetric.Int64Counter

	mu        sync.Mutex
	startedAt time.Time
	outcomes  map[string]map[string]int
}

func New(serviceName string, logger *zap.Logger) *Observability {
	o := &Observability{startedAt: time.Now(), outcomes: make(map[string]map[string]int)}

	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		logger.Error("failed to create prometheus exporter", zap.Error(err))
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.registry = registry
	o.meter = meter

	o.messageCounter, _ = meter.Int64Counter(
		"messages.processed",
		otelmetric.WithDescription("Number of messages dispatched"),
	)
	o.messageDuration, _ = meter.Float64Histogram(
		"messages.duration",
		otelmetric.WithDescription("Message processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.abortCounter, _ = meter.Int64Counter(
		"pipeline.aborted",
		otelmetric.WithDescription("Number of pipeline runs aborted before persisting"),
	)
	return o
}

func (o *Observability) RecordMessage(ctx context.Context, topic, outcome string) {
	o.mu.Lock()
	if o.outcomes == nil {
		o.outcomes = make(map[string]map[string]int)
	}
	if o.outcomes[topic] == nil {
		o.outcomes[topic] = make(map[string]int)
	}
	o.outcomes[topic][outcome]++
	o.mu.Unlock()

	if o.messageCounter != nil {
		o.messageCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordDuration(ctx context.Context, topic string, duration time.Duration) {
	if o.messageDuration != nil {
		o.messageDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("topic", topic),
		))
	}
}

func (o *Observability) RecordAbort(ctx context.Context, pipeline, stage, kind string) {
	if o.abortCounter != nil {
		o.abortCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("pipeline", pipeline),
			attribute.String("stage", stage),
			attribute.String("kind", kind),
		))
	}
}

// Snapshot returns a copy of the per-topic outcome counters.
func (o *Observability) Snapshot() map[string]map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]map[string]int, len(o.outcomes))
	for topic, counts := range o.outcomes {
		c := make(map[string]int, len(counts))
		for outcome, n := range counts {
			c[outcome] = n
		}
		out[topic] = c
	}
	return out
}

func (o *Observability) StartedAt() time.Time {
	return o.startedAt
}

// Handler serves the exporter's registry in the Prometheus text format.
func (o *Observability) Handler() http.Handler {
	if o.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
