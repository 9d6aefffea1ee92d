package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const providerMeterName = "github.com/safepath/safepath/internal/telemetry"

// ProviderMetrics records outbound provider calls, cache outcomes and quota
// rejections. A nil *ProviderMetrics records nothing.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	quotaRejections metric.Int64Counter
}

// NewProviderMetrics creates provider instruments on the global meter provider.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(providerMeterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"provider.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"provider.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	quotaRejections, err := meter.Int64Counter(
		"provider.quota.rejected",
		metric.WithDescription("Requests not sent because the daily quota was exhausted"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		quotaRejections: quotaRejections,
	}, nil
}

// RecordRequest records one provider request.
func (m *ProviderMetrics) RecordRequest(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
		attribute.Bool("error", err != nil),
	}
	// Detached so a canceled request still gets recorded.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit for operation.
func (m *ProviderMetrics) RecordCacheHit(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(context.WithoutCancel(ctx), 1,
		metric.WithAttributes(attribute.String("provider.operation", operation)))
}

// RecordCacheMiss records a cache miss for operation.
func (m *ProviderMetrics) RecordCacheMiss(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(context.WithoutCancel(ctx), 1,
		metric.WithAttributes(attribute.String("provider.operation", operation)))
}

// RecordQuotaRejected records a request skipped because provider's quota ran out.
func (m *ProviderMetrics) RecordQuotaRejected(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.quotaRejections.Add(context.WithoutCancel(ctx), 1,
		metric.WithAttributes(attribute.String("provider.name", provider)))
}
