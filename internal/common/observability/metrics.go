package observability

import (
	"context"
	"time"

	"worker-discovery/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Pipeline stages recorded by RecordStage.
const (
	StageResolve = "resolve"
	StageFilter  = "filter"
	StageRank    = "rank"
)

// Observability records per-stage timings of the discovery pipeline through
// OpenTelemetry, exported on the default Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	stageDuration otelmetric.Float64Histogram
	poolSize      otelmetric.Int64Histogram
}

// New never fails; without an exporter the recorders become no-ops.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("otel prometheus exporter unavailable", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	stageDuration, err := meter.Float64Histogram(
		"discovery.stage.duration",
		otelmetric.WithDescription("Duration of a discovery pipeline stage"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		log.Warn("failed to create stage histogram", map[string]interface{}{"error": err.Error()})
	}

	poolSize, err := meter.Int64Histogram(
		"discovery.stage.pool_size",
		otelmetric.WithDescription("Candidates entering a discovery pipeline stage"),
	)
	if err != nil {
		log.Warn("failed to create pool size histogram", map[string]interface{}{"error": err.Error()})
	}

	return &Observability{
		meterProvider: provider,
		stageDuration: stageDuration,
		poolSize:      poolSize,
	}
}

func (o *Observability) RecordStage(ctx context.Context, stage string, candidates int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("stage", stage))
	if o.stageDuration != nil {
		o.stageDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
	if o.poolSize != nil {
		o.poolSize.Record(ctx, int64(candidates), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
