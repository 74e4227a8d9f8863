package instrument

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// Recorder keeps spans and metrics in memory so tests can assert on them.
type Recorder struct {
	spans          *tracetest.SpanRecorder
	reader         *sdkmetric.ManualReader
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// NewRecorder returns an in-memory Instrumentation.
func NewRecorder() *Recorder {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	return &Recorder{
		spans:          spans,
		reader:         reader,
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

func (r *Recorder) Tracer(name string) trace.Tracer {
	return r.tracerProvider.Tracer(name)
}

func (r *Recorder) Meter(name string) metric.Meter {
	return r.meterProvider.Meter(name)
}

func (r *Recorder) Shutdown(ctx context.Context) error {
	return errors.Join(r.tracerProvider.Shutdown(ctx), r.meterProvider.Shutdown(ctx))
}

// SpanNames lists the names of ended spans in end order.
func (r *Recorder) SpanNames() []string {
	ended := r.spans.Ended()
	names := make([]string, 0, len(ended))
	for _, s := range ended {
		names = append(names, s.Name())
	}
	return names
}

// Count sums the int64 counter name over data points carrying every attr.
func (r *Recorder) Count(ctx context.Context, name string, attrs ...attribute.KeyValue) int64 {
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(ctx, &rm); err != nil {
		return 0
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if hasAttrs(dp.Attributes, attrs) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttrs(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v.Type() != kv.Value.Type() || v.Emit() != kv.Value.Emit() {
			return false
		}
	}
	return true
}
