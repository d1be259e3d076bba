package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"complaint-router/internal/common/logger"
)

// Observability records pipeline-level measurements through an OpenTelemetry
// meter exported in Prometheus format. A zero value is a valid no-op.
type Observability struct {
	meterProvider *metric.MeterProvider
	complaints    otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
	jobCounter    otelmetric.Int64Counter
}

// New registers the exporter with the default Prometheus registry.
func New(serviceName string, log logger.Logger) *Observability {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer, log)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer, log logger.Logger) *Observability {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	complaints, _ := meter.Int64Counter(
		"complaints_processed",
		otelmetric.WithDescription("Complaints analysed, by category, priority and source"),
	)
	stageDuration, _ := meter.Float64Histogram(
		"pipeline_stage_duration",
		otelmetric.WithDescription("Analysis and reply generation latency"),
		otelmetric.WithUnit("ms"),
	)
	jobCounter, _ := meter.Int64Counter(
		"jobs_processed",
		otelmetric.WithDescription("Number of workflow jobs processed"),
	)

	return &Observability{
		meterProvider: provider,
		complaints:    complaints,
		stageDuration: stageDuration,
		jobCounter:    jobCounter,
	}
}

func (o *Observability) RecordComplaint(ctx context.Context, category, priority, source string) {
	if o == nil || o.complaints == nil {
		return
	}
	o.complaints.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("category", category),
		attribute.String("priority", priority),
		attribute.String("source", source),
	))
}

func (o *Observability) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	if o == nil || o.stageDuration == nil {
		return
	}
	o.stageDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("stage", stage),
	))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
	))
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
