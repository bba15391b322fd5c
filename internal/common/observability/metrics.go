package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records pipeline measurements through an OpenTelemetry
// meter exported to Prometheus. A nil *Observability records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	submissions    otelmetric.Int64Counter
	dispatchTiming otelmetric.Float64Histogram
}

// New registers the exporter with the default Prometheus registerer and
// installs the provider globally.
func New(serviceName string) (*Observability, error) {
	o, err := NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(o.meterProvider)
	return o, nil
}

func NewWithRegisterer(serviceName string, registerer promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	submissions, err := meter.Int64Counter(
		"contact.submissions",
		otelmetric.WithDescription("Number of submission attempts"),
	)
	if err != nil {
		return nil, err
	}

	dispatchTiming, err := meter.Float64Histogram(
		"contact.dispatch.duration",
		otelmetric.WithDescription("Dispatch duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		submissions:    submissions,
		dispatchTiming: dispatchTiming,
	}, nil
}

func (o *Observability) RecordSubmission(ctx context.Context, state string) {
	if o == nil || o.submissions == nil {
		return
	}
	o.submissions.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("state", state),
	))
}

func (o *Observability) RecordDispatchDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o == nil || o.dispatchTiming == nil {
		return
	}
	o.dispatchTiming.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
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
