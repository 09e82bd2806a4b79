package obsv

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter exports Collector and Counters state through an
// OpenTelemetry meter backed by the Prometheus exporter, exactly as the
// teacher's metrics.OTelExporter bridges its Collector.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector
	counters      *Counters

	meter             metric.Meter
	queueSizeGauge    metric.Int64ObservableGauge
	statusCountGauge  metric.Int64ObservableGauge
	breakerStateGauge metric.Int64ObservableGauge
	deliveryCounter   metric.Int64ObservableCounter
}

// NewOTelExporter builds an OTelExporter wired to collector and counters.
func NewOTelExporter(collector Collector, counters *Counters) (*OTelExporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"hookhub",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		counters:      counters,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.queueSizeGauge, err = oe.meter.Int64ObservableGauge(
		"hookhub.queue.size",
		metric.WithDescription("Number of events waiting in the delivery queue"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeQueueSize),
	)
	if err != nil {
		return fmt.Errorf("creating queue size gauge: %w", err)
	}

	oe.statusCountGauge, err = oe.meter.Int64ObservableGauge(
		"hookhub.event.status.count",
		metric.WithDescription("Number of events in each lifecycle status"),
		metric.WithUnit("{events}"),
		metric.WithInt64Callback(oe.observeStatusCounts),
	)
	if err != nil {
		return fmt.Errorf("creating status count gauge: %w", err)
	}

	oe.breakerStateGauge, err = oe.meter.Int64ObservableGauge(
		"hookhub.webhook.circuit_state",
		metric.WithDescription("Current circuit breaker state per webhook (1=closed, 2=open, 3=half_open)"),
		metric.WithInt64Callback(oe.observeBreakerStates),
	)
	if err != nil {
		return fmt.Errorf("creating breaker state gauge: %w", err)
	}

	oe.deliveryCounter, err = oe.meter.Int64ObservableCounter(
		"hookhub.delivery.outcomes",
		metric.WithDescription("Delivery attempt outcomes by kind (success, failure, retry)"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeDeliveryOutcomes),
	)
	if err != nil {
		return fmt.Errorf("creating delivery outcome counter: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeQueueSize(ctx context.Context, observer metric.Int64Observer) error {
	size, err := oe.collector.QueueSize(ctx)
	if err != nil {
		return err
	}
	observer.Observe(size)
	return nil
}

func (oe *OTelExporter) observeStatusCounts(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.StatusCounts(ctx)
	if err != nil {
		return err
	}
	for status, count := range counts {
		observer.Observe(count, metric.WithAttributes(attribute.String("event.status", status)))
	}
	return nil
}

func (oe *OTelExporter) observeBreakerStates(ctx context.Context, observer metric.Int64Observer) error {
	states, err := oe.collector.BreakerStates(ctx)
	if err != nil {
		return err
	}
	for webhookID, state := range states {
		observer.Observe(int64(state), metric.WithAttributes(attribute.String("webhook.id", webhookID)))
	}
	return nil
}

func (oe *OTelExporter) observeDeliveryOutcomes(ctx context.Context, observer metric.Int64Observer) error {
	success, failure, retry := oe.counters.Snapshot()
	observer.Observe(success, metric.WithAttributes(attribute.String("outcome", "success")))
	observer.Observe(failure, metric.WithAttributes(attribute.String("outcome", "failure")))
	observer.Observe(retry, metric.WithAttributes(attribute.String("outcome", "retry")))
	return nil
}

// ServeHTTP serves Prometheus-formatted metrics.
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider.
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
