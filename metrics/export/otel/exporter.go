package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

// latencyHistogram exposes one engine histogram as a cumulative bucket
// gauge keyed by an "le" attribute, plus a count gauge.
type latencyHistogram struct {
	id      authcore.MetricID
	bucket  metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	leAttrs [8]metric.ObserveOption
}

// OTelExporter keeps the instruments and callback registration alive until
// Close.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     map[authcore.MetricID]metric.Int64ObservableCounter
	histograms   []latencyHistogram
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that observe engine.
func NewOTelExporter(meter metric.Meter, engine *authcore.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource is NewOTelExporter over any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[authcore.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		c, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = c
		observables = append(observables, c)
	}

	labels := bucketLabels()
	for _, def := range internaldefs.HistogramDefs {
		h := latencyHistogram{id: def.ID}
		var err error
		if h.bucket, err = meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."),
			metric.WithUnit("{request}"),
		); err != nil {
			return nil, fmt.Errorf("histogram %s: %w", def.Name, err)
		}
		if h.count, err = meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."),
		); err != nil {
			return nil, fmt.Errorf("histogram %s: %w", def.Name, err)
		}
		for i, le := range labels {
			h.leAttrs[i] = metric.WithAttributeSet(attribute.NewSet(attribute.String("le", le)))
		}
		e.histograms = append(e.histograms, h)
		observables = append(observables, h.bucket, h.count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription("Audit events dropped by dispatcher backpressure."))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	// A disabled engine reports an empty snapshot; skip rather than emit
	// zeros for every counter.
	if len(snap.Counters) == 0 {
		return nil
	}
	for id, c := range e.counters {
		o.ObserveInt64(c, int64(snap.Counters[id]))
	}
	for _, h := range e.histograms {
		raw, ok := snap.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, n := range cumulative {
			o.ObserveInt64(h.bucket, int64(n), h.leAttrs[i])
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	return nil
}

// Close unregisters the callback. Instruments stay on the meter but stop
// reporting.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

func bucketLabels() [8]string {
	var out [8]string
	for i, b := range internaldefs.HistogramBounds {
		out[i] = strconv.FormatFloat(b, 'g', -1, 64)
	}
	out[len(out)-1] = "+Inf"
	return out
}
