package authcore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
)

// Engine runs the session lifecycle: registration with OTP verification,
// login, refresh rotation with reuse detection, logout, password reset and
// access-token verification. It holds no per-user state of its own; the
// ephemeral store is the coordination point.
//
// An Engine is safe for concurrent use.
type Engine struct {
	config    Config
	store     EphemeralStore
	directory directory.Directory
	tokens    *jwt.Manager
	limiter   *rate.Limiter
	notifier  Notifier
	flows     flows.Service
	audit     *auditDispatcher
	metrics   *Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Close drains and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns how many audit events were dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the in-process counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Health pings the ephemeral store when it supports it.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	p, ok := e.store.(Pinger)
	if !ok {
		return HealthStatus{Available: true}
	}
	start := time.Now()
	err := p.Ping(ctx)
	return HealthStatus{Available: err == nil, Latency: time.Since(start)}
}

func (e *Engine) ready() error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// messages holds the external text for the credential-style failures of
// one operation.
type messages struct {
	unauthorized      string
	invalidCredential string
}

// toError converts a failed flow outcome into the public error type.
func (e *Engine) toError(o flows.Outcome, m messages) *Error {
	switch o.Failure {
	case flows.FailureInvalidRequest:
		msg := "Invalid request"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		return newError(KindInvalidRequest, msg, o.Reason, o.Err)
	case flows.FailureConflict:
		return newError(KindConflict, MessageUserExists, o.Reason, o.Err)
	case flows.FailureInvalidCredential:
		return newError(KindInvalidCredential, m.invalidCredential, o.Reason, o.Err)
	case flows.FailureUnauthorized:
		return newError(KindUnauthorized, m.unauthorized, o.Reason, o.Err)
	default:
		e.metricInc(MetricDependencyFailure)
		return newError(KindDependencyUnavailable, MessageUnavailable, o.Reason, o.Err)
	}
}

// startSpan opens an operation span. finish records the outcome on it.
func (e *Engine) startSpan(ctx context.Context, op string) (context.Context, func(err error)) {
	ctx, span := e.tracer.Start(ctx, "authcore."+op, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, func(err error) {
		if err != nil {
			var ae *Error
			if errors.As(err, &ae) {
				span.SetAttributes(
					attribute.String("authcore.kind", ae.Kind.String()),
					attribute.String("authcore.reason", ae.Reason),
				)
				if ae.Kind == KindDependencyUnavailable {
					span.SetStatus(codes.Error, ae.Reason)
				}
			} else {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
	}
}

// logFailure logs an operation failure. Dependency failures log at Error,
// everything else at Debug since those are client mistakes.
func (e *Engine) logFailure(ctx context.Context, op string, err *Error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	if err.Kind == KindDependencyUnavailable {
		level = slog.LevelError
	}
	attrs = append(attrs,
		slog.String("op", op),
		slog.String("kind", err.Kind.String()),
		slog.String("reason", err.Reason),
	)
	if err.Err != nil {
		attrs = append(attrs, slog.String("cause", err.Err.Error()))
	}
	e.logger.LogAttrs(ctx, level, "auth operation failed", attrs...)
}
