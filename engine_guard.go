package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal/flows"
)

// Authenticate verifies accessToken and checks it against the blacklist.
// It returns the caller's claims or a KindUnauthorized error, and never
// writes to any store.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (claims Claims, err error) {
	if err := e.ready(); err != nil {
		return Claims{}, err
	}
	start := time.Now()
	ctx, finish := e.startSpan(ctx, "Authenticate")
	defer func() {
		finish(err)
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}
	}()

	out := e.flows.Validate(ctx, accessToken)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{unauthorized: MessageInvalidAccessToken})
		e.metricInc(MetricGuardRejected)
		e.logFailure(ctx, "authenticate", ae)
		return Claims{}, ae
	}

	e.metricInc(MetricGuardSuccess)
	return Claims{
		UserID:    out.Claims.UserID,
		Role:      out.Claims.Role,
		ExpiresAt: flows.ExpiresAt(out.Claims),
	}, nil
}
