package authcore

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/authcore/internal/flows"
)

// Register creates a PENDING, unverified CLIENT account and issues a
// verification OTP through the Notifier.
//
// An email, username or phone already in use fails with KindConflict and
// creates nothing. If the OTP cannot be stored after the account was
// created, Register fails with KindDependencyUnavailable and the account
// stays in place. A Notifier failure is logged and audited only.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (res RegisterResult, err error) {
	if err := e.ready(); err != nil {
		return RegisterResult{}, err
	}
	ctx, finish := e.startSpan(ctx, "Register")
	defer func() { finish(err) }()

	out := e.flows.Register(ctx, flows.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Phone:    req.Phone,
		FullName: req.FullName,
		Password: req.Password,
	})
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{})
		if out.Failure == flows.FailureConflict {
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ae, nil)
		} else {
			e.metricInc(MetricRegisterFailure)
			e.emitAudit(ctx, auditEventRegisterFailure, false, out.UserID, ae, nil)
		}
		e.logFailure(ctx, "register", ae, slog.String("user_id", out.UserID))
		return RegisterResult{}, ae
	}

	e.metricInc(MetricRegisterSuccess)
	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, out.UserID, nil, nil)
	if out.NotifyErr != nil {
		e.notifyFailed(ctx, auditEventOTPDeliveryFailed, out.UserID, out.NotifyErr)
	}

	return RegisterResult{UserID: out.UserID, Email: out.Email}, nil
}

func (e *Engine) notifyFailed(ctx context.Context, event, userID string, cause error) {
	e.metricInc(MetricNotifyFailure)
	e.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
		slog.String("event", event),
		slog.String("user_id", userID),
		slog.String("cause", cause.Error()),
	)
	e.emitAudit(ctx, event, false, userID, nil, func() map[string]string {
		return map[string]string{"cause": cause.Error()}
	})
}
