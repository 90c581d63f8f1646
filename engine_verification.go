package authcore

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/authcore/internal/flows"
)

// VerifyOTP activates the account behind req.Email when req.OTP matches the
// stored challenge, then deletes the challenge. A missing account, missing
// challenge and wrong code all fail with KindInvalidCredential.
func (e *Engine) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (res VerifyOTPResult, err error) {
	if err := e.ready(); err != nil {
		return VerifyOTPResult{}, err
	}
	ctx, finish := e.startSpan(ctx, "VerifyOTP")
	defer func() { finish(err) }()

	out := e.flows.VerifyOTP(ctx, req.Email, req.OTP)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{invalidCredential: MessageInvalidOTP})
		e.metricInc(MetricOTPVerifyFailure)
		if out.Reason == flows.ReasonOTPExhausted {
			e.metricInc(MetricOTPAttemptsExceeded)
			e.emitAudit(ctx, auditEventOTPAttemptsExceeded, false, out.UserID, ae, nil)
		} else {
			e.emitAudit(ctx, auditEventOTPVerifyFailure, false, out.UserID, ae, nil)
		}
		e.logFailure(ctx, "verify_otp", ae, slog.String("user_id", out.UserID))
		return VerifyOTPResult{}, ae
	}

	e.metricInc(MetricOTPVerifySuccess)
	e.emitAudit(ctx, auditEventOTPVerifySuccess, true, out.UserID, nil, nil)
	return VerifyOTPResult{Verified: true}, nil
}
