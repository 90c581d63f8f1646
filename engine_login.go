package authcore

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/authcore/internal/flows"
)

// Login authenticates email and password and issues a token pair.
//
// Unknown email, unverified account, disabled account, wrong password and
// an exhausted attempt budget all fail with the same KindUnauthorized
// error. On success a new token pair is issued, exactly one refresh session
// is recorded and lastLogin is updated.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (pair TokenPair, err error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}
	ctx, finish := e.startSpan(ctx, "Login")
	defer func() { finish(err) }()

	out := e.flows.Login(ctx, req.Email, req.Password)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{unauthorized: MessageInvalidCredentials})
		if out.Reason == flows.ReasonLockedOut {
			e.metricInc(MetricLoginLockedOut)
			e.emitAudit(ctx, auditEventLoginLockedOut, false, out.UserID, ae, nil)
		} else {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, out.UserID, ae, nil)
		}
		e.logFailure(ctx, "login", ae, slog.String("user_id", out.UserID))
		return TokenPair{}, ae
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, out.UserID, nil, nil)
	return toTokenPair(out.Pair), nil
}

func toTokenPair(p flows.TokenPair) TokenPair {
	return TokenPair{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenType:        "Bearer",
		AccessExpiresIn:  int64(p.AccessTTL.Seconds()),
		RefreshExpiresIn: int64(p.RefreshTTL.Seconds()),
	}
}
