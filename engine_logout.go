package authcore

import (
	"context"
	"log/slog"
)

// Logout spends req.RefreshToken and, when req.AccessToken is set,
// blacklists it for the rest of its lifetime. Logging out a session whose
// record already expired or was spent still succeeds.
func (e *Engine) Logout(ctx context.Context, req LogoutRequest) (res LogoutResult, err error) {
	if err := e.ready(); err != nil {
		return LogoutResult{}, err
	}
	ctx, finish := e.startSpan(ctx, "Logout")
	defer func() { finish(err) }()

	out := e.flows.Logout(ctx, req.RefreshToken, req.AccessToken)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{unauthorized: MessageInvalidRefreshToken})
		e.logFailure(ctx, "logout", ae, slog.String("user_id", out.UserID))
		return LogoutResult{}, ae
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, out.UserID, nil, nil)
	if out.Blacklisted {
		e.metricInc(MetricAccessBlacklisted)
		e.emitAudit(ctx, auditEventAccessBlacklisted, true, out.UserID, nil, nil)
	}
	return LogoutResult{LoggedOut: true}, nil
}
