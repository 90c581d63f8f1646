package authcore

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/MrEthical07/authcore/internal/flows"
)

// Refresh spends req.RefreshToken and returns a replacement pair.
//
// Every failure carries the message "invalid refresh token". Internally a
// token minted before the user's last revocation is "revoked" and a token
// whose session was already spent is "reused"; both revoke every session
// of the user before failing. Two concurrent calls with the same token
// produce exactly one success.
func (e *Engine) Refresh(ctx context.Context, req RefreshRequest) (pair TokenPair, err error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}
	ctx, finish := e.startSpan(ctx, "Refresh")
	defer func() { finish(err) }()

	out := e.flows.Refresh(ctx, req.RefreshToken)
	if out.Revoked != nil && !out.Revoked.Failed() {
		e.sessionsRevoked(ctx, out.UserID, out.Reason, *out.Revoked)
	}
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{unauthorized: MessageInvalidRefreshToken})
		e.metricInc(MetricRefreshFailure)
		switch out.Reason {
		case flows.ReasonReused:
			e.metricInc(MetricRefreshReuseDetected)
			e.logger.LogAttrs(ctx, slog.LevelWarn, "refresh token reuse detected",
				slog.String("user_id", out.UserID),
				slog.String("token_id", out.TokenID),
			)
			e.emitAudit(ctx, auditEventRefreshReuseDetected, false, out.UserID, ae, tokenMeta(out.TokenID))
		case flows.ReasonRevoked:
			e.metricInc(MetricRefreshRevoked)
			e.emitAudit(ctx, auditEventRefreshRevoked, false, out.UserID, ae, tokenMeta(out.TokenID))
		default:
			e.emitAudit(ctx, auditEventRefreshInvalid, false, out.UserID, ae, nil)
		}
		e.logFailure(ctx, "refresh", ae, slog.String("user_id", out.UserID))
		return TokenPair{}, ae
	}

	e.metricInc(MetricRefreshSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, out.UserID, nil, tokenMeta(out.TokenID))
	return toTokenPair(out.Pair), nil
}

// RevokeAllSessions increments the user's token version and deletes every
// outstanding refresh session. Refresh tokens minted before the call stop
// working even if the session sweep is interrupted.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID string) (res RevokeResult, err error) {
	if err := e.ready(); err != nil {
		return RevokeResult{}, err
	}
	ctx, finish := e.startSpan(ctx, "RevokeAllSessions")
	defer func() { finish(err) }()

	out := e.flows.RevokeAll(ctx, userID)
	if out.Failed() {
		ae := e.toError(out.Outcome, messages{})
		e.logFailure(ctx, "revoke_all", ae, slog.String("user_id", userID))
		return RevokeResult{}, ae
	}

	e.sessionsRevoked(ctx, userID, "admin", out)
	return RevokeResult{TokenVersion: out.TokenVersion, SessionsDeleted: out.Deleted}, nil
}

func (e *Engine) sessionsRevoked(ctx context.Context, userID, trigger string, r flows.RevokeResult) {
	e.metricInc(MetricSessionsRevoked)
	e.logger.LogAttrs(ctx, slog.LevelInfo, "sessions revoked",
		slog.String("user_id", userID),
		slog.String("trigger", trigger),
		slog.Int64("token_version", r.TokenVersion),
		slog.Int("deleted", r.Deleted),
	)
	e.emitAudit(ctx, auditEventSessionsRevoked, true, userID, nil, func() map[string]string {
		return map[string]string{
			"trigger":       trigger,
			"token_version": strconv.FormatInt(r.TokenVersion, 10),
			"deleted":       strconv.Itoa(r.Deleted),
		}
	})
}

func tokenMeta(tokenID string) func() map[string]string {
	if tokenID == "" {
		return nil
	}
	return func() map[string]string {
		return map[string]string{"token_id": tokenID}
	}
}
