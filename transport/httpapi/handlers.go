package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
)

// Engine is the part of *authcore.Engine the HTTP surface calls.
type Engine interface {
	Register(ctx context.Context, req authcore.RegisterRequest) (authcore.RegisterResult, error)
	VerifyOTP(ctx context.Context, req authcore.VerifyOTPRequest) (authcore.VerifyOTPResult, error)
	Login(ctx context.Context, req authcore.LoginRequest) (authcore.TokenPair, error)
	Refresh(ctx context.Context, req authcore.RefreshRequest) (authcore.TokenPair, error)
	Logout(ctx context.Context, req authcore.LogoutRequest) (authcore.LogoutResult, error)
	ForgotPassword(ctx context.Context, req authcore.ForgotPasswordRequest) (authcore.ForgotPasswordResult, error)
	ResetPassword(ctx context.Context, req authcore.ResetPasswordRequest) (authcore.ResetPasswordResult, error)
	RevokeAllSessions(ctx context.Context, userID string) (authcore.RevokeResult, error)
	Authenticate(ctx context.Context, accessToken string) (authcore.Claims, error)
	Health(ctx context.Context) authcore.HealthStatus
}

const maxBodyBytes = 64 << 10

// Handler serves the auth endpoints.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler returns a Handler. A nil logger discards.
func NewHandler(engine Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{engine: engine, logger: logger}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req authcore.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateRegister(req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.engine.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: msgRegistered, Data: res})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req authcore.VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateVerify(req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.engine.VerifyOTP(r.Context(), req)
	if err != nil {
		h.fail(w, r, "verify_otp", err)
		return
	}
	writeOK(w, msgVerified, res)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req authcore.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateLogin(req); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.engine.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	writeOK(w, msgLoggedIn, pair)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authcore.RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateRefreshToken(req.RefreshToken); err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.engine.Refresh(r.Context(), req)
	if err != nil {
		h.fail(w, r, "refresh", err)
		return
	}
	writeOK(w, msgRefreshed, pair)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req authcore.LogoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	// The access token may come from the body or the Authorization header.
	if req.AccessToken == "" {
		req.AccessToken, _ = middleware.BearerToken(r.Header.Get("Authorization"))
	}
	if err := validateLogout(req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.engine.Logout(r.Context(), req)
	if err != nil {
		h.fail(w, r, "logout", err)
		return
	}
	writeOK(w, msgLoggedOut, res)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authcore.ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateForgot(req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.engine.ForgotPassword(r.Context(), req)
	if err != nil {
		h.fail(w, r, "forgot_password", err)
		return
	}
	writeOK(w, msgResetSent, res)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authcore.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := validateReset(req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.engine.ResetPassword(r.Context(), req)
	if err != nil {
		h.fail(w, r, "reset_password", err)
		return
	}
	writeOK(w, msgPasswordReset, res)
}

func (h *Handler) handleMe(w http.ResponseWriter, _ *http.Request, claims authcore.Claims) {
	writeOK(w, msgAuthenticated, claims)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Health(r.Context())
	if !status.Available {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: authcore.MessageUnavailable, Data: status})
		return
	}
	writeOK(w, msgHealthy, status)
}

// handleRevokeSessions is mounted behind RequireRole(ADMIN).
func (h *Handler) handleRevokeSessions(w http.ResponseWriter, r *http.Request, claims authcore.Claims) {
	userID := chi.URLParam(r, "userID")
	res, err := h.engine.RevokeAllSessions(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "revoke_sessions", err)
		return
	}
	h.logger.InfoContext(r.Context(), "sessions revoked by admin",
		"request_id", chimw.GetReqID(r.Context()),
		"admin_id", claims.UserID,
		"user_id", userID,
		"sessions_deleted", res.SessionsDeleted,
	)
	writeOK(w, msgSessionsRevoked, res)
}

// guardError is the middleware.ErrorHandler for protected routes.
func (h *Handler) guardError(w http.ResponseWriter, r *http.Request, err error) {
	status := middleware.StatusFor(err)
	message := authcore.MessageInvalidAccessToken
	switch status {
	case http.StatusForbidden:
		message = msgForbidden
	case http.StatusServiceUnavailable:
		message = authcore.MessageUnavailable
	}
	h.logger.DebugContext(r.Context(), "guard rejected request",
		"request_id", chimw.GetReqID(r.Context()),
		"reason", authcore.ReasonOf(err),
		"error", err.Error(),
	)
	writeFailure(w, status, message)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", chimw.GetReqID(r.Context()),
			"error", err.Error(),
		)
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, _ := statusOf(err)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		"op", op,
		"request_id", chimw.GetReqID(r.Context()),
		"status", status,
		"reason", authcore.ReasonOf(err),
	)
	writeError(w, err)
}
