package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger *slog.Logger
	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler
	// Timeout bounds each request. Zero uses 30s.
	Timeout time.Duration
	// AllowedOrigins enables CORS for the listed browser origins.
	AllowedOrigins []string
}

// NewRouter wires the public endpoints:
//
//	POST /auth/register, /auth/verify, /auth/login, /auth/refresh,
//	     /auth/logout, /auth/forgot-password, /auth/reset-password
//	GET  /auth/me (bearer token), /healthz, /metrics
//	POST /auth/admin/users/{userID}/revoke-sessions (ADMIN bearer token)
func NewRouter(engine Engine, opts RouterOptions) http.Handler {
	h := NewHandler(engine, opts.Logger)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(h.logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(corsHeaders(opts.AllowedOrigins))
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))
	r.Use(auditContext)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, msgMethodRejected)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/verify", h.handleVerify)
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/logout", h.handleLogout)
		r.Post("/forgot-password", h.handleForgotPassword)
		r.Post("/reset-password", h.handleResetPassword)
		r.Method(http.MethodGet, "/me", middleware.Protect(engine, h.handleMe, middleware.WithErrorHandler(h.guardError)))
		r.Method(http.MethodPost, "/admin/users/{userID}/revoke-sessions", middleware.Protect(engine,
			middleware.RequireRole(string(directory.RoleAdmin), h.handleRevokeSessions, h.guardError),
			middleware.WithErrorHandler(h.guardError)))
	})
	r.Get("/healthz", h.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return r
}

// auditContext copies request metadata into the context the engine reads
// for audit events.
func auditContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := chimw.GetReqID(ctx); id != "" {
			ctx = authcore.WithRequestID(ctx, id)
		}
		if ip := clientIP(r.RemoteAddr); ip != "" {
			ctx = authcore.WithClientIP(ctx, ip)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = authcore.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "request completed",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
