package authcore

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/ephemeral"
	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/internal/flows"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/jwt"
	"github.com/MrEthical07/authcore/password"
)

const tracerName = "github.com/MrEthical07/authcore"

// Builder assembles an Engine. It is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  EphemeralStore

	directory directory.Directory
	hasher    PasswordHasher
	notifier  Notifier
	logger    *slog.Logger
	auditSink AuditSink
	tracer    trace.Tracer
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis uses client for the ephemeral store, wrapped in an
// ephemeral.RedisStore tuned by Config.Store. WithStore takes precedence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore uses a caller-supplied ephemeral store.
func (b *Builder) WithStore(store EphemeralStore) *Builder {
	b.store = store
	return b
}

// WithDirectory sets the durable user directory. It is required.
func (b *Builder) WithDirectory(dir directory.Directory) *Builder {
	b.directory = dir
	return b
}

// WithPasswordHasher replaces the argon2id hasher built from
// Config.Password.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithNotifier sets where OTP codes and reset tickets are delivered. When
// unset, nothing is sent and the challenges can only be read from the store.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithLogger sets the structured logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the destination for audit events. Events are only
// emitted when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTracer sets the tracer used for per-operation spans. The default is
// the global OpenTelemetry provider.
func (b *Builder) WithTracer(tracer trace.Tracer) *Builder {
	b.tracer = tracer
	return b
}

// WithClock overrides the wall clock used for lastLogin and blacklist
// lifetimes.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters read by
// Engine.MetricsSnapshot and the exporters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Authenticate latency histogram. Build
// rejects it when metrics are disabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	store := b.store
	if store == nil && b.redis != nil {
		store = ephemeral.NewRedisStore(b.redis, cfg.Store.options())
	}
	if store == nil {
		return nil, ErrBuilderMissingStore
	}
	if b.directory == nil {
		return nil, ErrBuilderMissingDirectory
	}

	var limiter *rate.Limiter
	if cfg.Security.MaxOTPAttempts > 0 || cfg.Security.MaxLoginAttempts > 0 {
		counter, ok := store.(rate.Counter)
		if !ok {
			return nil, fmt.Errorf("%w: attempt limits require a store implementing CounterStore", ErrConfigInvalid)
		}
		limiter = rate.New(counter, rate.Config{
			Namespace:        cfg.Keys.Namespace,
			MaxOTPAttempts:   cfg.Security.MaxOTPAttempts,
			OTPWindow:        cfg.Security.OTPAttemptWindow,
			MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
			LoginCooldown:    cfg.Security.LoginCooldown,
		})
	}

	hasher := b.hasher
	var verifyDummy func(string)
	if hasher == nil {
		h, err := password.New(cfg.Password.hasher())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		hasher = h
	}
	if d, ok := hasher.(interface{ VerifyDummy(string) }); ok {
		verifyDummy = d.VerifyDummy
	}

	jc, err := cfg.jwtConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	tokens, err := jwt.NewManager(jc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}
	tracer := b.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:    cfg,
		store:     store,
		directory: b.directory,
		tokens:    tokens,
		limiter:   limiter,
		notifier:  b.notifier,
		logger:    logger,
		tracer:    tracer,
		now:       now,
		metrics:   NewMetrics(cfg.Metrics),
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink, logger),
	}
	engine.flows = flows.New(engine.flowDeps(hasher, verifyDummy))

	b.built = true

	return engine, nil
}

func (e *Engine) flowDeps(hasher PasswordHasher, verifyDummy func(string)) flows.Deps {
	keys := flows.Keys{Namespace: e.config.Keys.Namespace}

	// A nil *rate.Limiter must not become a non-nil interface.
	var limiter flows.AttemptLimiter
	if e.limiter != nil {
		limiter = e.limiter
	}
	var notifier flows.Notifier
	if e.notifier != nil {
		notifier = e.notifier
	}

	issue := flows.IssueDeps{
		Tokens:     e.tokens,
		Store:      e.store,
		Keys:       keys,
		NewTokenID: internal.NewTokenID,
	}
	revoke := flows.RevokeDeps{
		Directory: e.directory,
		Store:     e.store,
		Keys:      keys,
	}
	digits := e.config.Challenge.OTPDigits

	return flows.Deps{
		Register: flows.RegisterDeps{
			Directory: e.directory,
			Store:     e.store,
			Keys:      keys,
			Hasher:    hasher,
			Notifier:  notifier,
			NewOTP:    func() (string, error) { return internal.NewOTP(digits) },
			OTPTTL:    e.config.Challenge.OTPTTL,
		},
		Verify: flows.VerifyDeps{
			Directory: e.directory,
			Store:     e.store,
			Keys:      keys,
			Limiter:   limiter,
		},
		Login: flows.LoginDeps{
			Directory:   e.directory,
			Hasher:      hasher,
			VerifyDummy: verifyDummy,
			Limiter:     limiter,
			Issue:       issue,
			Now:         e.now,
		},
		Refresh: flows.RefreshDeps{
			Tokens:    e.tokens,
			Directory: e.directory,
			Store:     e.store,
			Keys:      keys,
			Issue:     issue,
			Revoke:    revoke,
		},
		Logout: flows.LogoutDeps{
			Tokens:      e.tokens,
			Store:       e.store,
			Keys:        keys,
			Now:         e.now,
			FallbackTTL: e.config.blacklistFallback(),
		},
		Reset: flows.ResetDeps{
			Directory: e.directory,
			Store:     e.store,
			Keys:      keys,
			Hasher:    hasher,
			Notifier:  notifier,
			NewTicket: internal.NewResetTicket,
			TicketTTL: e.config.Challenge.ResetTTL,
			Revoke:    revoke,
		},
		Guard: flows.GuardDeps{
			Tokens: e.tokens,
			Store:  e.store,
			Keys:   keys,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
