package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/directory/memory"
	"github.com/MrEthical07/authcore/directory/sqlstore"
	"github.com/MrEthical07/authcore/internal/appconfig"
	"github.com/MrEthical07/authcore/internal/telemetry"
	otelexport "github.com/MrEthical07/authcore/metrics/export/otel"
	promexport "github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/notify"
	"github.com/MrEthical07/authcore/transport/httpapi"
)

const serviceName = "authd"

// closer collects shutdown hooks in reverse order of acquisition.
type closer []func()

func (c *closer) add(fn func()) { *c = append(*c, fn) }

func (c closer) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run(ctx context.Context, cfg appconfig.Config, logger *slog.Logger) error {
	var cleanup closer
	defer cleanup.close()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	cleanup.add(func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	})

	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		return err
	}
	cleanup.add(func() { _ = rdb.Close() })

	dir, db, err := newDirectory(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		cleanup.add(func() { _ = db.Close() })
	}

	notifier, closeNotifier, err := newNotifier(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	cleanup.add(closeNotifier)

	b := authcore.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithDirectory(dir).
		WithNotifier(notifier).
		WithLogger(logger)
	if cfg.AuditEnabled {
		b.WithAuditSink(authcore.NewSlogSink(logger.With("component", "audit")))
	}
	engine, err := b.Build()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	cleanup.add(engine.Close)

	// Observed through the global MeterProvider; a no-op until one is
	// installed.
	meterExport, err := otelexport.NewOTelExporter(otel.Meter("github.com/MrEthical07/authcore"), engine)
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}
	cleanup.add(func() { _ = meterExport.Close() })

	engineCfg := engine.Config()
	for _, w := range engineCfg.Lint() {
		logger.Warn("config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(engine, httpapi.RouterOptions{
			Logger:         logger,
			Metrics:        promexport.NewPrometheusExporter(engine).Handler(),
			AllowedOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "directory", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func newRedis(cfg appconfig.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	// The ephemeral store retries on its own.
	opts.MaxRetries = -1
	return redis.NewClient(opts), nil
}

func newDirectory(ctx context.Context, cfg appconfig.Database) (directory.Directory, *sql.DB, error) {
	if strings.EqualFold(cfg.Driver, "memory") {
		return memory.New(), nil, nil
	}
	dialect, err := sqlstore.ParseDialect(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	store, db, err := sqlstore.Open(ctx, dialect, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("directory: %w", err)
	}
	return store, db, nil
}

func newNotifier(cfg appconfig.Kafka, logger *slog.Logger) (authcore.Notifier, func(), error) {
	if len(cfg.Brokers) == 0 {
		return notify.NewLogNotifier(logger.With("component", "notify")), func() {}, nil
	}
	client, err := notify.NewKafkaClient(cfg.Brokers, cfg.Topic, kgo.ClientID(serviceName))
	if err != nil {
		return nil, nil, fmt.Errorf("kafka: %w", err)
	}
	n, err := notify.NewKafkaNotifier(client, cfg.Topic)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return n, client.Close, nil
}
