package authcore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/directory/memory"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRefreshSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricValidateLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricValidateLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginFailure)
	m.Inc(MetricLoginFailure)
	m.Observe(MetricValidateLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("expected MetricLoginFailure=2 got %d", snap.Counters[MetricLoginFailure])
	}
	if len(snap.Histograms[MetricValidateLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricValidateLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricValidateLatency][0])
	}
}

type countingDirectory struct {
	directory.Directory
	calls atomic.Int64
}

func (d *countingDirectory) FindByID(ctx context.Context, id string) (directory.User, error) {
	d.calls.Add(1)
	return d.Directory.FindByID(ctx, id)
}

func (d *countingDirectory) FindByEmail(ctx context.Context, email string) (directory.User, error) {
	d.calls.Add(1)
	return d.Directory.FindByEmail(ctx, email)
}

func TestAuthenticateWithMetricsAvoidsDirectory(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.EnableLatencyHistograms = true

	counting := &countingDirectory{Directory: memory.New()}
	engine, env := newTestEngine(t, cfg, func(b *Builder) {
		b.WithDirectory(counting)
	})

	if _, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: testPassword,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.VerifyOTP(context.Background(), VerifyOTPRequest{
		Email: "alice@example.com",
		OTP:   env.notifier.otp("alice@example.com"),
	}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	pair := login(t, engine, "alice@example.com")

	counting.calls.Store(0)
	for i := 0; i < 10; i++ {
		if _, err := engine.Authenticate(context.Background(), pair.AccessToken); err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
	}
	if n := counting.calls.Load(); n != 0 {
		t.Fatalf("expected authenticate to avoid directory calls, got %d", n)
	}
	if got := engine.MetricsSnapshot().Counters[MetricGuardSuccess]; got != 10 {
		t.Fatalf("expected 10 guard successes, got %d", got)
	}
}

func TestMetricsAddAndBounds(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Add(MetricSessionsRevoked, 5)
	m.Add(MetricSessionsRevoked, 0)
	m.Inc(metricIDCount)
	m.Observe(MetricLoginSuccess, time.Millisecond)

	if got := m.Value(MetricSessionsRevoked); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := m.Value(metricIDCount); got != 0 {
		t.Fatalf("expected out of range id to read 0, got %d", got)
	}
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("histograms must stay empty when latency is disabled")
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if nilMetrics.Enabled() || nilMetrics.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics must be inert")
	}
}
