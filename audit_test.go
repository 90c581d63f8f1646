package authcore

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

type panicSink struct{}

func (panicSink) Emit(context.Context, AuditEvent) {
	panic("sink exploded")
}

func auditConfig() Config {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false
	return cfg
}

func collect(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("expected %d audit events, got %d", want, len(events))
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	engine, env := newTestEngine(t, testConfig(), func(b *Builder) {
		b.WithAuditSink(sink)
	})
	activeUser(t, engine, env, "alice@example.com")
	_, _ = engine.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrong-password-123"})
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditEventCarriesRequestContext(t *testing.T) {
	sink := NewChannelSink(16)
	engine, env := newTestEngine(t, auditConfig(), func(b *Builder) {
		b.WithAuditSink(sink)
	})
	activeUser(t, engine, env, "alice@example.com")
	collect(t, sink, 2)

	ctx := WithClientIP(context.Background(), "198.51.100.33")
	ctx = WithRequestID(ctx, "req-7")
	ctx = WithUserAgent(ctx, "curl/8.0")
	_, _ = engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "super-secret-password"})

	ev := collect(t, sink, 1)[0]
	if ev.EventType != auditEventLoginFailure || ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.IP != "198.51.100.33" || ev.RequestID != "req-7" || ev.Metadata["user_agent"] != "curl/8.0" {
		t.Fatalf("request context not propagated: %+v", ev)
	}
	if ev.Error != "unauthorized" || ev.Reason != "password_mismatch" {
		t.Fatalf("unexpected error/reason %q/%q", ev.Error, ev.Reason)
	}
}

func TestAuditReuseSequence(t *testing.T) {
	sink := NewChannelSink(32)
	engine, env := newTestEngine(t, auditConfig(), func(b *Builder) {
		b.WithAuditSink(sink)
	})
	activeUser(t, engine, env, "alice@example.com")
	pair := login(t, engine, "alice@example.com")
	collect(t, sink, 3)

	if _, err := engine.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	_, _ = engine.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken})

	var types []string
	for _, ev := range collect(t, sink, 3) {
		types = append(types, ev.EventType)
	}
	want := []string{auditEventRefreshSuccess, auditEventSessionsRevoked, auditEventRefreshReuseDetected}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, types)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(64)
	engine, env := newTestEngine(t, auditConfig(), func(b *Builder) {
		b.WithAuditSink(sink)
	})
	userID := activeUser(t, engine, env, "alice@example.com")
	pair := login(t, engine, "alice@example.com")
	if _, err := engine.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken}); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err := engine.ForgotPassword(context.Background(), ForgotPasswordRequest{Email: "alice@example.com"}); err != nil {
		t.Fatalf("forgot failed: %v", err)
	}
	ticket, _ := env.notifier.reset("alice@example.com")

	needles := []string{
		testPassword,
		pair.AccessToken,
		pair.RefreshToken,
		env.user(t, userID).PasswordHash,
		env.notifier.otp("alice@example.com"),
		ticket,
	}

	for _, ev := range collect(t, sink, 5) {
		for _, needle := range needles {
			if needle == "" {
				continue
			}
			if strings.Contains(ev.Error, needle) || strings.Contains(ev.Reason, needle) {
				t.Fatalf("sensitive value leaked in %s", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in %s metadata", ev.EventType)
				}
			}
		}
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink, nil)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink, nil)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditBlockedEmitHonorsContext(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink, nil)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	dispatcher.Emit(ctx, AuditEvent{EventType: "e3"})

	if dispatcher.Dropped() != 1 {
		t.Fatalf("expected cancelled emit to count as dropped, got %d", dispatcher.Dropped())
	}
}

func TestAuditSinkPanicIsContained(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
	}, panicSink{}, nil)

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
	dispatcher.Close()

	if dispatcher.Delivered() != 0 {
		t.Fatalf("panicking deliveries must not count, got %d", dispatcher.Delivered())
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: auditEventLoginSuccess,
		UserID:    "u1",
		IP:        "127.0.0.1",
		Success:   true,
	})

	if !buf.Contains("login_success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"user_id\":\"u1\"") {
		t.Fatal("expected JSON log line to contain user id")
	}
}

func TestAuditSlogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLogout, UserID: "u1", Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLoginFailure, Error: "unauthorized"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"level":"INFO"`) || !strings.Contains(lines[1], `"level":"WARN"`) {
		t.Fatalf("unexpected levels: %v", lines)
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{}, nil)

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(string(b.buf), v)
}
