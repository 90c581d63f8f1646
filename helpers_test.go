package authcore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/directory/memory"
)

const testPassword = "correct-password-123"

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		_ = rdb.Close()
	})
	return mr, rdb
}

// testConfig keeps argon2 at its floor so tests stay fast.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	cfg.Store.BaseBackoff = time.Millisecond
	cfg.Store.MaxBackoff = 2 * time.Millisecond
	return cfg
}

type recordingNotifier struct {
	mu     sync.Mutex
	otps   map[string]string
	resets map[string]string
	fail   error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		otps:   make(map[string]string),
		resets: make(map[string]string),
	}
}

func (n *recordingNotifier) SendOTP(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otps[email] = code
	return n.fail
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets[email] = token
	return n.fail
}

func (n *recordingNotifier) otp(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.otps[email]
}

func (n *recordingNotifier) reset(email string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.resets[email]
	return v, ok
}

type testEnv struct {
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	dir      *memory.Directory
	notifier *recordingNotifier
}

func newTestEngine(t testing.TB, cfg Config, opts ...func(*Builder)) (*Engine, *testEnv) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	env := &testEnv{
		mr:       mr,
		rdb:      rdb,
		dir:      memory.New(),
		notifier: newRecordingNotifier(),
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(env.dir).
		WithNotifier(env.notifier)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		mr.Close()
	})
	return engine, env
}

func registerUser(t testing.TB, engine *Engine, email, username, phone string) RegisterResult {
	t.Helper()

	res, err := engine.Register(context.Background(), RegisterRequest{
		Email:    email,
		Username: username,
		Phone:    phone,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	return res
}

// activeUser registers and verifies email and returns its user ID.
func activeUser(t testing.TB, engine *Engine, env *testEnv, email string) string {
	t.Helper()

	username := strings.SplitN(email, "@", 2)[0]
	res := registerUser(t, engine, email, username, "")
	if _, err := engine.VerifyOTP(context.Background(), VerifyOTPRequest{Email: email, OTP: env.notifier.otp(email)}); err != nil {
		t.Fatalf("verify %s failed: %v", email, err)
	}
	return res.UserID
}

func login(t testing.TB, engine *Engine, email string) TokenPair {
	t.Helper()

	pair, err := engine.Login(context.Background(), LoginRequest{Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("login %s failed: %v", email, err)
	}
	return pair
}

func (env *testEnv) refreshKeys(userID string) []string {
	prefix := "refresh:" + userID + ":"
	var out []string
	for _, k := range env.mr.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (env *testEnv) user(t *testing.T, userID string) directory.User {
	t.Helper()

	u, err := env.dir.FindByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("FindByID %s failed: %v", userID, err)
	}
	return u
}

func requireKind(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error of kind %s, got %v", kind, err)
	}
	if ae.Kind != kind {
		t.Fatalf("expected kind %s, got %s (reason %q)", kind, ae.Kind, ae.Reason)
	}
	return ae
}

var errDirectoryDown = errors.New("directory down")

// faultyDirectory wraps a Directory and fails selected calls on demand.
type faultyDirectory struct {
	directory.Directory

	mu              sync.Mutex
	failIncrements  int
	failLastLogin   bool
	incrementsTried int
}

func (d *faultyDirectory) Update(ctx context.Context, id string, p directory.Patch) (directory.User, error) {
	d.mu.Lock()
	fail := d.failLastLogin && p.LastLogin != nil
	d.mu.Unlock()
	if fail {
		return directory.User{}, errDirectoryDown
	}
	return d.Directory.Update(ctx, id, p)
}

func (d *faultyDirectory) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	d.mu.Lock()
	d.incrementsTried++
	fail := d.failIncrements > 0
	if fail {
		d.failIncrements--
	}
	d.mu.Unlock()
	if fail {
		return 0, errDirectoryDown
	}
	return d.Directory.IncrementTokenVersion(ctx, id)
}

// newFaultyEngine builds an engine whose directory is a faultyDirectory over
// the usual in-memory directory.
func newFaultyEngine(t *testing.T, cfg Config) (*Engine, *testEnv, *faultyDirectory) {
	t.Helper()

	faulty := &faultyDirectory{}
	engine, env := newTestEngine(t, cfg, func(b *Builder) {
		b.WithDirectory(faulty)
	})
	faulty.Directory = env.dir
	return engine, env, faulty
}
