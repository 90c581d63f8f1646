// Command authcore-loadtest measures guard and refresh-rotation throughput
// against Redis, or an in-process miniredis when no address is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/directory"
	"github.com/MrEthical07/authcore/directory/memory"
	"github.com/MrEthical07/authcore/password"
)

const loadPassword = "load-test-password-1"

type sessionState struct {
	mu     sync.Mutex
	access string
	pair   authcore.TokenPair
}

func main() {
	var (
		users       = flag.Int("users", 1000, "number of users to seed and log in")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (authenticate + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, AUTH_REDIS_ADDR env or miniredis is used")
		namespace   = flag.String("namespace", "loadtest:", "ephemeral key namespace")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("AUTH_REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, dir, err := newEngine(client, *namespace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d users...\n", *users)
	startSeed := time.Now()
	states, err := seed(ctx, engine, dir, *users, *concurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	guardStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		s := states[r.Intn(len(states))]
		s.mu.Lock()
		token := s.access
		s.mu.Unlock()
		_, err := engine.Authenticate(ctx, token)
		return err
	})
	refreshStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		s := states[r.Intn(len(states))]
		s.mu.Lock()
		defer s.mu.Unlock()
		pair, err := engine.Refresh(ctx, authcore.RefreshRequest{RefreshToken: s.pair.RefreshToken})
		if err != nil {
			return err
		}
		s.pair = pair
		s.access = pair.AccessToken
		return nil
	})

	fmt.Println("---- results ----")
	printStats("authenticate", guardStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("reuse detections: %d\n", snap.Counters[authcore.MetricRefreshReuseDetected])
}

func newEngine(client redis.UniversalClient, namespace string) (*authcore.Engine, *memory.Directory, error) {
	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-secret-loadtest-secret!")
	cfg.Keys.Namespace = namespace

	dir := memory.New()
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(dir).
		Build()
	return engine, dir, err
}

// seed creates verified users sharing one password hash, then logs each in
// once so every state starts with a live refresh token.
func seed(ctx context.Context, engine *authcore.Engine, dir *memory.Directory, users, concurrency int) ([]*sessionState, error) {
	hasher, err := password.New(password.DefaultConfig())
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(loadPassword)
	if err != nil {
		return nil, err
	}

	states := make([]*sessionState, users)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range users {
		g.Go(func() error {
			email := fmt.Sprintf("user-%d@loadtest.local", i)
			if _, err := dir.Create(gctx, directory.User{
				Email:         email,
				Username:      fmt.Sprintf("user-%d", i),
				PasswordHash:  hash,
				AccountStatus: directory.StatusActive,
				IsVerified:    true,
				Role:          directory.RoleClient,
			}); err != nil {
				return err
			}
			pair, err := engine.Login(gctx, authcore.LoginRequest{Email: email, Password: loadPassword})
			if err != nil {
				return fmt.Errorf("login %s: %w", email, err)
			}
			states[i] = &sessionState{access: pair.AccessToken, pair: pair}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func runPhase(ops, concurrency int, seedMul int64, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*seedMul))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
