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
	"github.com/tickora/goSession/credential"
)

func main() {
	var (
		records     = flag.Int("records", 100000, "number of session records to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (load + rotate)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gosess-bench", "keyring key prefix")
	)
	flag.Parse()

	if *records <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "records, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
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
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	keyring := credential.NewRedisKeyring(client, *prefix, 24*time.Hour)

	slots := make([]string, *records)
	fmt.Printf("seeding %d session records...\n", *records)
	startSeed := time.Now()
	for i := 0; i < *records; i++ {
		slot := fmt.Sprintf("bench:session:%d", i)
		slots[i] = slot
		data, err := credential.EncodeSession(buildSession(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
			os.Exit(1)
		}
		if err := keyring.Store(ctx, slot, data); err != nil {
			fmt.Fprintf(os.Stderr, "store failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loadStats := runLoadPhase(ctx, keyring, slots, *ops, *concurrency)
	rotateStats := runRotatePhase(ctx, keyring, slots, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("load", loadStats)
	printStats("rotate", rotateStats)
}

// runLoadPhase measures the hydrate path: load a slot and decode it.
func runLoadPhase(ctx context.Context, keyring credential.Keyring, slots []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				slot := slots[r.Intn(len(slots))]
				t0 := time.Now()
				data, err := keyring.Load(ctx, slot)
				if err == nil {
					_, err = credential.DecodeSession(data)
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runRotatePhase measures the write-through path after a token rotation:
// decode, swap the token pair, re-encode and store.
func runRotatePhase(ctx context.Context, keyring credential.Keyring, slots []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				slot := slots[r.Intn(len(slots))]
				t0 := time.Now()
				err := rotate(ctx, keyring, slot, i, worker)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func rotate(ctx context.Context, keyring credential.Keyring, slot string, op, worker int) error {
	data, err := keyring.Load(ctx, slot)
	if err != nil {
		return err
	}
	sess, err := credential.DecodeSession(data)
	if err != nil {
		return err
	}

	sess.AccessToken = fmt.Sprintf("access-%d-%d", op, worker)
	sess.RefreshToken = fmt.Sprintf("refresh-%d-%d", op, worker)
	sess.AccessExpiry = time.Now().Add(time.Hour)

	next, err := credential.EncodeSession(sess)
	if err != nil {
		return err
	}
	return keyring.Store(ctx, slot, next)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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

func buildSession(i int) *credential.Session {
	now := time.Now()
	return &credential.Session{
		Role:         credential.RoleAttendee,
		AccessToken:  fmt.Sprintf("access-seed-%d", i),
		RefreshToken: fmt.Sprintf("refresh-seed-%d", i),
		AccessExpiry: now.Add(time.Hour),
		LocalExpiry:  now.Add(7 * 24 * time.Hour),
		Profile: credential.Profile{
			FirstName:        "Bench",
			LastName:         fmt.Sprintf("User%d", i),
			Email:            fmt.Sprintf("bench-%d@example.com", i),
			EmailConfirmedAt: now,
		},
	}
}
