package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/tokenstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		kind        = flag.String("store", "redis", "token store: memory, file or redis")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (get + set)")
		readRatio   = flag.Int("read-ratio", 90, "percentage of reads in the mixed phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gosession-loadtest", "redis key prefix")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 || *readRatio < 0 || *readRatio > 100 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0, read-ratio within 0..100")
		os.Exit(2)
	}

	ctx := context.Background()

	store, cleanup, err := openStore(*kind, *redisAddr, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := store.Set(ctx, "access-0", "refresh-0"); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	getStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		if _, ok := store.Get(ctx, tokenstore.Access); !ok {
			return fmt.Errorf("missing access token")
		}
		return nil
	})

	mixedStats := runPhase(*ops, *concurrency, func(r *rand.Rand, i int) error {
		if r.Intn(100) < *readRatio {
			_, _ = store.Get(ctx, tokenstore.Refresh)
			return nil
		}
		n := i + 1
		return store.Set(ctx, fmt.Sprintf("access-%d", n), fmt.Sprintf("refresh-%d", n))
	})

	fmt.Println("---- results ----")
	printStats("get", getStats)
	printStats("mixed", mixedStats)

	// With writers quiesced, the stored pair must come from a single write.
	access, okA := store.Get(ctx, tokenstore.Access)
	refresh, okR := store.Get(ctx, tokenstore.Refresh)
	if !okA || !okR || strings.TrimPrefix(access, "access-") != strings.TrimPrefix(refresh, "refresh-") {
		fmt.Fprintf(os.Stderr, "torn pair: access=%q refresh=%q\n", access, refresh)
		os.Exit(1)
	}
	fmt.Printf("final pair consistent (%s)\n", access)
}

func openStore(kind, addr, prefix string) (tokenstore.Store, func(), error) {
	switch kind {
	case "memory":
		return tokenstore.NewMemoryStore(), func() {}, nil
	case "file":
		dir, err := os.MkdirTemp("", "gosession-loadtest")
		if err != nil {
			return nil, nil, err
		}
		s, err := tokenstore.NewFileStore(filepath.Join(dir, "session.json"))
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, nil, err
		}
		fmt.Printf("using file store in %s\n", dir)
		return s, func() { _ = os.RemoveAll(dir) }, nil
	case "redis":
	default:
		return nil, nil, fmt.Errorf("unknown store %q", kind)
	}

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
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
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
	return tokenstore.NewRedisStore(client, prefix, 0), cleanup, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
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
				t0 := time.Now()
				err := op(r, i)
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
