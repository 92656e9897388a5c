package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Readability-Scoring-Platform/internal/readability"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemBackend() *memBackend { return &memBackend{data: make(map[string][]byte)} }

func (b *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	v, ok := b.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (b *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.data[key] = value
	return nil
}

func (b *memBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			delete(b.data, k)
			n++
		}
	}
	return n, nil
}

func (b *memBackend) CountByPattern(_ context.Context, pattern string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n, nil
}

var sample = readability.Metrics{Words: 13, Syllables: 22, Sentences: 2}

func TestGetOrComputeCaches(t *testing.T) {
	c := New(newMemBackend(), time.Minute, nil)
	ctx := context.Background()
	key := c.Key("text", true, []string{"The quick brown fox."})

	calls := 0
	compute := func() (readability.Metrics, error) { calls++; return sample, nil }

	got, hit, err := c.GetOrCompute(ctx, key, compute)
	if err != nil || hit || got != sample {
		t.Fatalf("first call = %+v, %v, %v", got, hit, err)
	}
	got, hit, err = c.GetOrCompute(ctx, key, compute)
	if err != nil || !hit || got != sample {
		t.Fatalf("second call = %+v, %v, %v", got, hit, err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	stats := c.Stats(ctx)
	if stats.Hits != 1 || stats.Misses != 1 || stats.Keys != 1 || stats.HitRate != "50.0%" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestGetOrComputeSingleflight(t *testing.T) {
	c := New(newMemBackend(), time.Minute, nil)
	key := c.Key("text", false, []string{"x"})

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (readability.Metrics, error) {
		calls.Add(1)
		<-release
		return sample, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if _, _, err := c.GetOrCompute(context.Background(), key, compute); err != nil {
				t.Error(err)
			}
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("compute ran %d times, want 1", n)
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	c := New(newMemBackend(), time.Minute, nil)
	key := c.Key("text", false, []string{"y"})
	boom := errors.New("cancelled")
	if _, _, err := c.GetOrCompute(context.Background(), key, func() (readability.Metrics, error) {
		return readability.Metrics{}, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := c.Get(context.Background(), key); ok {
		t.Error("failed computation was cached")
	}
}

func TestBackendFailureFallsThrough(t *testing.T) {
	backend := newMemBackend()
	backend.err = errors.New("connection refused")
	c := New(backend, time.Minute, nil)

	for range 10 {
		got, hit, err := c.GetOrCompute(context.Background(), "score:k", func() (readability.Metrics, error) {
			return sample, nil
		})
		if err != nil || hit || got != sample {
			t.Fatalf("GetOrCompute = %+v, %v, %v", got, hit, err)
		}
	}
	if state := c.Stats(context.Background()).Breaker; state != "open" {
		t.Errorf("breaker = %s, want open", state)
	}
}

func TestKeyDistinguishesInputs(t *testing.T) {
	c := New(newMemBackend(), time.Minute, nil)
	keys := map[string]string{
		"split a":    c.Key("text", false, []string{"ab", "c"}),
		"split b":    c.Key("text", false, []string{"a", "bc"}),
		"markdown":   c.Key("markdown", false, []string{"ab", "c"}),
		"normalized": c.Key("text", true, []string{"ab", "c"}),
	}
	seen := make(map[string]string)
	for name, k := range keys {
		if !strings.HasPrefix(k, keyPrefix) {
			t.Errorf("%s key %q lacks prefix", name, k)
		}
		if other, dup := seen[k]; dup {
			t.Errorf("%s and %s share key %s", name, other, k)
		}
		seen[k] = name
	}
	if c.Key("text", false, []string{"ab"}) != c.Key("text", false, []string{"ab"}) {
		t.Error("Key is not deterministic")
	}
}

func TestInvalidate(t *testing.T) {
	backend := newMemBackend()
	c := New(backend, time.Minute, nil)
	ctx := context.Background()
	c.Set(ctx, c.Key("text", false, []string{"a"}), sample)
	c.Set(ctx, c.Key("text", false, []string{"b"}), sample)
	backend.data["other:1"] = []byte("{}")

	n, err := c.Invalidate(ctx)
	if err != nil || n != 2 {
		t.Errorf("Invalidate = %d, %v, want 2", n, err)
	}
	if len(backend.data) != 1 {
		t.Errorf("remaining keys = %d, want 1", len(backend.data))
	}
}
