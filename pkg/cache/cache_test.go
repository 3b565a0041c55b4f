package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sbrg/gds/pkg/config"
	"github.com/sbrg/gds/pkg/observability"
)

func init() { retryDelay = time.Millisecond }

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "graph:x"); hit {
		t.Error("empty cache should miss")
	}
	if err := c.Set(ctx, "graph:x", []byte("payload"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "graph:x")
	if err != nil || !hit || string(data) != "payload" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	// No TTL never expires.
	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry should hit")
	}

	if err := c.Delete(ctx, "graph:x"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "graph:x"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "graph:x"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiredAndCorrupt(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}

	path := c.path("bad")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = os.WriteFile(path, []byte("{not json"), 0o644)
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	gk1 := k.GraphKey("neo4j:bolt://db/neo4j", GraphKeyOpts{NodeLabels: []string{"Gene"}})
	gk2 := k.GraphKey("neo4j:bolt://db/neo4j", GraphKeyOpts{NodeLabels: []string{"Gene"}, Limit: 10})
	if gk1 == gk2 {
		t.Error("Different GraphKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(gk1, "graph:") {
		t.Errorf("GraphKey = %s", gk1)
	}

	rk1 := k.ResultKey("h", ResultKeyOpts{Analysis: "trace", Params: map[string]any{"mode": "each-pair"}})
	rk2 := k.ResultKey("h", ResultKeyOpts{Analysis: "trace", Params: map[string]any{"mode": "set-to-set"}})
	if rk1 == rk2 {
		t.Error("Different params should produce different keys")
	}

	if k.ArtifactKey("r", "svg") == k.ArtifactKey("r", "xlsx") {
		t.Error("Different formats should produce different keys")
	}
	if got := k.RunKey("abc", "json"); got != "run:abc:json" {
		t.Errorf("RunKey = %s", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "staging:")

	if got := scoped.RunKey("abc", "svg"); got != "staging:run:abc:svg" {
		t.Errorf("RunKey = %s", got)
	}
	gk := scoped.GraphKey("file:x", GraphKeyOpts{})
	if !strings.HasPrefix(gk, "staging:graph:") {
		t.Errorf("GraphKey should be prefixed: %s", gk)
	}
	if keyType(gk) != "graph" {
		t.Errorf("keyType(%s) = %s", gk, keyType(gk))
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrBackend)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrBackend) || err.Error() != ErrBackend.Error() {
		t.Errorf("wrapped error lost: %v", err)
	}
	if IsRetryable(ErrUnknownBackend) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return ErrUnknownBackend
	})
	if err != ErrUnknownBackend || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrBackend)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrBackend)
	})
	if !errors.Is(err, ErrBackend) || calls != 3 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrBackend)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

type countingHooks struct {
	mu                sync.Mutex
	hits, misses, set int
}

func (h *countingHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits++
}

func (h *countingHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses++
}

func (h *countingHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.set++
}

func TestOpenInstrumented(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	c, err := Open(ctx, config.CacheConfig{Backend: config.BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, _, _ = c.Get(ctx, "result:x")
	_ = c.Set(ctx, "result:x", []byte("1"), time.Minute)
	_, _, _ = c.Get(ctx, "result:x")
	if hooks.hits != 1 || hooks.misses != 1 || hooks.set != 1 {
		t.Errorf("hooks = %d hits, %d misses, %d sets", hooks.hits, hooks.misses, hooks.set)
	}

	if _, err := Open(ctx, config.CacheConfig{Backend: "memcached"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("unknown backend: %v", err)
	}
}

// Remote backends run only when a server is provided.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GDS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GDS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "gds-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("GDS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GDS_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	c, err := NewMongoCache(ctx, MongoOptions{URI: uri, Database: "gds_test", Collection: "cache"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

func exerciseBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := "artifact:" + t.Name()
	_ = c.Delete(ctx, key)

	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Fatalf("initial Get: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, key, []byte("svg"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "svg" {
		t.Fatalf("Get = %q %v %v", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("deleted key should miss")
	}
}
