package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// newTestRedis connects to GVBIND_TEST_REDIS_ADDR or skips.
func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("GVBIND_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GVBIND_TEST_REDIS_ADDR not set")
	}
	c, err := NewRedisCache(context.Background(), RedisConfig{
		Addr:   addr,
		Prefix: "gvbind-test:" + uuid.NewString() + ":",
	})
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		c.Close()
	})
	return c
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("empty Get: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted key still present")
	}
}

func TestRedisCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)

	for _, k := range []string{"a", "b"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Clear left keys behind")
	}
}

func TestRedisCache_ClearNeedsPrefix(t *testing.T) {
	c := NewRedisCacheFromClient(nil, "")
	if err := c.Clear(context.Background()); err == nil {
		t.Error("Clear without a prefix must fail")
	}
}
