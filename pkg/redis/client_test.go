package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/franchisehub/backoffice/pkg/config"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	scope := "login:email:3f1c"

	for i := int64(1); i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, scope, 2, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed || count != i {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}
	allowed, count, err := client.FixedWindowAllow(ctx, scope, 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed || count != 3 {
		t.Fatalf("expected third call to be limited, allowed=%v count=%d", allowed, count)
	}

	key := client.RateLimitKey(scope)
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected window ttl on %s, got %v", key, ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	allowed, count, err = client.FixedWindowAllow(ctx, scope, 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected a fresh window, allowed=%v count=%d", allowed, count)
	}
}

func TestFixedWindowDoesNotExtendWindow(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	if _, _, err := client.FixedWindowAllow(ctx, "login:ip:10.0.0.1", 5, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(40 * time.Second)
	if _, _, err := client.FixedWindowAllow(ctx, "login:ip:10.0.0.1", 5, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL(client.RateLimitKey("login:ip:10.0.0.1")); ttl != 20*time.Second {
		t.Fatalf("later hits must not restart the window, ttl=%v", ttl)
	}
}

func TestIdempotencyRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.IdempotencyKey("user-1|global|POST|/api/franchises", "abc")
	ok, err := client.SetNX(ctx, key, "pending", time.Hour)
	if err != nil || !ok {
		t.Fatalf("expected first reservation, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "pending", time.Hour)
	if err != nil || ok {
		t.Fatalf("expected second reservation to fail, ok=%v err=%v", ok, err)
	}

	if err := client.Set(ctx, key, "done", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, err := client.Get(ctx, key); err != nil || got != "done" {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestPingAndUninitializedClient(t *testing.T) {
	client, _ := newTestClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	empty := &Client{}
	if err := empty.Ping(context.Background()); !errors.Is(err, errNoConnection) {
		t.Fatalf("expected errNoConnection, got %v", err)
	}
	if _, _, err := empty.FixedWindowAllow(context.Background(), "s", 1, time.Second); !errors.Is(err, errNoConnection) {
		t.Fatalf("expected errNoConnection, got %v", err)
	}
	if err := empty.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@cache.internal:6380/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache.internal:6380" || opts.DB != 2 || opts.Password != "secret" || opts.PoolSize != 7 {
		t.Fatalf("unexpected options %+v", opts)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 3, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 3 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "bo:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "bo:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey(" ", "id"); got != "bo:idempotency:id" {
		t.Fatalf("blank parts should be skipped, got %s", got)
	}
}
