package ratelimit_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tobiaswld/chatdesk/internal/ratelimit"
)

func TestMemoryRejectsOverCeiling(t *testing.T) {
	limiter := ratelimit.NewMemory(5, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("allow returned error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("allow returned error: %v", err)
	}
	if allowed {
		t.Fatalf("request over ceiling should be rejected")
	}
}

func TestMemoryTracksClientsIndependently(t *testing.T) {
	limiter := ratelimit.NewMemory(1, time.Minute)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "1.2.3.4"); !allowed {
		t.Fatalf("first client should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "1.2.3.4"); allowed {
		t.Fatalf("first client should now be limited")
	}
	if allowed, _ := limiter.Allow(ctx, "5.6.7.8"); !allowed {
		t.Fatalf("second client should be unaffected")
	}
}

func TestRedisFixedWindow(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	ctx := context.Background()

	client, err := ratelimit.NewRedisClient(ctx, addr)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	defer client.Close()

	limiter := ratelimit.NewRedis(client, 3, time.Minute)
	key := "test-" + uuid.NewString()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, key)
		if err != nil {
			t.Fatalf("allow returned error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		t.Fatalf("allow returned error: %v", err)
	}
	if allowed {
		t.Fatalf("fourth request in window should be rejected")
	}
}
