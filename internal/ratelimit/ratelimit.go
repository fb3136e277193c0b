package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter answers whether a client identified by key may proceed within the
// configured window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Memory limits per client with token buckets sized to the window ceiling.
// Suitable for a single process.
type Memory struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewMemory(max int, window time.Duration) *Memory {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Memory{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(max) / window.Seconds()),
		burst:    max,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	limiter, ok := m.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(m.limit, m.burst)
		m.limiters[key] = limiter
	}
	m.mu.Unlock()

	return limiter.Allow(), nil
}

// Redis counts requests in fixed windows shared across replicas.
type Redis struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewRedis(client *redis.Client, max int, window time.Duration) *Redis {
	if max <= 0 {
		max = 100
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Redis{client: client, window: window, max: max}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().Unix() / int64(r.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	pipe := r.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit: redis incr: %w", err)
	}

	return count.Val() <= int64(r.max), nil
}

// NewRedisClient dials and pings a Redis instance.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("ratelimit: redis address is empty")
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ratelimit: ping redis: %w", err)
	}

	return client, nil
}
