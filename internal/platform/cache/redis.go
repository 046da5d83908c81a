package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(addr, password string, db int) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	log.Println("Successfully connected to Redis")
	return rdb
}

// FixedWindowCounter counts hits per key in fixed windows, backing the
// IP rate limiter. The window TTL is set only when the key is first created,
// so the window resets rather than slides.
type FixedWindowCounter struct {
	rdb *redis.Client
}

func NewFixedWindowCounter(rdb *redis.Client) *FixedWindowCounter {
	return &FixedWindowCounter{rdb: rdb}
}

func (c *FixedWindowCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return count.Val(), nil
}
