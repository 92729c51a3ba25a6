package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"questmatch/app/models"
	"questmatch/config"
)

// Service handles all Redis-related operations
type Service struct {
	client *redis.Client
	ctx    context.Context
}

// NewService creates a new Redis service instance
func NewService() *Service {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisURL,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
		// Connection pool settings
		PoolSize:     10,
		MinIdleConns: 5,
		// Timeout settings
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()

	// Test the connection
	_, err := client.Ping(ctx).Result()
	if err != nil {
		// Silent fail - Redis might not be available; callers fall
		// back to the match store for counts
	}

	return &Service{
		client: client,
		ctx:    ctx,
	}
}

// Close closes the Redis connection
func (r *Service) Close() error {
	return r.client.Close()
}

// Set stores a key-value pair in Redis
func (r *Service) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %v", err)
	}

	err = r.client.Set(r.ctx, key, jsonValue, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %v", key, err)
	}
	return nil
}

// Get retrieves a value from Redis
func (r *Service) Get(key string, dest interface{}) error {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %v", key, err)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %v", key, err)
	}
	return nil
}

// Delete removes a key from Redis
func (r *Service) Delete(key string) error {
	err := r.client.Del(r.ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %v", key, err)
	}
	return nil
}

const (
	statsCacheKey = "queue:stats"
	statsCacheTTL = 5 * time.Second
)

// SetStats caches the stats aggregate for a few seconds so bursts of
// stats requests do not scan the waiting pool every time.
func (r *Service) SetStats(stats *models.QueueStatsResponse) error {
	return r.Set(statsCacheKey, stats, statsCacheTTL)
}

// GetStats reads the cached stats aggregate. A missing or expired key
// is an error; the caller recomputes from the stores.
func (r *Service) GetStats(dest *models.QueueStatsResponse) error {
	return r.Get(statsCacheKey, dest)
}

// dailyMatchKey builds the per-day created-match counter key
func dailyMatchKey(day time.Time) string {
	return fmt.Sprintf("queue:matches:%s", day.UTC().Format("2006-01-02"))
}

// IncrementDailyMatches bumps the created-match counter for the given
// calendar day. The key expires after two days; stats only ever read
// the current day.
func (r *Service) IncrementDailyMatches(day time.Time) error {
	key := dailyMatchKey(day)
	count, err := r.client.Incr(r.ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment counter %s: %v", key, err)
	}
	if count == 1 {
		if err := r.client.Expire(r.ctx, key, 48*time.Hour).Err(); err != nil {
			return fmt.Errorf("failed to set expiration for %s: %v", key, err)
		}
	}

	// A new match invalidates the cached stats aggregate. Best-effort:
	// a surviving cache entry expires on its own within seconds.
	_ = r.Delete(statsCacheKey)

	return nil
}

// DailyMatches reads the created-match counter for the given day. A
// missing key is an error so callers fall back to the authoritative
// match store count instead of trusting a counter that may have been
// evicted.
func (r *Service) DailyMatches(day time.Time) (int64, error) {
	key := dailyMatchKey(day)
	count, err := r.client.Get(r.ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("daily match counter %s not found", key)
		}
		return 0, fmt.Errorf("failed to get counter %s: %v", key, err)
	}
	return count, nil
}

// GetClient returns the Redis client for advanced operations
func (r *Service) GetClient() *redis.Client {
	return r.client
}

// GetContext returns the Redis context
func (r *Service) GetContext() context.Context {
	return r.ctx
}
