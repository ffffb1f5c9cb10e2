package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/irfndi/hdb-resale-go/internal/logging"
	"github.com/irfndi/hdb-resale-go/internal/models"
)

const predictionPrefix = "prediction:"

// PredictionCacheEntry is a cached price for one input record.
type PredictionCacheEntry struct {
	Price        decimal.Decimal `json:"price"`
	Strategy     string          `json:"strategy"`
	ModelVersion string          `json:"model_version"`
	Dropped      []string        `json:"dropped_columns,omitempty"`
	CachedAt     time.Time       `json:"cached_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// PredictionCacheStats tracks cache performance metrics
type PredictionCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRate returns hits as a percentage of lookups.
func (s PredictionCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// RedisPredictionCache stores prices keyed by model version, strategy and
// a digest of the input record and schema. A new model version or schema
// never sees old entries.
type RedisPredictionCache struct {
	redis  *redis.Client
	ttl    time.Duration
	ops    logging.Logger
	logger *slog.Logger

	mu    sync.RWMutex
	stats PredictionCacheStats
}

// NewRedisPredictionCache creates a new Redis-based prediction cache
func NewRedisPredictionCache(redisClient *redis.Client, ttl time.Duration, logger logging.Logger) *RedisPredictionCache {
	if logger == nil {
		logger = logging.NewStandardLoggerWithWriter(io.Discard, "error", "")
	}
	return &RedisPredictionCache{
		redis:  redisClient,
		ttl:    ttl,
		ops:    logger,
		logger: logger.WithComponent("prediction_cache"),
	}
}

// Key derives the cache key for rec scored against the given schema columns.
func Key(rec models.RawInputRecord, strategy, modelVersion string, columns []string) string {
	// Struct field order is fixed, so the encoding is canonical.
	data, _ := json.Marshal(rec)
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(columns, "\x00")))
	sum := h.Sum(nil)
	return fmt.Sprintf("%s%s:%s:%s", predictionPrefix, modelVersion, strategy, hex.EncodeToString(sum[:16]))
}

// Get returns the cached entry for key. Any Redis or decoding failure counts
// as a miss.
func (c *RedisPredictionCache) Get(ctx context.Context, key string) (*PredictionCacheEntry, bool) {
	start := time.Now()
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.count(func(s *PredictionCacheStats) { s.Misses++ })
		c.ops.LogCacheOperation("get", key, false, time.Since(start).Milliseconds())
		return nil, false
	}
	if err != nil {
		c.ops.WithOperation("cache_get").Warn("Redis error getting prediction", "key", key, "error", err.Error())
		c.count(func(s *PredictionCacheStats) { s.Misses++; s.Errors++ })
		return nil, false
	}

	var entry PredictionCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.ops.WithOperation("cache_get").Warn("Error deserializing cached prediction", "key", key, "error", err.Error())
		c.count(func(s *PredictionCacheStats) { s.Misses++; s.Errors++ })
		return nil, false
	}

	c.count(func(s *PredictionCacheStats) { s.Hits++ })
	c.ops.LogCacheOperation("get", key, true, time.Since(start).Milliseconds())
	return &entry, true
}

// Set stores a price and the columns dropped while encoding it under key
// with the configured TTL.
func (c *RedisPredictionCache) Set(ctx context.Context, key string, price decimal.Decimal, strategy, modelVersion string, dropped []string) error {
	start := time.Now()
	now := start.UTC()
	entry := PredictionCacheEntry{
		Price:        price,
		Strategy:     strategy,
		ModelVersion: modelVersion,
		Dropped:      dropped,
		CachedAt:     now,
		ExpiresAt:    now.Add(c.ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.count(func(s *PredictionCacheStats) { s.Errors++ })
		return fmt.Errorf("error serializing prediction: %w", err)
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.count(func(s *PredictionCacheStats) { s.Errors++ })
		return fmt.Errorf("redis error setting prediction: %w", err)
	}

	c.count(func(s *PredictionCacheStats) { s.Sets++ })
	c.ops.LogCacheOperation("set", key, false, time.Since(start).Milliseconds())
	return nil
}

// GetStats returns current cache statistics
func (c *RedisPredictionCache) GetStats() PredictionCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// LogStats logs current cache performance statistics
func (c *RedisPredictionCache) LogStats() {
	stats := c.GetStats()
	c.logger.Info("Prediction cache stats",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"sets", stats.Sets,
		"errors", stats.Errors,
		"hit_rate", fmt.Sprintf("%.2f%%", stats.HitRate()),
	)
}

// Clear removes all cached predictions.
func (c *RedisPredictionCache) Clear(ctx context.Context) (int, error) {
	var keys []string
	iter := c.redis.Scan(ctx, 0, predictionPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing cache: %w", err)
	}
	c.logger.Info("Cleared prediction cache", "entries", len(keys))
	return len(keys), nil
}

func (c *RedisPredictionCache) count(f func(*PredictionCacheStats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

// statsKey holds the last reported stats snapshot. It sits outside
// predictionPrefix so Clear leaves it alone.
const statsKey = "cache:analytics:prediction"

// StartPeriodicReporting logs the stats and persists a snapshot to Redis
// every interval until ctx is cancelled.
func (c *RedisPredictionCache) StartPeriodicReporting(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.reportStats(ctx)
			}
		}
	}()
}

func (c *RedisPredictionCache) reportStats(ctx context.Context) {
	c.LogStats()
	statsJSON, err := json.Marshal(c.GetStats())
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, statsKey, statsJSON, 24*time.Hour).Err(); err != nil {
		c.logger.Warn("Failed to persist prediction cache stats", "error", err.Error())
	}
}
