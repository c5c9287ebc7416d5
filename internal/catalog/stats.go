package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
)

// UsageStats tracks how a template has performed over time.
type UsageStats struct {
	Uses              int64     `json:"uses"`
	Successes         int64     `json:"successes"`
	Failures          int64     `json:"failures"`
	LastUsed          time.Time `json:"lastUsed"`
	AvgGenerationTime float64   `json:"avgGenerationTimeMs"`
}

// StatsStore persists per-template usage stats.
type StatsStore interface {
	Record(ctx context.Context, templateID string, success bool, genTime time.Duration) error
	Get(ctx context.Context, templateID string) (UsageStats, error)
}

// MemoryStatsStore keeps stats in process memory behind a mutex.
type MemoryStatsStore struct {
	mu      sync.Mutex
	uses    map[string]int64
	success map[string]int64
	failure map[string]int64
	lastUse map[string]time.Time
	totalMs map[string]float64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		uses:    make(map[string]int64),
		success: make(map[string]int64),
		failure: make(map[string]int64),
		lastUse: make(map[string]time.Time),
		totalMs: make(map[string]float64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, templateID string, success bool, genTime time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uses[templateID]++
	if success {
		s.success[templateID]++
	} else {
		s.failure[templateID]++
	}
	s.lastUse[templateID] = time.Now().UTC()
	s.totalMs[templateID] += float64(genTime.Microseconds()) / 1000.0
	return nil
}

func (s *MemoryStatsStore) Get(_ context.Context, templateID string) (UsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := UsageStats{
		Uses:      s.uses[templateID],
		Successes: s.success[templateID],
		Failures:  s.failure[templateID],
		LastUsed:  s.lastUse[templateID],
	}
	if stats.Uses > 0 {
		stats.AvgGenerationTime = s.totalMs[templateID] / float64(stats.Uses)
	}
	return stats, nil
}

const redisStatsPrefix = "combadge:stats:"

// RedisStatsStore persists stats as Redis hashes so counters survive
// restarts and aggregate across instances.
type RedisStatsStore struct {
	client *redis.Client
}

func NewRedisStatsStore(cfg config.RedisConfig) *RedisStatsStore {
	return &RedisStatsStore{
		client: redis.NewClient(&redis.Options{
			Addr:         cfg.Address,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 5,
		}),
	}
}

// NewRedisStatsStoreFromClient wraps an existing client, mainly for tests.
func NewRedisStatsStoreFromClient(client *redis.Client) *RedisStatsStore {
	return &RedisStatsStore{client: client}
}

// Ping tests the Redis connection.
func (s *RedisStatsStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStatsStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *RedisStatsStore) Record(ctx context.Context, templateID string, success bool, genTime time.Duration) error {
	key := redisStatsPrefix + templateID

	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, "uses", 1)
	if success {
		pipe.HIncrBy(ctx, key, "successes", 1)
	} else {
		pipe.HIncrBy(ctx, key, "failures", 1)
	}
	pipe.HSet(ctx, key, "last_used", time.Now().UTC().Format(time.RFC3339))
	pipe.HIncrByFloat(ctx, key, "total_ms", float64(genTime.Microseconds())/1000.0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	return nil
}

func (s *RedisStatsStore) Get(ctx context.Context, templateID string) (UsageStats, error) {
	key := redisStatsPrefix + templateID

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return UsageStats{}, fmt.Errorf("get stats: %w", err)
	}

	var stats UsageStats
	stats.Uses = parseInt(fields["uses"])
	stats.Successes = parseInt(fields["successes"])
	stats.Failures = parseInt(fields["failures"])
	if raw, ok := fields["last_used"]; ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			stats.LastUsed = ts
		}
	}
	if stats.Uses > 0 {
		stats.AvgGenerationTime = parseFloat(fields["total_ms"]) / float64(stats.Uses)
	}
	return stats, nil
}

func parseInt(s string) int64 {
	var v int64
	fmt.Sscanf(s, "%d", &v)
	return v
}

func parseFloat(s string) float64 {
	var v float64
	fmt.Sscanf(s, "%g", &v)
	return v
}
