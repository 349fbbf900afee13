package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/pkg/cache"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

const scanBatch = 100

// StatisticsCacheRepository keeps published plan statistics in Redis under score-portal:stats:<plan>.
type StatisticsCacheRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewStatisticsCacheRepository constructs the repository. A nil client turns every read into a miss.
func NewStatisticsCacheRepository(client redis.UniversalClient, logger *zap.Logger) *StatisticsCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsCacheRepository{client: client, logger: logger}
}

func statisticsKey(planKey string) string {
	return cache.Key("stats", planKey)
}

// Get returns the cached document of one plan or appErrors.ErrCacheMiss.
func (r *StatisticsCacheRepository) Get(ctx context.Context, planKey string) (*models.PlanStatistics, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := statisticsKey(planKey)
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, appErrors.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var stats models.PlanStatistics
	if err := json.Unmarshal(raw, &stats); err != nil || stats.PlanKey != planKey {
		r.logger.Warn("dropping unusable statistics cache entry", zap.String("key", key), zap.Error(err))
		_ = r.client.Del(ctx, key).Err()
		return nil, appErrors.ErrCacheMiss
	}
	return &stats, nil
}

// Put stores the document under its own plan key.
func (r *StatisticsCacheRepository) Put(ctx context.Context, stats models.PlanStatistics, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal statistics %s: %w", stats.PlanKey, err)
	}
	key := statisticsKey(stats.PlanKey)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Add stores the document only when no entry for the plan exists yet.
// It reports whether the document was stored.
func (r *StatisticsCacheRepository) Add(ctx context.Context, stats models.PlanStatistics, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, nil
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return false, fmt.Errorf("marshal statistics %s: %w", stats.PlanKey, err)
	}
	key := statisticsKey(stats.PlanKey)
	stored, err := r.client.SetNX(ctx, key, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return stored, nil
}

// Evict removes the given plans, or every cached plan when none are named.
func (r *StatisticsCacheRepository) Evict(ctx context.Context, planKeys ...string) error {
	if r.client == nil {
		return nil
	}
	if len(planKeys) > 0 {
		keys := make([]string, 0, len(planKeys))
		for _, planKey := range planKeys {
			keys = append(keys, statisticsKey(planKey))
		}
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis delete statistics: %w", err)
		}
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, cache.Pattern("stats"), scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan statistics: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete statistics: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
