package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

// StatisticsCache is the Redis view of published plan statistics.
type StatisticsCache interface {
	Get(ctx context.Context, planKey string) (*models.PlanStatistics, error)
	Put(ctx context.Context, stats models.PlanStatistics, ttl time.Duration) error
	Add(ctx context.Context, stats models.PlanStatistics, ttl time.Duration) (bool, error)
	Evict(ctx context.Context, planKeys ...string) error
}

// CacheService fronts the published statistics read path and records cache metrics.
// Cache failures are logged and never surface to callers.
type CacheService struct {
	repo    StatisticsCache
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. A non-positive ttl means ten minutes.
func NewCacheService(repo StatisticsCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Statistics returns the cached document of a plan and whether it was a hit.
func (s *CacheService) Statistics(ctx context.Context, planKey string) (*models.PlanStatistics, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	stats, err := s.repo.Get(ctx, planKey)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("statistics cache read failed", zap.String("plan", planKey), zap.Error(err))
		}
		return nil, false
	}
	return stats, true
}

// Remember stores a freshly published document, replacing any cached copy.
func (s *CacheService) Remember(ctx context.Context, stats models.PlanStatistics) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Put(ctx, stats, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("statistics cache write failed", zap.String("plan", stats.PlanKey), zap.Error(err))
	}
}

// Fill caches a document read from the store on a miss. An entry written by a publish
// in the meantime is kept, so a slow reader cannot put an older document back.
func (s *CacheService) Fill(ctx context.Context, stats models.PlanStatistics) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	_, err := s.repo.Add(ctx, stats, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("statistics cache fill failed", zap.String("plan", stats.PlanKey), zap.Error(err))
	}
}

// Forget evicts the named plans, or all of them when none are named.
func (s *CacheService) Forget(ctx context.Context, planKeys ...string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Evict(ctx, planKeys...); err != nil {
		s.logger.Warn("statistics cache eviction failed", zap.Strings("plans", planKeys), zap.Error(err))
	}
}
