package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

type planLoader interface {
	Load(ctx context.Context) models.PlanConfig
}

type statisticsStudentReader interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type statisticsStore interface {
	Get(ctx context.Context, planKey string) (*models.PlanStatistics, error)
	List(ctx context.Context) (map[string]models.PlanStatistics, error)
	Replace(ctx context.Context, stats models.PlanStatistics) error
}

// StatisticsService computes, publishes and serves per-plan statistics.
type StatisticsService struct {
	plans    planLoader
	students statisticsStudentReader
	store    statisticsStore
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewStatisticsService constructs a StatisticsService. cache and metrics may be nil.
func NewStatisticsService(plans planLoader, students statisticsStudentReader, store statisticsStore, cacheSvc *CacheService, metrics *MetricsService, logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{
		plans:    plans,
		students: students,
		store:    store,
		cache:    cacheSvc,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Compute returns freshly computed statistics merged with the stored overrides, in plan order.
// Nothing is written.
func (s *StatisticsService) Compute(ctx context.Context) ([]models.PlanStatistics, error) {
	cfg := s.plans.Load(ctx)
	return s.compute(ctx, cfg)
}

// Refresh computes and publishes the statistics of every plan.
func (s *StatisticsService) Refresh(ctx context.Context) ([]models.PlanStatistics, error) {
	cfg := s.plans.Load(ctx)
	stats, err := s.compute(ctx, cfg)
	if err != nil {
		s.metrics.RecordStatsPublish(nil, err)
		return nil, err
	}
	for _, plan := range stats {
		if err := s.store.Replace(ctx, plan); err != nil {
			s.metrics.RecordStatsPublish(nil, err)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish statistics")
		}
	}
	s.cache.Forget(ctx)
	for _, plan := range stats {
		s.cache.Remember(ctx, plan)
	}
	s.metrics.RecordStatsPublish(stats, nil)
	s.logger.Info("statistics published", zap.Int("plans", len(stats)))
	return stats, nil
}

// SaveOverrides replaces the custom values of one plan and republishes it.
func (s *StatisticsService) SaveOverrides(ctx context.Context, planKey string, custom map[string]models.StatisticOverride) (*models.PlanStatistics, error) {
	cfg := s.plans.Load(ctx)
	planKey = models.NormalizePlanKey(planKey)
	if !cfg.HasPlan(planKey) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
	}
	if err := validateOverrides(cfg, planKey, custom); err != nil {
		return nil, err
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	agg := Aggregate(cfg, students)[planKey]
	stats := MergeStatistics(cfg, agg, custom, s.now())
	if err := s.store.Replace(ctx, stats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish statistics")
	}
	s.cache.Remember(ctx, stats)
	s.logger.Info("statistics overrides saved", zap.String("plan", planKey), zap.Int("subjects", len(custom)))
	return &stats, nil
}

// Published returns the last published statistics of a plan, served from Redis when possible.
func (s *StatisticsService) Published(ctx context.Context, planKey string) (*models.PlanStatistics, error) {
	stats, _, err := s.PublishedCached(ctx, planKey)
	return stats, err
}

// PublishedCached is Published that also reports whether the cache served the document.
func (s *StatisticsService) PublishedCached(ctx context.Context, planKey string) (*models.PlanStatistics, bool, error) {
	planKey = models.NormalizePlanKey(planKey)
	if cached, hit := s.cache.Statistics(ctx, planKey); hit {
		return cached, true, nil
	}

	stats, err := s.store.Get(ctx, planKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "statistics not published")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statistics")
	}
	s.cache.Fill(ctx, *stats)
	return stats, false, nil
}

func (s *StatisticsService) compute(ctx context.Context, cfg models.PlanConfig) ([]models.PlanStatistics, error) {
	start := time.Now()
	students, err := s.students.ListAll(ctx)
	s.metrics.ObserveDBQuery("students_list_all", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	existing, err := s.store.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load published statistics")
	}

	aggregates := Aggregate(cfg, students)
	now := s.now()
	result := make([]models.PlanStatistics, 0, len(cfg.Plans))
	for _, planKey := range cfg.PlanKeys() {
		result = append(result, MergeStatistics(cfg, aggregates[planKey], existing[planKey].Custom, now))
	}
	return result, nil
}

func validateOverrides(cfg models.PlanConfig, planKey string, custom map[string]models.StatisticOverride) error {
	subjects := make(map[string]float64)
	for _, subject := range cfg.Subjects(planKey) {
		subjects[subject.Key] = subject.FullMark
	}
	problems := make(map[string]string)
	for key, override := range custom {
		fullMark, ok := subjects[key]
		if !ok {
			problems[key] = "subject is not part of the plan"
			continue
		}
		for name, value := range map[string]*float64{"max": override.Max, "min": override.Min, "avg": override.Avg} {
			if value == nil {
				continue
			}
			if math.IsNaN(*value) || *value < 0 || *value > fullMark {
				problems[key] = fmt.Sprintf("%s must be between 0 and %g", name, fullMark)
			}
		}
	}
	if len(problems) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid statistics overrides"), problems)
	}
	return nil
}
