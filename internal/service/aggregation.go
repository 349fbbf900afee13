package service

import (
	"time"

	"github.com/noah-isme/sma-score-portal/internal/models"
)

// Aggregate computes per-plan subject figures. Every registered plan gets an entry, students of
// unknown plans are skipped and a missing score counts as 0 for its subject.
func Aggregate(cfg models.PlanConfig, students []models.Student) map[string]*models.PlanAggregate {
	result := make(map[string]*models.PlanAggregate, len(cfg.Plans))
	for _, plan := range cfg.Plans {
		subjects := make(map[string]*models.SubjectAggregate, len(plan.Subjects))
		for _, subject := range plan.Subjects {
			subjects[subject.Key] = &models.SubjectAggregate{}
		}
		result[plan.Key] = &models.PlanAggregate{PlanKey: plan.Key, Subjects: subjects}
	}

	for _, student := range students {
		agg, ok := result[models.NormalizePlanKey(student.StudyPlan)]
		if !ok {
			continue
		}
		agg.Count++
		for key, subject := range agg.Subjects {
			subject.Add(student.Scores.Score(key))
		}
	}
	return result
}

// MergeStatistics builds the published document of one plan. A non-nil override value replaces
// the computed one; the raw overrides are kept in Custom.
func MergeStatistics(cfg models.PlanConfig, agg *models.PlanAggregate, custom map[string]models.StatisticOverride, now time.Time) models.PlanStatistics {
	planKey := ""
	count := 0
	if agg != nil {
		planKey = agg.PlanKey
		count = agg.Count
	}

	kept := make(map[string]models.StatisticOverride, len(custom))
	for key, override := range custom {
		kept[key] = override
	}

	subjects := make(map[string]models.SubjectStatistics)
	for _, subject := range cfg.Subjects(planKey) {
		var computed models.SubjectAggregate
		if agg != nil && agg.Subjects[subject.Key] != nil {
			computed = *agg.Subjects[subject.Key]
		}
		override := kept[subject.Key]
		subjects[subject.Key] = models.SubjectStatistics{
			Label:    subject.Label,
			FullMark: subject.FullMark,
			Max:      firstValue(override.Max, computed.MaxValue()),
			Min:      firstValue(override.Min, computed.MinValue()),
			Avg:      firstValue(override.Avg, computed.Avg()),
		}
	}

	return models.PlanStatistics{
		PlanKey:   planKey,
		Label:     cfg.Label(planKey),
		Count:     count,
		Subjects:  subjects,
		Custom:    kept,
		UpdatedAt: now,
	}
}

func firstValue(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
