package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

type documentStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Put(ctx context.Context, key string, value interface{}) error
}

// PlanService loads and replaces the study plan set.
type PlanService struct {
	docs      documentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlanService constructs a PlanService.
func NewPlanService(docs documentStore, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{docs: docs, validator: validate, logger: logger}
}

// Load returns the stored plan set, or the defaults when no usable document exists.
// Load never fails; problems with the stored document are logged.
func (s *PlanService) Load(ctx context.Context) models.PlanConfig {
	var stored models.PlanConfig
	if err := s.docs.Get(ctx, models.DocumentPlanConfig, &stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultPlanConfig()
		}
		s.logger.Warn("failed to load plan config, using defaults", zap.Error(err))
		return models.DefaultPlanConfig()
	}
	if err := stored.CheckStructure(); err != nil {
		s.logger.Warn("stored plan config rejected, using defaults", zap.Error(err))
		return models.DefaultPlanConfig()
	}
	return stored.Normalized()
}

// Get returns the plan set in effect.
func (s *PlanService) Get(ctx context.Context) dto.PlanConfigResponse {
	return planConfigResponse(s.Load(ctx))
}

// Save validates and stores a new plan set in one document write.
func (s *PlanService) Save(ctx context.Context, req dto.PlanConfigRequest) (*dto.PlanConfigResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan config payload")
	}
	cfg := planConfigFromRequest(req).Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.docs.Put(ctx, models.DocumentPlanConfig, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save plan config")
	}
	s.logger.Info("plan config replaced", zap.Strings("plans", cfg.PlanKeys()))
	resp := planConfigResponse(cfg)
	return &resp, nil
}

func planConfigFromRequest(req dto.PlanConfigRequest) models.PlanConfig {
	plans := make([]models.StudyPlan, 0, len(req.Plans))
	for _, plan := range req.Plans {
		subjects := make([]models.Subject, 0, len(plan.Subjects))
		for _, subject := range plan.Subjects {
			subjects = append(subjects, models.Subject{Key: subject.Key, Label: subject.Label, FullMark: subject.FullMark})
		}
		plans = append(plans, models.StudyPlan{Key: plan.Key, Label: plan.Label, Subjects: subjects})
	}
	return models.PlanConfig{Plans: plans}
}

func planConfigResponse(cfg models.PlanConfig) dto.PlanConfigResponse {
	plans := make([]dto.PlanPayload, 0, len(cfg.Plans))
	for _, plan := range cfg.Plans {
		subjects := make([]dto.PlanSubjectPayload, 0, len(plan.Subjects))
		for _, subject := range plan.Subjects {
			subjects = append(subjects, dto.PlanSubjectPayload{Key: subject.Key, Label: subject.Label, FullMark: subject.FullMark})
		}
		plans = append(plans, dto.PlanPayload{Key: plan.Key, Label: cfg.Label(plan.Key), Subjects: subjects})
	}
	return dto.PlanConfigResponse{Plans: plans}
}
