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

// SettingsService reads and writes the login and display settings documents.
type SettingsService struct {
	docs      documentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(docs documentStore, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{docs: docs, validator: validate, logger: logger}
}

// All returns both settings documents.
func (s *SettingsService) All(ctx context.Context) (*dto.SettingsResponse, error) {
	login, err := s.Login(ctx)
	if err != nil {
		return nil, err
	}
	display, err := s.Display(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SettingsResponse{Login: login, Display: display}, nil
}

// Login returns the login settings, defaulting to thID when none were saved.
func (s *SettingsService) Login(ctx context.Context) (models.LoginSettings, error) {
	var settings models.LoginSettings
	if err := s.docs.Get(ctx, models.DocumentSettings, &settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultLoginSettings(), nil
		}
		return models.LoginSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load login settings")
	}
	if settings.LoginMode == "" {
		settings = models.DefaultLoginSettings()
	}
	return settings, nil
}

// SaveLogin validates and stores the login settings.
func (s *SettingsService) SaveLogin(ctx context.Context, settings models.LoginSettings) (models.LoginSettings, error) {
	if err := s.validator.Struct(settings); err != nil {
		return models.LoginSettings{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login settings payload")
	}
	if err := s.docs.Put(ctx, models.DocumentSettings, settings); err != nil {
		return models.LoginSettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save login settings")
	}
	s.logger.Info("login settings saved", zap.String("login_mode", string(settings.LoginMode)))
	return settings, nil
}

// Display returns the display settings with defaults filled in.
func (s *SettingsService) Display(ctx context.Context) (models.DisplaySettings, error) {
	var settings models.DisplaySettings
	if err := s.docs.Get(ctx, models.DocumentDisplaySettings, &settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultDisplaySettings(), nil
		}
		return models.DisplaySettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load display settings")
	}
	return settings.WithDefaults(), nil
}

// SaveDisplay validates and stores the display settings. Omitted modes take their defaults.
func (s *SettingsService) SaveDisplay(ctx context.Context, settings models.DisplaySettings) (models.DisplaySettings, error) {
	settings = settings.WithDefaults()
	if err := s.validator.Struct(settings); err != nil {
		return models.DisplaySettings{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid display settings payload")
	}
	if err := s.docs.Put(ctx, models.DocumentDisplaySettings, settings); err != nil {
		return models.DisplaySettings{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save display settings")
	}
	s.logger.Info("display settings saved",
		zap.String("score_mode", string(settings.ScoreMode)),
		zap.String("oral_mode", string(settings.OralMode)),
	)
	return settings, nil
}
