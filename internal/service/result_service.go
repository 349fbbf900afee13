package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

type resultStudentFinder interface {
	FindOne(ctx context.Context, lookup models.StudentLookup) (*models.Student, error)
}

type settingsReader interface {
	Login(ctx context.Context) (models.LoginSettings, error)
	Display(ctx context.Context) (models.DisplaySettings, error)
}

type publishedStatsReader interface {
	Published(ctx context.Context, planKey string) (*models.PlanStatistics, error)
}

// ResultService answers student result lookups.
type ResultService struct {
	students  resultStudentFinder
	plans     planLoader
	settings  settingsReader
	stats     publishedStatsReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs a ResultService.
func NewResultService(students resultStudentFinder, plans planLoader, settings settingsReader, stats publishedStatsReader, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{students: students, plans: plans, settings: settings, stats: stats, validator: validate, logger: logger}
}

// Lookup finds the student matching every provided identifier and shapes the result view.
func (s *ResultService) Lookup(ctx context.Context, req dto.ResultLookupRequest) (*dto.ResultResponse, error) {
	req.ThID = strings.TrimSpace(req.ThID)
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "thID must be 13 digits")
	}

	login, err := s.settings.Login(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case login.LoginMode == models.LoginModeStudentID && req.StudentID == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentID is required")
	case login.LoginMode != models.LoginModeStudentID && req.ThID == "":
		return nil, appErrors.Clone(appErrors.ErrValidation, "thID is required")
	}

	student, err := s.students.FindOne(ctx, models.StudentLookup{ThID: req.ThID, StudentID: req.StudentID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}

	display, err := s.settings.Display(ctx)
	if err != nil {
		return nil, err
	}
	cfg := s.plans.Load(ctx)
	resp := BuildResult(cfg, display, *student)

	stats, err := s.stats.Published(ctx, resp.StudyPlan)
	switch {
	case err == nil:
		resp.Stats = stats
	case errors.Is(err, appErrors.ErrNotFound):
	default:
		s.logger.Warn("failed to attach plan statistics", zap.String("plan", resp.StudyPlan), zap.Error(err))
	}
	return resp, nil
}

// BuildResult shapes one student's result under the given display settings.
func BuildResult(cfg models.PlanConfig, display models.DisplaySettings, student models.Student) *dto.ResultResponse {
	planKey := models.NormalizePlanKey(student.StudyPlan)
	subjects := cfg.Subjects(planKey)
	rows := make([]dto.SubjectScore, 0, len(subjects))
	for _, subject := range subjects {
		row := dto.SubjectScore{Key: subject.Key, Label: subject.Label, FullMark: subject.FullMark}
		if value, ok := student.Scores[subject.Key]; ok && !math.IsNaN(value) && !math.IsInf(value, 0) {
			v := value
			row.Score = &v
		}
		rows = append(rows, row)
	}

	total := cfg.Total(planKey, student.Scores)
	fullMark := cfg.FullMark(planKey)
	resp := &dto.ResultResponse{
		StudentID:     student.StudentID,
		ThID:          student.ThID,
		FullName:      student.FullName(),
		StudyPlan:     planKey,
		PlanLabel:     cfg.Label(planKey),
		Subjects:      rows,
		Total:         total,
		TotalFullMark: fullMark,
		ScoreMode:     display.ScoreMode,
		OralMode:      display.OralMode,
	}
	if display.OralMode == models.OralModeNotIncluded {
		resp.PreOral = preOralSummary(display, total, fullMark)
	}
	return resp
}

func preOralSummary(display models.DisplaySettings, total, fullMark float64) *dto.PreOralSummary {
	summary := &dto.PreOralSummary{Threshold: display.PreOralThreshold, Unit: display.PreOralUnit}
	if display.ScoreMode == models.ScoreModePercent {
		pct := total
		summary.Percent = &pct
	} else if fullMark > 0 {
		pct := total / fullMark * 100
		summary.Percent = &pct
	}

	pctText := "-"
	if summary.Percent != nil {
		pctText = strconv.FormatFloat(*summary.Percent, 'f', 2, 64)
	}
	summary.Display = pctText + "%"
	if t := display.PreOralThreshold; t != nil && !math.IsNaN(*t) {
		threshold := strconv.FormatFloat(*t, 'f', -1, 64)
		if display.PreOralUnit == models.ThresholdUnitScore {
			summary.Display += fmt.Sprintf(" / %s คะแนน", threshold)
		} else {
			summary.Display += fmt.Sprintf(" / %s%%", threshold)
		}
	}
	return summary
}
