package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/internal/repository"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Insert(ctx context.Context, student *models.Student) (bool, error)
	Update(ctx context.Context, currentID string, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService implements the admin roster.
type StudentService struct {
	repo      studentRepository
	plans     planLoader
	scheduler statsScheduler
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService. scheduler may be nil.
func NewStudentService(repo studentRepository, plans planLoader, scheduler statsScheduler, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, plans: plans, scheduler: scheduler, validator: validate, logger: logger}
}

// List returns a page of the roster with per-row totals and schedules a statistics publish.
func (s *StudentService) List(ctx context.Context, query dto.StudentQuery) ([]dto.StudentResponse, *models.Pagination, error) {
	filter := models.StudentFilter{
		Search:    strings.TrimSpace(query.Search),
		StudyPlan: models.NormalizePlanKey(query.StudyPlan),
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if filter.PageSize > 500 {
		filter.PageSize = 500
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	cfg := s.plans.Load(ctx)
	items := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, studentResponse(cfg, student))
	}
	s.schedule("roster")
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one student by exam ID.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get student")
	}
	resp := studentResponse(s.plans.Load(ctx), *student)
	return &resp, nil
}

// Create adds a student. An existing exam ID is a conflict.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error) {
	cfg := s.plans.Load(ctx)
	student, err := s.buildStudent(cfg, req)
	if err != nil {
		return nil, err
	}
	inserted, err := s.repo.Insert(ctx, student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	if !inserted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "studentID already exists")
	}
	s.schedule("student created")
	resp := studentResponse(cfg, *student)
	return &resp, nil
}

// Update replaces a student. Changing the exam ID moves the record; moving onto an existing
// exam ID is a conflict.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*dto.StudentResponse, error) {
	cfg := s.plans.Load(ctx)
	student, err := s.buildStudent(cfg, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, strings.TrimSpace(id), student); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, appErrors.Clone(appErrors.ErrConflict, "studentID already exists")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
		}
	}
	s.schedule("student updated")
	resp := studentResponse(cfg, *student)
	return &resp, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.schedule("student deleted")
	return nil
}

func (s *StudentService) buildStudent(cfg models.PlanConfig, req dto.StudentRequest) (*models.Student, error) {
	req.ThID = strings.TrimSpace(req.ThID)
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Prefix = strings.TrimSpace(req.Prefix)
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.StudyPlan = models.NormalizePlanKey(req.StudyPlan)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	plan, ok := cfg.Plan(req.StudyPlan)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown study plan %s", req.StudyPlan))
	}

	scores := make(models.Scores, len(plan.Subjects))
	problems := make(map[string]string)
	for _, subject := range plan.Subjects {
		value, ok := req.Scores[subject.Key]
		if !ok {
			scores[subject.Key] = 0
			continue
		}
		if math.IsNaN(value) || value < 0 || value > subject.FullMark {
			problems[subject.Key] = fmt.Sprintf("must be between 0 and %g", subject.FullMark)
			continue
		}
		scores[subject.Key] = value
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid scores"), problems)
	}

	return &models.Student{
		StudentID: req.StudentID,
		ThID:      req.ThID,
		Prefix:    req.Prefix,
		Name:      req.Name,
		Surname:   req.Surname,
		StudyPlan: plan.Key,
		Scores:    scores,
	}, nil
}

func (s *StudentService) schedule(reason string) {
	if s.scheduler != nil {
		s.scheduler.Schedule(reason)
	}
}

func studentResponse(cfg models.PlanConfig, student models.Student) dto.StudentResponse {
	scores := make(map[string]float64, len(student.Scores))
	for key, value := range student.Scores {
		scores[key] = value
	}
	return dto.StudentResponse{
		StudentID:     student.StudentID,
		ThID:          student.ThID,
		Prefix:        student.Prefix,
		Name:          student.Name,
		Surname:       student.Surname,
		StudyPlan:     student.StudyPlan,
		PlanLabel:     cfg.Label(student.StudyPlan),
		Scores:        scores,
		Total:         cfg.Total(student.StudyPlan, student.Scores),
		TotalFullMark: cfg.FullMark(student.StudyPlan),
		UpdatedAt:     student.UpdatedAt,
	}
}
