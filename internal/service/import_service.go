package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/spreadsheet"
)

type importStudentWriter interface {
	Upsert(ctx context.Context, student *models.Student) error
}

type uploadArchive interface {
	Save(name string, data []byte) (string, error)
}

type statsScheduler interface {
	Schedule(reason string)
}

// ImportConfig tunes import limits.
type ImportConfig struct {
	MaxRows int
}

// ImportRequest carries one uploaded workbook. A nil Mapping selects the template layout.
type ImportRequest struct {
	FileName string
	Content  []byte
	Mapping  *dto.ColumnMapping
	DryRun   bool
}

// ImportService runs spreadsheet uploads row by row into the student store.
type ImportService struct {
	plans     planLoader
	students  importStudentWriter
	archive   uploadArchive
	scheduler statsScheduler
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ImportConfig
	now       func() time.Time
}

// NewImportService constructs an ImportService. archive, scheduler and metrics are optional.
func NewImportService(plans planLoader, students importStudentWriter, archive uploadArchive, scheduler statsScheduler, metrics *MetricsService, logger *zap.Logger, cfg ImportConfig) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		plans:     plans,
		students:  students,
		archive:   archive,
		scheduler: scheduler,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Fields returns the mappable fields together with the default mapping in letter form.
func (s *ImportService) Fields(ctx context.Context) dto.MappingFieldsResponse {
	cfg := s.plans.Load(ctx)
	return dto.MappingFieldsResponse{
		Fields:  MappingFields(cfg),
		Default: MappingLetters(DefaultMapping(cfg)),
	}
}

// Import processes the rows of the first sheet in order and stops at the first blank row.
// Each row is written before the next one is read; a failed write is reported and the import
// continues.
func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*models.ImportReport, error) {
	cfg := s.plans.Load(ctx)

	mapping := DefaultMapping(cfg)
	if req.Mapping != nil {
		resolved, err := ResolveMapping(cfg, *req.Mapping)
		if err != nil {
			return nil, err
		}
		mapping = resolved
	}

	rows, err := spreadsheet.ReadFirstSheet(bytes.NewReader(req.Content), spreadsheet.ReadOptions{
		MaxRows:         s.cfg.MaxRows,
		StopAtBlankFrom: mapping.StartRow,
	})
	if err != nil {
		if errors.Is(err, spreadsheet.ErrTooManyRows) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("sheet exceeds %d rows", s.cfg.MaxRows))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "file is not a readable xlsx workbook")
	}

	report := &models.ImportReport{
		BatchID:   uuid.NewString(),
		FileName:  req.FileName,
		StartRow:  mapping.StartRow,
		DryRun:    req.DryRun,
		Rows:      make([]models.ImportRowResult, 0, len(rows)),
		StartedAt: s.now(),
	}
	logger := s.logger.With(zap.String("batch_id", report.BatchID), zap.String("file", req.FileName))

	if !req.DryRun && s.archive != nil {
		name := archiveName(report.StartedAt, report.BatchID, req.FileName)
		stored, err := s.archive.Save(name, req.Content)
		if err != nil {
			logger.Warn("failed to archive upload", zap.Error(err))
		} else {
			report.ArchivedAs = stored
		}
	}

	for i := mapping.StartRow - 1; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("import cancelled", zap.Int("row", i+1), zap.Error(err))
			break
		}
		result, stop := s.processRow(ctx, cfg, mapping, rows[i], i+1, req.DryRun, logger)
		report.Rows = append(report.Rows, result)
		if stop {
			report.StoppedAtRow = result.Row
			break
		}
		switch result.Status {
		case models.ImportRowWritten:
			report.Written++
		case models.ImportRowValid:
			report.Valid++
		case models.ImportRowInvalid:
			report.Invalid++
		case models.ImportRowFailed:
			report.Failed++
		}
	}
	report.FinishedAt = s.now()

	s.metrics.ObserveImport(report)
	logger.Info("import finished",
		zap.Bool("dry_run", report.DryRun),
		zap.Int("written", report.Written),
		zap.Int("invalid", report.Invalid),
		zap.Int("failed", report.Failed),
		zap.Int("stopped_at_row", report.StoppedAtRow),
	)
	if report.Written > 0 && s.scheduler != nil {
		s.scheduler.Schedule("import")
	}
	return report, nil
}

func (s *ImportService) processRow(ctx context.Context, cfg models.PlanConfig, mapping models.UploadMapping, row []string, rowNumber int, dryRun bool, logger *zap.Logger) (models.ImportRowResult, bool) {
	extracted := ExtractRow(cfg, mapping, row)
	result := models.ImportRowResult{
		Row:       rowNumber,
		StudentID: extracted.Student.StudentID,
		StudyPlan: extracted.Student.StudyPlan,
	}

	if extracted.Blank {
		result.Status = models.ImportRowBlank
		result.Message = fmt.Sprintf("row %d is empty, import stopped", rowNumber)
		return result, true
	}
	if !extracted.Valid() {
		result.Status = models.ImportRowInvalid
		result.Message = extracted.Problem()
		result.Missing = extracted.Missing
		return result, false
	}

	total := extracted.Total
	result.Total = &total
	if dryRun {
		result.Status = models.ImportRowValid
		result.Message = "ready to import"
		return result, false
	}

	student := extracted.Student
	if err := s.students.Upsert(ctx, &student); err != nil {
		logger.Error("failed to write row", zap.Int("row", rowNumber), zap.String("student_id", student.StudentID), zap.Error(err))
		result.Status = models.ImportRowFailed
		result.Message = "failed to save row"
		return result, false
	}
	result.Status = models.ImportRowWritten
	result.Message = "saved"
	return result, false
}

func archiveName(at time.Time, batchID, fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.xlsx"
	}
	base = strings.NewReplacer(" ", "_", "..", ".").Replace(base)
	return fmt.Sprintf("%s/%s-%s", at.Format("2006/01/02"), batchID, base)
}
