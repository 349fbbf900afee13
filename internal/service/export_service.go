package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/export"
	"github.com/noah-isme/sma-score-portal/pkg/spreadsheet"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	contentTypeCSV = "text/csv; charset=utf-8"
	contentTypePDF = "application/pdf"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type rosterReader interface {
	ListAll(ctx context.Context) ([]models.Student, error)
}

type statisticsComputer interface {
	Compute(ctx context.Context) ([]models.PlanStatistics, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders the roster, the statistics table and the import template.
type ExportService struct {
	students rosterReader
	plans    planLoader
	stats    statisticsComputer
	csv      datasetRenderer
	pdf      datasetRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(students rosterReader, plans planLoader, stats statisticsComputer, csv, pdf datasetRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{
		students: students,
		plans:    plans,
		stats:    stats,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Roster renders every student with their scores and total.
func (s *ExportService) Roster(ctx context.Context, format string) (*ExportFile, error) {
	format = normalizeFormat(format, FormatCSV)
	if format != FormatCSV && format != FormatXLSX && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, xlsx or pdf")
	}
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	dataset := rosterDataset(s.plans.Load(ctx), students)
	return s.render(dataset, "students", format)
}

// Statistics renders the freshly computed statistics of every plan.
func (s *ExportService) Statistics(ctx context.Context, format string) (*ExportFile, error) {
	format = normalizeFormat(format, FormatPDF)
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}
	stats, err := s.stats.Compute(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(statisticsDataset(s.plans.Load(ctx), stats), "statistics", format)
}

// ImportTemplate renders an .xlsx laid out in the default mapping with two sample rows.
func (s *ExportService) ImportTemplate(ctx context.Context) (*ExportFile, error) {
	cfg := s.plans.Load(ctx)
	payload, err := spreadsheet.WriteWorkbook(spreadsheet.Sheet{Name: "Template", Rows: templateRows(cfg)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build import template")
	}
	return &ExportFile{FileName: "import_template.xlsx", ContentType: spreadsheet.ContentType, Content: payload}, nil
}

func (s *ExportService) render(dataset export.Dataset, name, format string) (*ExportFile, error) {
	var (
		payload     []byte
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = contentTypeCSV
	case FormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = contentTypePDF
	case FormatXLSX:
		rows := append([][]string{dataset.Headers}, dataset.Records()...)
		payload, err = spreadsheet.WriteWorkbook(spreadsheet.Sheet{Name: name, Rows: rows})
		contentType = spreadsheet.ContentType
	}
	if err != nil {
		s.logger.Error("failed to render export", zap.String("export", name), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	fileName := fmt.Sprintf("%s_%s.%s", name, s.now().Format("20060102_150405"), format)
	return &ExportFile{FileName: fileName, ContentType: contentType, Content: payload}, nil
}

func normalizeFormat(format, fallback string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return fallback
	}
	return format
}

func rosterDataset(cfg models.PlanConfig, students []models.Student) export.Dataset {
	headers := []string{"Exam ID", "Citizen ID", "Prefix", "Name", "Surname", "Study Plan"}
	subjectHeaders := make(map[string]string)
	seen := make(map[string]struct{})
	for _, subject := range cfg.SubjectCatalog() {
		header := subject.Label
		if _, dup := seen[header]; dup || header == "" {
			header = subject.Key
		}
		seen[header] = struct{}{}
		subjectHeaders[subject.Key] = header
		headers = append(headers, header)
	}
	headers = append(headers, "Total", "Full Mark")

	rows := make([]map[string]string, 0, len(students))
	for _, student := range students {
		planKey := models.NormalizePlanKey(student.StudyPlan)
		row := map[string]string{
			"Exam ID":    student.StudentID,
			"Citizen ID": student.ThID,
			"Prefix":     student.Prefix,
			"Name":       student.Name,
			"Surname":    student.Surname,
			"Study Plan": planKey,
			"Total":      formatScore(cfg.Total(planKey, student.Scores)),
			"Full Mark":  formatScore(cfg.FullMark(planKey)),
		}
		for _, subject := range cfg.SubjectCatalog() {
			row[subjectHeaders[subject.Key]] = "-"
		}
		for _, subject := range cfg.Subjects(planKey) {
			row[subjectHeaders[subject.Key]] = formatScore(student.Scores.Score(subject.Key))
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: "Student scores", Headers: headers, Rows: rows}
}

func statisticsDataset(cfg models.PlanConfig, stats []models.PlanStatistics) export.Dataset {
	headers := []string{"Plan", "Students", "Subject", "Full Mark", "Max", "Min", "Avg"}
	rows := make([]map[string]string, 0)
	for _, plan := range stats {
		for _, subject := range cfg.Subjects(plan.PlanKey) {
			figures := plan.Subjects[subject.Key]
			rows = append(rows, map[string]string{
				"Plan":      plan.PlanKey,
				"Students":  strconv.Itoa(plan.Count),
				"Subject":   subject.Label,
				"Full Mark": formatScore(subject.FullMark),
				"Max":       formatOptional(figures.Max),
				"Min":       formatOptional(figures.Min),
				"Avg":       formatOptional(figures.Avg),
			})
		}
	}
	return export.Dataset{Title: "Study plan statistics", Headers: headers, Rows: rows}
}

var templateHeaders = map[string]string{
	models.FieldThID:      "รหัสบัตรประชาชน",
	models.FieldStudentID: "รหัสผู้เข้าสอบ",
	models.FieldPrefix:    "คำนำหน้า",
	models.FieldName:      "ชื่อ",
	models.FieldSurname:   "นามสกุล",
	models.FieldStudyPlan: "แผนการเรียน",
}

var templateSamples = []map[string]string{
	{
		models.FieldThID:      "1234567890123",
		models.FieldStudentID: "67001",
		models.FieldPrefix:    "เด็กชาย",
		models.FieldName:      "ตัวอย่าง",
		models.FieldSurname:   "ใจดี",
	},
	{
		models.FieldThID:      "1234567890124",
		models.FieldStudentID: "67002",
		models.FieldPrefix:    "เด็กหญิง",
		models.FieldName:      "มานี",
		models.FieldSurname:   "มีตา",
	},
}

func templateRows(cfg models.PlanConfig) [][]string {
	mapping := DefaultMapping(cfg)
	width := 0
	for _, idx := range mapping.Columns {
		if idx+1 > width {
			width = idx + 1
		}
	}

	header := make([]string, width)
	for field, title := range templateHeaders {
		header[mapping.Column(field)] = title
	}
	for _, subject := range cfg.SubjectCatalog() {
		if mapping.Mapped(subject.Key) {
			header[mapping.Column(subject.Key)] = "คะแนน" + subject.Label
		}
	}

	rows := [][]string{header}
	for i, sample := range templateSamples {
		if i >= len(cfg.Plans) {
			break
		}
		plan := cfg.Plans[i]
		row := make([]string, width)
		for field, value := range sample {
			row[mapping.Column(field)] = value
		}
		row[mapping.Column(models.FieldStudyPlan)] = plan.Key
		for _, subject := range plan.Subjects {
			if mapping.Mapped(subject.Key) {
				row[mapping.Column(subject.Key)] = formatScore(math.Round(subject.FullMark * 0.8))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func formatScore(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatOptional(value *float64) string {
	if value == nil {
		return "-"
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}
