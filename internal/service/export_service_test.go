package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/export"
	"github.com/noah-isme/sma-score-portal/pkg/spreadsheet"
)

type rendererStub struct {
	last export.Dataset
	err  error
}

func (r *rendererStub) Render(data export.Dataset) ([]byte, error) {
	r.last = data
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-stub"), nil
}

type computeStub struct {
	stats []models.PlanStatistics
	err   error
}

func (c computeStub) Compute(ctx context.Context) ([]models.PlanStatistics, error) {
	return c.stats, c.err
}

func exportStudents() *studentStoreStub {
	return newStudentStore(
		models.Student{StudentID: "67001", ThID: "1234567890123", Prefix: "เด็กชาย", Name: "ตัวอย่าง", Surname: "ใจดี", StudyPlan: "ISMT", Scores: models.Scores{"math": 35, "science": 50, "english": 40}},
		models.Student{StudentID: "67002", ThID: "1234567890124", Name: "มานี", StudyPlan: "ILEC", Scores: models.Scores{"thai": 55.5}},
	)
}

func newExportFixture(pdf datasetRenderer, stats statisticsComputer) *ExportService {
	svc := NewExportService(exportStudents(), defaultPlans(), stats, nil, pdf, nil)
	svc.now = fixedClock
	return svc
}

func TestExportRosterCSV(t *testing.T) {
	svc := newExportFixture(nil, computeStub{})

	file, err := svc.Roster(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "students_20240301_090000.csv", file.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(file.Content, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, "Exam ID", header[0])
	assert.Equal(t, "คณิตศาสตร์", header[6])
	assert.Equal(t, []string{"Total", "Full Mark"}, header[len(header)-2:])

	first := records[1]
	assert.Equal(t, "67001", first[0])
	assert.Equal(t, "35", first[6])
	assert.Equal(t, "-", first[9])
	assert.Equal(t, "125", first[len(first)-2])
	assert.Equal(t, "150", first[len(first)-1])

	second := records[2]
	assert.Equal(t, "-", second[6])
	assert.Equal(t, "0", second[8])
	assert.Equal(t, "55.5", second[11])
	assert.Equal(t, "55.5", second[len(second)-2])
}

func TestExportRosterXLSX(t *testing.T) {
	svc := newExportFixture(nil, computeStub{})

	file, err := svc.Roster(context.Background(), "XLSX")
	require.NoError(t, err)
	assert.Equal(t, spreadsheet.ContentType, file.ContentType)

	rows, err := spreadsheet.ReadFirstSheet(bytes.NewReader(file.Content), spreadsheet.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Exam ID", rows[0][0])
	assert.Equal(t, "67002", rows[2][0])
}

func TestExportRosterRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(nil, computeStub{})
	_, err := svc.Roster(context.Background(), "docx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportStatistics(t *testing.T) {
	pdf := &rendererStub{}
	stats := []models.PlanStatistics{{
		PlanKey: "ISMT",
		Count:   2,
		Subjects: map[string]models.SubjectStatistics{
			"math": {Max: ptr(35), Min: ptr(20), Avg: ptr(27.5)},
		},
	}}
	svc := newExportFixture(pdf, computeStub{stats: stats})

	file, err := svc.Statistics(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "statistics_20240301_090000.pdf", file.FileName)
	assert.Equal(t, "application/pdf", file.ContentType)

	records := pdf.last.Records()
	require.Len(t, records, 3)
	assert.Equal(t, []string{"ISMT", "2", "คณิตศาสตร์", "40", "35.00", "20.00", "27.50"}, records[0])
	assert.Equal(t, []string{"ISMT", "2", "วิทยาศาสตร์", "60", "-", "-", "-"}, records[1])

	_, err = svc.Statistics(context.Background(), "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportStatisticsErrors(t *testing.T) {
	failing := appErrors.Clone(appErrors.ErrInternal, "failed to compute statistics")
	svc := newExportFixture(&rendererStub{}, computeStub{err: failing})
	_, err := svc.Statistics(context.Background(), FormatPDF)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	svc = newExportFixture(&rendererStub{err: errors.New("font missing")}, computeStub{})
	_, err = svc.Statistics(context.Background(), FormatPDF)
	assert.Equal(t, "failed to render export", appErrors.FromError(err).Message)
}

func TestImportTemplateRoundTrips(t *testing.T) {
	svc := newExportFixture(nil, computeStub{})

	file, err := svc.ImportTemplate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "import_template.xlsx", file.FileName)

	rows, err := spreadsheet.ReadFirstSheet(bytes.NewReader(file.Content), spreadsheet.ReadOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "รหัสบัตรประชาชน", rows[0][0])
	assert.Equal(t, "คะแนนคณิตศาสตร์", rows[0][10])
	assert.Equal(t, "ISMT", rows[1][9])
	assert.Equal(t, "32", rows[1][10])

	store := newStudentStore()
	importer := NewImportService(defaultPlans(), store, nil, nil, nil, nil, ImportConfig{})
	report, err := importer.Import(context.Background(), ImportRequest{Content: file.Content})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 120.0, store.items["67001"].Scores.Score("math")+store.items["67001"].Scores.Score("science")+store.items["67001"].Scores.Score("english"))
	assert.Equal(t, "ILEC", store.items["67002"].StudyPlan)
}
