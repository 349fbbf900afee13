package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/middleware"
	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/internal/service"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func jsonContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		payload, _ = json.Marshal(v)
	}
	req, _ := http.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type schedulerMock struct {
	reasons []string
}

func (s *schedulerMock) Schedule(reason string) {
	s.reasons = append(s.reasons, reason)
}

type planServiceMock struct {
	saveErr error
	saved   *dto.PlanConfigRequest
}

func (m *planServiceMock) Get(ctx context.Context) dto.PlanConfigResponse {
	return dto.PlanConfigResponse{Plans: []dto.PlanPayload{{Key: "ISMT", Label: "ISMT"}}}
}

func (m *planServiceMock) Save(ctx context.Context, req dto.PlanConfigRequest) (*dto.PlanConfigResponse, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = &req
	return &dto.PlanConfigResponse{Plans: req.Plans}, nil
}

func TestPlanHandlerUpdateSchedulesRefresh(t *testing.T) {
	svc := &planServiceMock{}
	scheduler := &schedulerMock{}
	h := NewPlanHandler(svc, scheduler)

	body := dto.PlanConfigRequest{Plans: []dto.PlanPayload{{Key: "ISMT", Subjects: []dto.PlanSubjectPayload{{Key: "math", Label: "Math", FullMark: 40}}}}}
	c, w := jsonContext(http.MethodPut, "/admin/plans", body)
	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.saved)
	assert.Equal(t, []string{"plans"}, scheduler.reasons)
}

func TestPlanHandlerUpdateRejectsBadPayload(t *testing.T) {
	scheduler := &schedulerMock{}
	h := NewPlanHandler(&planServiceMock{}, scheduler)

	c, w := jsonContext(http.MethodPut, "/admin/plans", "invalid")
	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := NewPlanHandler(&planServiceMock{saveErr: appErrors.Clone(appErrors.ErrValidation, "duplicate plan key ISMT")}, scheduler)
	c, w = jsonContext(http.MethodPut, "/admin/plans", dto.PlanConfigRequest{})
	failing.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "duplicate plan key ISMT", decode(t, w).Error.Message)
	assert.Empty(t, scheduler.reasons)
}

type studentServiceMock struct {
	listQuery dto.StudentQuery
	createErr error
}

func (m *studentServiceMock) List(ctx context.Context, query dto.StudentQuery) ([]dto.StudentResponse, *models.Pagination, error) {
	m.listQuery = query
	return []dto.StudentResponse{{StudentID: "67001", Total: 135}}, &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11}, nil
}

func (m *studentServiceMock) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

func (m *studentServiceMock) Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.StudentResponse{StudentID: req.StudentID}, nil
}

func (m *studentServiceMock) Update(ctx context.Context, id string, req dto.StudentRequest) (*dto.StudentResponse, error) {
	return &dto.StudentResponse{StudentID: req.StudentID}, nil
}

func (m *studentServiceMock) Delete(ctx context.Context, id string) error {
	return nil
}

type exporterMock struct {
	format string
	err    error
}

func (m *exporterMock) file(name string) (*service.ExportFile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{FileName: name, ContentType: "text/csv; charset=utf-8", Content: []byte("a,b\n")}, nil
}

func (m *exporterMock) Roster(ctx context.Context, format string) (*service.ExportFile, error) {
	m.format = format
	return m.file("students.csv")
}

func (m *exporterMock) Statistics(ctx context.Context, format string) (*service.ExportFile, error) {
	m.format = format
	return m.file("statistics.pdf")
}

func (m *exporterMock) ImportTemplate(ctx context.Context) (*service.ExportFile, error) {
	return m.file("import_template.xlsx")
}

func TestStudentHandlerList(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc, &exporterMock{})

	c, w := jsonContext(http.MethodGet, "/admin/students?search=%E0%B8%AA%E0%B8%A1&plan=ISMT&page=2&limit=10", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.StudentQuery{Search: "สม", StudyPlan: "ISMT", Page: 2, PageSize: 10}, svc.listQuery)
	env := decode(t, w)
	assert.Equal(t, 11, env.Pagination.TotalCount)

	var items []dto.StudentResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Equal(t, 135.0, items[0].Total)
}

func TestStudentHandlerErrorsAndCreate(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc, &exporterMock{})

	c, w := jsonContext(http.MethodGet, "/admin/students/404", nil)
	c.Params = gin.Params{{Key: "id", Value: "404"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = jsonContext(http.MethodPost, "/admin/students", dto.StudentRequest{StudentID: "67001"})
	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.createErr = appErrors.Clone(appErrors.ErrConflict, "studentID already exists")
	c, w = jsonContext(http.MethodPost, "/admin/students", dto.StudentRequest{StudentID: "67001"})
	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = jsonContext(http.MethodDelete, "/admin/students/67001", nil)
	c.Params = gin.Params{{Key: "id", Value: "67001"}}
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
}

func TestStudentHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	h := NewStudentHandler(&studentServiceMock{}, exporter)

	c, w := jsonContext(http.MethodGet, "/admin/students/export?format=xlsx", nil)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx", exporter.format)
	assert.Equal(t, `attachment; filename="students.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())

	exporter.err = appErrors.Clone(appErrors.ErrValidation, "format must be csv, xlsx or pdf")
	c, w = jsonContext(http.MethodGet, "/admin/students/export?format=doc", nil)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type importServiceMock struct {
	req service.ImportRequest
	err error
}

func (m *importServiceMock) Import(ctx context.Context, req service.ImportRequest) (*models.ImportReport, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.ImportReport{BatchID: "b1", Written: 2, DryRun: req.DryRun}, nil
}

func (m *importServiceMock) Fields(ctx context.Context) dto.MappingFieldsResponse {
	return dto.MappingFieldsResponse{Fields: []string{"thID"}, Default: dto.ColumnMapping{StartRow: 2}}
}

func multipartContext(t *testing.T, fileName string, content []byte, fields map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/admin/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c, w
}

func TestImportHandlerPassesUploadThrough(t *testing.T) {
	svc := &importServiceMock{}
	h := NewImportHandler(svc, &exporterMock{}, 1024)

	c, w := multipartContext(t, "scores.XLSX", []byte("workbook"), map[string]string{
		"dryRun":  "true",
		"mapping": `{"startRow":3,"fixedPlan":"ISMT","columns":{"thID":"none"}}`,
	})
	h.Import(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scores.XLSX", svc.req.FileName)
	assert.Equal(t, []byte("workbook"), svc.req.Content)
	assert.True(t, svc.req.DryRun)
	require.NotNil(t, svc.req.Mapping)
	assert.Equal(t, 3, svc.req.Mapping.StartRow)
	assert.Equal(t, "none", svc.req.Mapping.Columns["thID"])
}

func TestImportHandlerRejections(t *testing.T) {
	svc := &importServiceMock{}
	h := NewImportHandler(svc, &exporterMock{}, 8)

	c, w := multipartContext(t, "", nil, map[string]string{"dryRun": "true"})
	h.Import(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = multipartContext(t, "scores.csv", []byte("a"), nil)
	h.Import(c)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	c, w = multipartContext(t, "scores.xlsx", bytes.Repeat([]byte("x"), 64), nil)
	h.Import(c)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	c, w = multipartContext(t, "scores.xlsx", []byte("a"), map[string]string{"mapping": "{"})
	h.Import(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid mapping payload", decode(t, w).Error.Message)

	svc.err = appErrors.Clone(appErrors.ErrValidation, "file is not a readable xlsx workbook")
	c, w = multipartContext(t, "scores.xlsx", []byte("a"), nil)
	h.Import(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.req.Mapping)
	assert.False(t, svc.req.DryRun)
}

func TestImportHandlerMappingAndTemplate(t *testing.T) {
	h := NewImportHandler(&importServiceMock{}, &exporterMock{}, 0)

	c, w := jsonContext(http.MethodGet, "/admin/import/mapping/default", nil)
	h.DefaultMapping(c)
	require.Equal(t, http.StatusOK, w.Code)
	var fields dto.MappingFieldsResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &fields))
	assert.Equal(t, 2, fields.Default.StartRow)

	c, w = jsonContext(http.MethodGet, "/admin/import/template", nil)
	h.Template(c)
	assert.Equal(t, `attachment; filename="import_template.xlsx"`, w.Header().Get("Content-Disposition"))
}

type statisticsServiceMock struct {
	hit     bool
	planKey string
}

func (m *statisticsServiceMock) Compute(ctx context.Context) ([]models.PlanStatistics, error) {
	return []models.PlanStatistics{{PlanKey: "ISMT"}}, nil
}

func (m *statisticsServiceMock) Refresh(ctx context.Context) ([]models.PlanStatistics, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "failed to publish statistics")
}

func (m *statisticsServiceMock) SaveOverrides(ctx context.Context, planKey string, custom map[string]models.StatisticOverride) (*models.PlanStatistics, error) {
	m.planKey = planKey
	return &models.PlanStatistics{PlanKey: planKey, Custom: custom}, nil
}

func (m *statisticsServiceMock) PublishedCached(ctx context.Context, planKey string) (*models.PlanStatistics, bool, error) {
	if planKey != "ISMT" {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "statistics not published")
	}
	return &models.PlanStatistics{PlanKey: planKey, Count: 3}, m.hit, nil
}

func TestStatisticsHandlerPublishedReportsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewStatisticsHandler(&statisticsServiceMock{hit: true}, &exporterMock{})
	r := gin.New()
	r.Use(middleware.ResponseMeta())
	r.GET("/results/stats/:planKey", h.Published)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/stats/ISMT", nil))
	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/stats/XYZ", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatisticsHandlerAdminRoutes(t *testing.T) {
	svc := &statisticsServiceMock{}
	exporter := &exporterMock{}
	h := NewStatisticsHandler(svc, exporter)

	c, w := jsonContext(http.MethodGet, "/admin/stats", nil)
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)

	c, w = jsonContext(http.MethodPost, "/admin/stats/refresh", nil)
	h.Refresh(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := map[string]interface{}{"custom": map[string]interface{}{"math": map[string]float64{"max": 40}}}
	c, w = jsonContext(http.MethodPut, "/admin/stats/ILEC/overrides", body)
	c.Params = gin.Params{{Key: "planKey", Value: "ILEC"}}
	h.SaveOverrides(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ILEC", svc.planKey)

	c, w = jsonContext(http.MethodGet, "/admin/stats/export", nil)
	h.Export(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", exporter.format)
}

type resultServiceMock struct {
	req dto.ResultLookupRequest
}

func (m *resultServiceMock) Lookup(ctx context.Context, req dto.ResultLookupRequest) (*dto.ResultResponse, error) {
	m.req = req
	if req.ThID != "1234567890123" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return &dto.ResultResponse{StudentID: "67001", Total: 120}, nil
}

func TestResultHandlerLookup(t *testing.T) {
	svc := &resultServiceMock{}
	h := NewResultHandler(svc)

	c, w := jsonContext(http.MethodPost, "/results/lookup", dto.ResultLookupRequest{ThID: "1234567890123"})
	h.Lookup(c)
	require.Equal(t, http.StatusOK, w.Code)
	var result dto.ResultResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, 120.0, result.Total)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	c, w = jsonContext(http.MethodPost, "/results/lookup", dto.ResultLookupRequest{ThID: "9999999999999"})
	h.Lookup(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = jsonContext(http.MethodPost, "/results/lookup", "[")
	h.Lookup(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type settingsServiceMock struct {
	display models.DisplaySettings
}

func (m *settingsServiceMock) All(ctx context.Context) (*dto.SettingsResponse, error) {
	return &dto.SettingsResponse{Login: models.DefaultLoginSettings(), Display: m.display}, nil
}

func (m *settingsServiceMock) Display(ctx context.Context) (models.DisplaySettings, error) {
	return m.display, nil
}

func (m *settingsServiceMock) SaveLogin(ctx context.Context, settings models.LoginSettings) (models.LoginSettings, error) {
	if settings.LoginMode != models.LoginModeThID && settings.LoginMode != models.LoginModeStudentID {
		return models.LoginSettings{}, appErrors.Clone(appErrors.ErrValidation, "invalid login settings payload")
	}
	return settings, nil
}

func (m *settingsServiceMock) SaveDisplay(ctx context.Context, settings models.DisplaySettings) (models.DisplaySettings, error) {
	m.display = settings
	return settings, nil
}

func TestSettingsHandler(t *testing.T) {
	svc := &settingsServiceMock{display: models.DefaultDisplaySettings()}
	h := NewSettingsHandler(svc)

	c, w := jsonContext(http.MethodPut, "/admin/settings/login", models.LoginSettings{LoginMode: "email"})
	h.UpdateLogin(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	threshold := 60.0
	display := models.DisplaySettings{ScoreMode: models.ScoreModePercent, OralMode: models.OralModeNotIncluded, PreOralThreshold: &threshold, PreOralUnit: models.ThresholdUnitScore}
	c, w = jsonContext(http.MethodPut, "/admin/settings/display", display)
	h.UpdateDisplay(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = jsonContext(http.MethodGet, "/settings/display", nil)
	h.PublicDisplay(c)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.DisplaySettings
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &got))
	assert.Equal(t, display, got)

	c, w = jsonContext(http.MethodGet, "/admin/settings", nil)
	h.Get(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	broken := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	broken.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	broken.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
