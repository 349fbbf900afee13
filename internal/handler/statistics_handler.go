package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/middleware"
	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/internal/service"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

type statisticsService interface {
	Compute(ctx context.Context) ([]models.PlanStatistics, error)
	Refresh(ctx context.Context) ([]models.PlanStatistics, error)
	SaveOverrides(ctx context.Context, planKey string, custom map[string]models.StatisticOverride) (*models.PlanStatistics, error)
	PublishedCached(ctx context.Context, planKey string) (*models.PlanStatistics, bool, error)
}

type statisticsExporter interface {
	Statistics(ctx context.Context, format string) (*service.ExportFile, error)
}

// StatisticsHandler exposes per-plan statistics.
type StatisticsHandler struct {
	service  statisticsService
	exporter statisticsExporter
}

// NewStatisticsHandler builds a new handler.
func NewStatisticsHandler(service statisticsService, exporter statisticsExporter) *StatisticsHandler {
	return &StatisticsHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary Compute statistics for every plan without publishing
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *StatisticsHandler) List(c *gin.Context) {
	stats, err := h.service.Compute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Refresh godoc
// @Summary Compute and publish statistics
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats/refresh [post]
func (h *StatisticsHandler) Refresh(c *gin.Context) {
	stats, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// SaveOverrides godoc
// @Summary Replace the manual values of one plan
// @Tags Statistics
// @Accept json
// @Produce json
// @Param planKey path string true "Plan key"
// @Param payload body dto.StatisticOverridesRequest true "Overrides"
// @Success 200 {object} response.Envelope
// @Router /admin/stats/{planKey}/overrides [put]
func (h *StatisticsHandler) SaveOverrides(c *gin.Context) {
	var req dto.StatisticOverridesRequest
	if !bindJSON(c, &req, "invalid overrides payload") {
		return
	}
	stats, err := h.service.SaveOverrides(c.Request.Context(), c.Param("planKey"), req.Custom)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export the statistics table
// @Tags Statistics
// @Produce octet-stream
// @Param format query string false "pdf or csv"
// @Success 200 {file} file
// @Router /admin/stats/export [get]
func (h *StatisticsHandler) Export(c *gin.Context) {
	file, err := h.exporter.Statistics(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.FileName, file.ContentType, file.Content)
}

// Published godoc
// @Summary Published statistics of one plan
// @Tags Results
// @Produce json
// @Param planKey path string true "Plan key"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results/stats/{planKey} [get]
func (h *StatisticsHandler) Published(c *gin.Context) {
	stats, hit, err := h.service.PublishedCached(c.Request.Context(), c.Param("planKey"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.Meta(c))
}
