package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

type planService interface {
	Get(ctx context.Context) dto.PlanConfigResponse
	Save(ctx context.Context, req dto.PlanConfigRequest) (*dto.PlanConfigResponse, error)
}

type refreshScheduler interface {
	Schedule(reason string)
}

// PlanHandler exposes the study plan registry.
type PlanHandler struct {
	service   planService
	scheduler refreshScheduler
}

// NewPlanHandler builds a new handler. scheduler may be nil.
func NewPlanHandler(service planService, scheduler refreshScheduler) *PlanHandler {
	return &PlanHandler{service: service, scheduler: scheduler}
}

// Get godoc
// @Summary List study plans
// @Tags Plans
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *PlanHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Get(c.Request.Context()), nil)
}

// Update godoc
// @Summary Replace the study plan configuration
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.PlanConfigRequest true "Plan configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/plans [put]
func (h *PlanHandler) Update(c *gin.Context) {
	var req dto.PlanConfigRequest
	if !bindJSON(c, &req, "invalid plan configuration payload") {
		return
	}
	saved, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.scheduler != nil {
		h.scheduler.Schedule("plans")
	}
	response.JSON(c, http.StatusOK, saved, nil)
}
