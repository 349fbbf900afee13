package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

type resultService interface {
	Lookup(ctx context.Context, req dto.ResultLookupRequest) (*dto.ResultResponse, error)
}

// ResultHandler serves the student result page.
type ResultHandler struct {
	service resultService
}

// NewResultHandler builds a new handler.
func NewResultHandler(service resultService) *ResultHandler {
	return &ResultHandler{service: service}
}

// Lookup godoc
// @Summary Look up a student result
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body dto.ResultLookupRequest true "Identifiers"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /results/lookup [post]
func (h *ResultHandler) Lookup(c *gin.Context) {
	var req dto.ResultLookupRequest
	if !bindJSON(c, &req, "invalid lookup payload") {
		return
	}
	result, err := h.service.Lookup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
