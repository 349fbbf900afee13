package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

type settingsService interface {
	All(ctx context.Context) (*dto.SettingsResponse, error)
	Display(ctx context.Context) (models.DisplaySettings, error)
	SaveLogin(ctx context.Context, settings models.LoginSettings) (models.LoginSettings, error)
	SaveDisplay(ctx context.Context, settings models.DisplaySettings) (models.DisplaySettings, error)
}

// SettingsHandler exposes the login and display settings.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get godoc
// @Summary Get login and display settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// UpdateLogin godoc
// @Summary Update login settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.LoginSettings true "Login settings"
// @Success 200 {object} response.Envelope
// @Router /admin/settings/login [put]
func (h *SettingsHandler) UpdateLogin(c *gin.Context) {
	var req models.LoginSettings
	if !bindJSON(c, &req, "invalid login settings payload") {
		return
	}
	saved, err := h.service.SaveLogin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// UpdateDisplay godoc
// @Summary Update display settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body models.DisplaySettings true "Display settings"
// @Success 200 {object} response.Envelope
// @Router /admin/settings/display [put]
func (h *SettingsHandler) UpdateDisplay(c *gin.Context) {
	var req models.DisplaySettings
	if !bindJSON(c, &req, "invalid display settings payload") {
		return
	}
	saved, err := h.service.SaveDisplay(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// PublicDisplay godoc
// @Summary Get display settings for the result page
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /settings/display [get]
func (h *SettingsHandler) PublicDisplay(c *gin.Context) {
	settings, err := h.service.Display(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
