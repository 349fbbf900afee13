package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	"github.com/noah-isme/sma-score-portal/internal/service"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

// multipartOverhead is allowed on top of the file limit for form fields and boundaries.
const multipartOverhead = 1 << 20

type importService interface {
	Import(ctx context.Context, req service.ImportRequest) (*models.ImportReport, error)
	Fields(ctx context.Context) dto.MappingFieldsResponse
}

type templateExporter interface {
	ImportTemplate(ctx context.Context) (*service.ExportFile, error)
}

// ImportHandler exposes spreadsheet uploads.
type ImportHandler struct {
	service     importService
	templates   templateExporter
	maxFileSize int64
}

// NewImportHandler builds a new handler. maxFileSize <= 0 disables the size check.
func NewImportHandler(service importService, templates templateExporter, maxFileSize int64) *ImportHandler {
	return &ImportHandler{service: service, templates: templates, maxFileSize: maxFileSize}
}

// Import godoc
// @Summary Import scores from an xlsx workbook
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook"
// @Param mapping formData string false "Column mapping JSON"
// @Param dryRun formData bool false "Validate without writing"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /admin/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	if h.maxFileSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+multipartOverhead)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, h.tooLarge())
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, h.tooLarge())
		return
	}
	if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
		response.Error(c, appErrors.Clone(appErrors.ErrUnsupportedMedia, "only .xlsx workbooks are accepted"))
		return
	}

	var mapping *dto.ColumnMapping
	if raw := strings.TrimSpace(c.PostForm("mapping")); raw != "" {
		mapping = &dto.ColumnMapping{}
		if err := json.Unmarshal([]byte(raw), mapping); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping payload"))
			return
		}
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}

	report, err := h.service.Import(c.Request.Context(), service.ImportRequest{
		FileName: fileHeader.Filename,
		Content:  content,
		Mapping:  mapping,
		DryRun:   boolParam(c, "dryRun"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// DefaultMapping godoc
// @Summary Mappable fields and the default column mapping
// @Tags Import
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/import/mapping/default [get]
func (h *ImportHandler) DefaultMapping(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Fields(c.Request.Context()), nil)
}

// Template godoc
// @Summary Download the import template
// @Tags Import
// @Produce octet-stream
// @Success 200 {file} file
// @Router /admin/import/template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	file, err := h.templates.ImportTemplate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.FileName, file.ContentType, file.Content)
}

func (h *ImportHandler) tooLarge() error {
	return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxFileSize))
}
