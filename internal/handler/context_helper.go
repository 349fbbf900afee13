package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

// bindJSON decodes the request body into dest and answers 400 on failure.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// boolParam reads a boolean from the form or the query string. Unparseable values are false.
func boolParam(c *gin.Context, name string) bool {
	raw := c.PostForm(name)
	if raw == "" {
		raw = c.Query(name)
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
