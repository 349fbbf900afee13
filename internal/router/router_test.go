package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/handler"
	"github.com/noah-isme/sma-score-portal/internal/middleware"
	"github.com/noah-isme/sma-score-portal/internal/models"
)

type plansStub struct{}

func (plansStub) Get(ctx context.Context) dto.PlanConfigResponse {
	return dto.PlanConfigResponse{Plans: []dto.PlanPayload{{Key: "ISMT"}}}
}

func (plansStub) Save(ctx context.Context, req dto.PlanConfigRequest) (*dto.PlanConfigResponse, error) {
	return &dto.PlanConfigResponse{Plans: req.Plans}, nil
}

func engine(role models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, "/api/v1", Dependencies{
		PlanHandler:    handler.NewPlanHandler(plansStub{}, nil),
		MetricsHandler: handler.NewMetricsHandler(nil, nil),
		JWTMiddleware: func(c *gin.Context) {
			if role != "" {
				c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role})
			}
			c.Next()
		},
	})
	return r
}

func request(r *gin.Engine, method, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestRegisterPublicAndAdminRoutes(t *testing.T) {
	anonymous := engine("")
	assert.Equal(t, http.StatusOK, request(anonymous, http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, request(anonymous, http.MethodGet, "/api/v1/plans"))
	assert.Equal(t, http.StatusUnauthorized, request(anonymous, http.MethodGet, "/api/v1/admin/plans"))

	admin := engine(models.RoleAdmin)
	assert.Equal(t, http.StatusOK, request(admin, http.MethodGet, "/api/v1/admin/plans"))

	other := engine(models.UserRole("STAFF"))
	assert.Equal(t, http.StatusForbidden, request(other, http.MethodGet, "/api/v1/admin/plans"))
}
