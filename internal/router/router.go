package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-portal/internal/handler"
	"github.com/noah-isme/sma-score-portal/internal/middleware"
	"github.com/noah-isme/sma-score-portal/internal/models"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	PlanHandler       *handler.PlanHandler
	SettingsHandler   *handler.SettingsHandler
	StudentHandler    *handler.StudentHandler
	ImportHandler     *handler.ImportHandler
	StatisticsHandler *handler.StatisticsHandler
	ResultHandler     *handler.ResultHandler
	MetricsHandler    *handler.MetricsHandler
	JWTMiddleware     gin.HandlerFunc
	Logger            *zap.Logger
}

// Register wires the HTTP routes into the gin engine under prefix.
func Register(r *gin.Engine, prefix string, deps Dependencies) {
	if deps.MetricsHandler != nil {
		r.GET("/health", deps.MetricsHandler.Health)
		r.GET("/ready", deps.MetricsHandler.Ready)
		r.GET("/metrics", deps.MetricsHandler.Prometheus)
	}

	api := r.Group(prefix, middleware.ResponseMeta())

	// Public student-facing routes
	if deps.PlanHandler != nil {
		api.GET("/plans", deps.PlanHandler.Get)
	}
	if deps.SettingsHandler != nil {
		api.GET("/settings/display", deps.SettingsHandler.PublicDisplay)
	}
	results := api.Group("/results")
	if deps.ResultHandler != nil {
		results.POST("/lookup", deps.ResultHandler.Lookup)
	}
	if deps.StatisticsHandler != nil {
		results.GET("/stats/:planKey", deps.StatisticsHandler.Published)
	}

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *gin.Context) { c.Next() }
	}
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRoles(models.RoleAdmin))

	if deps.PlanHandler != nil {
		plans := admin.Group("/plans", middleware.Audit(deps.Logger, "plans"))
		plans.GET("", deps.PlanHandler.Get)
		plans.PUT("", deps.PlanHandler.Update)
	}

	if deps.SettingsHandler != nil {
		settings := admin.Group("/settings", middleware.Audit(deps.Logger, "settings"))
		settings.GET("", deps.SettingsHandler.Get)
		settings.PUT("/login", deps.SettingsHandler.UpdateLogin)
		settings.PUT("/display", deps.SettingsHandler.UpdateDisplay)
	}

	if deps.StudentHandler != nil {
		students := admin.Group("/students", middleware.Audit(deps.Logger, "students"))
		students.GET("", deps.StudentHandler.List)
		students.GET("/export", deps.StudentHandler.Export)
		students.GET("/:id", deps.StudentHandler.Get)
		students.POST("", deps.StudentHandler.Create)
		students.PUT("/:id", deps.StudentHandler.Update)
		students.DELETE("/:id", deps.StudentHandler.Delete)
	}

	if deps.ImportHandler != nil {
		imports := admin.Group("/import", middleware.Audit(deps.Logger, "import"))
		imports.POST("", deps.ImportHandler.Import)
		imports.GET("/mapping/default", deps.ImportHandler.DefaultMapping)
		imports.GET("/template", deps.ImportHandler.Template)
	}

	if deps.StatisticsHandler != nil {
		stats := admin.Group("/stats", middleware.Audit(deps.Logger, "statistics"))
		stats.GET("", deps.StatisticsHandler.List)
		stats.GET("/export", deps.StatisticsHandler.Export)
		stats.POST("/refresh", deps.StatisticsHandler.Refresh)
		stats.PUT("/:planKey/overrides", deps.StatisticsHandler.SaveOverrides)
	}
}
