package app

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lms-grading-api/api/swagger"
	"github.com/noah-isme/lms-grading-api/internal/handler"
	"github.com/noah-isme/lms-grading-api/internal/middleware"
	"github.com/noah-isme/lms-grading-api/internal/service"
	"github.com/noah-isme/lms-grading-api/pkg/config"
	"github.com/noah-isme/lms-grading-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-grading-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-grading-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Weights *handler.GradeWeightsHandler
	Grades  *handler.CourseGradeHandler
	Curves  *handler.CurveHandler
	Metrics *handler.MetricsHandler
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", h.Metrics.Summary)
	api.GET("/curve-policies", h.Curves.Policies)

	courses := api.Group("/courses/:courseId")
	courses.GET("/grade-weights", h.Weights.Get)
	courses.PUT("/grade-weights", h.Weights.Update)
	courses.GET("/students/:studentId/grade", h.Grades.StudentGrade)
	courses.GET("/grades", h.Grades.CourseReport)
	courses.GET("/grades/export", h.Grades.Export)
	courses.GET("/curves", h.Curves.History)

	assignments := courses.Group("/assignments/:assignmentId")
	assignments.GET("/statistics", h.Curves.Statistics)
	assignments.POST("/curve/preview", h.Curves.Preview)
	assignments.POST("/curve/commit", h.Curves.Commit)

	return r
}
