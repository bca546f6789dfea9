// Package app wires configuration, storage, services and HTTP transport together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/handler"
	"github.com/noah-isme/lms-grading-api/internal/repository"
	"github.com/noah-isme/lms-grading-api/internal/service"
	"github.com/noah-isme/lms-grading-api/pkg/cache"
	"github.com/noah-isme/lms-grading-api/pkg/config"
	"github.com/noah-isme/lms-grading-api/pkg/database"
)

// App is a fully wired grading API instance.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *sqlx.DB
	redis   *redis.Client
	metrics *service.MetricsService
	router  http.Handler
}

// New connects to PostgreSQL and, when grade caching is enabled, Redis. A Redis
// connection failure disables caching instead of failing startup.
func New(cfg *config.Config, logr *zap.Logger) (*App, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Grading.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, grade cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	return NewWithClients(cfg, logr, db, redisClient), nil
}

// NewWithClients wires the application around existing clients. redisClient may be nil.
func NewWithClients(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *App {
	if logr == nil {
		logr = zap.NewNop()
	}
	validate := validator.New()
	metrics := service.NewMetricsService()

	courseRepo := repository.NewCourseRepository(db)
	weightsRepo := repository.NewGradeWeightsRepository(db)
	itemRepo := repository.NewGradedItemRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Grading.CacheTTL, logr, cfg.Grading.CacheEnabled && redisClient != nil)

	gradingCfg := service.GradingConfig{
		DefaultWeights:  weightsFromConfig(cfg.Grading.DefaultWeights),
		WeightTolerance: cfg.Grading.WeightTolerance,
		CacheTTL:        cfg.Grading.CacheTTL,
	}
	weightsSvc := service.NewGradeWeightsService(weightsRepo, courseRepo, cacheSvc, gradingCfg, validate, logr)
	gradeSvc := service.NewCourseGradeService(itemRepo, courseRepo, weightsSvc, cacheSvc, metrics, logr)
	curveSvc := service.NewCurveService(itemRepo, cacheSvc, metrics, validate, logr)
	exportSvc := service.NewExportService(gradeSvc, service.ExportConfig{Enabled: cfg.Exports.Enabled, Title: cfg.Exports.Title}, logr, nil, nil, nil)

	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := NewRouter(cfg, logr, metrics, Handlers{
		Weights: handler.NewGradeWeightsHandler(weightsSvc),
		Grades:  handler.NewCourseGradeHandler(gradeSvc, exportSvc),
		Curves:  handler.NewCurveHandler(curveSvc),
		Metrics: handler.NewMetricsHandler(metrics, checks),
	})

	return &App{cfg: cfg, logger: logr, db: db, redis: redisClient, metrics: metrics, router: router}
}

// Handler returns the HTTP handler of the application.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", server.Addr), zap.String("env", a.cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close releases database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func weightsFromConfig(w [4]float64) grading.Weights {
	return grading.Weights{Assignments: w[0], Quizzes: w[1], Participation: w[2], Attendance: w[3]}
}
