package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

type gradeWeightsRepository interface {
	FindByCourse(ctx context.Context, courseID string) (*models.GradeWeights, error)
	Replace(ctx context.Context, weights *models.GradeWeights) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// GradingConfig carries grading defaults resolved from configuration.
type GradingConfig struct {
	DefaultWeights  grading.Weights
	WeightTolerance float64
	CacheTTL        time.Duration
}

func (c GradingConfig) withDefaults() GradingConfig {
	if c.DefaultWeights == (grading.Weights{}) {
		c.DefaultWeights = grading.DefaultWeights()
	}
	if c.WeightTolerance <= 0 {
		c.WeightTolerance = grading.WeightTolerance
	}
	return c
}

// GradeWeightsService manages per-course category weights.
type GradeWeightsService struct {
	repo      gradeWeightsRepository
	courses   courseReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       GradingConfig
}

// NewGradeWeightsService constructs the service.
func NewGradeWeightsService(repo gradeWeightsRepository, courses courseReader, cache *CacheService, cfg GradingConfig, validate *validator.Validate, logger *zap.Logger) *GradeWeightsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeWeightsService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger, cfg: cfg.withDefaults()}
}

// Get returns the stored weights of a course, or the configured defaults when none were saved.
func (s *GradeWeightsService) Get(ctx context.Context, courseID string) (*dto.GradeWeightsResponse, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	stored, err := s.repo.FindByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.toResponse(courseID, s.cfg.DefaultWeights, nil, true), nil
		}
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load grade weights")
	}
	return s.toResponse(courseID, stored.Weights(), stored, false), nil
}

// Effective returns the weights the aggregator should use for a course.
func (s *GradeWeightsService) Effective(ctx context.Context, courseID string) (grading.Weights, error) {
	stored, err := s.repo.FindByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.cfg.DefaultWeights, nil
		}
		return grading.Weights{}, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load grade weights")
	}
	return stored.Weights(), nil
}

// Save replaces the weight configuration of a course. Weights that are negative or
// do not sum to 1 are rejected and nothing is written.
func (s *GradeWeightsService) Save(ctx context.Context, courseID string, req dto.UpdateGradeWeightsRequest) (*dto.GradeWeightsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrValidation, err, "all four weights are required and must be between 0 and 1")
	}
	weights := req.Weights()
	if !weights.IsValidWithin(s.cfg.WeightTolerance) {
		return nil, appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("grade weights must sum to 1, got %.4f", weights.Sum()))
	}
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}

	row := models.NewGradeWeights(courseID, weights)
	if updatedBy := strings.TrimSpace(req.UpdatedBy); updatedBy != "" {
		row.UpdatedBy = &updatedBy
	}
	if err := s.repo.Replace(ctx, &row); err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to save grade weights")
	}
	if err := s.cache.InvalidateCourse(ctx, courseID); err != nil {
		s.logger.Warn("stale course grades may be served", zap.String("course_id", courseID), zap.Error(err))
	}
	s.logger.Info("grade weights replaced",
		zap.String("course_id", courseID),
		zap.Float64("assignments", weights.Assignments),
		zap.Float64("quizzes", weights.Quizzes),
		zap.Float64("participation", weights.Participation),
		zap.Float64("attendance", weights.Attendance),
	)
	return s.toResponse(courseID, weights, &row, false), nil
}

func (s *GradeWeightsService) course(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load course")
	}
	return course, nil
}

func (s *GradeWeightsService) toResponse(courseID string, w grading.Weights, row *models.GradeWeights, isDefault bool) *dto.GradeWeightsResponse {
	resp := &dto.GradeWeightsResponse{
		CourseID:      courseID,
		Assignments:   w.Assignments,
		Quizzes:       w.Quizzes,
		Participation: w.Participation,
		Attendance:    w.Attendance,
		Sum:           w.Sum(),
		Valid:         w.IsValidWithin(s.cfg.WeightTolerance),
		IsDefault:     isDefault,
	}
	if row != nil {
		resp.UpdatedBy = row.UpdatedBy
		if !row.UpdatedAt.IsZero() {
			updatedAt := row.UpdatedAt
			resp.UpdatedAt = &updatedAt
		}
	}
	return resp
}
