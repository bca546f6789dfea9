package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
	"github.com/noah-isme/lms-grading-api/pkg/cache"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

type gradedItemReader interface {
	List(ctx context.Context, filter models.GradedItemFilter) ([]models.GradedItem, error)
}

type weightsResolver interface {
	Effective(ctx context.Context, courseID string) (grading.Weights, error)
}

// CourseGradeService computes weighted course grades from stored graded items.
type CourseGradeService struct {
	items   gradedItemReader
	courses courseReader
	weights weightsResolver
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCourseGradeService constructs the service.
func NewCourseGradeService(items gradedItemReader, courses courseReader, weights weightsResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *CourseGradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseGradeService{items: items, courses: courses, weights: weights, cache: cache, metrics: metrics, logger: logger}
}

// StudentGrade returns the course grade of one student.
func (s *CourseGradeService) StudentGrade(ctx context.Context, courseID, studentID string) (*grading.CourseGradeResult, error) {
	key := cache.StudentGradeKey(courseID, studentID)
	var cached grading.CourseGradeResult
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	course, weights, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	items, err := s.items.List(ctx, models.GradedItemFilter{CourseID: courseID, StudentID: studentID, ScoredOnly: true})
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load graded items")
	}
	s.metrics.ObserveDBQuery("graded_items_list", time.Since(start))

	result := grading.CalculateCourseGrade(engineItems(items), weights, course.ID, course.Name)
	s.metrics.RecordGradeCalculation(1)
	if !result.WeightsValid {
		s.logger.Warn("grade computed with invalid weights, result normalized",
			zap.String("course_id", courseID),
			zap.String("student_id", studentID),
			zap.Float64("weight_sum", weights.Sum()),
		)
	}
	s.cache.Set(ctx, key, result)
	return &result, nil
}

// CourseReport returns the grade of every student with scored work in a course along
// with class statistics over the overall percentages of students that have data.
func (s *CourseGradeService) CourseReport(ctx context.Context, courseID string) (*dto.CourseGradeReport, error) {
	key := cache.CourseReportKey(courseID)
	var cached dto.CourseGradeReport
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	course, weights, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	items, err := s.items.List(ctx, models.GradedItemFilter{CourseID: courseID, ScoredOnly: true})
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load graded items")
	}
	s.metrics.ObserveDBQuery("graded_items_list", time.Since(start))

	byStudent := make(map[string][]models.GradedItem)
	for _, item := range items {
		byStudent[item.StudentID] = append(byStudent[item.StudentID], item)
	}
	studentIDs := make([]string, 0, len(byStudent))
	for id := range byStudent {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	report := &dto.CourseGradeReport{
		CourseID:     course.ID,
		CourseName:   course.Name,
		Weights:      weights,
		WeightsValid: weights.IsValid(),
		Students:     make([]dto.StudentGrade, 0, len(studentIDs)),
		GeneratedAt:  time.Now().UTC(),
	}
	overall := make(grading.ScoreSet, 0, len(studentIDs))
	for _, id := range studentIDs {
		result := grading.CalculateCourseGrade(engineItems(byStudent[id]), weights, course.ID, course.Name)
		report.Students = append(report.Students, dto.StudentGrade{StudentID: id, CourseGradeResult: result})
		if result.HasData {
			overall = append(overall, result.OverallPercentage)
		}
	}
	report.Statistics = grading.ComputeStatistics(overall)
	s.metrics.RecordGradeCalculation(len(studentIDs))

	if !report.WeightsValid {
		s.logger.Warn("course report computed with invalid weights, results normalized",
			zap.String("course_id", courseID),
			zap.Float64("weight_sum", weights.Sum()),
		)
	}
	s.cache.Set(ctx, key, report)
	return report, nil
}

func (s *CourseGradeService) load(ctx context.Context, courseID string) (*models.Course, grading.Weights, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, grading.Weights{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, grading.Weights{}, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load course")
	}
	weights, err := s.weights.Effective(ctx, courseID)
	if err != nil {
		return nil, grading.Weights{}, err
	}
	return course, weights, nil
}

func engineItems(items []models.GradedItem) []grading.GradedItem {
	out := make([]grading.GradedItem, 0, len(items))
	for _, item := range items {
		out = append(out, item.Engine())
	}
	return out
}
