package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

func newCourseGradeServiceForTest(items *fakeGradedItems, weights *fakeWeightsRepo, cacheRepo CacheRepository, logger *zap.Logger) (*CourseGradeService, *MetricsService) {
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(cacheRepo, metrics, 0, logger, cacheRepo != nil)
	courses := newFakeCourses("course-1")
	weightsSvc := NewGradeWeightsService(weights, courses, cacheSvc, GradingConfig{}, nil, logger)
	return NewCourseGradeService(items, courses, weightsSvc, cacheSvc, metrics, logger), metrics
}

func TestCourseGradeServiceStudentGradeExcludesEmptyCategory(t *testing.T) {
	items := &fakeGradedItems{items: []models.GradedItem{
		scoredItem("a1", "s1", "hw-1", grading.CategoryAssignments, 45, 50),
		scoredItem("a2", "s1", "hw-2", grading.CategoryAssignments, 45, 50),
		scoredItem("q1", "s1", "quiz-1", grading.CategoryQuizzes, 8, 10),
		scoredItem("p1", "s1", "part-1", grading.CategoryParticipation, 7, 10),
		scoredItem("a3", "s2", "hw-1", grading.CategoryAssignments, 10, 50),
	}}
	svc, metrics := newCourseGradeServiceForTest(items, &fakeWeightsRepo{}, nil, zap.NewNop())

	result, err := svc.StudentGrade(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	assert.True(t, result.HasData)
	assert.True(t, result.WeightsValid)
	assert.Equal(t, 82.22, result.OverallPercentage)
	assert.Equal(t, "B-", result.LetterGrade)
	assert.InDelta(t, 2.7, result.GradePoints, 1e-9)
	assert.Equal(t, "Course course-1", result.CourseName)
	assert.Equal(t, uint64(1), metrics.Snapshot().GradeCalculations)
	require.Len(t, items.filters, 1)
	assert.True(t, items.filters[0].ScoredOnly)
}

func TestCourseGradeServiceStudentGradeNoData(t *testing.T) {
	items := &fakeGradedItems{items: []models.GradedItem{
		{ID: "x", CourseID: "course-1", StudentID: "s1", Category: grading.CategoryQuizzes, Score: 5, MaxPoints: 10, Status: models.GradedItemSubmitted},
	}}
	svc, _ := newCourseGradeServiceForTest(items, &fakeWeightsRepo{}, nil, zap.NewNop())

	result, err := svc.StudentGrade(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	assert.False(t, result.HasData)
	assert.Equal(t, grading.NoGrade, result.LetterGrade)
	assert.Zero(t, result.OverallPercentage)
}

func TestCourseGradeServiceStudentGradeUsesCache(t *testing.T) {
	items := &fakeGradedItems{items: []models.GradedItem{
		scoredItem("a1", "s1", "hw-1", grading.CategoryAssignments, 95, 100),
	}}
	svc, metrics := newCourseGradeServiceForTest(items, &fakeWeightsRepo{}, newMemoryCacheRepo(), zap.NewNop())

	first, err := svc.StudentGrade(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	items.items[0].Score = 10

	second, err := svc.StudentGrade(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, first.OverallPercentage, second.OverallPercentage)
	assert.Len(t, items.filters, 1)
	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCourseGradeServiceWarnsOnInvalidWeights(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	weights := &fakeWeightsRepo{stored: map[string]*models.GradeWeights{
		"course-1": {CourseID: "course-1", Assignments: 0.6, Quizzes: 0.6},
	}}
	items := &fakeGradedItems{items: []models.GradedItem{
		scoredItem("a1", "s1", "hw-1", grading.CategoryAssignments, 80, 100),
		scoredItem("q1", "s1", "quiz-1", grading.CategoryQuizzes, 60, 100),
	}}
	svc, _ := newCourseGradeServiceForTest(items, weights, nil, zap.New(core))

	result, err := svc.StudentGrade(context.Background(), "course-1", "s1")
	require.NoError(t, err)
	assert.False(t, result.WeightsValid)
	assert.InDelta(t, 70, result.OverallPercentage, 1e-9)
	require.Equal(t, 1, logs.FilterMessageSnippet("invalid weights").Len())
}

func TestCourseGradeServiceUnknownCourse(t *testing.T) {
	svc, _ := newCourseGradeServiceForTest(&fakeGradedItems{}, &fakeWeightsRepo{}, nil, zap.NewNop())

	_, err := svc.StudentGrade(context.Background(), "nope", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCourseGradeServiceItemsFailure(t *testing.T) {
	svc, _ := newCourseGradeServiceForTest(&fakeGradedItems{err: errors.New("db down")}, &fakeWeightsRepo{}, nil, zap.NewNop())

	_, err := svc.StudentGrade(context.Background(), "course-1", "s1")
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestCourseGradeServiceCourseReport(t *testing.T) {
	items := &fakeGradedItems{items: []models.GradedItem{
		scoredItem("b1", "s2", "hw-1", grading.CategoryAssignments, 60, 100),
		scoredItem("a1", "s1", "hw-1", grading.CategoryAssignments, 90, 100),
		scoredItem("a2", "s1", "quiz-1", grading.CategoryQuizzes, 90, 100),
	}}
	svc, metrics := newCourseGradeServiceForTest(items, &fakeWeightsRepo{}, nil, zap.NewNop())

	report, err := svc.CourseReport(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, report.Students, 2)
	assert.Equal(t, "s1", report.Students[0].StudentID)
	assert.InDelta(t, 90, report.Students[0].OverallPercentage, 1e-9)
	assert.Equal(t, "A-", report.Students[0].LetterGrade)
	assert.InDelta(t, 60, report.Students[1].OverallPercentage, 1e-9)
	assert.Equal(t, 2, report.Statistics.Count)
	assert.InDelta(t, 75, report.Statistics.Mean, 1e-9)
	assert.True(t, report.WeightsValid)
	assert.Equal(t, uint64(2), metrics.Snapshot().GradeCalculations)
}
