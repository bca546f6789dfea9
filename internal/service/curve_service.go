package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

type curveRepository interface {
	List(ctx context.Context, filter models.GradedItemFilter) ([]models.GradedItem, error)
	CommitCurve(ctx context.Context, courseID, assignmentID string, fn models.CurveFunc) (*models.CurveApplication, error)
	ListCurveApplications(ctx context.Context, courseID string) ([]models.CurveApplication, error)
}

// CurveService previews and commits grade curves for one assignment at a time.
type CurveService struct {
	repo      curveRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCurveService constructs the service.
func NewCurveService(repo curveRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CurveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurveService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Statistics summarises the current scored submissions of an assignment.
func (s *CurveService) Statistics(ctx context.Context, courseID, assignmentID string) (*dto.AssignmentStatistics, error) {
	items, err := s.scoredItems(ctx, courseID, assignmentID)
	if err != nil {
		return nil, err
	}
	stats := grading.ComputeStatistics(percentages(items))
	return &dto.AssignmentStatistics{
		CourseID:     courseID,
		AssignmentID: assignmentID,
		Statistics:   stats,
		Buckets:      dto.NewHistogramBuckets(stats),
	}, nil
}

// Preview applies a policy to the current scores without writing anything.
// Repeated previews over unchanged data return identical results.
func (s *CurveService) Preview(ctx context.Context, courseID, assignmentID string, req dto.CurvePolicyRequest) (*dto.CurvePreviewResponse, error) {
	policy, err := s.policy(req)
	if err != nil {
		return nil, err
	}
	items, err := s.scoredItems(ctx, courseID, assignmentID)
	if err != nil {
		return nil, err
	}

	preview := grading.Preview(percentages(items), policy)
	rows := make([]dto.CurvePreviewRow, len(items))
	for i, item := range items {
		rows[i] = dto.CurvePreviewRow{
			ItemID:             item.ID,
			StudentID:          item.StudentID,
			MaxPoints:          item.MaxPoints,
			OriginalScore:      item.Score,
			OriginalPercentage: preview.Original[i],
			CurvedScore:        toPoints(preview.Curved[i], item.MaxPoints),
			CurvedPercentage:   preview.Curved[i],
		}
	}
	return &dto.CurvePreviewResponse{
		CourseID:     courseID,
		AssignmentID: assignmentID,
		Policy:       policy,
		Rows:         rows,
		Before:       preview.Before,
		After:        preview.After,
	}, nil
}

// Commit applies a policy to every scored submission of an assignment in one
// transaction. Either every grade is rewritten or none is; a failed commit never
// reports a partial count.
func (s *CurveService) Commit(ctx context.Context, courseID, assignmentID string, req dto.CurvePolicyRequest) (*dto.CurveCommitResult, error) {
	policy, err := s.policy(req)
	if err != nil {
		return nil, err
	}

	result := &dto.CurveCommitResult{CourseID: courseID, AssignmentID: assignmentID}
	start := time.Now()
	app, err := s.repo.CommitCurve(ctx, courseID, assignmentID, func(items []models.GradedItem) ([]models.ScoreUpdate, *models.CurveApplication, error) {
		items = curvable(items)
		if len(items) == 0 {
			return nil, nil, appErrors.ErrNothingToCurve
		}
		preview := grading.Preview(percentages(items), policy)
		updates := make([]models.ScoreUpdate, len(items))
		for i, item := range items {
			updates[i] = models.ScoreUpdate{ItemID: item.ID, Score: toPoints(preview.Curved[i], item.MaxPoints)}
		}
		result.Before = preview.Before
		result.After = preview.After
		return updates, &models.CurveApplication{
			CourseID:     courseID,
			AssignmentID: assignmentID,
			PolicyKind:   policy.Kind,
			Points:       policy.Points,
			Factor:       policy.Factor,
			TargetMean:   policy.TargetMean,
			TargetStdDev: policy.TargetStdDev,
			UpdatedCount: len(updates),
			MeanBefore:   preview.Before.Mean,
			MeanAfter:    preview.After.Mean,
		}, nil
	})
	s.metrics.ObserveDBQuery("curve_commit", time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrNothingToCurve) {
			return nil, appErrors.Clone(appErrors.ErrNothingToCurve, "assignment has no graded submissions to curve")
		}
		s.metrics.RecordCurveCommit(false, 0)
		s.logger.Error("curve commit rolled back",
			zap.String("course_id", courseID),
			zap.String("assignment_id", assignmentID),
			zap.String("policy", string(policy.Kind)),
			zap.Error(err),
		)
		return nil, appErrors.CloneWrap(appErrors.ErrCommitFailed, err, "")
	}

	result.Application = app
	result.Updated = app.UpdatedCount
	s.metrics.RecordCurveCommit(true, result.Updated)
	if err := s.cache.InvalidateCourse(ctx, courseID); err != nil {
		s.logger.Warn("stale course grades may be served", zap.String("course_id", courseID), zap.Error(err))
	}
	s.logger.Info("curve committed",
		zap.String("course_id", courseID),
		zap.String("assignment_id", assignmentID),
		zap.String("policy", string(policy.Kind)),
		zap.Int("updated", result.Updated),
		zap.Float64("mean_before", result.Before.Mean),
		zap.Float64("mean_after", result.After.Mean),
	)
	return result, nil
}

// History lists committed curves of a course, newest first.
func (s *CurveService) History(ctx context.Context, courseID string) ([]models.CurveApplication, error) {
	apps, err := s.repo.ListCurveApplications(ctx, courseID)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to list curve history")
	}
	if apps == nil {
		apps = []models.CurveApplication{}
	}
	return apps, nil
}

func (s *CurveService) policy(req dto.CurvePolicyRequest) (grading.CurvePolicy, error) {
	if err := s.validator.Struct(req); err != nil {
		return grading.CurvePolicy{}, appErrors.CloneWrap(appErrors.ErrInvalidCurve, err, "unknown curve policy")
	}
	policy := req.Policy()
	if err := policy.Validate(); err != nil {
		return grading.CurvePolicy{}, appErrors.CloneWrap(appErrors.ErrInvalidCurve, err, err.Error())
	}
	return policy, nil
}

func (s *CurveService) scoredItems(ctx context.Context, courseID, assignmentID string) ([]models.GradedItem, error) {
	start := time.Now()
	items, err := s.repo.List(ctx, models.GradedItemFilter{CourseID: courseID, AssignmentID: assignmentID, ScoredOnly: true})
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to load graded items")
	}
	s.metrics.ObserveDBQuery("graded_items_list", time.Since(start))
	return curvable(items), nil
}

// curvable drops items whose percentage is undefined.
func curvable(items []models.GradedItem) []models.GradedItem {
	out := make([]models.GradedItem, 0, len(items))
	for _, item := range items {
		if item.MaxPoints > 0 {
			out = append(out, item)
		}
	}
	return out
}

func percentages(items []models.GradedItem) grading.ScoreSet {
	scores := make(grading.ScoreSet, len(items))
	for i, item := range items {
		scores[i] = item.Percentage()
	}
	return scores
}

func toPoints(percentage, maxPoints float64) float64 {
	return math.RoundToEven(percentage/100*maxPoints*100) / 100
}
