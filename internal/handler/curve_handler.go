package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
	"github.com/noah-isme/lms-grading-api/pkg/response"
)

type curveService interface {
	Statistics(ctx context.Context, courseID, assignmentID string) (*dto.AssignmentStatistics, error)
	Preview(ctx context.Context, courseID, assignmentID string, req dto.CurvePolicyRequest) (*dto.CurvePreviewResponse, error)
	Commit(ctx context.Context, courseID, assignmentID string, req dto.CurvePolicyRequest) (*dto.CurveCommitResult, error)
	History(ctx context.Context, courseID string) ([]models.CurveApplication, error)
}

var curveLabels = []struct {
	kind        grading.CurveKind
	label       string
	description string
}{
	{grading.CurveFlat, "Flat bonus", "Adds the same number of points to every score."},
	{grading.CurvePercentageBoost, "Percentage boost", "Multiplies every score by a factor."},
	{grading.CurveSquareRoot, "Square root", "Replaces each score with ten times its square root, lifting low scores the most."},
	{grading.CurveBell, "Bell curve", "Rescales scores to a target mean and standard deviation."},
}

// CurvePolicyOptions lists every curve policy with its label and parameter ranges.
func CurvePolicyOptions() []dto.CurvePolicyOption {
	ranges := grading.PolicyRanges()
	options := make([]dto.CurvePolicyOption, 0, len(curveLabels))
	for _, l := range curveLabels {
		params := ranges[l.kind]
		if params == nil {
			params = []grading.ParamRange{}
		}
		options = append(options, dto.CurvePolicyOption{Kind: l.kind, Label: l.label, Description: l.description, Params: params})
	}
	return options
}

// CurveHandler exposes assignment statistics and curve preview/commit.
type CurveHandler struct {
	service curveService
}

// NewCurveHandler builds a new handler.
func NewCurveHandler(service curveService) *CurveHandler {
	return &CurveHandler{service: service}
}

// Policies godoc
// @Summary List curve policies
// @Tags Curves
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /curve-policies [get]
func (h *CurveHandler) Policies(c *gin.Context) {
	response.JSON(c, http.StatusOK, CurvePolicyOptions())
}

// Statistics godoc
// @Summary Assignment score statistics
// @Tags Curves
// @Produce json
// @Param courseId path string true "Course ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/assignments/{assignmentId}/statistics [get]
func (h *CurveHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context(), c.Param("courseId"), c.Param("assignmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Preview godoc
// @Summary Preview a curve
// @Description Applies the policy to current scores without saving anything.
// @Tags Curves
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.CurvePolicyRequest true "Curve policy"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{courseId}/assignments/{assignmentId}/curve/preview [post]
func (h *CurveHandler) Preview(c *gin.Context) {
	req, ok := bindPolicy(c)
	if !ok {
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), c.Param("courseId"), c.Param("assignmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// Commit godoc
// @Summary Commit a curve
// @Description Rewrites every graded submission of the assignment in one transaction. Nothing is changed on failure.
// @Tags Curves
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.CurvePolicyRequest true "Curve policy"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /courses/{courseId}/assignments/{assignmentId}/curve/commit [post]
func (h *CurveHandler) Commit(c *gin.Context) {
	req, ok := bindPolicy(c)
	if !ok {
		return
	}
	result, err := h.service.Commit(c.Request.Context(), c.Param("courseId"), c.Param("assignmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// History godoc
// @Summary List committed curves of a course
// @Tags Curves
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/curves [get]
func (h *CurveHandler) History(c *gin.Context) {
	apps, err := h.service.History(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps)
}

func bindPolicy(c *gin.Context) (dto.CurvePolicyRequest, bool) {
	var req dto.CurvePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid curve policy payload"))
		return req, false
	}
	return req, true
}
