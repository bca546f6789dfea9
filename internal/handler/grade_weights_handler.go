package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
	"github.com/noah-isme/lms-grading-api/pkg/response"
)

type gradeWeightsService interface {
	Get(ctx context.Context, courseID string) (*dto.GradeWeightsResponse, error)
	Save(ctx context.Context, courseID string, req dto.UpdateGradeWeightsRequest) (*dto.GradeWeightsResponse, error)
}

// GradeWeightsHandler exposes per-course weight configuration.
type GradeWeightsHandler struct {
	service gradeWeightsService
}

// NewGradeWeightsHandler builds a new handler.
func NewGradeWeightsHandler(service gradeWeightsService) *GradeWeightsHandler {
	return &GradeWeightsHandler{service: service}
}

// Get godoc
// @Summary Get course grade weights
// @Description Returns stored weights or the configured defaults when the course has none.
// @Tags GradeWeights
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{courseId}/grade-weights [get]
func (h *GradeWeightsHandler) Get(c *gin.Context) {
	weights, err := h.service.Get(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights)
}

// Update godoc
// @Summary Replace course grade weights
// @Tags GradeWeights
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.UpdateGradeWeightsRequest true "All four category weights"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{courseId}/grade-weights [put]
func (h *GradeWeightsHandler) Update(c *gin.Context) {
	var req dto.UpdateGradeWeightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade weights payload"))
		return
	}
	weights, err := h.service.Save(c.Request.Context(), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weights)
}
