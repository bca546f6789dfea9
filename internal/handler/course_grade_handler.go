package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/service"
	"github.com/noah-isme/lms-grading-api/pkg/export"
	"github.com/noah-isme/lms-grading-api/pkg/response"
)

type courseGradeService interface {
	StudentGrade(ctx context.Context, courseID, studentID string) (*grading.CourseGradeResult, error)
	CourseReport(ctx context.Context, courseID string) (*dto.CourseGradeReport, error)
}

type gradeExporter interface {
	ExportCourseGrades(ctx context.Context, courseID string, format export.Format) (*service.ExportFile, error)
}

// CourseGradeHandler exposes computed course grades.
type CourseGradeHandler struct {
	grades   courseGradeService
	exporter gradeExporter
}

// NewCourseGradeHandler builds a new handler. exporter may be nil when exports are not wired.
func NewCourseGradeHandler(grades courseGradeService, exporter gradeExporter) *CourseGradeHandler {
	return &CourseGradeHandler{grades: grades, exporter: exporter}
}

// StudentGrade godoc
// @Summary Get a student's course grade
// @Description has_data=false means nothing could be computed; weights_valid=false means the course weights do not sum to 1 and the grade was normalized.
// @Tags Grades
// @Produce json
// @Param courseId path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{courseId}/students/{studentId}/grade [get]
func (h *CourseGradeHandler) StudentGrade(c *gin.Context) {
	result, err := h.grades.StudentGrade(c.Request.Context(), c.Param("courseId"), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := map[string]interface{}{}
	if !result.WeightsValid {
		meta["warning"] = "course grade weights do not sum to 1; grade was normalized"
	}
	response.JSON(c, http.StatusOK, result, meta)
}

// CourseReport godoc
// @Summary Get grades of every student in a course
// @Tags Grades
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/grades [get]
func (h *CourseGradeHandler) CourseReport(c *gin.Context) {
	report, err := h.grades.CourseReport(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{"students": len(report.Students)})
}

// Export godoc
// @Summary Export course grades
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param courseId path string true "Course ID"
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /courses/{courseId}/grades/export [get]
func (h *CourseGradeHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		c.Status(http.StatusNotFound)
		return
	}
	format := export.Format(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	file, err := h.exporter.ExportCourseGrades(c.Request.Context(), c.Param("courseId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
