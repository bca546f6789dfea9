package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/pkg/export"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

type reportStub struct {
	report *dto.CourseGradeReport
	err    error
}

func (r reportStub) CourseReport(context.Context, string) (*dto.CourseGradeReport, error) {
	return r.report, r.err
}

func sampleReport() *dto.CourseGradeReport {
	weights := grading.DefaultWeights()
	graded := grading.CalculateCourseGrade([]grading.GradedItem{
		{Category: grading.CategoryAssignments, Score: 45, MaxPoints: 50},
		{Category: grading.CategoryQuizzes, Score: 8, MaxPoints: 10},
	}, weights, "course-1", "Biology")
	empty := grading.CalculateCourseGrade(nil, weights, "course-1", "Biology")
	return &dto.CourseGradeReport{
		CourseID:     "course-1",
		CourseName:   "Biology",
		Weights:      weights,
		WeightsValid: true,
		Students: []dto.StudentGrade{
			{StudentID: "s1", CourseGradeResult: graded},
			{StudentID: "s2", CourseGradeResult: empty},
		},
		Statistics: grading.ComputeStatistics(grading.ScoreSet{graded.OverallPercentage}),
	}
}

func TestExportServiceCourseGradesCSV(t *testing.T) {
	svc := NewExportService(reportStub{report: sampleReport()}, ExportConfig{Enabled: true}, zap.NewNop(), nil, nil, nil)

	file, err := svc.ExportCourseGrades(context.Background(), "course-1", export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "grades_course-1_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	records, err := csv.NewReader(bytes.NewReader(file.Content)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Student", "Assignments %", "Quizzes %", "Participation %", "Attendance %", "Overall %", "Letter", "Grade Points"}, records[0])
	assert.Equal(t, "s1", records[1][0])
	assert.Equal(t, "90.00", records[1][1])
	assert.Equal(t, "", records[1][3])
	assert.Equal(t, "B", records[1][6])
	assert.Equal(t, grading.NoGrade, records[2][6])
	assert.Equal(t, "", records[2][5])
}

func TestExportServiceCourseGradesPDFAndXLSX(t *testing.T) {
	svc := NewExportService(reportStub{report: sampleReport()}, ExportConfig{Enabled: true, Title: "Term Grades"}, nil, nil, nil, nil)

	pdf, err := svc.ExportCourseGrades(context.Background(), "course-1", export.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Content, []byte("%PDF")))

	xlsx, err := svc.ExportCourseGrades(context.Background(), "course-1", export.FormatXLSX)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx.Content, []byte("PK")))
	assert.Equal(t, export.FormatXLSX.ContentType(), xlsx.ContentType)
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(reportStub{report: sampleReport()}, ExportConfig{}, nil, nil, nil, nil)

	_, err := svc.ExportCourseGrades(context.Background(), "course-1", export.FormatCSV)
	assert.True(t, errors.Is(err, appErrors.ErrExportDisabled))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(reportStub{report: sampleReport()}, ExportConfig{Enabled: true}, nil, nil, nil, nil)

	_, err := svc.ExportCourseGrades(context.Background(), "course-1", export.Format("docx"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportServicePropagatesReportError(t *testing.T) {
	svc := NewExportService(reportStub{err: appErrors.Clone(appErrors.ErrNotFound, "course not found")}, ExportConfig{Enabled: true}, nil, nil, nil, nil)

	_, err := svc.ExportCourseGrades(context.Background(), "missing", export.FormatCSV)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCurvePreviewDataset(t *testing.T) {
	preview := grading.Preview(grading.ScoreSet{49, 81}, grading.SquareRoot())

	data := CurvePreviewDataset("Quiz 3", []string{"ana"}, preview)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "ana", data.Rows[0]["Student"])
	assert.Equal(t, "70.00", data.Rows[0]["Curved %"])
	assert.Equal(t, "21.00", data.Rows[0]["Change"])
	assert.Equal(t, "#2", data.Rows[1]["Student"])
	assert.Contains(t, data.Summary[0], "SQUARE_ROOT")
}
