package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/dto"
	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/pkg/export"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

type courseReportSource interface {
	CourseReport(ctx context.Context, courseID string) (*dto.CourseGradeReport, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
	Title   string
}

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders grade reports and curve previews to CSV, PDF and XLSX.
type ExportService struct {
	reports   courseReportSource
	renderers map[export.Format]datasetRenderer
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// package exporters.
func NewExportService(reports courseReportSource, cfg ExportConfig, logger *zap.Logger, csv, pdf, xlsx datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Course Grades"
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	return &ExportService{
		reports: reports,
		renderers: map[export.Format]datasetRenderer{
			export.FormatCSV:  csv,
			export.FormatPDF:  pdf,
			export.FormatXLSX: xlsx,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// ExportCourseGrades renders the grade report of a course in the requested format.
func (s *ExportService) ExportCourseGrades(ctx context.Context, courseID string, format export.Format) (*ExportFile, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrExportDisabled
	}
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	report, err := s.reports.CourseReport(ctx, courseID)
	if err != nil {
		return nil, err
	}

	content, err := s.Render(CourseReportDataset(s.cfg.Title, report), format)
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("grades_%s_%s.%s", sanitizeFilename(report.CourseID), time.Now().UTC().Format("20060102_150405"), format)
	s.logger.Info("course grades exported",
		zap.String("course_id", courseID),
		zap.String("format", string(format)),
		zap.Int("students", len(report.Students)),
	)
	return &ExportFile{Filename: filename, ContentType: format.ContentType(), Content: content}, nil
}

// Render encodes a dataset with the renderer registered for format.
func (s *ExportService) Render(data export.Dataset, format export.Format) ([]byte, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	content, err := renderer.Render(data)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInternal, err, "failed to render export")
	}
	return content, nil
}

// CourseReportDataset flattens a course grade report into export rows.
func CourseReportDataset(title string, report *dto.CourseGradeReport) export.Dataset {
	headers := []string{"Student"}
	for _, c := range grading.Categories {
		headers = append(headers, categoryHeader(c))
	}
	headers = append(headers, "Overall %", "Letter", "Grade Points")

	rows := make([]map[string]string, 0, len(report.Students))
	for _, student := range report.Students {
		row := map[string]string{"Student": student.StudentID}
		for _, c := range student.Categories {
			if c.HasData {
				row[categoryHeader(c.Category)] = formatFloat(c.Average)
			}
		}
		row["Letter"] = student.LetterGrade
		if student.HasData {
			row["Overall %"] = formatFloat(student.OverallPercentage)
			row["Grade Points"] = fmt.Sprintf("%.1f", student.GradePoints)
		}
		rows = append(rows, row)
	}

	stats := report.Statistics
	summary := []string{
		fmt.Sprintf("Course: %s (%s)", report.CourseName, report.CourseID),
		fmt.Sprintf("Weights: assignments %.2f, quizzes %.2f, participation %.2f, attendance %.2f",
			report.Weights.Assignments, report.Weights.Quizzes, report.Weights.Participation, report.Weights.Attendance),
		fmt.Sprintf("Students graded: %d", stats.Count),
	}
	if stats.Count > 0 {
		summary = append(summary, fmt.Sprintf("Mean %.2f, median %.2f, min %.2f, max %.2f, std dev %.2f",
			stats.Mean, stats.Median, stats.Min, stats.Max, stats.StdDev))
	}
	if !report.WeightsValid {
		summary = append(summary, "Warning: course weights do not sum to 1, grades were normalized")
	}

	return export.Dataset{
		Title:   fmt.Sprintf("%s - %s", title, report.CourseName),
		Summary: summary,
		Headers: headers,
		Rows:    rows,
	}
}

// CurvePreviewDataset flattens a curve preview into export rows. ids labels each
// score in order and may be shorter than the score set.
func CurvePreviewDataset(title string, ids []string, preview grading.CurvePreview) export.Dataset {
	headers := []string{"Student", "Original %", "Curved %", "Change"}
	rows := make([]map[string]string, len(preview.Original))
	for i, original := range preview.Original {
		id := fmt.Sprintf("#%d", i+1)
		if i < len(ids) && ids[i] != "" {
			id = ids[i]
		}
		rows[i] = map[string]string{
			"Student":    id,
			"Original %": formatFloat(original),
			"Curved %":   formatFloat(preview.Curved[i]),
			"Change":     formatFloat(preview.Curved[i] - original),
		}
	}
	return export.Dataset{
		Title: title,
		Summary: []string{
			fmt.Sprintf("Policy: %s", preview.Policy.Kind),
			fmt.Sprintf("Mean %.2f -> %.2f, std dev %.2f -> %.2f", preview.Before.Mean, preview.After.Mean, preview.Before.StdDev, preview.After.StdDev),
		},
		Headers: headers,
		Rows:    rows,
	}
}

func categoryHeader(c grading.Category) string {
	name := strings.ToLower(string(c))
	return strings.ToUpper(name[:1]) + name[1:] + " %"
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
