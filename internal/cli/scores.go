package cli

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/pkg/export"
)

// scoreFile is an ordered list of student ids and their percentage scores.
type scoreFile struct {
	IDs    []string
	Scores grading.ScoreSet
}

// readScores loads a score file. The first column holds the student id, the second
// the percentage score, which must lie in [0, 100]. A first row whose score does not parse is treated as a header.
func readScores(path string) (*scoreFile, error) {
	var (
		rows [][]string
		err  error
	)
	switch formatOf(path) {
	case export.FormatXLSX:
		rows, err = readXLSXRows(path)
	case export.FormatCSV:
		rows, err = readCSVRows(path)
	default:
		return nil, fmt.Errorf("unsupported score file %q: use .csv or .xlsx", path)
	}
	if err != nil {
		return nil, err
	}

	out := &scoreFile{}
	for i, row := range rows {
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%s row %d: expected student id and score", path, i+1)
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("%s row %d: invalid score %q", path, i+1, row[1])
		}
		if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 100 {
			return nil, fmt.Errorf("%s row %d: score %q must be a percentage between 0 and 100", path, i+1, row[1])
		}
		out.IDs = append(out.IDs, strings.TrimSpace(row[0]))
		out.Scores = append(out.Scores, score)
	}
	return out, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx %s: %w", path, err)
	}
	return rows, nil
}

func formatOf(path string) export.Format {
	return export.Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}
