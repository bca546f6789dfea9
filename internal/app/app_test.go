package app

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Grading: config.GradingConfig{
			CacheEnabled:   true,
			CacheTTL:       time.Minute,
			DefaultWeights: [4]float64{0.4, 0.3, 0.2, 0.1},
		},
		Exports: config.ExportsConfig{Enabled: true, Title: "Grades"},
	}
}

func newTestApp(t *testing.T, withRedis bool) (*App, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")

	var client *redis.Client
	if withRedis {
		srv := miniredis.RunT(t)
		client = redis.NewClient(&redis.Options{Addr: srv.Addr()})
	}
	a := NewWithClients(testConfig(), zap.NewNop(), db, client)
	t.Cleanup(func() { a.Close() }) //nolint:errcheck
	return a, mock
}

func serve(a *App, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

var itemColumns = []string{"id", "course_id", "student_id", "assignment_id", "title", "category", "score", "max_points", "status", "graded_at", "updated_at"}

func TestRouterOpsAndPolicies(t *testing.T) {
	a, mock := newTestApp(t, false)

	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/health", "").Code)

	mock.ExpectPing()
	assert.Equal(t, http.StatusOK, serve(a, http.MethodGet, "/ready", "").Code)

	rec := serve(a, http.MethodGet, "/api/v1/curve-policies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BELL_CURVE")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serve(a, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestStudentGradeIsCachedInRedis(t *testing.T) {
	a, mock := newTestApp(t, true)
	now := time.Now()

	mock.ExpectQuery("FROM courses").WithArgs("bio").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).AddRow("bio", "Biology", now, now))
	mock.ExpectQuery("FROM course_grade_weights").WithArgs("bio").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM graded_items").WithArgs("bio", "s1").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("i1", "bio", "s1", "hw-1", "Lab 1", "ASSIGNMENTS", 45.0, 50.0, "GRADED", now, now).
			AddRow("i2", "bio", "s1", "q-1", "Quiz 1", "QUIZZES", 8.0, 10.0, "GRADED", now, now).
			AddRow("i3", "bio", "s1", "p-1", "Participation", "PARTICIPATION", 7.0, 10.0, "RETURNED", now, now))

	first := serve(a, http.MethodGet, "/api/v1/courses/bio/students/s1/grade", "")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := serve(a, http.MethodGet, "/api/v1/courses/bio/students/s1/grade", "")
	require.Equal(t, http.StatusOK, second.Code)
	require.NoError(t, mock.ExpectationsWereMet())

	var env struct {
		Data struct {
			OverallPercentage float64 `json:"overall_percentage"`
			LetterGrade       string  `json:"letter_grade"`
			HasData           bool    `json:"has_data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &env))
	assert.Equal(t, 82.22, env.Data.OverallPercentage)
	assert.Equal(t, "B-", env.Data.LetterGrade)
	assert.True(t, env.Data.HasData)
}

func TestCurveCommitEndToEnd(t *testing.T) {
	a, mock := newTestApp(t, false)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("bio", "hw-1").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("i1", "bio", "s1", "hw-1", "Lab 1", "ASSIGNMENTS", 49.0, 100.0, "GRADED", now, now).
			AddRow("i2", "bio", "s2", "hw-1", "Lab 1", "ASSIGNMENTS", 16.0, 20.0, "GRADED", now, now))
	mock.ExpectExec("UPDATE graded_items").WithArgs(70.0, sqlmock.AnyArg(), "i1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE graded_items").WithArgs(17.89, sqlmock.AnyArg(), "i2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO curve_applications").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := serve(a, http.MethodPost, "/api/v1/courses/bio/assignments/hw-1/curve/commit", `{"kind":"SQUARE_ROOT"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"updated":2`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCurveCommitRollbackReportsFailure(t *testing.T) {
	a, mock := newTestApp(t, false)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("bio", "hw-1").
		WillReturnRows(sqlmock.NewRows(itemColumns).
			AddRow("i1", "bio", "s1", "hw-1", "Lab 1", "ASSIGNMENTS", 60.0, 100.0, "GRADED", now, now))
	mock.ExpectExec("UPDATE graded_items").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	rec := serve(a, http.MethodPost, "/api/v1/courses/bio/assignments/hw-1/curve/commit", `{"kind":"FLAT","points":5}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "CURVE_COMMIT_FAILED")
	assert.NotContains(t, rec.Body.String(), `"updated"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocsHiddenInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = config.EnvProduction
	raw, _, err := sqlmock.New()
	require.NoError(t, err)
	a := NewWithClients(cfg, nil, sqlx.NewDb(raw, "postgres"), nil)
	defer a.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, serve(a, http.MethodGet, "/docs/index.html", "").Code)
}
