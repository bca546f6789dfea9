package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/lms-grading-api/internal/grading"
	"github.com/noah-isme/lms-grading-api/internal/models"
	appErrors "github.com/noah-isme/lms-grading-api/pkg/errors"
)

type fakeCourses struct {
	courses map[string]*models.Course
	err     error
}

func newFakeCourses(ids ...string) *fakeCourses {
	f := &fakeCourses{courses: make(map[string]*models.Course)}
	for _, id := range ids {
		f.courses[id] = &models.Course{ID: id, Name: "Course " + id}
	}
	return f
}

func (f *fakeCourses) FindByID(_ context.Context, id string) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type fakeWeightsRepo struct {
	stored   map[string]*models.GradeWeights
	replaced []models.GradeWeights
	err      error
}

func (f *fakeWeightsRepo) FindByCourse(_ context.Context, courseID string) (*models.GradeWeights, error) {
	if f.err != nil {
		return nil, f.err
	}
	if w, ok := f.stored[courseID]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeWeightsRepo) Replace(_ context.Context, weights *models.GradeWeights) error {
	if f.err != nil {
		return f.err
	}
	weights.UpdatedAt = time.Now().UTC()
	f.replaced = append(f.replaced, *weights)
	if f.stored == nil {
		f.stored = make(map[string]*models.GradeWeights)
	}
	f.stored[weights.CourseID] = weights
	return nil
}

type fakeGradedItems struct {
	items   []models.GradedItem
	filters []models.GradedItemFilter
	err     error
}

func (f *fakeGradedItems) List(_ context.Context, filter models.GradedItemFilter) ([]models.GradedItem, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.GradedItem
	for _, item := range f.items {
		if filter.CourseID != "" && item.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && item.StudentID != filter.StudentID {
			continue
		}
		if filter.AssignmentID != "" && item.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.ScoredOnly && !item.Scored() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// fakeCurveRepo emulates the transactional commit: updates are applied only when
// the whole callback and every write succeed.
type fakeCurveRepo struct {
	fakeGradedItems
	failWriteAt int
	apps        []models.CurveApplication
	commits     int
}

func (f *fakeCurveRepo) CommitCurve(_ context.Context, courseID, assignmentID string, fn models.CurveFunc) (*models.CurveApplication, error) {
	var locked []models.GradedItem
	for _, item := range f.items {
		if item.CourseID == courseID && item.AssignmentID == assignmentID && item.Scored() {
			locked = append(locked, item)
		}
	}
	if len(locked) == 0 {
		return nil, appErrors.ErrNothingToCurve
	}
	updates, app, err := fn(locked)
	if err != nil {
		return nil, err
	}
	staged := make(map[string]float64, len(updates))
	for i, u := range updates {
		if f.failWriteAt > 0 && i+1 == f.failWriteAt {
			return nil, sql.ErrConnDone
		}
		staged[u.ItemID] = u.Score
	}
	for i := range f.items {
		if score, ok := staged[f.items[i].ID]; ok {
			f.items[i].Score = score
		}
	}
	app.ID = "app-1"
	f.apps = append(f.apps, *app)
	f.commits++
	return app, nil
}

func (f *fakeCurveRepo) ListCurveApplications(_ context.Context, courseID string) ([]models.CurveApplication, error) {
	var out []models.CurveApplication
	for _, app := range f.apps {
		if app.CourseID == courseID {
			out = append(out, app)
		}
	}
	return out, nil
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func scoredItem(id, student, assignment string, category grading.Category, score, max float64) models.GradedItem {
	return models.GradedItem{
		ID:           id,
		CourseID:     "course-1",
		StudentID:    student,
		AssignmentID: assignment,
		Category:     category,
		Score:        score,
		MaxPoints:    max,
		Status:       models.GradedItemGraded,
	}
}
