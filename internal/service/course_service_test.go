package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
	appErrors "github.com/now-lms/lms-api/pkg/errors"
)

type memCacheRepo struct {
	entries map[string][]byte
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: map[string][]byte{}}
}

func (m *memCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type mockCourseRepo struct {
	courses   map[string]*models.Course
	byCode    map[string]*models.Course
	listCalls int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: map[string]*models.Course{}, byCode: map[string]*models.Course{}}
}

func (m *mockCourseRepo) add(course *models.Course) {
	m.courses[course.ID] = course
	m.byCode[course.Code] = course
}

func (m *mockCourseRepo) FindByID(_ context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(_ context.Context, code string) (*models.Course, error) {
	if c, ok := m.byCode[code]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(_ context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	m.listCalls++
	var out []models.Course
	for _, c := range m.courses {
		if filter.PublicOnly && !c.Public {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) Create(_ context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "course-" + course.Code
	}
	m.add(course)
	return nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *models.Course) error {
	m.add(course)
	return nil
}

func (m *mockCourseRepo) ListSections(_ context.Context, courseID string) ([]models.CourseSection, error) {
	return nil, nil
}

func (m *mockCourseRepo) CreateSection(_ context.Context, section *models.CourseSection) error {
	section.ID = "s1"
	return nil
}

func (m *mockCourseRepo) ListResources(_ context.Context, courseID string) ([]models.CourseResource, error) {
	return nil, nil
}

func (m *mockCourseRepo) CreateResource(_ context.Context, resource *models.CourseResource) error {
	resource.ID = "r1"
	return nil
}

func newCourseFixture() (*CourseService, *mockCourseRepo) {
	repo := newMockCourseRepo()
	cacheSvc := NewCacheService(newMemCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	return NewCourseService(repo, cacheSvc, time.Minute, nil, zap.NewNop()), repo
}

func TestCatalogServedFromCache(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.add(&models.Course{ID: "c1", Code: "GO101", Title: "Go Basics", Status: models.CourseStatusOpen, Public: true})

	first, _, hit, err := svc.ListPublic(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first, 1)

	second, _, hit, err := svc.ListPublic(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.listCalls)
}

func TestCatalogOnlyOpenPublicCourses(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.add(&models.Course{ID: "c1", Code: "GO101", Status: models.CourseStatusOpen, Public: true})
	repo.add(&models.Course{ID: "c2", Code: "GO102", Status: models.CourseStatusDraft, Public: true})
	repo.add(&models.Course{ID: "c3", Code: "GO103", Status: models.CourseStatusOpen, Public: false})

	courses, _, _, err := svc.ListPublic(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "c1", courses[0].ID)
}

func TestCourseWriteInvalidatesCatalog(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.add(&models.Course{ID: "c1", Code: "GO101", Status: models.CourseStatusOpen, Public: true})

	_, _, _, err := svc.ListPublic(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "inst1", CreateCourseRequest{Code: "GO200", Title: "Advanced Go"})
	require.NoError(t, err)

	courses, _, hit, err := svc.ListPublic(context.Background(), models.CourseFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, courses, 1)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCreateCourseDuplicateCode(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.add(&models.Course{ID: "c1", Code: "GO101", Status: models.CourseStatusOpen})

	_, err := svc.Create(context.Background(), "inst1", CreateCourseRequest{Code: "GO101", Title: "Dup"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCreateCourseStartsAsDraft(t *testing.T) {
	svc, _ := newCourseFixture()

	course, err := svc.Create(context.Background(), "inst1", CreateCourseRequest{Code: "GO300", Title: "Concurrency"})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, "inst1", course.InstructorID)
}

func TestAddResourceRejectsUnknownRequirement(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.add(&models.Course{ID: "c1", Code: "GO101", Status: models.CourseStatusOpen})

	_, err := svc.AddResource(context.Background(), "c1", CreateResourceRequest{
		SectionID:   "s1",
		Name:        "Intro",
		Type:        models.ResourceType("youtube"),
		Requirement: models.ResourceRequirement("mandatory"),
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
