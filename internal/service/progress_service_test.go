package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/models"
)

type mockProgressRepo struct {
	resources map[string]models.ResourceProgress
	summaries map[string]models.CourseProgress
}

func progressKey(userID, courseID string) string { return userID + "/" + courseID }

func (m *mockProgressRepo) FindResourceProgress(ctx context.Context, userID, resourceID string) (*models.ResourceProgress, error) {
	if p, ok := m.resources[userID+"/"+resourceID]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgressRepo) UpsertResourceProgress(ctx context.Context, progress *models.ResourceProgress) error {
	if m.resources == nil {
		m.resources = make(map[string]models.ResourceProgress)
	}
	m.resources[progress.UserID+"/"+progress.ResourceID] = *progress
	return nil
}

func (m *mockProgressRepo) CountCompletedRequired(ctx context.Context, userID, courseID string) (int, error) {
	count := 0
	for _, p := range m.resources {
		if p.UserID == userID && p.CourseID == courseID && p.Completed && p.Requirement == models.RequirementRequired {
			count++
		}
	}
	return count, nil
}

func (m *mockProgressRepo) CountCompletedSubstitutes(ctx context.Context, userID, courseID string) (int, error) {
	count := 0
	for _, p := range m.resources {
		if p.UserID == userID && p.CourseID == courseID && p.Completed && p.Requirement == models.RequirementSubstitute {
			count++
		}
	}
	return count, nil
}

func (m *mockProgressRepo) ListByCourse(ctx context.Context, userID, courseID string) ([]models.ResourceProgress, error) {
	var rows []models.ResourceProgress
	for _, p := range m.resources {
		if p.UserID == userID && p.CourseID == courseID {
			rows = append(rows, p)
		}
	}
	return rows, nil
}

func (m *mockProgressRepo) FindCourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgress, error) {
	if p, ok := m.summaries[progressKey(userID, courseID)]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

// UpsertCourseProgress mirrors the SQL non-regression clause. The argument is
// left untouched, exactly as an ExecContext upsert would leave it.
func (m *mockProgressRepo) UpsertCourseProgress(ctx context.Context, progress *models.CourseProgress) error {
	if m.summaries == nil {
		m.summaries = make(map[string]models.CourseProgress)
	}
	key := progressKey(progress.UserID, progress.CourseID)
	stored := *progress
	if existing, ok := m.summaries[key]; ok {
		stored.Completed = existing.Completed || stored.Completed
		if existing.CompletedAt != nil {
			stored.CompletedAt = existing.CompletedAt
		}
	}
	m.summaries[key] = stored
	return nil
}

type mockCourseReader struct {
	courses   map[string]*models.Course
	resources map[string]*models.CourseResource
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseReader) FindResource(ctx context.Context, id string) (*models.CourseResource, error) {
	if r, ok := m.resources[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseReader) CountRequiredResources(ctx context.Context, courseID string) (int, error) {
	count := 0
	for _, r := range m.resources {
		if r.CourseID == courseID && r.Requirement == models.RequirementRequired {
			count++
		}
	}
	return count, nil
}

type mockEvaluationReader struct {
	evaluations map[string]*models.Evaluation
	attempts    []models.EvaluationAttempt
}

func (m *mockEvaluationReader) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if e, ok := m.evaluations[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEvaluationReader) ListByCourse(ctx context.Context, courseID string) ([]models.Evaluation, error) {
	var list []models.Evaluation
	for _, e := range m.evaluations {
		if e.CourseID == courseID {
			list = append(list, *e)
		}
	}
	return list, nil
}

func (m *mockEvaluationReader) CountAttempts(ctx context.Context, evaluationID, userID string) (int, error) {
	count := 0
	for _, a := range m.attempts {
		if a.EvaluationID == evaluationID && a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockEvaluationReader) HasPassedAttempt(ctx context.Context, evaluationID, userID string) (bool, error) {
	for _, a := range m.attempts {
		if a.EvaluationID == evaluationID && a.UserID == userID && a.Passed {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEvaluationReader) CreateAttempt(ctx context.Context, attempt *models.EvaluationAttempt) error {
	if attempt.ID == "" {
		attempt.ID = "new-attempt"
	}
	m.attempts = append(m.attempts, *attempt)
	return nil
}

type mockCertificateRepo struct {
	issued map[string]models.IssuedCertificate
}

func (m *mockCertificateRepo) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	_, ok := m.issued[progressKey(userID, courseID)]
	return ok, nil
}

func (m *mockCertificateRepo) Create(ctx context.Context, cert *models.IssuedCertificate) error {
	if m.issued == nil {
		m.issued = make(map[string]models.IssuedCertificate)
	}
	cert.Serial = "serial-" + cert.CourseID
	m.issued[progressKey(cert.UserID, cert.CourseID)] = *cert
	return nil
}

func certCourse(id string) *models.Course {
	return &models.Course{ID: id, Title: "Course", Certificate: true, CertificateTemplate: "default", Status: models.CourseStatusOpen}
}

func newProgressFixture() (*mockProgressRepo, *mockCourseReader, *mockEvaluationReader, *mockCertificateRepo, *ProgressService) {
	progress := &mockProgressRepo{}
	courses := &mockCourseReader{
		courses: map[string]*models.Course{"c1": certCourse("c1")},
		resources: map[string]*models.CourseResource{
			"r1": {ID: "r1", CourseID: "c1", Requirement: models.RequirementRequired},
		},
	}
	evaluations := &mockEvaluationReader{evaluations: map[string]*models.Evaluation{}}
	certificates := &mockCertificateRepo{}
	svc := NewProgressService(progress, courses, evaluations, certificates, nil, validator.New(), zap.NewNop())
	return progress, courses, evaluations, certificates, svc
}

func TestRecomputeNoEvaluationsVacuousPass(t *testing.T) {
	_, _, _, certificates, svc := newProgressFixture()

	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r1")
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.NotNil(t, summary.CompletedAt)
	assert.Len(t, certificates.issued, 1)
}

func TestRecomputeIdempotent(t *testing.T) {
	_, _, _, certificates, svc := newProgressFixture()

	first, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r1")
	require.NoError(t, err)
	second, err := svc.Recompute(context.Background(), "u1", "c1")
	require.NoError(t, err)

	assert.Equal(t, first.Completed, second.Completed)
	assert.Len(t, certificates.issued, 1)
}

func TestRecomputeEvaluationGatesCompletion(t *testing.T) {
	_, _, evaluations, certificates, svc := newProgressFixture()
	evaluations.evaluations["ev1"] = &models.Evaluation{ID: "ev1", CourseID: "c1", PassingScore: 70}

	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r1")
	require.NoError(t, err)
	assert.False(t, summary.Completed)
	assert.Empty(t, certificates.issued)
}

func TestRecomputeIncompleteResourcesBlockCompletion(t *testing.T) {
	_, courses, _, certificates, svc := newProgressFixture()
	courses.resources["r2"] = &models.CourseResource{ID: "r2", CourseID: "c1", Requirement: models.RequirementRequired}

	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r1")
	require.NoError(t, err)
	assert.False(t, summary.Completed)
	assert.Empty(t, certificates.issued)
}

func TestCompletedNeverRegresses(t *testing.T) {
	progress, courses, _, _, svc := newProgressFixture()

	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r1")
	require.NoError(t, err)
	require.True(t, summary.Completed)
	require.NotNil(t, summary.CompletedAt)
	completedAt := summary.CompletedAt

	// A new required resource added after completion must not flip the
	// summary back to in_progress, neither in the stored row nor in the
	// value the recompute returns.
	courses.resources["r2"] = &models.CourseResource{ID: "r2", CourseID: "c1", Requirement: models.RequirementRequired}
	summary, err = svc.Recompute(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Equal(t, completedAt, summary.CompletedAt)

	stored := progress.summaries[progressKey("u1", "c1")]
	assert.True(t, stored.Completed)
}

func TestSubstitutesCoverRequiredShortfall(t *testing.T) {
	_, courses, _, certificates, svc := newProgressFixture()
	courses.resources["r2"] = &models.CourseResource{ID: "r2", CourseID: "c1", Requirement: models.RequirementSubstitute}

	// One required resource exists but only the substitute is completed.
	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r2")
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Len(t, certificates.issued, 1)
}

func TestOptionalResourcesDoNotCoverRequired(t *testing.T) {
	_, courses, _, certificates, svc := newProgressFixture()
	courses.resources["r2"] = &models.CourseResource{ID: "r2", CourseID: "c1", Requirement: models.RequirementOptional}

	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r2")
	require.NoError(t, err)
	assert.False(t, summary.Completed)
	assert.Empty(t, certificates.issued)
}

func TestSubmitAttemptMaxAttempts(t *testing.T) {
	_, _, evaluations, _, svc := newProgressFixture()
	max := 1
	evaluations.evaluations["ev1"] = &models.Evaluation{ID: "ev1", CourseID: "c1", PassingScore: 70, MaxAttempts: &max}
	evaluations.attempts = append(evaluations.attempts, models.EvaluationAttempt{EvaluationID: "ev1", UserID: "u1", Score: 40})

	_, _, err := svc.SubmitAttempt(context.Background(), "u1", SubmitAttemptRequest{EvaluationID: "ev1", Score: 90})
	require.Error(t, err)
}

// Reproduces the originally reported sequence: one required resource plus one
// evaluation. Completing the resource alone must not complete the course;
// adding a passing attempt must complete it and issue exactly one certificate.
func TestResourceThenPassingAttemptScenario(t *testing.T) {
	_, _, evaluations, certificates, svc := newProgressFixture()
	evaluations.evaluations["ev1"] = &models.Evaluation{ID: "ev1", CourseID: "c1", PassingScore: 70}

	summary, err := svc.MarkResourceCompleted(context.Background(), "u1", "c1", "r1")
	require.NoError(t, err)
	assert.False(t, summary.Completed)
	assert.Empty(t, certificates.issued)

	attempt, summary, err := svc.SubmitAttempt(context.Background(), "u1", SubmitAttemptRequest{EvaluationID: "ev1", Score: 85})
	require.NoError(t, err)
	assert.True(t, attempt.Passed)
	assert.True(t, summary.Completed)
	assert.Len(t, certificates.issued, 1)
}
