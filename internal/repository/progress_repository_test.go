package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/now-lms/lms-api/internal/models"
)

func TestUpsertResourceProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	mock.ExpectExec("INSERT INTO resource_progress").WillReturnResult(sqlmock.NewResult(1, 1))

	progress := &models.ResourceProgress{
		UserID:      "u1",
		CourseID:    "c1",
		ResourceID:  "r1",
		Completed:   true,
		Requirement: models.RequirementRequired,
	}
	err := repo.UpsertResourceProgress(context.Background(), progress)
	require.NoError(t, err)
	assert.NotEmpty(t, progress.ID)
	assert.False(t, progress.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountCompletedRequired(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resource_progress")).
		WithArgs("u1", "c1", string(models.RequirementRequired)).
		WillReturnRows(rows)

	count, err := repo.CountCompletedRequired(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCourseProgress(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "completed", "completed_at", "updated_at"}).
		AddRow("p1", "u1", "c1", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, course_id, completed, completed_at, updated_at")).
		WithArgs("u1", "c1").
		WillReturnRows(rows)

	progress, err := repo.FindCourseProgress(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, progress.Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCourseProgressKeepsCompleted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	// The upsert carries the non-regression clause so a later recompute with
	// completed=false cannot undo a completed row.
	mock.ExpectExec(regexp.QuoteMeta("completed = course_progress.completed OR EXCLUDED.completed")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertCourseProgress(context.Background(), &models.CourseProgress{UserID: "u1", CourseID: "c1", Completed: false})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
