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

func TestExistsActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2 AND active = TRUE)")).
		WithArgs("u1", "c1").
		WillReturnRows(rows)

	exists, err := repo.ExistsActive(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{CourseID: "c1", UserID: "u1", Active: true, Mode: models.EnrollmentModeFree}
	err := repo.Create(context.Background(), enrollment)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEnrollmentsFiltered(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments e")).
		WithArgs("c1").
		WillReturnRows(countRows)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "course_id", "user_id", "active", "mode", "payment_id", "created_at", "updated_at", "student_name", "course_title", "amount_paid"}).
		AddRow("e1", "c1", "u1", true, string(models.EnrollmentModePaid), nil, now, now, "Ada", "Intro to Go", 49.99)
	mock.ExpectQuery("SELECT e.id, e.course_id").
		WithArgs("c1", 20, 0).
		WillReturnRows(listRows)

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{CourseID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "Ada", enrollments[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
