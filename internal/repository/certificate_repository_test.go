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

func TestCertificateExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM issued_certificates WHERE user_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("u1", "c1").
		WillReturnRows(rows)

	exists, err := repo.Exists(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM issued_certificates WHERE user_id = $1 AND course_id = $2 LIMIT 1")).
		WithArgs("u1", "c2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.Exists(context.Background(), "u1", "c2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateCreateAssignsSerial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	mock.ExpectExec("INSERT INTO issued_certificates").WillReturnResult(sqlmock.NewResult(1, 1))

	cert := &models.IssuedCertificate{UserID: "u1", CourseID: "c1", Template: "default"}
	err := repo.Create(context.Background(), cert)
	require.NoError(t, err)
	assert.NotEmpty(t, cert.Serial)
	assert.False(t, cert.IssuedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateFindBySerial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCertificateRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "serial", "user_id", "course_id", "template", "file_path", "issued_at", "student_name", "course_title"}).
		AddRow("ct1", "serial-1", "u1", "c1", "default", "certificates/serial-1.pdf", now, "Ada Lovelace", "Intro to Go")
	mock.ExpectQuery("SELECT c.id, c.serial").
		WithArgs("serial-1").
		WillReturnRows(rows)

	detail, err := repo.FindBySerial(context.Background(), "serial-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", detail.StudentName)
	assert.Equal(t, "Intro to Go", detail.CourseTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}
