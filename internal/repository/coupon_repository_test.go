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

func TestCouponFindByCodeUppercases(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCouponRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "course_id", "code", "discount_type", "discount_value", "max_uses", "current_uses", "expires_at", "created_at"}).
		AddRow("cp1", "c1", "SAVE20", string(models.DiscountPercentage), 20.0, 10, 3, now.Add(time.Hour), now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, code, discount_type, discount_value, max_uses, current_uses, expires_at, created_at FROM coupons WHERE course_id = $1 AND code = $2")).
		WithArgs("c1", "SAVE20").
		WillReturnRows(rows)

	coupon, err := repo.FindByCode(context.Background(), "c1", "  save20 ")
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", coupon.Code)
	assert.Equal(t, 3, coupon.CurrentUses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponCreateNormalizesCode(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCouponRepository(db)

	mock.ExpectExec("INSERT INTO coupons").WillReturnResult(sqlmock.NewResult(1, 1))

	coupon := &models.Coupon{CourseID: "c1", Code: "welcome", DiscountType: models.DiscountFixed, DiscountValue: 5}
	err := repo.Create(context.Background(), coupon)
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", coupon.Code)
	assert.NotEmpty(t, coupon.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponIncrementUsesGuarded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCouponRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE coupons SET current_uses = current_uses + 1")).
		WithArgs("cp1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.IncrementUses(context.Background(), "cp1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Exhausted coupon: the WHERE clause matches no rows.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE coupons SET current_uses = current_uses + 1")).
		WithArgs("cp1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.IncrementUses(context.Background(), "cp1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
