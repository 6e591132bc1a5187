package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestPurgeBeforeSQL(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, Options{TotalSlots: 100})

	cutoff := time.Now().AddDate(0, 0, -30)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "entry_records"`)).
		WithArgs(Any{}).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "daily_records"`)).
		WithArgs(Any{}).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	purged, err := s.PurgeBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByDateNotFoundSQL(t *testing.T) {
	gormDB, mock := newMockDB(t)
	s := NewGormStore(gormDB, Options{TotalSlots: 100})

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "daily_records"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "total_slots", "occupied_slots"}))

	_, err := s.GetByDate(context.Background(), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
