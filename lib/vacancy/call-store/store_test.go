package callstore

import (
	"testing"

	"shift-tools-backend/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestCreateIfAbsent(t *testing.T) {
	t.Run("new record check", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO "vacancy_user_calls" .* ON CONFLICT \("vacancy_user_id","call_type"\) DO NOTHING`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c1"))

		created, err := NewInstance(db).CreateIfAbsent("vu1", models.CallTypeBeforeStart, models.CallStatusSent)
		require.NoError(t, err)
		require.True(t, created)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("existing record check", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO "vacancy_user_calls"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		created, err := NewInstance(db).CreateIfAbsent("vu1", models.CallTypeBeforeStart, models.CallStatusSent)
		require.NoError(t, err)
		require.False(t, created)
	})
}

func TestSetStatus(t *testing.T) {
	t.Run("empty ids check", func(t *testing.T) {
		db, mock := newMockDB(t)

		updated, err := NewInstance(db).SetStatus(nil, models.CallTypeStart, models.CallStatusConfirm)
		require.NoError(t, err)
		require.Zero(t, updated)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("update check", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "vacancy_user_calls" SET "status"=.* WHERE vacancy_user_id in .* AND call_type = `).
			WillReturnResult(sqlmock.NewResult(0, 2))

		updated, err := NewInstance(db).SetStatus([]string{"vu1", "vu2"}, models.CallTypeStart, models.CallStatusConfirm)
		require.NoError(t, err)
		require.EqualValues(t, 2, updated)
	})
}
