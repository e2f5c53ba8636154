package groupstore

import (
	"testing"

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

func TestLeaseAny(t *testing.T) {
	t.Run("second group leased check", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "groups" WHERE status = `).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).
				AddRow(-100, "Зміна 1", "available").
				AddRow(-200, "Зміна 2", "available"))
		// первую группу перехватили между выборкой и арендой
		mock.ExpectExec(`UPDATE "groups" SET "status"=.* WHERE id = .* AND status = `).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE "groups" SET "status"=`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		group, err := NewInstance(db).LeaseAny()
		require.NoError(t, err)
		require.NotNil(t, group)
		require.EqualValues(t, -200, group.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("group without invite link is skipped check", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "groups" WHERE status = .* AND invite_link <> ''`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "invite_link"}).
				AddRow(-100, "Зміна 1", "available", "https://t.me/+group"))
		mock.ExpectExec(`UPDATE "groups" SET "status"=.* WHERE id = .* AND status = .* AND invite_link <> ''`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		group, err := NewInstance(db).LeaseAny()
		require.NoError(t, err)
		require.NotNil(t, group)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("no groups check", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "groups"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		group, err := NewInstance(db).LeaseAny()
		require.NoError(t, err)
		require.Nil(t, group)
	})
}
