package ledger

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB creates a GORM handle over a sqlmock connection, the same way the
// production code talks to postgres.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestFindDriverQueriesByDocumentID(t *testing.T) {
	gormDB, mock := newMockDB(t)
	l := NewGormLedger(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "drivers" WHERE document_id = \$1 .* LIMIT \$[0-9]+`).
		WithArgs("D-1001", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "plate_number"}).
			AddRow(1, "D-1001", "ABC123"))

	driver, err := l.FindDriver(context.Background(), "D-1001")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", driver.PlateNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReleaseLosingRaceReportsNotFound replays the interleaving where a rival
// release commits between this transaction's read and its delete: the lookup
// still sees the row, but the delete then removes nothing. The losing release
// must roll back and report not found instead of archiving a second exit.
func TestReleaseLosingRaceReportsNotFound(t *testing.T) {
	gormDB, mock := newMockDB(t)
	l := NewGormLedger(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "vehicles_in" WHERE plate_number = \$1`).
		WithArgs("ABC123", 1).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "plate_number", "vehicle_class"}).
			AddRow("1-ABC123", "ABC123", "four_wheel"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "vehicles_in"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "vehicles_in" WHERE vehicle_class = \$1`).
		WithArgs("four_wheel").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM "vehicles_in" WHERE transaction_id = \$1`).
		WithArgs("1-ABC123").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := l.Release(context.Background(), "ABC123", "5:45:00 PM")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "the losing release must not archive or patch anything")
}

func TestFindDriverNotFound(t *testing.T) {
	gormDB, mock := newMockDB(t)
	l := NewGormLedger(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "drivers" WHERE document_id = \$1 .* LIMIT \$[0-9]+`).
		WithArgs("MISSING", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "plate_number"}))

	_, err := l.FindDriver(context.Background(), "MISSING")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
