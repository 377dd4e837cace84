package migration

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, nil))
}

func TestEnsureMigrated(t *testing.T) {
	const check = `SELECT to_regclass\('public.jobs'\) IS NOT NULL`

	t.Run("already migrated", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(check).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		var buf bytes.Buffer
		err = EnsureMigrated(context.Background(), db, newLogger(&buf), "db.local")

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), `"event":"db_migration_skip"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fresh database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(check).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_jobs_status").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_jobs_created_at").WillReturnResult(sqlmock.NewResult(0, 0))

		var buf bytes.Buffer
		err = EnsureMigrated(context.Background(), db, newLogger(&buf), "db.local")

		assert.NoError(t, err)
		assert.Contains(t, buf.String(), `"event":"db_migration_success"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("step failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(check).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnError(errors.New("permission denied"))

		var buf bytes.Buffer
		err = EnsureMigrated(context.Background(), db, newLogger(&buf), "db.local")

		assert.EqualError(t, err, "migration step create_table_jobs failed: permission denied")
		assert.Contains(t, buf.String(), `"level":"ERROR"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(check).WillReturnError(errors.New("timeout"))

		err = EnsureMigrated(context.Background(), db, newLogger(&bytes.Buffer{}), "db.local")
		assert.ErrorContains(t, err, "failed to check sentinel table")
	})
}
